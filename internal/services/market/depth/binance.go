package depth

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// Provider fetches an order-book snapshot for a trading pair. limit caps the
// number of levels returned per side.
type Provider interface {
	GetOrderBook(ctx context.Context, pair domain.Pair, limit int) (domain.OrderBook, error)
}

// BinanceDepthProvider implements Provider using the Binance REST API.
type BinanceDepthProvider struct {
	client *binance.Client
}

// NewBinanceDepthProvider creates a Binance-backed depth provider.
func NewBinanceDepthProvider(client *binance.Client) *BinanceDepthProvider {
	return &BinanceDepthProvider{client: client}
}

// GetOrderBook fetches the current depth snapshot from Binance.
func (p *BinanceDepthProvider) GetOrderBook(ctx context.Context, pair domain.Pair, limit int) (domain.OrderBook, error) {
	if limit <= 0 {
		return domain.OrderBook{}, errors.New("limit must be positive")
	}

	res, err := p.client.NewDepthService().
		Symbol(pair.Symbol()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return domain.OrderBook{}, errors.Wrapf(err, "failed to fetch order book from Binance for %s", pair.String())
	}

	book := domain.OrderBook{
		Bids: make([]domain.PriceLevel, len(res.Bids)),
		Asks: make([]domain.PriceLevel, len(res.Asks)),
	}
	for i, bid := range res.Bids {
		book.Bids[i] = domain.PriceLevel{Price: bid.Price, Amount: bid.Quantity}
	}
	for i, ask := range res.Asks {
		book.Asks[i] = domain.PriceLevel{Price: ask.Price, Amount: ask.Quantity}
	}

	return book, nil
}
