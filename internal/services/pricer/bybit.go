package pricer

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// BybitPricer reads the spot last-trade price from the Bybit V5 ticker
// endpoint.
type BybitPricer struct {
	client *bybit.Client
}

func NewBybitPricer(client *bybit.Client) *BybitPricer {
	return &BybitPricer{client: client}
}

func (p *BybitPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(pair.Symbol())

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "failed to fetch ticker from Bybit for %s", pair.String())
	}

	tickers := result.Result.Spot.List
	if len(tickers) == 0 {
		return decimal.Decimal{}, errors.Errorf("bybit API returned empty prices for %s", pair.String())
	}

	price, err := decimal.NewFromString(tickers[0].LastPrice)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "failed to parse Bybit last price for %s", pair.String())
	}

	return price, nil
}
