// Package collector fetches kline (candlestick) series from cryptocurrency
// exchanges and normalizes them into the pipeline's candle model.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// KlineProvider defines the interface for fetching kline (candlestick) data.
type KlineProvider interface {
	// GetKlines fetches historical kline data for a trading pair.
	// limit specifies the maximum number of klines to fetch;
	// interval specifies the kline interval (e.g., "1m", "5m", "1h", "4h", "1d").
	// The returned series is ordered by open time ascending and may be
	// shorter than limit if the exchange has less history.
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error)
}

// validateCandleText checks that every price/volume field of a candle holds
// parseable decimal text. Fields are kept verbatim; downstream renderers
// must see the exchange's own representation.
func validateCandleText(c *domain.Candle, idx int) error {
	fields := []struct {
		name  string
		value string
	}{
		{"open price", c.Open},
		{"high price", c.High},
		{"low price", c.Low},
		{"close price", c.Close},
		{"volume", c.Volume},
	}
	for _, f := range fields {
		if _, err := decimal.NewFromString(f.value); err != nil {
			return errors.Wrapf(err, "failed to parse %s at index %d", f.name, idx)
		}
	}
	return nil
}

// parseIntervalToDuration converts interval names like "1m", "4h" or "1d"
// into a duration. Supported units: m, h, d, w.
func parseIntervalToDuration(interval string) (time.Duration, error) {
	if interval == "" {
		return 0, fmt.Errorf("empty interval")
	}
	unit := interval[len(interval)-1]
	value := interval[:len(interval)-1]
	if value == "" {
		return 0, fmt.Errorf("invalid interval: %s", interval)
	}
	var n int64
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid interval number: %s", interval)
		}
		n = n*10 + int64(r-'0')
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported interval unit: %c", unit)
	}
}

// BinanceKlineProvider implements KlineProvider for Binance exchange.
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider.
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// GetKlines fetches kline data from Binance.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.Candle, len(klines))
	for i, k := range klines {
		candle := domain.Candle{
			OpenTime:  k.OpenTime,
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Volume:    k.Volume,
			CloseTime: k.CloseTime,
		}
		if err := validateCandleText(&candle, i); err != nil {
			return nil, err
		}
		result[i] = candle
	}

	return result, nil
}
