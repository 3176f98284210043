package collector

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// bybitMaxPerRequest is the kline page size the V5 market API allows.
const bybitMaxPerRequest = 200

// BybitKlineProvider implements KlineProvider for Bybit exchange.
type BybitKlineProvider struct {
	client *bybit.Client
}

// NewBybitKlineProvider creates a new Bybit kline provider.
func NewBybitKlineProvider(client *bybit.Client) *BybitKlineProvider {
	return &BybitKlineProvider{client: client}
}

// GetKlines fetches kline data from Bybit, paging through the V5 market API
// until limit candles are collected or history runs out.
func (p *BybitKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	bybitInterval, err := convertIntervalToBybit(interval)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid interval: %s", interval)
	}

	dur, err := parseIntervalToDuration(interval)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid interval: %s", interval)
	}

	symbol := bybit.SymbolV5(pair.Symbol())

	var allKlines []bybit.V5GetKlineItem
	remaining := limit
	var end *int64

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batchSize := remaining
		if batchSize > bybitMaxPerRequest {
			batchSize = bybitMaxPerRequest
		}

		result, err := p.client.V5().Market().GetKline(bybit.V5GetKlineParam{
			Category: bybit.CategoryV5Spot,
			Symbol:   symbol,
			Interval: bybit.Interval(bybitInterval),
			Limit:    &batchSize,
			End:      end,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch klines from Bybit for %s", pair.String())
		}
		if result == nil {
			return nil, errors.Errorf("empty result from Bybit API for %s", pair.String())
		}

		klines := result.Result.List
		if len(klines) == 0 {
			if len(allKlines) == 0 {
				return nil, errors.Errorf("no kline data returned from Bybit for %s", pair.String())
			}
			break
		}

		allKlines = append(allKlines, klines...)

		// a short page means history ran out
		if len(klines) < batchSize {
			break
		}

		remaining -= len(klines)

		// V5 pages are newest first; the next page ends just before the
		// oldest candle seen so far
		oldest, err := parseTimestamp(klines[len(klines)-1].StartTime)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse oldest start time for paging")
		}
		cursor := oldest - 1
		end = &cursor

		// small delay between pages to stay under the rate limit
		if remaining > 0 {
			time.Sleep(100 * time.Millisecond)
		}
	}

	candles, err := bybitKlinesToCandles(allKlines, dur)
	if err != nil {
		return nil, err
	}

	// V5 kline lists are newest first
	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime < candles[j].OpenTime })

	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	return candles, nil
}

// bybitKlinesToCandles converts V5 kline items into candles, keeping the
// price text verbatim. Bybit reports no close time, so one is derived from
// the open time and the interval duration.
func bybitKlinesToCandles(klines []bybit.V5GetKlineItem, dur time.Duration) ([]domain.Candle, error) {
	candles := make([]domain.Candle, len(klines))
	for i, k := range klines {
		openTime, err := parseTimestamp(k.StartTime)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse start time at index %d", i)
		}

		candle := domain.Candle{
			OpenTime:  openTime,
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Volume:    k.Volume,
			CloseTime: openTime + dur.Milliseconds() - 1,
		}
		if err := validateCandleText(&candle, i); err != nil {
			return nil, err
		}
		candles[i] = candle
	}

	return candles, nil
}

// convertIntervalToBybit converts interval names like "1m", "5m", "1h" or
// "1d" into the V5 vocabulary: minutes as a bare number ("1", "5", "60",
// "240"), days as "D", weeks as "W".
func convertIntervalToBybit(interval string) (string, error) {
	if len(interval) < 2 {
		return "", fmt.Errorf("invalid interval format: %s", interval)
	}

	unit := interval[len(interval)-1]
	var n int64
	for _, r := range interval[:len(interval)-1] {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid interval number: %s", interval)
		}
		n = n*10 + int64(r-'0')
	}

	switch unit {
	case 'm':
		return strconv.FormatInt(n, 10), nil
	case 'h':
		return strconv.FormatInt(n*60, 10), nil
	case 'd':
		return "D", nil
	case 'w':
		return "W", nil
	default:
		return "", fmt.Errorf("unsupported interval unit: %c", unit)
	}
}

// parseTimestamp converts a Bybit timestamp string (milliseconds) to int64.
func parseTimestamp(ts string) (int64, error) {
	if ts == "" {
		return 0, errors.New("empty timestamp")
	}

	msec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse timestamp: %s", ts)
	}

	return msec, nil
}
