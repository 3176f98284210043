package collector

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// HyperliquidKlineProvider implements KlineProvider for Hyperliquid exchange.
type HyperliquidKlineProvider struct {
	info *hyperliquid.Info
}

// NewHyperliquidKlineProvider creates a new Hyperliquid kline provider.
func NewHyperliquidKlineProvider(info *hyperliquid.Info) *HyperliquidKlineProvider {
	return &HyperliquidKlineProvider{info: info}
}

// GetKlines fetches kline data from the Hyperliquid candle snapshot API.
// The API is windowed by time rather than count, so the request overshoots
// the window by two candles and the head is trimmed after the fetch.
func (p *HyperliquidKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	if p.info == nil {
		return nil, errors.New("hyperliquid info is nil")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	dur, err := parseIntervalToDuration(interval)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid interval: %s", interval)
	}

	now := time.Now().UnixMilli()
	start := now - (int64(limit)+2)*dur.Milliseconds()

	// candles are addressed by base coin, e.g. "BTC"
	coin := strings.ToUpper(pair.From)

	snapshot, err := p.info.CandlesSnapshot(ctx, coin, interval, start, now)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch candles from Hyperliquid for %s %s", coin, interval)
	}
	if len(snapshot) == 0 {
		return nil, errors.Errorf("no candles from hyperliquid for %s %s", coin, interval)
	}
	if len(snapshot) > limit {
		snapshot = snapshot[len(snapshot)-limit:]
	}

	candles := make([]domain.Candle, len(snapshot))
	for i, c := range snapshot {
		candle := domain.Candle{
			OpenTime:  c.TimeOpen,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			CloseTime: c.TimeClose,
		}
		if err := validateCandleText(&candle, i); err != nil {
			return nil, err
		}
		candles[i] = candle
	}

	return candles, nil
}
