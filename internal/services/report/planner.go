package report

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"github.com/vadiminshakov/marketfeed/internal/services/market/collector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Plan collapses interval requests into one fetch per distinct interval name.
// The effective limit for a name is the maximum over all its requesters,
// substituting defaultLimit for requests without an explicit override.
func Plan(requests []domain.IntervalRequest, defaultLimit int) map[string]int {
	plan := make(map[string]int, len(requests))
	for _, req := range requests {
		limit := defaultLimit
		if req.HasLimit() {
			limit = req.Limit
		}
		if current, ok := plan[req.Name]; !ok || limit > current {
			plan[req.Name] = limit
		}
	}

	return plan
}

// fetchAll issues one concurrent fetch per planned interval and merges the
// results into a map keyed by interval name. Each goroutine writes only its
// own slot, so no locking is needed. The first fetch error fails the whole
// batch.
func fetchAll(ctx context.Context, provider collector.KlineProvider, pair domain.Pair, plan map[string]int, logger *zap.Logger) (map[string][]domain.Candle, error) {
	names := make([]string, 0, len(plan))
	for name := range plan {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([][]domain.Candle, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		limit := plan[name]
		logger.Debug("fetching klines",
			zap.String("pair", pair.String()),
			zap.String("interval", name),
			zap.Int("limit", limit))

		g.Go(func() error {
			candles, err := provider.GetKlines(gctx, pair, name, limit)
			if err != nil {
				return errors.Wrapf(err, "failed to fetch klines for %s interval %s with limit %d",
					pair.Symbol(), name, limit)
			}
			results[i] = candles

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := make(map[string][]domain.Candle, len(names))
	for i, name := range names {
		data[name] = results[i]
	}

	return data, nil
}
