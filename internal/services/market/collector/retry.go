package collector

import (
	"context"

	"github.com/vadiminshakov/marketfeed/internal/domain"
	"github.com/vadiminshakov/marketfeed/pkg/retrier"
)

// retryingKlineProvider wraps a KlineProvider with exponential backoff so a
// transient exchange error does not fail a whole report build.
type retryingKlineProvider struct {
	inner KlineProvider
	retry *retrier.Retrier
}

// WithRetry decorates provider with exponential backoff retries.
func WithRetry(provider KlineProvider, opts ...retrier.Option) KlineProvider {
	return &retryingKlineProvider{
		inner: provider,
		retry: retrier.New(opts...),
	}
}

func (p *retryingKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	return retrier.DoWithData(p.retry, ctx, func(ctx context.Context) ([]domain.Candle, error) {
		return p.inner.GetKlines(ctx, pair, interval, limit)
	})
}
