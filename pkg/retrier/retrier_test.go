package retrier

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsOnFirstAttempt(t *testing.T) {
	r := New()

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRecoversAfterRetries(t *testing.T) {
	r := New(WithMaxRetries(3), WithInitialInterval(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("exchange unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	r := New(WithMaxRetries(2), WithInitialInterval(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("exchange unavailable")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange unavailable")
	// one initial attempt plus two retries
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	r := New(WithMaxRetries(5), WithInitialInterval(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("exchange unavailable")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestDoSkipsAttemptWhenAlreadyCancelled(t *testing.T) {
	r := New(WithMaxRetries(2), WithInitialInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		attempts++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
}

func TestDoWithDataReturnsValue(t *testing.T) {
	r := New()

	got, err := DoWithData(r, context.Background(), func(ctx context.Context) ([]string, error) {
		return []string{"1h", "4h"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"1h", "4h"}, got)
}

func TestDoWithDataReturnsLastError(t *testing.T) {
	r := New(WithMaxRetries(1), WithInitialInterval(time.Millisecond))

	got, err := DoWithData(r, context.Background(), func(ctx context.Context) (string, error) {
		return "", errors.New("exchange unavailable")
	})

	require.Error(t, err)
	assert.Empty(t, got)
}
