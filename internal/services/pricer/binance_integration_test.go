//go:build integration

package pricer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/marketfeed/internal/clients"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// TestBinancePricerGetPriceIntegration calls the real Binance public API.
// Run with: go test -tags=integration ./...
func TestBinancePricerGetPriceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	// the list prices endpoint is public, no keys needed
	pricer := NewBinancePricer(clients.NewBinanceClient("", ""))
	ctx := context.Background()

	t.Run("returns price for BTC/USDT pair", func(t *testing.T) {
		pair := domain.Pair{From: "BTC", To: "USDT"}

		price, err := pricer.GetPrice(ctx, pair)
		require.NoError(t, err)
		require.True(t, price.GreaterThan(decimal.Zero), "expected price > 0 for %s, got %s", pair.String(), price.String())
		t.Logf("current %s price: %s", pair.String(), price.String())
	})

	t.Run("returns error for unknown symbol", func(t *testing.T) {
		pair := domain.Pair{From: "INVALID", To: "PAIR"}

		price, err := pricer.GetPrice(ctx, pair)

		assert.Error(t, err)
		assert.True(t, price.IsZero(), "expected zero price for unknown symbol, got %s", price.String())
	})
}
