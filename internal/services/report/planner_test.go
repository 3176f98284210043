package report

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"go.uber.org/zap"
)

func TestPlanUsesMaxLimitAcrossRequesters(t *testing.T) {
	requests := []domain.IntervalRequest{
		{Name: "1h", Limit: 50},
		{Name: "1h"}, // no override, contributes the default
	}

	plan := Plan(requests, 100)

	assert.Equal(t, map[string]int{"1h": 100}, plan)
}

func TestPlanExplicitLimitBelowDefault(t *testing.T) {
	plan := Plan([]domain.IntervalRequest{{Name: "1h", Limit: 50}}, 100)

	assert.Equal(t, map[string]int{"1h": 50}, plan)
}

func TestPlanMultipleIntervals(t *testing.T) {
	requests := []domain.IntervalRequest{
		{Name: "1h", Limit: 200},
		{Name: "4h"},
		{Name: "1h", Limit: 60},
		{Name: "1d", Limit: 30},
	}

	plan := Plan(requests, 100)

	assert.Equal(t, map[string]int{"1h": 200, "4h": 100, "1d": 30}, plan)
}

func TestFetchAllMergesResults(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(3, 100)
	provider.data["4h"] = makeCandles(2, 200)

	pair := domain.Pair{From: "SOL", To: "USDT"}
	data, err := fetchAll(context.Background(), provider, pair, map[string]int{"1h": 10, "4h": 20}, zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, data, 2)
	assert.Len(t, data["1h"], 3)
	assert.Len(t, data["4h"], 2)
	assert.Equal(t, []int{10}, provider.limits("1h"))
	assert.Equal(t, []int{20}, provider.limits("4h"))
}

func TestFetchAllFailsFast(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(3, 100)
	provider.errs["4h"] = errors.New("connection reset")

	pair := domain.Pair{From: "SOL", To: "USDT"}
	_, err := fetchAll(context.Background(), provider, pair, map[string]int{"1h": 10, "4h": 20}, zap.NewNop())
	require.Error(t, err)

	assert.Contains(t, err.Error(), "SOLUSDT")
	assert.Contains(t, err.Error(), "interval 4h")
	assert.Contains(t, err.Error(), "limit 20")
	assert.Contains(t, err.Error(), "connection reset")
}
