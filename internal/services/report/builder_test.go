package report

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"go.uber.org/zap"
)

// fakeProvider serves canned candle data and records every fetch so tests
// can assert on deduplication. Fetches run concurrently, so access is locked.
type fakeProvider struct {
	mu    sync.Mutex
	data  map[string][]domain.Candle
	errs  map[string]error
	calls map[string][]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		data:  make(map[string][]domain.Candle),
		errs:  make(map[string]error),
		calls: make(map[string][]int),
	}
}

func (f *fakeProvider) GetKlines(_ context.Context, _ domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[interval] = append(f.calls[interval], limit)
	if err := f.errs[interval]; err != nil {
		return nil, err
	}

	return f.data[interval], nil
}

func (f *fakeProvider) limits(interval string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[interval]
}

func (f *fakeProvider) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, limits := range f.calls {
		n += len(limits)
	}

	return n
}

// makeCandles builds a series with strictly rising closes starting at base.
func makeCandles(n int, base float64) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		close := base + float64(i)
		openTime := int64(1700000000000) + int64(i)*3600000
		candles[i] = domain.Candle{
			OpenTime:  openTime,
			Open:      strconv.FormatFloat(close-0.5, 'f', -1, 64),
			High:      strconv.FormatFloat(close+0.5, 'f', -1, 64),
			Low:       strconv.FormatFloat(close-1, 'f', -1, 64),
			Close:     strconv.FormatFloat(close, 'f', -1, 64),
			Volume:    "10",
			CloseTime: openTime + 3599999,
		}
	}

	return candles
}

// makeConstantCandles builds a series with every price pinned to value.
func makeConstantCandles(n int, value float64) []domain.Candle {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	candles := make([]domain.Candle, n)
	for i := range candles {
		openTime := int64(1700000000000) + int64(i)*3600000
		candles[i] = domain.Candle{
			OpenTime:  openTime,
			Open:      text,
			High:      text,
			Low:       text,
			Close:     text,
			Volume:    "10",
			CloseTime: openTime + 3599999,
		}
	}

	return candles
}

func testPair() domain.Pair {
	return domain.Pair{From: "SOL", To: "USDT"}
}

func TestBuildNoRegistrations(t *testing.T) {
	provider := newFakeProvider()
	b := NewBuilder(provider, testPair(), 50, zap.NewNop())

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "No historical data intervals specified.\n", got)
	assert.Zero(t, provider.totalCalls(), "nothing registered must mean nothing fetched")
}

func TestBuildKlinesOnly(t *testing.T) {
	provider := newFakeProvider()
	provider.data["15m"] = makeCandles(2, 50)
	provider.data["1h"] = makeCandles(3, 100)

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).WithKlines("15m:20", "1h")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "\n**Klines (Price History):**\n"))
	assert.NotContains(t, got, "**Stochastic RSI:**")
	assert.Contains(t, got, "\n* Price: 15m:20\n```csv\nopen_time,open,high,low,close,volume,close_time\n")
	assert.Contains(t, got, "\n* Price: 1h\n```csv\n")

	// interval blocks are sorted by name
	assert.Less(t, strings.Index(got, "* Price: 15m:20"), strings.Index(got, "* Price: 1h"))
}

func TestBuildStochRSIOnly(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(40, 100)

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).WithStochRSI("1h:40")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, got, "**Klines (Price History):**")
	assert.Contains(t, got, "\n**Stochastic RSI:**\n")
	assert.Contains(t, got, "\n* Stochastic RSI: 1h:40\n```csv\nat,stoch_rsi_k,stoch_rsi_d\n")
}

func TestBuildDeduplicatesFetches(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(40, 100)

	b := NewBuilder(provider, testPair(), 100, zap.NewNop()).
		WithKlines("1h:50").
		WithStochRSI("1h")

	_, err := b.Build(context.Background())
	require.NoError(t, err)

	// one fetch at the maximum of the explicit limit and the default
	assert.Equal(t, []int{100}, provider.limits("1h"))
	assert.Equal(t, 1, provider.totalCalls())
}

func TestBuildMergesDuplicateRegistrations(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(3, 100)

	b := NewBuilder(provider, testPair(), 100, zap.NewNop()).
		WithKlines("1h").
		WithKlines("1h:200")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	// one heading for the merged registration, carrying the explicit limit
	assert.Equal(t, 1, strings.Count(got, "* Price: 1h"))
	assert.Contains(t, got, "\n* Price: 1h:200\n")
	assert.Equal(t, []int{200}, provider.limits("1h"))
}

func TestBuildDuplicateWithDefaultKeepsMaxFetch(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(3, 100)

	b := NewBuilder(provider, testPair(), 100, zap.NewNop()).
		WithKlines("1h:50").
		WithKlines("1h")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, got, "\n* Price: 1h:50\n")
	assert.Equal(t, []int{100}, provider.limits("1h"),
		"a registration without an explicit limit still contributes the default to the plan")
}

func TestBuildEmptyIntervalNotice(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = nil

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).WithKlines("1h")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, got, "**Klines (Price History):**\n (1h) No data found.\n")
	assert.NotContains(t, got, "```csv")
}

func TestBuildStochRSIInsufficientDataInlineError(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(10, 100)
	provider.data["4h"] = makeCandles(40, 100)

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).WithStochRSI("1h", "4h")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	// the failing interval degrades to an inline note, the other one renders
	assert.Contains(t, got, "\n* Interval: 1h (Error calculating StochRSI: ")
	assert.Contains(t, got, "not enough data points")
	assert.Contains(t, got, "\n* Stochastic RSI: 4h\n```csv\n")
}

func TestBuildFetchErrorAbortsBuild(t *testing.T) {
	provider := newFakeProvider()
	provider.errs["1h"] = errors.New("connection reset")
	provider.data["4h"] = makeCandles(40, 100)

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).WithKlines("1h", "4h")

	got, err := b.Build(context.Background())
	require.Error(t, err)

	assert.Contains(t, err.Error(), "interval 1h")
	assert.Empty(t, got, "no partial report on fetch failure")
}

func TestBuildSectionOrderFixed(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(40, 100)

	// registration order is reversed relative to the rendered order
	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).
		WithStochRSI("1h").
		WithKlines("1h")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Less(t, strings.Index(got, "**Klines (Price History):**"), strings.Index(got, "**Stochastic RSI:**"))
}

func TestBuildBollingerSections(t *testing.T) {
	provider := newFakeProvider()
	provider.data["4h"] = makeConstantCandles(99, 100)

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).
		WithBollinger("4h").
		WithBollingerMA("4h:99")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	detail := "BB 20 100.00 100.00 100.00\nMA 7 100.00\nMA 25 100.00\nMA 99 100.00"
	assert.Contains(t, got, "\n**Bollinger Band:**\n")
	assert.Contains(t, got, "\n* Bollinger Band: 4h\n```csv\n"+detail+"\n```\n")
	assert.Contains(t, got, "\n**Bollinger Band and Moving Average:**\n")
	assert.Contains(t, got, "\n* Bollinger Band and Moving Average: 4h:99\n```\n"+detail+"\n```\n")

	// both sections share one fetch at the larger limit
	assert.Equal(t, []int{99}, provider.limits("4h"))
}

func TestBuildBollingerInsufficientDataInlineError(t *testing.T) {
	provider := newFakeProvider()
	provider.data["4h"] = makeConstantCandles(50, 100)

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).WithBollingerMA("4h")

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, got, "\n* Interval: 4h (Error calculating Bollinger Band and Moving Average: ")
	assert.Contains(t, got, "not enough data points for MA99")
}

func TestBuildTwiceFetchesTwice(t *testing.T) {
	provider := newFakeProvider()
	provider.data["1h"] = makeCandles(40, 100)

	b := NewBuilder(provider, testPair(), 50, zap.NewNop()).WithKlines("1h")

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	second, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, provider.totalCalls(), "no caching between builds")
}
