package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"go.uber.org/zap"
)

// fakeProvider serves canned candles and records every fetch. Fetches run
// concurrently, so access is locked.
type fakeProvider struct {
	mu        sync.Mutex
	candles   []domain.Candle
	err       error
	pairs     []string
	intervals []string
	limits    []int
}

func (f *fakeProvider) GetKlines(_ context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pairs = append(f.pairs, pair.Symbol())
	f.intervals = append(f.intervals, interval)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}

	return f.candles, nil
}

func makeCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		close := 100.0 + float64(i)
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

func testServer(t *testing.T, provider *fakeProvider, defaults ReportDefaults) *httptest.Server {
	t.Helper()
	s := NewServer(":0", provider, defaults, zap.NewNop())
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestHandleReportUsesDefaults(t *testing.T) {
	provider := &fakeProvider{candles: makeCandles(3)}
	ts := testServer(t, provider, ReportDefaults{
		Pair:   domain.Pair{From: "BTC", To: "USDT"},
		Limit:  100,
		Klines: []string{"1h"},
	})

	resp, body := get(t, ts.URL+"/report")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "**Klines (Price History):**")
	assert.Contains(t, body, "\n* Price: 1h\n")
	assert.Equal(t, []string{"BTCUSDT"}, provider.pairs)
	assert.Equal(t, []int{100}, provider.limits)
}

func TestHandleReportQueryOverrides(t *testing.T) {
	provider := &fakeProvider{candles: makeCandles(3)}
	ts := testServer(t, provider, ReportDefaults{
		Pair:     domain.Pair{From: "BTC", To: "USDT"},
		Limit:    100,
		Klines:   []string{"1h"},
		StochRSI: []string{"1h"},
	})

	resp, body := get(t, ts.URL+"/report?pair=SOL_USDT&intervals=15m:20&stoch_rsi=")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "\n* Price: 15m:20\n")
	assert.NotContains(t, body, "**Stochastic RSI:**")
	assert.Equal(t, []string{"SOLUSDT"}, provider.pairs)
	assert.Equal(t, []string{"15m"}, provider.intervals)
	assert.Equal(t, []int{20}, provider.limits)
}

func TestHandleReportAllSectionsDisabled(t *testing.T) {
	provider := &fakeProvider{candles: makeCandles(3)}
	ts := testServer(t, provider, ReportDefaults{
		Pair:   domain.Pair{From: "BTC", To: "USDT"},
		Limit:  100,
		Klines: []string{"1h"},
	})

	resp, body := get(t, ts.URL+"/report?intervals=&stoch_rsi=&bb=&bb_ma=")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "No historical data intervals specified.\n", body)
	assert.Empty(t, provider.pairs)
}

func TestHandleReportBadPair(t *testing.T) {
	ts := testServer(t, &fakeProvider{}, ReportDefaults{
		Pair:   domain.Pair{From: "BTC", To: "USDT"},
		Limit:  100,
		Klines: []string{"1h"},
	})

	resp, _ := get(t, ts.URL+"/report?pair=nope")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleReportBadLimit(t *testing.T) {
	ts := testServer(t, &fakeProvider{}, ReportDefaults{
		Pair:   domain.Pair{From: "BTC", To: "USDT"},
		Limit:  100,
		Klines: []string{"1h"},
	})

	for _, raw := range []string{"zero", "0", "-1"} {
		resp, _ := get(t, ts.URL+"/report?limit="+raw)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", raw)
	}
}

func TestHandleReportFetchFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection reset")}
	ts := testServer(t, provider, ReportDefaults{
		Pair:   domain.Pair{From: "BTC", To: "USDT"},
		Limit:  100,
		Klines: []string{"1h"},
	})

	resp, body := get(t, ts.URL+"/report")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "failed to build report")
}

func TestHealthz(t *testing.T) {
	ts := testServer(t, &fakeProvider{}, ReportDefaults{})

	resp, body := get(t, ts.URL+"/healthz")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}
