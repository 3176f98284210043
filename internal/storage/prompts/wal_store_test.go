package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

func TestWALStoreSaveAndReplay(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)

	first := domain.PromptEvent{
		Timestamp:  time.Now().UTC(),
		Pair:       "BTC_USDT",
		Platform:   "binance",
		Prediction: "trading",
		Prompt:     "Analyze BTC.",
	}
	second := domain.PromptEvent{
		Timestamp:  time.Now().UTC(),
		Pair:       "ETH_USDT",
		Platform:   "binance",
		Prediction: "graph",
		Prompt:     "Analyze ETH.",
	}

	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))
	assert.Equal(t, uint64(2), store.CurrentIndex())

	records, err := store.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "BTC_USDT", records[0].Event.Pair)
	assert.Equal(t, "trading", records[0].Event.Prediction)
	assert.Equal(t, "Analyze ETH.", records[1].Event.Prompt)

	records, err = store.EventsAfter(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ETH_USDT", records[0].Event.Pair)

	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err = reopened.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Analyze BTC.", records[0].Event.Prompt)
}

func TestWALStoreEventsAfterSkipsForeignRecords(t *testing.T) {
	dir := t.TempDir()

	// seed the log with a record written under a non-prompt key
	raw, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: promptSegmentLimit,
		MaxSegments:      promptMaxSegments,
		IsInSyncDiskMode: true,
	})
	require.NoError(t, err)
	require.NoError(t, raw.Write(1, "unrelated_key", []byte("{}")))
	require.NoError(t, raw.Close())

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(domain.PromptEvent{
		Timestamp:  time.Now().UTC(),
		Pair:       "BTC_USDT",
		Platform:   "binance",
		Prediction: "trading",
		Prompt:     "Analyze BTC.",
	}))

	// replay skips the foreign record instead of failing on it
	records, err := store.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(2), records[0].Index)
	assert.Equal(t, "BTC_USDT", records[0].Event.Pair)
}

func TestWALStoreRejectsEmptyPair(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = store.Save(domain.PromptEvent{Prompt: "no pair"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pair is required")
}
