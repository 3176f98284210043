// Package prompts persists built prompts in a write-ahead log so past LLM
// inputs can be replayed and audited.
package prompts

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

const (
	defaultPromptDir   = "./wal/prompts"
	promptSegmentLimit = 20
	promptMaxSegments  = 5
	promptKeyPrefix    = "prompt_"
)

// WALStore persists prompt events in a WAL for replay purposes.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed prompt journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultPromptDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: promptSegmentLimit,
		MaxSegments:      promptMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init prompt WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save writes the prompt event to WAL. Callers must ensure event.Pair is set.
func (s *WALStore) Save(event domain.PromptEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("prompt journal is not initialized")
	}
	if event.Pair == "" {
		return errors.New("prompt event pair is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal prompt event")
	}

	key := promptKeyPrefix + event.Pair

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all prompt events written after the provided WAL index.
func (s *WALStore) EventsAfter(index uint64) ([]domain.PromptEventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("prompt journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.PromptEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "read prompt event at index %d", idx)
		}
		// a missing record comes back with an empty key and no error
		if !strings.HasPrefix(key, promptKeyPrefix) {
			continue
		}
		var event domain.PromptEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode prompt event")
		}
		records = append(records, domain.PromptEventRecord{
			Index: idx,
			Event: event,
		})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("prompt journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
