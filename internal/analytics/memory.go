package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// MemoryStore keeps usage records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []ports.UsageRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements ports.UsageStore.
func (s *MemoryStore) Append(_ context.Context, record ports.UsageRecord, maxEvents int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Timestamp.Before(s.records[j].Timestamp)
	})
	if maxEvents > 0 && len(s.records) > maxEvents {
		s.records = append([]ports.UsageRecord(nil), s.records[len(s.records)-maxEvents:]...)
	}
	return nil
}

// List implements ports.UsageStore.
func (s *MemoryStore) List(context.Context) ([]ports.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.UsageRecord(nil), s.records...), nil
}

// Prune implements ports.UsageStore.
func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if !r.Timestamp.Before(before) {
			kept = append(kept, r)
		}
	}
	removed := len(s.records) - len(kept)
	s.records = kept
	return removed, nil
}

var _ ports.UsageStore = (*MemoryStore)(nil)
