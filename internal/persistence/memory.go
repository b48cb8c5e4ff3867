package persistence

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/lewisedginton/parallax/internal/insights"
	"github.com/lewisedginton/parallax/internal/merge"
)

// MemoryStore is a process-local Store. Records are copied on the way in
// and out so callers never share slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	memories map[string]insights.MemoryRecord
	signals  map[string][]insights.Signal
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		memories: make(map[string]insights.MemoryRecord),
		signals:  make(map[string][]insights.Signal),
	}
}

// GetMemory returns a copy of the stored record, or nil when absent.
func (s *MemoryStore) GetMemory(_ context.Context, userID string) (*insights.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.memories[userID]
	if !ok {
		return nil, nil
	}
	clone := cloneRecord(record)
	return &clone, nil
}

// UpsertMemory replaces the user's record.
func (s *MemoryStore) UpsertMemory(_ context.Context, userID string, record insights.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memories[userID] = cloneRecord(record)
	return nil
}

// UpsertSignals stores one signal per type, replacing older values.
func (s *MemoryStore) UpsertSignals(_ context.Context, userID string, signals []insights.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signals[userID] = merge.MergeSignals(s.signals[userID], signals)
	return nil
}

// ListSignals returns signals ordered by type, matching the Postgres store.
func (s *MemoryStore) ListSignals(_ context.Context, userID string) ([]insights.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.signals[userID])
	slices.SortFunc(out, func(a, b insights.Signal) int {
		switch {
		case a.Type < b.Type:
			return -1
		case a.Type > b.Type:
			return 1
		default:
			return 0
		}
	})
	if out == nil {
		out = []insights.Signal{}
	}
	return out, nil
}

// UpdateActionItemStatus sets the status of one action item.
func (s *MemoryStore) UpdateActionItemStatus(_ context.Context, userID, itemID string, status insights.ActionItemStatus) (*insights.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.memories[userID]
	if !ok {
		return nil, fmt.Errorf("memory for user %s: %w", userID, ErrNotFound)
	}
	next, ok := record.WithActionItemStatus(itemID, status)
	if !ok {
		return nil, fmt.Errorf("action item %s: %w", itemID, ErrNotFound)
	}
	s.memories[userID] = cloneRecord(next)
	clone := cloneRecord(next)
	return &clone, nil
}

func cloneRecord(r insights.MemoryRecord) insights.MemoryRecord {
	r.Identity.ImportantPeople = slices.Clone(r.Identity.ImportantPeople)
	r.Themes = slices.Clone(r.Themes)
	r.Patterns = slices.Clone(r.Patterns)
	r.Values = slices.Clone(r.Values)
	r.Strengths = slices.Clone(r.Strengths)
	r.ActionItems = slices.Clone(r.ActionItems)
	return r
}
