package audit

import (
	"context"
	"slices"
	"sync"
)

// Store persists audit entries. Entries are never updated or removed.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// List returns every entry, newest first.
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
}

// InMemory is a process-local Store.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
}

// NewInMemory returns an empty store.
func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]int)}
}

func (s *InMemory) Append(_ context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[e.ID]; exists {
		return ErrDuplicate
	}
	s.byID[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	s.mu.RUnlock()
	SortNewestFirst(out)
	return out, nil
}

func (s *InMemory) Get(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return s.entries[i], nil
}

// SortNewestFirst orders entries by descending timestamp; equal timestamps keep
// the later-appended entry first.
func SortNewestFirst(entries []Entry) {
	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}
