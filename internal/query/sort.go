package query

import (
	"slices"
	"sync"
)

// Sorter is a registry of comparators keyed by sort key.
type Sorter[T any] struct {
	mu   sync.RWMutex
	cmps map[string]func(a, b T) int
	def  string
}

// NewSorter returns an empty registry whose default key is def.
func NewSorter[T any](def string) *Sorter[T] {
	return &Sorter[T]{cmps: make(map[string]func(a, b T) int), def: def}
}

// Register adds or replaces the comparator for key and returns the sorter for chaining.
func (s *Sorter[T]) Register(key string, cmp func(a, b T) int) *Sorter[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmps[key] = cmp
	return s
}

// Default is the key used when callers pass an empty key.
func (s *Sorter[T]) Default() string { return s.def }

// Has reports whether key is registered.
func (s *Sorter[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cmps[key]
	return ok
}

// Keys lists registered keys in sorted order.
func (s *Sorter[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.cmps))
	for k := range s.cmps {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Sort returns a stably ordered copy of records; equal records keep their input order.
func (s *Sorter[T]) Sort(records []T, key string) ([]T, error) {
	if key == "" {
		key = s.def
	}
	s.mu.RLock()
	cmp, ok := s.cmps[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownSortKey
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, cmp)
	return out, nil
}

// Descending inverts a comparator.
func Descending[T any](cmp func(a, b T) int) func(a, b T) int {
	return func(a, b T) int { return cmp(b, a) }
}

// ByRank compares records by a categorical rank, higher rank first.
// Values missing from rank sort last.
func ByRank[T any](field func(T) string, rank map[string]int) func(a, b T) int {
	return func(a, b T) int {
		return rank[field(b)] - rank[field(a)]
	}
}
