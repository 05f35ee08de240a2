package review

import (
	"context"
	"sync"
)

// Store is the document source of the review queue.
type Store interface {
	// List returns all documents in ingestion order.
	List(ctx context.Context) ([]Document, error)
	Get(ctx context.Context, id string) (Document, error)
	// UpdateStatus sets the status when the stored version equals expected and
	// returns the document with its version incremented. A stale version yields ErrConflict.
	UpdateStatus(ctx context.Context, id string, expected int64, status Status) (Document, error)
}

// Loader is implemented by stores that accept ingested documents.
type Loader interface {
	Upsert(ctx context.Context, d Document) (Document, error)
}

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]Document
}

// NewInMemory creates a store holding docs.
func NewInMemory(docs ...Document) *InMemory {
	s := &InMemory{docs: make(map[string]Document, len(docs))}
	for _, d := range docs {
		_, _ = s.Upsert(context.Background(), d)
	}
	return s
}

func (s *InMemory) List(_ context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id].Clone())
	}
	return out, nil
}

func (s *InMemory) Get(_ context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return d.Clone(), nil
}

func (s *InMemory) UpdateStatus(_ context.Context, id string, expected int64, status Status) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	if d.Version != expected {
		return Document{}, ErrConflict
	}
	d.Status = status
	d.Version++
	s.docs[id] = d
	return d.Clone(), nil
}

// Upsert inserts d or replaces the stored document with the same id.
func (s *InMemory) Upsert(_ context.Context, d Document) (Document, error) {
	d, err := Normalize(d.Clone())
	if err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.docs[d.ID]; ok {
		d.Version = cur.Version + 1
	} else {
		d.Version = 1
		s.order = append(s.order, d.ID)
	}
	s.docs[d.ID] = d
	return d.Clone(), nil
}
