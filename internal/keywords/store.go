package keywords

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"adala.org/internal/ids"
)

// Draft is the input for creating a keyword.
type Draft struct {
	Keyword   string   `json:"keyword"`
	Language  Language `json:"language"`
	IsRegex   bool     `json:"is_regex"`
	Category  Category `json:"category"`
	CreatedBy string   `json:"-"`
}

// Patch changes selected fields of a keyword; nil fields are left alone.
type Patch struct {
	Keyword  *string   `json:"keyword,omitempty"`
	Language *Language `json:"language,omitempty"`
	IsRegex  *bool     `json:"is_regex,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Keyword == nil && p.Language == nil && p.IsRegex == nil && p.Category == nil
}

// Apply returns k with p applied.
func (p Patch) Apply(k Keyword) Keyword {
	if p.Keyword != nil {
		k.Keyword = *p.Keyword
	}
	if p.Language != nil {
		k.Language = *p.Language
	}
	if p.IsRegex != nil {
		k.IsRegex = *p.IsRegex
	}
	if p.Category != nil {
		k.Category = *p.Category
	}
	return k
}

// Store is the keyword CRUD interface.
type Store interface {
	List(ctx context.Context) ([]Keyword, error)
	Get(ctx context.Context, id string) (Keyword, error)
	Create(ctx context.Context, d Draft) (Keyword, error)
	Update(ctx context.Context, id string, p Patch) (Keyword, error)
	Delete(ctx context.Context, id string) error
}

// Build validates d and returns the keyword it describes, stamped at now.
func Build(d Draft, now time.Time) (Keyword, error) {
	k := normalize(Keyword{
		ID:        ids.Prefixed("kw"),
		Keyword:   d.Keyword,
		Language:  d.Language,
		IsRegex:   d.IsRegex,
		Category:  d.Category,
		CreatedBy: strings.TrimSpace(d.CreatedBy),
	})
	if k.CreatedBy == "" {
		k.CreatedBy = "System"
	}
	if err := Validate(k); err != nil {
		return Keyword{}, err
	}
	k.CreatedAt = now.UTC()
	k.LastModified = k.CreatedAt
	return k, nil
}

// InMemory is a process-local Store.
type InMemory struct {
	mu    sync.RWMutex
	items map[string]Keyword
	now   func() time.Time
}

// NewInMemory returns a store holding seed, which is not validated.
func NewInMemory(seed ...Keyword) *InMemory {
	s := &InMemory{items: make(map[string]Keyword, len(seed)), now: time.Now}
	for _, k := range seed {
		s.items[k.ID] = k
	}
	return s
}

// List returns keywords ordered by creation time, then id.
func (s *InMemory) List(_ context.Context) ([]Keyword, error) {
	s.mu.RLock()
	out := make([]Keyword, 0, len(s.items))
	for _, k := range s.items {
		out = append(out, k)
	}
	s.mu.RUnlock()
	SortByCreated(out)
	return out, nil
}

func (s *InMemory) Get(_ context.Context, id string) (Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.items[id]
	if !ok {
		return Keyword{}, ErrNotFound
	}
	return k, nil
}

func (s *InMemory) Create(_ context.Context, d Draft) (Keyword, error) {
	k, err := Build(d, s.now())
	if err != nil {
		return Keyword{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts(k) {
		return Keyword{}, ErrAlreadyExists
	}
	s.items[k.ID] = k
	return k, nil
}

func (s *InMemory) Update(_ context.Context, id string, p Patch) (Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return Keyword{}, ErrNotFound
	}
	if p.Empty() {
		return cur, nil
	}
	next := p.Apply(cur)
	next.Keyword = strings.TrimSpace(next.Keyword)
	if err := Validate(next); err != nil {
		return Keyword{}, err
	}
	if s.conflicts(next) {
		return Keyword{}, ErrAlreadyExists
	}
	next.LastModified = s.now().UTC()
	s.items[id] = next
	return next, nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Seed stores k as given, replacing a keyword with the same id.
func (s *InMemory) Seed(_ context.Context, k Keyword) error {
	k = normalize(k)
	if k.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if err := Validate(k); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts(k) {
		return ErrAlreadyExists
	}
	s.items[k.ID] = k
	return nil
}

// conflicts reports whether another keyword has the same text and language.
// Callers hold s.mu.
func (s *InMemory) conflicts(k Keyword) bool {
	for id, other := range s.items {
		if id != k.ID && other.Language == k.Language && strings.EqualFold(other.Keyword, k.Keyword) {
			return true
		}
	}
	return false
}

// SortByCreated orders keywords by creation time, then id.
func SortByCreated(ks []Keyword) {
	slices.SortStableFunc(ks, func(a, b Keyword) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
