package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"adala.org/internal/query"
)

// DefaultPageSize is the review table's page size.
const DefaultPageSize = 10

// Selection scopes for SelectAll.
const (
	ScopeVisible  = "visible"
	ScopeFiltered = "filtered"
)

var ErrInvalidScope = errors.New("review: selection scope must be visible or filtered")

// Item is one row of the review table.
type Item struct {
	Document
	Selected bool `json:"selected"`
	// PendingDecision is set while a decision for the row is being saved.
	PendingDecision Decision `json:"pending_decision,omitempty"`
}

// View is the rendered state of a Queue.
type View struct {
	query.Page[Item]
	Filter   query.FilterState `json:"filter"`
	Sort     string            `json:"sort"`
	Selected []string          `json:"selected"`
	// AllVisibleSelected drives the header checkbox.
	AllVisibleSelected bool `json:"all_visible_selected"`
	// InQueue counts open documents before filtering.
	InQueue int `json:"in_queue"`
	// Pruned lists selected ids dropped because they left the queue.
	Pruned []string `json:"pruned,omitempty"`
}

// Queue is one reviewer's review table state: filters, sort key, page and
// selection over the open documents. It is owned by a session.
type Queue struct {
	dispatcher *Dispatcher

	mu       sync.Mutex
	filter   query.FilterState
	sort     string
	page     int
	pageSize int
	sel      *query.Selection
}

// NewQueue returns a queue at its initial state.
func NewQueue(dispatcher *Dispatcher, pageSize int) *Queue {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Queue{
		dispatcher: dispatcher,
		sort:       SortScore,
		page:       1,
		pageSize:   pageSize,
		sel:        query.NewSelection(),
	}
}

// open loads the queue's full collection: documents awaiting a final decision.
func (q *Queue) open(ctx context.Context) ([]Document, error) {
	docs, err := q.dispatcher.Store().List(ctx)
	if err != nil {
		return nil, err
	}
	out := docs[:0]
	for _, d := range docs {
		if d.Open() {
			out = append(out, d)
		}
	}
	return out, nil
}

// View runs filter, sort, clamp and window over the open documents. Selected
// ids no longer in the queue are dropped first.
func (q *Queue) View(ctx context.Context) (View, error) {
	docs, err := q.open(ctx)
	if err != nil {
		return View{}, err
	}
	pending := q.dispatcher.Pending()

	q.mu.Lock()
	defer q.mu.Unlock()

	pruned := q.sel.Prune(present(docs))
	sorted, err := sorter.Sort(query.Filter(docs, q.filter, Fields), q.sort)
	if err != nil {
		return View{}, err
	}
	q.page = query.ClampPage(q.page, len(sorted), q.pageSize)
	page, err := query.Window(sorted, q.pageSize, q.page)
	if err != nil {
		return View{}, err
	}

	items := make([]Item, len(page.Items))
	allSelected := len(items) > 0
	for i, d := range page.Items {
		items[i] = Item{Document: d, Selected: q.sel.IsSelected(d.ID), PendingDecision: pending[d.ID]}
		allSelected = allSelected && items[i].Selected
	}
	return View{
		Page: query.Page[Item]{
			Items:      items,
			Page:       page.Page,
			PageSize:   page.PageSize,
			StartIndex: page.StartIndex,
			EndIndex:   page.EndIndex,
			TotalPages: page.TotalPages,
			Total:      page.Total,
		},
		Filter:             q.filter,
		Sort:               q.sort,
		Selected:           q.sel.IDs(),
		AllVisibleSelected: allSelected,
		InQueue:            len(docs),
		Pruned:             pruned,
	}, nil
}

// SetFilter replaces the filter state. The page is clamped on the next View.
func (q *Queue) SetFilter(fs query.FilterState) error {
	if err := Fields.Validate(fs); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.filter = fs
	return nil
}

// SetSort selects the sort key; "" restores the default.
func (q *Queue) SetSort(key string) error {
	if !ValidSortKey(key) {
		return fmt.Errorf("%w: %q", query.ErrUnknownSortKey, key)
	}
	if key == "" {
		key = SortScore
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sort = key
	return nil
}

// SetPage moves to page; it is clamped on the next View.
func (q *Queue) SetPage(page int) error {
	if page < 1 {
		return query.ErrInvalidPage
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.page = page
	return nil
}

// Toggle flips the selection of id, which must be in the queue.
func (q *Queue) Toggle(ctx context.Context, id string) (bool, error) {
	docs, err := q.open(ctx)
	if err != nil {
		return false, err
	}
	if !present(docs)(id) {
		return false, ErrNotFound
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sel.Toggle(id), nil
}

// SelectAll replaces the selection with the current page (ScopeVisible) or
// every filtered document (ScopeFiltered).
func (q *Queue) SelectAll(ctx context.Context, scope string) ([]string, error) {
	if scope != ScopeVisible && scope != ScopeFiltered {
		return nil, ErrInvalidScope
	}
	v, err := q.View(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	if scope == ScopeVisible {
		for _, it := range v.Items {
			ids = append(ids, it.ID)
		}
	} else {
		docs, err := q.open(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range query.Filter(docs, v.Filter, Fields) {
			ids = append(ids, d.ID)
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sel.SelectAll(ids)
	return q.sel.IDs(), nil
}

// Clear empties the selection.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sel.Clear()
}

// Selected returns the selected ids in sorted order.
func (q *Queue) Selected() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sel.IDs()
}

// Bulk applies decision to the selection. Ids whose decision succeeded leave
// the selection; failed ids stay selected so the reviewer can retry.
func (q *Queue) Bulk(ctx context.Context, decision Decision) ([]Outcome, error) {
	if !decision.Bulk() {
		return nil, fmt.Errorf("%w: %q cannot be applied in bulk", ErrInvalidDecision, decision)
	}
	ids := q.Selected()
	if len(ids) == 0 {
		return nil, ErrEmptySelect
	}
	outcomes, err := q.dispatcher.BulkDecide(ctx, ids, decision)
	if err != nil {
		return nil, err
	}
	done := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success {
			done = append(done, o.DocumentID)
		}
	}
	q.mu.Lock()
	q.sel.Remove(done...)
	q.mu.Unlock()
	return outcomes, nil
}

// Reset restores the initial state, as when the reviewer leaves the page.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.filter = query.FilterState{}
	q.sort = SortScore
	q.page = 1
	q.sel.Clear()
}

func present(docs []Document) func(string) bool {
	idx := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		idx[d.ID] = struct{}{}
	}
	return func(id string) bool {
		_, ok := idx[id]
		return ok
	}
}

// Sessions keeps one Queue per signed-in session.
type Sessions struct {
	dispatcher *Dispatcher
	pageSize   int

	mu     sync.Mutex
	queues map[string]*Queue
}

// NewSessions returns an empty session registry.
func NewSessions(dispatcher *Dispatcher, pageSize int) *Sessions {
	return &Sessions{dispatcher: dispatcher, pageSize: pageSize, queues: make(map[string]*Queue)}
}

// Get returns the queue of session key, creating it on first use.
func (s *Sessions) Get(key string) *Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[key]
	if !ok {
		q = NewQueue(s.dispatcher, s.pageSize)
		s.queues[key] = q
	}
	return q
}

// Drop discards the queue of session key (logout).
func (s *Sessions) Drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, key)
}

// Len returns the number of live queues.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}
