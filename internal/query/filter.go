// Package query filters, orders, windows and selects in-memory record collections.
// It is generic over the record type; callers describe their records with Fields.
package query

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// All is the sentinel value that disables a categorical filter.
const All = "all"

var (
	ErrUnknownDimension = errors.New("query: unknown filter dimension")
	ErrUnknownSortKey   = errors.New("query: unknown sort key")
	ErrInvalidPageSize  = errors.New("query: page size must be positive")
	ErrInvalidPage      = errors.New("query: page must be >= 1")
)

// FilterState is the conjunction of predicates applied to a collection.
type FilterState struct {
	Search      string            `json:"search,omitempty"`
	Categorical map[string]string `json:"categorical,omitempty"`
	// Date restricts records to one UTC calendar day when set.
	Date *time.Time `json:"date,omitempty"`
}

// Active reports whether any predicate would exclude records.
func (s FilterState) Active() bool {
	if strings.TrimSpace(s.Search) != "" || s.Date != nil {
		return true
	}
	for _, v := range s.Categorical {
		if isActive(v) {
			return true
		}
	}
	return false
}

// With returns a copy of s with dimension set to value.
func (s FilterState) With(dimension, value string) FilterState {
	out := s
	out.Categorical = make(map[string]string, len(s.Categorical)+1)
	for k, v := range s.Categorical {
		out.Categorical[k] = v
	}
	out.Categorical[dimension] = value
	return out
}

// Fields describes how to read the filterable parts of a record.
type Fields[T any] struct {
	// Search returns the fields a search term is matched against.
	Search func(T) []string
	// Categorical maps a dimension name to the record field compared by equality.
	Categorical map[string]func(T) string
	// Date returns the record's date; nil disables date filtering.
	Date func(T) time.Time
}

// Validate checks that every active categorical dimension in s is known to f.
func (f Fields[T]) Validate(s FilterState) error {
	for dim, v := range s.Categorical {
		if !isActive(v) {
			continue
		}
		if _, ok := f.Categorical[dim]; !ok {
			return ErrUnknownDimension
		}
	}
	if s.Date != nil && f.Date == nil {
		return ErrUnknownDimension
	}
	return nil
}

// Filter returns the records matching every active predicate in their input order.
// With no active predicate the input slice itself is returned.
// An active dimension unknown to f matches nothing; use Validate to report it.
func Filter[T any](records []T, s FilterState, f Fields[T]) []T {
	if !s.Active() {
		return records
	}
	term := fold(strings.TrimSpace(s.Search))

	type cat struct {
		get  func(T) string
		want string
	}
	var cats []cat
	for dim, v := range s.Categorical {
		if !isActive(v) {
			continue
		}
		get, ok := f.Categorical[dim]
		if !ok {
			return []T{}
		}
		cats = append(cats, cat{get: get, want: v})
	}

	var day time.Time
	if s.Date != nil {
		if f.Date == nil {
			return []T{}
		}
		day = Day(*s.Date)
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		if term != "" && !matchesSearch(r, term, f.Search) {
			continue
		}
		ok := true
		for _, c := range cats {
			if c.get(r) != c.want {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if s.Date != nil && !Day(f.Date(r)).Equal(day) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD or RFC 3339 and returns the UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func matchesSearch[T any](r T, term string, search func(T) []string) bool {
	if search == nil {
		return false
	}
	for _, field := range search(r) {
		if strings.Contains(fold(field), term) {
			return true
		}
	}
	return false
}

// fold applies Unicode case folding. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func isActive(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, All)
}
