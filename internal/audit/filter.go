package audit

import (
	"time"

	"adala.org/internal/query"
)

const (
	DimUser   = "user"
	DimAction = "action"
)

// FilterState is the audit page's filter bar.
type FilterState struct {
	Search string     `json:"search,omitempty"`
	User   string     `json:"user,omitempty"`
	Action string     `json:"action,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
}

// Query converts s to the generic filter representation.
func (s FilterState) Query() query.FilterState {
	return query.FilterState{
		Search: s.Search,
		Categorical: map[string]string{
			DimUser:   s.User,
			DimAction: s.Action,
		},
		Date: s.Date,
	}
}

// Fields exposes entries to the query engine.
var Fields = query.Fields[Entry]{
	Search: func(e Entry) []string {
		return []string{e.User, e.Action, e.DocumentName, e.Details.EN, e.Details.AR}
	},
	Categorical: map[string]func(Entry) string{
		DimUser:   func(e Entry) string { return e.User },
		DimAction: func(e Entry) string { return string(e.ActionType) },
	},
	Date: func(e Entry) time.Time { return e.Timestamp },
}

// Apply filters entries, keeping their order.
func Apply(entries []Entry, s FilterState) []Entry {
	return query.Filter(entries, s.Query(), Fields)
}

// Summary backs the cards above the audit table.
type Summary struct {
	Total          int                `json:"total"`
	UniqueUsers    int                `json:"unique_users"`
	SecurityEvents int                `json:"security_events"`
	ByAction       map[ActionType]int `json:"by_action"`
}

// Summarize counts entries.
func Summarize(entries []Entry) Summary {
	s := Summary{Total: len(entries), ByAction: make(map[ActionType]int)}
	users := make(map[string]struct{})
	for _, e := range entries {
		users[e.User] = struct{}{}
		s.ByAction[e.ActionType]++
		if e.ActionType.Security() {
			s.SecurityEvents++
		}
	}
	s.UniqueUsers = len(users)
	return s
}

// Users returns distinct user names in first-seen order.
func Users(entries []Entry) []string {
	return distinct(entries, func(e Entry) string { return e.User })
}

// Actions returns distinct action types in first-seen order.
func Actions(entries []Entry) []ActionType {
	raw := distinct(entries, func(e Entry) string { return string(e.ActionType) })
	out := make([]ActionType, len(raw))
	for i, a := range raw {
		out[i] = ActionType(a)
	}
	return out
}

func distinct(entries []Entry, key func(Entry) string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0)
	for _, e := range entries {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
