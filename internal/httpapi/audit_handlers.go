package httpapi

import (
	"net/http"
	"strings"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/locale"
	"adala.org/internal/query"
)

// auditPageSize is the audit table's fixed page size.
const auditPageSize = 10

type entryView struct {
	audit.Entry
	ActionLabel    string `json:"action_label"`
	RoleLabel      string `json:"role_label,omitempty"`
	DetailsText    string `json:"details_text"`
	TimestampLabel string `json:"timestamp_label"`
}

type filterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type auditPage struct {
	query.Page[entryView]
	pageMeta
	Filter  audit.FilterState `json:"filter"`
	Users   []filterOption    `json:"users"`
	Actions []filterOption    `json:"actions"`
	Empty   string            `json:"empty,omitempty"`
}

func viewEntry(e audit.Entry, lang locale.Lang) entryView {
	v := entryView{
		Entry:          e,
		ActionLabel:    locale.Label(lang, "action", string(e.ActionType)),
		DetailsText:    e.Details.In(lang),
		TimestampLabel: locale.FormatTimestamp(lang, e.Timestamp),
	}
	if e.UserRole != "" {
		v.RoleLabel = locale.Label(lang, "role", e.UserRole.Key())
	}
	return v
}

func auditFilterFromRequest(r *http.Request) (audit.FilterState, error) {
	params := r.URL.Query()
	fs, err := filterFromQuery(params, nil)
	if err != nil {
		return audit.FilterState{}, err
	}
	return audit.FilterState{
		Search: fs.Search,
		User:   strings.TrimSpace(params.Get(audit.DimUser)),
		Action: strings.TrimSpace(params.Get(audit.DimAction)),
		Date:   fs.Date,
	}, nil
}

func (a *API) handleAuditEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.authorize(w, r, auth.PermAuditRead); !ok {
		return
	}
	lang := a.lang(r)
	fs, err := auditFilterFromRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parsePositiveInt(r.URL.Query().Get("page"), "page", 1, 1, 1<<20)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := a.recorder.Store().List(r.Context())
	if err != nil {
		handleAuditError(w, r, err)
		return
	}
	filtered := audit.Apply(entries, fs)
	window, err := query.Window(filtered, auditPageSize, query.ClampPage(page, len(filtered), auditPageSize))
	if err != nil {
		handleAuditError(w, r, err)
		return
	}

	items := make([]entryView, len(window.Items))
	for i, e := range window.Items {
		items[i] = viewEntry(e, lang)
	}
	resp := auditPage{
		Page: query.Page[entryView]{
			Items: items, Page: window.Page, PageSize: window.PageSize, StartIndex: window.StartIndex,
			EndIndex: window.EndIndex, TotalPages: window.TotalPages, Total: window.Total,
		},
		pageMeta: newPageMeta(lang, window.StartIndex, window.EndIndex, window.Total, window.Page, window.TotalPages),
		Filter:   fs,
		Users:    []filterOption{{Value: query.All, Label: locale.T(lang, "audit.all_users")}},
		Actions:  []filterOption{{Value: query.All, Label: locale.T(lang, "audit.all_actions")}},
	}
	for _, u := range audit.Users(entries) {
		resp.Users = append(resp.Users, filterOption{Value: u, Label: u})
	}
	for _, act := range audit.Actions(entries) {
		resp.Actions = append(resp.Actions, filterOption{Value: string(act), Label: locale.Label(lang, "action", string(act))})
	}
	if len(items) == 0 {
		resp.Empty = locale.T(lang, "audit.empty")
	}
	writeJSON(w, http.StatusOK, resp)
}

type summaryResponse struct {
	audit.Summary
	Lang   locale.Lang       `json:"lang"`
	Labels map[string]string `json:"labels"`
}

func (a *API) handleAuditSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.authorize(w, r, auth.PermAuditRead); !ok {
		return
	}
	lang := a.lang(r)
	fs, err := auditFilterFromRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := a.recorder.Store().List(r.Context())
	if err != nil {
		handleAuditError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: audit.Summarize(audit.Apply(entries, fs)),
		Lang:    lang,
		Labels: map[string]string{
			"total":           locale.T(lang, "audit.total_events"),
			"unique_users":    locale.T(lang, "audit.active_users"),
			"security_events": locale.T(lang, "audit.security_events"),
		},
	})
}
