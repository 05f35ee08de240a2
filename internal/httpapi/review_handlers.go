package httpapi

import (
	"net/http"
	"strings"

	"adala.org/internal/auth"
	"adala.org/internal/locale"
	"adala.org/internal/query"
	"adala.org/internal/review"
)

const maxPageSize = 100

type decisionRequest struct {
	Decision string `json:"decision"`
}

type bulkDecisionRequest struct {
	IDs      []string `json:"ids"`
	Decision string   `json:"decision"`
}

type outcomeView struct {
	review.Outcome
	Message string `json:"message,omitempty"`
}

type bulkResponse struct {
	Results   []outcomeView `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Message   string        `json:"message"`
	Selected  []string      `json:"selected,omitempty"`
}

func viewOutcome(o review.Outcome, lang locale.Lang) outcomeView {
	v := outcomeView{Outcome: o}
	if !o.Success {
		v.Message = locale.T(lang, reviewMessage(o.Err()))
	}
	return v
}

func newBulkResponse(outcomes []review.Outcome, lang locale.Lang) bulkResponse {
	resp := bulkResponse{Results: make([]outcomeView, len(outcomes))}
	for i, o := range outcomes {
		resp.Results[i] = viewOutcome(o, lang)
		if o.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	resp.Message = locale.Tf(lang, "notice.bulk_done", resp.Succeeded, len(outcomes))
	return resp
}

func (a *API) handleDocumentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listDocuments(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleDocumentResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if strings.HasSuffix(path, "/decision") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/decision"), "/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "document not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.decide(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getDocument(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) listDocuments(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, auth.PermDocumentsRead); !ok {
		return
	}
	lang := a.lang(r)
	params := r.URL.Query()
	fs, err := filterFromQuery(params, documentDimensions)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parsePositiveInt(params.Get("page"), "page", 1, 1, 1<<20)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := parsePositiveInt(params.Get("page_size"), "page_size", review.DefaultPageSize, 1, maxPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sort := params.Get("sort")
	if !review.ValidSortKey(sort) {
		writeError(w, r, http.StatusBadRequest, "unknown sort key")
		return
	}

	docs, err := a.dispatcher.Store().List(r.Context())
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	result, err := review.Browse(docs, review.Query{Filter: fs, Sort: sort, Page: page, PageSize: pageSize})
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentPage(result, a.dispatcher.Pending(), sort, lang))
}

func (a *API) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.authorize(w, r, auth.PermDocumentsRead); !ok {
		return
	}
	lang := a.lang(r)
	doc, err := a.dispatcher.Store().Get(r.Context(), id)
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, viewDocument(doc, a.dispatcher.Pending()[id], lang))
}

func (a *API) decide(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.authorize(w, r, auth.PermReviewDecide); !ok {
		return
	}
	lang := a.lang(r)
	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	decision, err := review.ParseDecision(req.Decision)
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}

	out := a.dispatcher.Decide(r.Context(), id, decision)
	if !out.Success {
		handleReviewError(w, r, lang, out.Err())
		return
	}
	writeJSON(w, http.StatusOK, viewOutcome(out, lang))
}

func (a *API) handleBulkDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := a.authorize(w, r, auth.PermReviewBulk); !ok {
		return
	}
	lang := a.lang(r)
	var req bulkDecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	decision, err := review.ParseDecision(req.Decision)
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	outcomes, err := a.dispatcher.BulkDecide(r.Context(), req.IDs, decision)
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, newBulkResponse(outcomes, lang))
}

// queueFor returns the review table state of the caller's session.
func (a *API) queueFor(p auth.Principal) *review.Queue {
	key := p.SessionID
	if key == "" {
		key = p.Name
	}
	return a.sessions.Get(key)
}

type queueUpdate struct {
	Filter *query.FilterState `json:"filter,omitempty"`
	Sort   *string            `json:"sort,omitempty"`
	Page   *int               `json:"page,omitempty"`
}

func (a *API) handleQueue(w http.ResponseWriter, r *http.Request) {
	p, ok := a.authorize(w, r, auth.PermReviewDecide)
	if !ok {
		return
	}
	lang := a.lang(r)
	q := a.queueFor(p)

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req queueUpdate
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if req.Filter != nil {
			if err := q.SetFilter(*req.Filter); err != nil {
				handleReviewError(w, r, lang, err)
				return
			}
		}
		if req.Sort != nil {
			if err := q.SetSort(*req.Sort); err != nil {
				handleReviewError(w, r, lang, err)
				return
			}
		}
		if req.Page != nil {
			if err := q.SetPage(*req.Page); err != nil {
				handleReviewError(w, r, lang, err)
				return
			}
		}
	case http.MethodDelete:
		q.Reset()
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		return
	}

	v, err := q.View(r.Context())
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, toQueueView(v, lang))
}

type selectionRequest struct {
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Scope  string `json:"scope,omitempty"`
}

type selectionResponse struct {
	Selected      []string `json:"selected"`
	SelectedLabel string   `json:"selected_label"`
	Toggled       *bool    `json:"toggled,omitempty"`
}

func (a *API) handleQueueSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	p, ok := a.authorize(w, r, auth.PermReviewDecide)
	if !ok {
		return
	}
	lang := a.lang(r)
	var req selectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	q := a.queueFor(p)

	var resp selectionResponse
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "toggle":
		on, err := q.Toggle(r.Context(), req.ID)
		if err != nil {
			handleReviewError(w, r, lang, err)
			return
		}
		resp.Toggled = &on
	case "select_all":
		scope := req.Scope
		if scope == "" {
			scope = review.ScopeVisible
		}
		if _, err := q.SelectAll(r.Context(), scope); err != nil {
			handleReviewError(w, r, lang, err)
			return
		}
	case "clear":
		q.Clear()
	default:
		writeError(w, r, http.StatusBadRequest, "action must be toggle, select_all or clear")
		return
	}
	resp.Selected = q.Selected()
	if resp.Selected == nil {
		resp.Selected = []string{}
	}
	resp.SelectedLabel = locale.Tf(lang, "common.selected", len(resp.Selected))
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleQueueBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	p, ok := a.authorize(w, r, auth.PermReviewBulk)
	if !ok {
		return
	}
	lang := a.lang(r)
	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	decision, err := review.ParseDecision(req.Decision)
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	q := a.queueFor(p)
	outcomes, err := q.Bulk(r.Context(), decision)
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	resp := newBulkResponse(outcomes, lang)
	resp.Selected = q.Selected()
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	review.Stats
	Lang                   locale.Lang       `json:"lang"`
	Labels                 map[string]string `json:"labels"`
	StatusLabels           map[string]string `json:"status_labels"`
	AverageConfidenceLabel string            `json:"average_confidence_label"`
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.authorize(w, r, auth.PermDocumentsRead); !ok {
		return
	}
	lang := a.lang(r)
	threshold, err := parsePositiveInt(r.URL.Query().Get("threshold"), "threshold", a.aiThreshold(r.Context()), 1, 100)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	docs, err := a.dispatcher.Store().List(r.Context())
	if err != nil {
		handleReviewError(w, r, lang, err)
		return
	}
	st := review.ComputeStats(docs, threshold)
	statusLabels := make(map[string]string, len(review.Statuses))
	for _, s := range review.Statuses {
		statusLabels[string(s)] = locale.Label(lang, "status", string(s))
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:                  st,
		Lang:                   lang,
		Labels:                 locale.Bundle(lang, "stats."),
		StatusLabels:           statusLabels,
		AverageConfidenceLabel: locale.FormatPercent(lang, int(st.AverageConfidence+0.5)),
	})
}
