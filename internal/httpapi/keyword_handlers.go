package httpapi

import (
	"net/http"
	"strings"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/keywords"
	"adala.org/internal/locale"
	"adala.org/internal/query"
	"adala.org/internal/stream"
)

type keywordView struct {
	keywords.Keyword
	LanguageLabel string `json:"language_label"`
	CategoryLabel string `json:"category_label"`
}

func viewKeyword(k keywords.Keyword, lang locale.Lang) keywordView {
	return keywordView{
		Keyword:       k,
		LanguageLabel: locale.Label(lang, "keyword_language", string(k.Language)),
		CategoryLabel: locale.Label(lang, "category", string(k.Category)),
	}
}

type keywordList struct {
	Items []keywordView `json:"items"`
	Total int           `json:"total"`
	Lang  locale.Lang   `json:"lang"`
	Empty string        `json:"empty,omitempty"`
}

func (a *API) handleKeywordsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listKeywords(w, r)
	case http.MethodPost:
		a.createKeyword(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleKeywordResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/keywords/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getKeyword(w, r, id)
	case http.MethodPut:
		a.updateKeyword(w, r, id)
	case http.MethodDelete:
		a.deleteKeyword(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listKeywords(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, auth.PermKeywordsRead); !ok {
		return
	}
	lang := a.lang(r)
	ks, err := a.keywords.List(r.Context())
	if err != nil {
		handleKeywordError(w, r, lang, err)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	resp := keywordList{Items: make([]keywordView, 0, len(ks)), Lang: lang}
	for _, k := range ks {
		if category != "" && category != query.All && string(k.Category) != category {
			continue
		}
		resp.Items = append(resp.Items, viewKeyword(k, lang))
	}
	resp.Total = len(resp.Items)
	if resp.Total == 0 {
		resp.Empty = locale.T(lang, "keywords.empty")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) getKeyword(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.authorize(w, r, auth.PermKeywordsRead); !ok {
		return
	}
	lang := a.lang(r)
	k, err := a.keywords.Get(r.Context(), id)
	if err != nil {
		handleKeywordError(w, r, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, viewKeyword(k, lang))
}

func (a *API) createKeyword(w http.ResponseWriter, r *http.Request) {
	p, ok := a.authorize(w, r, auth.PermKeywordsManage)
	if !ok {
		return
	}
	lang := a.lang(r)
	var draft keywords.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	draft.CreatedBy = p.Label()
	k, err := a.keywords.Create(r.Context(), draft)
	if err != nil {
		handleKeywordError(w, r, lang, err)
		return
	}
	a.keywordChanged(r, k, "keyword_created")
	w.Header().Set("Location", "/v1/keywords/"+k.ID)
	writeJSON(w, http.StatusCreated, viewKeyword(k, lang))
}

func (a *API) updateKeyword(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.authorize(w, r, auth.PermKeywordsManage); !ok {
		return
	}
	lang := a.lang(r)
	var patch keywords.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	k, err := a.keywords.Update(r.Context(), id, patch)
	if err != nil {
		handleKeywordError(w, r, lang, err)
		return
	}
	if !patch.Empty() {
		a.keywordChanged(r, k, "keyword_updated")
	}
	writeJSON(w, http.StatusOK, viewKeyword(k, lang))
}

func (a *API) deleteKeyword(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.authorize(w, r, auth.PermKeywordsManage); !ok {
		return
	}
	lang := a.lang(r)
	k, err := a.keywords.Get(r.Context(), id)
	if err != nil {
		handleKeywordError(w, r, lang, err)
		return
	}
	if err := a.keywords.Delete(r.Context(), id); err != nil {
		handleKeywordError(w, r, lang, err)
		return
	}
	a.keywordChanged(r, k, "keyword_deleted")
	w.WriteHeader(http.StatusNoContent)
}

// keywordChanged audits a keyword mutation as a settings event and tells
// stream subscribers to reload the keyword list.
func (a *API) keywordChanged(r *http.Request, k keywords.Keyword, event string) {
	a.recordEvent(r.Context(), audit.Entry{
		Action:     locale.T(locale.English, "audit.event."+event),
		ActionType: audit.ActionSettings,
		Details:    locale.Textf("audit.detail."+event, k.Keyword),
	})
	if a.stream != nil {
		actor := ""
		if p, ok := auth.PrincipalFromContext(r.Context()); ok {
			actor = p.Name
		}
		a.stream.Publish(stream.Event{Kind: stream.KindKeywordsChanged, Actor: actor})
	}
}
