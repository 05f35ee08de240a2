package httpapi

import (
	"net/http"

	"adala.org/internal/locale"
)

type i18nResponse struct {
	Lang     locale.Lang       `json:"lang"`
	Dir      locale.Direction  `json:"dir"`
	Layout   locale.Layout     `json:"layout"`
	Messages map[string]string `json:"messages"`
}

// handleI18n serves the label catalog of the negotiated language, optionally
// restricted to keys under ?prefix=.
func (a *API) handleI18n(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	lang := a.lang(r)
	writeJSON(w, http.StatusOK, i18nResponse{
		Lang:     lang,
		Dir:      lang.Direction(),
		Layout:   locale.LayoutFor(lang),
		Messages: locale.Bundle(lang, r.URL.Query().Get("prefix")),
	})
}
