package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/locale"
	"adala.org/internal/obs"
	"adala.org/internal/settings"
	"adala.org/internal/stream"
)

type settingsView struct {
	settings.Settings
	ThresholdLabel string            `json:"threshold_label"`
	Lang           locale.Lang       `json:"lang"`
	Labels         map[string]string `json:"labels"`
}

func viewSettings(s settings.Settings, lang locale.Lang) settingsView {
	return settingsView{
		Settings:       s,
		ThresholdLabel: locale.FormatPercent(lang, s.AIThreshold),
		Lang:           lang,
		Labels:         locale.Bundle(lang, "settings."),
	}
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getSettings(w, r)
	case http.MethodPut:
		a.updateSettings(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, auth.PermAdminView); !ok {
		return
	}
	lang := a.lang(r)
	s, err := a.settings.Get(r.Context())
	if err != nil {
		handleSettingsError(w, r, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSettings(s, lang))
}

func (a *API) updateSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := a.authorize(w, r, auth.PermKeywordsManage)
	if !ok {
		return
	}
	lang := a.lang(r)
	var patch settings.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s, err := a.settings.Update(r.Context(), patch, p.Label())
	if err != nil {
		handleSettingsError(w, r, lang, err)
		return
	}
	if !patch.Empty() {
		a.recordEvent(r.Context(), audit.Entry{
			Action:     locale.T(locale.English, "audit.event.settings_updated"),
			ActionType: audit.ActionSettings,
			Details:    locale.Textf("audit.detail.settings_updated", s.AIThreshold),
		})
		if a.stream != nil {
			a.stream.Publish(stream.Event{Kind: stream.KindSettingsChanged, Actor: p.Name})
		}
	}
	writeJSON(w, http.StatusOK, viewSettings(s, lang))
}

// aiThreshold is the stored confidence threshold, or the configured one when
// the settings store cannot be read.
func (a *API) aiThreshold(ctx context.Context) int {
	s, err := a.settings.Get(ctx)
	if err != nil {
		obs.Logger().Warn("settings unavailable, using configured threshold",
			zap.String("request_id", RequestIDFromContext(ctx)), zap.Error(err))
		return a.threshold
	}
	if s.AIThreshold < settings.MinThreshold || s.AIThreshold > settings.MaxThreshold {
		return a.threshold
	}
	return s.AIThreshold
}
