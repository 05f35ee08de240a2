package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/locale"
	"adala.org/internal/obs"
)

type tokenRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type navView struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Label string `json:"label"`
}

type sessionView struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Role        auth.Role     `json:"role"`
	RoleLabel   string        `json:"role_label"`
	SessionID   string        `json:"session_id,omitempty"`
	Permissions []string      `json:"permissions"`
	Navigation  []navView     `json:"navigation"`
	Layout      locale.Layout `json:"layout"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Session   sessionView `json:"session"`
}

func newSessionView(p auth.Principal, lang locale.Lang) sessionView {
	entries := auth.Navigation(p.Role)
	nav := make([]navView, 0, len(entries))
	for _, e := range entries {
		nav = append(nav, navView{Key: e.Key, Path: e.Path, Label: locale.T(lang, e.LabelKey)})
	}
	return sessionView{
		Name:        p.Name,
		DisplayName: p.Label(),
		Role:        p.Role,
		RoleLabel:   locale.Label(lang, "role", p.Role.Key()),
		SessionID:   p.SessionID,
		Permissions: auth.Permissions(p.Role),
		Navigation:  nav,
		Layout:      locale.LayoutFor(lang),
	}
}

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.issuer == nil || a.directory == nil {
		writeError(w, r, http.StatusServiceUnavailable, "authentication disabled")
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user := strings.TrimSpace(req.User)
	if user == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "user and password are required")
		return
	}

	principal, err := a.directory.Authenticate(user, req.Password)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.failed", zap.String("user", user))
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, principal, expiresAt, err := a.issuer.Issue(principal)
	if err != nil {
		internalError(w, r, err)
		return
	}

	ctx := auth.ContextWithPrincipal(r.Context(), principal)
	a.recordEvent(ctx, audit.Entry{
		Action:     locale.T(locale.English, "audit.event.login"),
		ActionType: audit.ActionLogin,
		Details:    locale.Textf("audit.detail.login"),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Session:   newSessionView(principal, a.lang(r)),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	p, ok := a.authorize(w, r, "")
	if !ok {
		return
	}
	a.recordEvent(r.Context(), audit.Entry{
		Action:     locale.T(locale.English, "audit.event.logout"),
		ActionType: audit.ActionLogin,
		Details:    locale.Textf("audit.detail.logout"),
	})
	if a.issuer != nil {
		a.issuer.Revoke(p.SessionID)
	}
	if a.sessions != nil {
		a.sessions.Drop(p.SessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := a.authorize(w, r, "")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(p, a.lang(r)))
}

// recordEvent appends a side-effect audit entry. Failures are logged; the
// triggering request still succeeds.
func (a *API) recordEvent(ctx context.Context, e audit.Entry) {
	if a.recorder == nil {
		return
	}
	if _, err := a.recorder.Record(ctx, e); err != nil {
		obs.Logger().Error("audit append failed",
			zap.String("request_id", RequestIDFromContext(ctx)),
			zap.String("action_type", string(e.ActionType)),
			zap.Error(err))
	}
}
