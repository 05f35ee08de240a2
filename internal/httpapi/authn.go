package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/v1/i18n",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
}

// localPrincipal acts for every request when no token issuer is configured.
var localPrincipal = auth.Principal{Name: "system", DisplayName: "System", Role: auth.RoleAdmin, SessionID: "local"}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a.issuer == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), localPrincipal)))
		})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil && r.URL.Path == "/v1/review/events" {
			// EventSource cannot set headers.
			token, err = r.URL.Query().Get("access_token"), nil
			if token == "" {
				err = errors.New("missing bearer token")
			}
		}
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		principal, err := a.issuer.Parse(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize writes the error response and returns false when the caller lacks perm.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, perm string) (auth.Principal, bool) {
	p, err := auth.Require(r.Context(), perm)
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			_ = audit.LogEvent(r.Context(), "auth.forbidden")
		}
		handleAuthError(w, r, err)
		return auth.Principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
