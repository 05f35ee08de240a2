// Package httpapi is the JSON/HTTP surface of the review service.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/keywords"
	"adala.org/internal/locale"
	"adala.org/internal/obs"
	"adala.org/internal/review"
	"adala.org/internal/settings"
	"adala.org/internal/stream"
)

// ReadyCheck reports readiness, pinging the database when one is configured.
type ReadyCheck struct {
	DB *sql.DB
}

func (rp ReadyCheck) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API to its collaborators.
type Options struct {
	Version    string
	Ready      ReadyCheck
	Dispatcher *review.Dispatcher
	Sessions   *review.Sessions
	Recorder   *audit.Recorder
	Keywords   keywords.Store
	Settings   settings.Store
	Stream     *stream.Stream
	Directory  *auth.Directory
	Issuer     *auth.Issuer

	DefaultLang         locale.Lang
	ConfidenceThreshold int
	RateBurst           int
	RatePerSecond       float64
	MaxBodyBytes        int64
	AllowedOrigins      []string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyCheck ReadyCheck
	version    string

	dispatcher *review.Dispatcher
	sessions   *review.Sessions
	recorder   *audit.Recorder
	keywords   keywords.Store
	settings   settings.Store
	stream     *stream.Stream
	directory  *auth.Directory
	issuer     *auth.Issuer

	defaultLang    locale.Lang
	threshold      int
	rateBurst      int
	ratePerSec     float64
	maxBodyBytes   int64
	allowedOrigins []string
}

func New(opts Options) *API {
	a := &API{
		mux:            http.NewServeMux(),
		readyCheck:     opts.Ready,
		version:        opts.Version,
		dispatcher:     opts.Dispatcher,
		sessions:       opts.Sessions,
		recorder:       opts.Recorder,
		keywords:       opts.Keywords,
		settings:       opts.Settings,
		stream:         opts.Stream,
		directory:      opts.Directory,
		issuer:         opts.Issuer,
		defaultLang:    opts.DefaultLang,
		threshold:      opts.ConfidenceThreshold,
		rateBurst:      opts.RateBurst,
		ratePerSec:     opts.RatePerSecond,
		maxBodyBytes:   opts.MaxBodyBytes,
		allowedOrigins: opts.AllowedOrigins,
	}
	if !a.defaultLang.Valid() {
		a.defaultLang = locale.English
	}
	if a.threshold <= 0 {
		a.threshold = review.DefaultConfidenceThreshold
	}
	if a.settings == nil {
		initial := settings.Defaults()
		initial.AIThreshold = a.threshold
		a.settings = settings.NewInMemory(initial)
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 100
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 50
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}
	if a.sessions == nil && a.dispatcher != nil {
		a.sessions = review.NewSessions(a.dispatcher, review.DefaultPageSize)
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/me", a.handleMe)
	a.mux.HandleFunc("/v1/i18n", a.handleI18n)

	a.mux.HandleFunc("/v1/documents", a.handleDocumentsCollection)
	a.mux.HandleFunc("/v1/documents/decisions", a.handleBulkDecisions)
	a.mux.HandleFunc("/v1/documents/", a.handleDocumentResource)

	a.mux.HandleFunc("/v1/review/queue", a.handleQueue)
	a.mux.HandleFunc("/v1/review/queue/selection", a.handleQueueSelection)
	a.mux.HandleFunc("/v1/review/queue/bulk", a.handleQueueBulk)
	a.mux.HandleFunc("/v1/review/stats", a.handleStats)
	a.mux.HandleFunc("/v1/review/events", a.Stream)

	a.mux.HandleFunc("/v1/audit/entries", a.handleAuditEntries)
	a.mux.HandleFunc("/v1/audit/summary", a.handleAuditSummary)

	a.mux.HandleFunc("/v1/keywords", a.handleKeywordsCollection)
	a.mux.HandleFunc("/v1/keywords/", a.handleKeywordResource)
	a.mux.HandleFunc("/v1/settings", a.handleSettings)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the mux wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h, a.allowedOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = Recover(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "adala-review",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyCheck.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "adala-review",
		"time":      time.Now().UTC().Format(time.RFC3339),
		"version":   a.version,
		"languages": []locale.Lang{locale.Arabic, locale.English},
		"sort_keys": review.SortKeys(),
	})
}

// lang picks the response language from ?lang= or Accept-Language.
func (a *API) lang(r *http.Request) locale.Lang {
	return locale.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), a.defaultLang)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeErrorFields(w, r, code, msg, nil)
}

func writeErrorFields(w http.ResponseWriter, r *http.Request, code int, msg string, extra map[string]any) {
	payload := map[string]any{
		"error": msg,
	}
	for k, v := range extra {
		payload[k] = v
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
