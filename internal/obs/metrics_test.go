package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                           "/",
		"/metrics":                   "/metrics",
		"/v1/documents":              "/v1/documents",
		"/v1/documents/abc":          "/v1/documents/:id",
		"/v1/documents/abc/decision": "/v1/documents/:id/decision",
		"/v1/documents/decisions":    "/v1/documents/decisions",
		"/v1/documents/abc/extra/x":  "/v1/documents/abc/extra/x",
		"/v1/keywords/kw_1":          "/v1/keywords/:id",
		"/v1/audit/entries?limit=10": "/v1/audit/entries",
		"/v1/review/queue/selection": "/v1/review/queue/selection",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentPassesThrough(t *testing.T) {
	Init()
	Init()
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/documents/1", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `path="/v1/documents/:id"`) {
		t.Fatalf("expected canonical path label in metrics output")
	}
}

func TestSetLoggerRestores(t *testing.T) {
	orig := Logger()
	l := zap.NewExample()
	restore := SetLogger(l)
	if Logger() != l {
		t.Fatal("logger not replaced")
	}
	restore()
	if Logger() != orig {
		t.Fatal("logger not restored")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		cfg   LogConfig
		debug bool
		info  bool
	}{
		{LogConfig{Env: "development"}, true, true},
		{LogConfig{Env: "production"}, false, true},
		{LogConfig{Env: "development", Level: "warn"}, false, false},
	}
	for _, tc := range cases {
		l, err := NewLogger(tc.cfg)
		if err != nil {
			t.Fatalf("%+v: %v", tc.cfg, err)
		}
		if got := l.Core().Enabled(zap.DebugLevel); got != tc.debug {
			t.Fatalf("%+v: debug enabled = %v", tc.cfg, got)
		}
		if got := l.Core().Enabled(zap.InfoLevel); got != tc.info {
			t.Fatalf("%+v: info enabled = %v", tc.cfg, got)
		}
	}
}
