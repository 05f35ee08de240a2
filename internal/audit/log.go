package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"adala.org/internal/auth"
	"adala.org/internal/ids"
	"adala.org/internal/locale"
	"adala.org/internal/obs"
)

type ctxKey string

const (
	requestIDKey ctxKey = "audit_request_id"
	clientIPKey  ctxKey = "audit_client_ip"
)

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithClientIP records the caller address stored on entries created under ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip = strings.TrimSpace(ip); ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// LogEvent writes an audit log line enriched with request and user context.
func LogEvent(ctx context.Context, event string, fields ...zap.Field) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	base := []zap.Field{
		zap.String("type", "audit"),
		zap.String("event", event),
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		base = append(base, zap.String("request_id", rid))
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		base = append(base, zap.String("user_id", p.Name), zap.String("role", string(p.Role)))
	}
	obs.Logger().Info("audit", append(base, fields...)...)
	return nil
}

// Recorder appends entries produced as a side effect of server-side actions.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder returns a Recorder writing into store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Store exposes the underlying entry store for read paths.
func (r *Recorder) Store() Store { return r.store }

// Record completes e from ctx (id, timestamp, actor, session, client address),
// appends it and emits the matching log line and metric.
func (r *Recorder) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = ids.Prefixed("aud")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		if e.User == "" {
			e.User = p.Label()
		}
		if e.UserRole == "" {
			e.UserRole = p.Role
		}
		if e.SessionID == "" {
			e.SessionID = p.SessionID
		}
	}
	if e.IPAddress == "" {
		e.IPAddress = clientIPFromContext(ctx)
	}
	if e.Action == "" {
		e.Action = locale.Label(locale.English, "action", string(e.ActionType))
	}
	if err := r.store.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	obs.ObserveAudit(string(e.ActionType))
	_ = LogEvent(ctx, "audit."+string(e.ActionType),
		zap.String("entry_id", e.ID),
		zap.String("document_id", e.DocumentID),
		zap.String("details", e.Details.EN),
	)
	return e, nil
}
