package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"adala.org/internal/auth"
	"adala.org/internal/obs"
	"adala.org/internal/stream"
)

const heartbeatInterval = 25 * time.Second

// Stream serves review events as Server-Sent Events so dashboards refresh
// records after decisions and keyword edits. A reconnecting client sending
// Last-Event-ID receives the retained events it missed.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.authorize(w, r, auth.PermDocumentsRead); !ok {
		return
	}
	if a.stream == nil {
		writeError(w, r, http.StatusServiceUnavailable, "streaming disabled")
		return
	}

	rc := http.NewResponseController(w)
	// The server write timeout would otherwise end every stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := a.stream.SubscribeAfter(r.Context(), lastEventID(r))

	send := func(chunk string) bool {
		if _, err := w.Write([]byte(chunk)); err != nil {
			return false
		}
		return rc.Flush() == nil
	}
	if !send(": stream started\n\n") {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, open := <-ch:
			if !open {
				return
			}
			if !send(formatEvent(event)) {
				obs.Logger().Debug("sse client gone", zap.String("request_id", RequestIDFromContext(r.Context())))
				return
			}
		case <-heartbeat.C:
			if !send(": ping\n\n") {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func formatEvent(event stream.Event) string {
	payload, err := json.Marshal(event)
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", event.Seq, event.Kind, payload)
}

// lastEventID reads the Last-Event-ID header, or last_event_id for clients
// that reconnect by URL.
func lastEventID(r *http.Request) uint64 {
	raw := strings.TrimSpace(r.Header.Get("Last-Event-ID"))
	if raw == "" {
		raw = r.URL.Query().Get("last_event_id")
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
