package relay

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// heartbeatInterval keeps idle streams open through proxies.
var heartbeatInterval = 15 * time.Second

// SSEHandler streams one session's events as SSE. session extracts the
// session id from the request; ?feeds=view,chart limits the feeds sent.
// Each frame carries a per-stream id. The stream ends when the session is
// closed or the client goes away.
func SSEHandler(broker *Broker, session func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		sessionID := session(r)
		if sessionID == "" {
			http.Error(w, "session_id is required", http.StatusBadRequest)
			return
		}
		feeds := parseFeeds(r.URL.Query().Get("feeds"))

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		fmt.Fprint(w, "retry: 3000\n\n")
		flusher.Flush()

		subID, events := broker.Subscribe(sessionID)
		defer broker.Unsubscribe(subID)

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		var seq uint64
		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
			case evt, ok := <-events:
				if !ok {
					return
				}
				if feeds != nil && !feeds[evt.Feed] {
					continue
				}
				seq++
				fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, evt.Feed, evt.Payload)
				flusher.Flush()
			}
		}
	}
}

// parseFeeds returns nil (every feed) for an empty list.
func parseFeeds(q string) map[string]bool {
	var out map[string]bool
	for _, f := range strings.Split(q, ",") {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		if out == nil {
			out = make(map[string]bool)
		}
		out[f] = true
	}
	return out
}
