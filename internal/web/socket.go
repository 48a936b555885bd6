package web

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/relay"
	"github.com/go-chi/chi/v5"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type frame struct {
	Type   string        `json:"type"`
	Option *chart.Option `json:"option,omitempty"`
}

// wsSurface is a chart.Surface rendered by the browser on the other end of
// a websocket.
type wsSurface struct {
	mu   sync.Mutex
	conn net.Conn
}

func (s *wsSurface) send(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return wsutil.WriteServerText(s.conn, data)
}

func (s *wsSurface) SetOption(opt chart.Option) error {
	return s.send(frame{Type: "option", Option: &opt})
}

func (s *wsSurface) Resize() error {
	return s.send(frame{Type: "resize"})
}

func (s *wsSurface) Dispose() error {
	return s.send(frame{Type: "dispose"})
}

// chartSocket binds one websocket to one chart surface for a session. The
// surface is mounted with the current option, updated from the relay's chart
// feed and unmounted when the socket closes.
func (h *Handler) chartSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	opt, err := h.svc.ChartOption(r.Context(), sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Debug("chart socket upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	surface := &wsSurface{conn: conn}
	viewport := chart.NewViewport()
	c, err := chart.Mount(viewport, surface, opt)
	if err != nil {
		slog.Debug("chart mount failed", "session_id", sessionID, "error", err)
		return
	}
	defer func() {
		if err := c.Unmount(); err != nil {
			slog.Debug("chart unmount failed", "session_id", sessionID, "error", err)
		}
	}()
	slog.Debug("chart socket connected", "session_id", sessionID, "remote", r.RemoteAddr)

	var wg sync.WaitGroup
	stopped := make(chan struct{})
	if h.broker != nil {
		subID, events := h.broker.Subscribe(sessionID)
		defer wg.Wait()
		defer h.broker.Unsubscribe(subID)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for evt := range events {
				if evt.Feed != relay.FeedChart {
					continue
				}
				var next chart.Option
				if err := json.Unmarshal([]byte(evt.Payload), &next); err != nil {
					slog.Debug("chart event malformed", "session_id", sessionID, "error", err)
					continue
				}
				if err := c.Update(next); err != nil {
					return
				}
			}
			select {
			case <-stopped:
			default:
				// The session was closed; end the read loop too.
				_ = conn.Close()
			}
		}()
	}

	for {
		data, err := wsutil.ReadClientText(conn)
		if err != nil {
			slog.Debug("chart socket closed", "session_id", sessionID, "error", err)
			close(stopped)
			return
		}
		var msg frame
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "resize" {
			viewport.Resize()
		}
	}
}
