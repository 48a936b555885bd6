package relay

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/explorer"
)

const (
	FeedView  = "view"
	FeedChart = "chart"
)

// ViewSource is the part of an explorer session the relay listens to.
type ViewSource interface {
	OnChange(fn func(explorer.View)) func()
}

// Relay publishes every view change of attached sessions to a Broker: the
// full view on the "view" feed and the derived chart option on "chart".
type Relay struct {
	broker  *Broker
	palette chart.Palette

	mu       sync.Mutex
	attached map[string]func()
}

func NewRelay(broker *Broker, palette chart.Palette) *Relay {
	return &Relay{
		broker:   broker,
		palette:  palette,
		attached: make(map[string]func()),
	}
}

// Broker returns the underlying broker.
func (r *Relay) Broker() *Broker { return r.broker }

// Attach starts relaying src under session. Attaching an already attached
// session replaces the previous listener.
func (r *Relay) Attach(session string, src ViewSource) {
	remove := src.OnChange(func(v explorer.View) {
		r.publish(session, v)
	})

	r.mu.Lock()
	prev := r.attached[session]
	r.attached[session] = remove
	r.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach stops relaying session and ends its subscribers' streams.
func (r *Relay) Detach(session string) {
	r.mu.Lock()
	remove := r.attached[session]
	delete(r.attached, session)
	r.mu.Unlock()

	if remove != nil {
		remove()
	}
	r.broker.CloseSession(session)
}

// Stop detaches every session.
func (r *Relay) Stop() {
	r.mu.Lock()
	sessions := make([]string, 0, len(r.attached))
	for s := range r.attached {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		r.Detach(s)
	}
}

func (r *Relay) publish(session string, v explorer.View) {
	viewJSON, err := json.Marshal(v)
	if err != nil {
		slog.Warn("relay: marshal view failed", "session", session, "error", err)
		return
	}
	r.broker.Publish(Event{Session: session, Feed: FeedView, Payload: string(viewJSON)})

	opt := chart.BuildWithPalette(v.State.ChartType, v.Rows, v.State.Dimension, v.State.Measure, r.palette)
	optJSON, err := json.Marshal(opt)
	if err != nil {
		slog.Warn("relay: marshal chart option failed", "session", session, "error", err)
		return
	}
	r.broker.Publish(Event{Session: session, Feed: FeedChart, Payload: string(optJSON)})
}
