package relay

import (
	"sync"
	"sync/atomic"
)

const subscriberBufSize = 256

// Event is one update for a session, sent to SSE clients and chart sockets.
type Event struct {
	Session string
	Feed    string
	Payload string
}

type subscriber struct {
	session string
	ch      chan Event
}

// Broker fans out session events to subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]subscriber
	nextID      atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]subscriber),
	}
}

// Subscribe registers a client for one session's events. An empty session
// receives every event. The channel is buffered; slow consumers will have
// events dropped.
func (b *Broker) Subscribe(session string) (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = subscriber{session: session, ch: ch}
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(sub.ch)
	}
	b.mu.Unlock()
}

// Publish sends an event to matching subscribers. Non-blocking: slow clients
// have events dropped.
func (b *Broker) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if sub.session != "" && sub.session != evt.Session {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// CloseSession drops every subscriber bound to session, ending their streams.
func (b *Broker) CloseSession(session string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		if sub.session == session {
			delete(b.subscribers, id)
			close(sub.ch)
		}
	}
}

// SessionClientCount returns the number of subscribers bound to session.
func (b *Broker) SessionClientCount(session string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, sub := range b.subscribers {
		if sub.session == session {
			n++
		}
	}
	return n
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
