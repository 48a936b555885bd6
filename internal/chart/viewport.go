package chart

import "sync"

// Viewport is a ResizeSource driven by explicit Resize calls, one per
// connected viewer.
type Viewport struct {
	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

func NewViewport() *Viewport {
	return &Viewport{listeners: make(map[int]func())}
}

// OnResize registers fn and returns its removal func.
func (v *Viewport) OnResize(fn func()) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.listeners, id)
			v.mu.Unlock()
		})
	}
}

// Resize notifies every registered listener.
func (v *Viewport) Resize() {
	v.mu.Lock()
	fns := make([]func(), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ListenerCount returns the number of active listeners.
func (v *Viewport) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}
