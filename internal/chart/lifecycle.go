package chart

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrUnmounted is returned when updating a chart after Unmount.
var ErrUnmounted = errors.New("chart: surface already unmounted")

// Surface is a drawable chart instance bound to one container.
type Surface interface {
	SetOption(opt Option) error
	Resize() error
	Dispose() error
}

// ResizeSource notifies listeners when the viewport changes size.
// The returned func removes the listener.
type ResizeSource interface {
	OnResize(fn func()) (remove func())
}

// Chart owns a mounted surface and its resize subscription.
type Chart struct {
	mu        sync.Mutex
	surface   Surface
	remove    func()
	unmounted bool
}

// Mount applies opt to surface and starts forwarding resize events to it.
func Mount(src ResizeSource, surface Surface, opt Option) (*Chart, error) {
	if err := surface.SetOption(opt); err != nil {
		if derr := surface.Dispose(); derr != nil {
			slog.Debug("chart dispose after failed mount", "error", derr)
		}
		return nil, err
	}
	c := &Chart{surface: surface}
	c.remove = src.OnResize(c.onResize)
	return c, nil
}

func (c *Chart) onResize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	if err := c.surface.Resize(); err != nil {
		slog.Debug("chart resize failed", "error", err)
	}
}

// Update reapplies a new option to the same surface.
func (c *Chart) Update(opt Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return ErrUnmounted
	}
	return c.surface.SetOption(opt)
}

// Unmount removes the resize listener and disposes the surface. Safe to call
// more than once.
func (c *Chart) Unmount() error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil
	}
	c.unmounted = true
	remove := c.remove
	c.mu.Unlock()

	if remove != nil {
		remove()
	}
	return c.surface.Dispose()
}
