package chart

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/share_explorer/internal/types"
)

type recordingSurface struct {
	options  []Option
	resizes  int
	disposed int
	setErr   error
}

func (s *recordingSurface) SetOption(opt Option) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.options = append(s.options, opt)
	return nil
}

func (s *recordingSurface) Resize() error {
	s.resizes++
	return nil
}

func (s *recordingSurface) Dispose() error {
	s.disposed++
	return nil
}

func TestMountAppliesOptionAndForwardsResize(t *testing.T) {
	vp := NewViewport()
	surface := &recordingSurface{}
	opt := Build(types.ChartBar, []types.Row{{"d": "A", "v": 1}}, "d", "v")

	c, err := Mount(vp, surface, opt)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if len(surface.options) != 1 {
		t.Fatalf("SetOption calls = %d; want 1", len(surface.options))
	}
	if vp.ListenerCount() != 1 {
		t.Fatalf("ListenerCount() = %d; want 1", vp.ListenerCount())
	}

	vp.Resize()
	if surface.resizes != 1 {
		t.Fatalf("resizes = %d; want 1", surface.resizes)
	}

	if err := c.Update(Option{}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(surface.options) != 2 || !surface.options[1].IsEmpty() {
		t.Fatalf("Update() did not reapply the empty option: %+v", surface.options)
	}
}

func TestUnmountRemovesListenerAndDisposes(t *testing.T) {
	vp := NewViewport()
	surface := &recordingSurface{}

	c, err := Mount(vp, surface, Option{})
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if err := c.Unmount(); err != nil {
		t.Fatalf("Unmount() error = %v", err)
	}

	if vp.ListenerCount() != 0 {
		t.Fatalf("ListenerCount() after Unmount = %d; want 0", vp.ListenerCount())
	}
	if surface.disposed != 1 {
		t.Fatalf("disposed = %d; want 1", surface.disposed)
	}

	vp.Resize()
	if surface.resizes != 0 {
		t.Fatalf("resize after unmount reached surface %d times", surface.resizes)
	}

	if err := c.Unmount(); err != nil {
		t.Fatalf("second Unmount() error = %v", err)
	}
	if surface.disposed != 1 {
		t.Fatalf("disposed after second Unmount = %d; want 1", surface.disposed)
	}

	if err := c.Update(Option{}); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("Update() after Unmount = %v; want ErrUnmounted", err)
	}
}

func TestRemountSameViewportKeepsSingleListener(t *testing.T) {
	vp := NewViewport()
	first, _ := Mount(vp, &recordingSurface{}, Option{})
	_ = first.Unmount()
	second := &recordingSurface{}
	if _, err := Mount(vp, second, Option{}); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if vp.ListenerCount() != 1 {
		t.Fatalf("ListenerCount() = %d; want 1", vp.ListenerCount())
	}
	vp.Resize()
	if second.resizes != 1 {
		t.Fatalf("second surface resizes = %d; want 1", second.resizes)
	}
}

func TestMountFailureDisposesSurface(t *testing.T) {
	vp := NewViewport()
	boom := errors.New("surface gone")
	surface := &recordingSurface{setErr: boom}

	c, err := Mount(vp, surface, Option{})
	if !errors.Is(err, boom) || c != nil {
		t.Fatalf("Mount() = %v, %v; want nil, %v", c, err, boom)
	}
	if surface.disposed != 1 {
		t.Fatalf("disposed = %d; want 1", surface.disposed)
	}
	if vp.ListenerCount() != 0 {
		t.Fatalf("ListenerCount() = %d; want 0", vp.ListenerCount())
	}
}
