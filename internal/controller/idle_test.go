package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/relay"
	"github.com/dgnsrekt/share_explorer/internal/snapshot"
	"github.com/dgnsrekt/share_explorer/internal/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func newIdleService(t *testing.T, idle time.Duration, now func() time.Time) *Service {
	t.Helper()
	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("snapshot.NewStore() = %v", err)
	}
	svc := NewService(&stubBackend{}, store, relay.NewRelay(relay.NewBroker(), chart.DefaultPalette), Options{
		Now:         now,
		IdleTimeout: idle,
	})
	t.Cleanup(svc.Close)
	return svc
}

func TestCloseIdleSkipsActiveAndSubscribedSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newIdleService(t, time.Hour, clock.Now)
	ctx := context.Background()

	idle, _ := svc.CreateSession(ctx, "")
	watched, _ := svc.CreateSession(ctx, "")
	used, _ := svc.CreateSession(ctx, "")

	subID, _ := svc.relay.Broker().Subscribe(watched.SessionID)

	clock.Advance(30 * time.Minute)
	if _, err := svc.GetSession(ctx, used.SessionID); err != nil {
		t.Fatalf("GetSession() = %v", err)
	}

	if n := svc.closeIdle(clock.Advance(40 * time.Minute)); n != 1 {
		t.Fatalf("closeIdle() = %d; want 1", n)
	}
	_, err := svc.GetSession(ctx, idle.SessionID)
	assertCode(t, err, types.CodeSessionNotFound)
	if got := len(svc.ListSessions(ctx)); got != 2 {
		t.Fatalf("ListSessions() len = %d; want 2", got)
	}

	svc.relay.Broker().Unsubscribe(subID)
	if n := svc.closeIdle(clock.Advance(2 * time.Hour)); n != 2 {
		t.Fatalf("closeIdle() after unsubscribe = %d; want 2", n)
	}
	if got := svc.ListSessions(ctx); len(got) != 0 {
		t.Fatalf("ListSessions() = %v; want none", got)
	}
}

func TestCloseIdleIgnoresRecentlyCreatedSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newIdleService(t, time.Hour, clock.Now)

	if _, err := svc.CreateSession(context.Background(), ""); err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}
	if n := svc.closeIdle(clock.Advance(59 * time.Minute)); n != 0 {
		t.Fatalf("closeIdle() = %d; want 0", n)
	}
}

func TestJanitorExpiresIdleSessions(t *testing.T) {
	svc := newIdleService(t, 50*time.Millisecond, time.Now)

	if _, err := svc.CreateSession(context.Background(), ""); err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(svc.ListSessions(context.Background())) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle session was never expired")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSweepInterval(t *testing.T) {
	tests := []struct {
		idle time.Duration
		want time.Duration
	}{
		{30 * time.Minute, time.Minute},
		{time.Minute, 30 * time.Second},
		{5 * time.Millisecond, 10 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := sweepInterval(tt.idle); got != tt.want {
			t.Errorf("sweepInterval(%v) = %v; want %v", tt.idle, got, tt.want)
		}
	}
}
