package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/explorer"
	"github.com/dgnsrekt/share_explorer/internal/types"
)

type fakeSource struct {
	mu        sync.Mutex
	listeners map[int]func(explorer.View)
	next      int
}

func (f *fakeSource) OnChange(fn func(explorer.View)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listeners == nil {
		f.listeners = make(map[int]func(explorer.View))
	}
	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeSource) emit(v explorer.View) {
	f.mu.Lock()
	fns := make([]func(explorer.View), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed; want event")
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func TestBrokerScopesEventsBySession(t *testing.T) {
	b := NewBroker()
	idA, chA := b.Subscribe("a")
	_, chAll := b.Subscribe("")
	defer b.Unsubscribe(idA)

	b.Publish(Event{Session: "b", Feed: FeedView, Payload: "{}"})
	b.Publish(Event{Session: "a", Feed: FeedView, Payload: `{"version":1}`})

	if got := receive(t, chA); got.Session != "a" {
		t.Fatalf("session a subscriber got %+v", got)
	}
	if got := receive(t, chAll); got.Session != "b" {
		t.Fatalf("wildcard subscriber first event = %+v; want session b", got)
	}
	if b.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d; want 2", b.ClientCount())
	}

	b.CloseSession("a")
	if _, ok := <-chA; ok {
		t.Fatalf("session a channel still open after CloseSession")
	}
	if b.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d; want 1", b.ClientCount())
	}
}

func TestRelayPublishesViewAndChart(t *testing.T) {
	b := NewBroker()
	r := NewRelay(b, chart.DefaultPalette)
	src := &fakeSource{}
	r.Attach("s1", src)

	_, ch := b.Subscribe("s1")

	src.emit(explorer.View{
		Version: 7,
		State:   explorer.State{Dimension: "dt", Measure: "revenue", ChartType: types.ChartBar},
		Rows:    []types.Row{{"dt": "a", "revenue": 100}, {"dt": "b", "revenue": nil}},
	})

	viewEvt := receive(t, ch)
	if viewEvt.Feed != FeedView || !strings.Contains(viewEvt.Payload, `"version":7`) {
		t.Fatalf("view event = %+v", viewEvt)
	}
	chartEvt := receive(t, ch)
	if chartEvt.Feed != FeedChart {
		t.Fatalf("second event feed = %q; want chart", chartEvt.Feed)
	}
	var opt chart.Option
	if err := json.Unmarshal([]byte(chartEvt.Payload), &opt); err != nil {
		t.Fatalf("chart payload not JSON: %v", err)
	}
	if len(opt.Series) != 1 || opt.Series[0].Type != "bar" {
		t.Fatalf("chart option series = %+v", opt.Series)
	}

	r.Detach("s1")
	if src.count() != 0 {
		t.Fatalf("listener still registered after Detach")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("subscriber channel still open after Detach")
	}
}

func TestAttachReplacesPreviousListener(t *testing.T) {
	r := NewRelay(NewBroker(), chart.DefaultPalette)
	src := &fakeSource{}
	r.Attach("s1", src)
	r.Attach("s1", src)
	if src.count() != 1 {
		t.Fatalf("listeners = %d; want 1", src.count())
	}
	r.Stop()
	if src.count() != 0 {
		t.Fatalf("listeners = %d after Stop; want 0", src.count())
	}
}

func TestSSEHandlerStreamsFilteredFeed(t *testing.T) {
	b := NewBroker()
	h := SSEHandler(b, func(r *http.Request) string { return r.URL.Query().Get("session") })
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?session=s1&feeds=chart", nil)
	if err != nil {
		t.Fatalf("NewRequest() = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q; want text/event-stream", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("SSE client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.Publish(Event{Session: "s1", Feed: FeedView, Payload: "skip"})
	b.Publish(Event{Session: "s2", Feed: FeedChart, Payload: "other"})
	b.Publish(Event{Session: "s1", Feed: FeedChart, Payload: `{"series":[]}`})

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "retry:") || strings.HasPrefix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}
	want := []string{"id: 1", "event: chart", `data: {"series":[]}`}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("SSE frame = %q; want %q", lines, want)
	}
}

func TestSSEHandlerEndsWhenSessionCloses(t *testing.T) {
	b := NewBroker()
	h := SSEHandler(b, func(*http.Request) string { return "s1" })
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET = %v", err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("SSE client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	b.CloseSession("s1")

	done := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(resp.Body)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ReadAll() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after session close")
	}
}

func TestStopOnShutdownReleasesOpenStreams(t *testing.T) {
	b := NewBroker()
	rel := NewRelay(b, chart.DefaultPalette)
	rel.Attach("s1", &fakeSource{})

	srv := httptest.NewUnstartedServer(SSEHandler(b, func(*http.Request) string { return "s1" }))
	srv.Config.RegisterOnShutdown(rel.Stop)
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET = %v", err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("SSE client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	start := time.Now()
	if err := srv.Config.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Shutdown() took %v; open stream held it", elapsed)
	}
	if b.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d after shutdown; want 0", b.ClientCount())
	}
}

func TestParseFeeds(t *testing.T) {
	if parseFeeds("") != nil || parseFeeds(" , ") != nil {
		t.Fatal("empty feed list should mean every feed")
	}
	got := parseFeeds("view, chart")
	if len(got) != 2 || !got["view"] || !got["chart"] {
		t.Fatalf("parseFeeds() = %v", got)
	}
}

func TestSSEHandlerRequiresSession(t *testing.T) {
	h := SSEHandler(NewBroker(), func(*http.Request) string { return "" })
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}
