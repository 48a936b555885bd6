package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/relay"
	"github.com/dgnsrekt/share_explorer/internal/snapshot"
	"github.com/dgnsrekt/share_explorer/internal/storage"
	"github.com/dgnsrekt/share_explorer/internal/types"
)

func TestRunsAreRecorded(t *testing.T) {
	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("snapshot.NewStore() = %v", err)
	}
	history := storage.NewRunLog(t.TempDir(), 16, 1)
	b := &stubBackend{rows: []types.Row{{"dt": "2024-03-10", "revenue": 5}}}
	svc := NewService(b, store, relay.NewRelay(relay.NewBroker(), chart.DefaultPalette), Options{
		Now:     func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
		History: history,
	})
	defer svc.Close()

	ok := settledSession(t, svc, "good-token")
	b.queryErr = errors.New("backend down")
	if _, err := svc.Run(context.Background(), ok.SessionID); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	sess, _ := svc.lookup(ok.SessionID)
	sess.ctrl.Wait()

	// Flush the queue before reading.
	if err := history.Close(); err != nil {
		t.Fatalf("history.Close() = %v", err)
	}

	runs, err := svc.ListRuns(context.Background(), "", ok.SessionID)
	if err != nil {
		t.Fatalf("ListRuns() = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() = %d records, want 2", len(runs))
	}
	first, second := runs[0], runs[1]
	if first.Rows != 1 || first.Error != "" || first.DatasetID != "orders" || first.Dimension != "dt" || first.Measure != "revenue" {
		t.Fatalf("first run = %+v", first)
	}
	if second.Error == "" {
		t.Fatalf("second run = %+v; want the backend error", second)
	}
	if first.Token == "" || first.Token == "good-token" {
		t.Fatalf("token field = %q; want a fingerprint", first.Token)
	}

	other, err := svc.ListRuns(context.Background(), "2024-03-10", "someone-else")
	if err != nil || len(other) != 0 {
		t.Fatalf("ListRuns(other) = %v, %v", other, err)
	}
}

func TestListRunsValidatesDate(t *testing.T) {
	svc := newTestService(t, &stubBackend{})
	_, err := svc.ListRuns(context.Background(), "10/03/2024", "")
	assertCode(t, err, types.CodeValidation)

	runs, err := svc.ListRuns(context.Background(), "", "")
	if err != nil || len(runs) != 0 {
		t.Fatalf("ListRuns() without history = %v, %v", runs, err)
	}
}
