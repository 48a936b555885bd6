package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRunLogWritesAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLog(dir, 8, 1)

	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	recs := []RunRecord{
		{Time: day.Add(time.Minute), SessionID: "a", DatasetID: "orders", Rows: 2, DurationMS: 12},
		{Time: day, SessionID: "b", DatasetID: "orders", Error: "backend status 500"},
		{Time: day.Add(2 * time.Minute), SessionID: "a", DatasetID: "livestream", Rows: 0},
	}
	for _, r := range recs {
		if err := l.Record(r); err != nil {
			t.Fatalf("Record() = %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "2024-03-10", runsFile)); err != nil {
		t.Fatalf("runs file missing: %v", err)
	}

	all, err := ReadRuns(dir, "2024-03-10", "")
	if err != nil {
		t.Fatalf("ReadRuns() = %v", err)
	}
	want := []RunRecord{recs[1], recs[0], recs[2]}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Fatalf("ReadRuns() mismatch (-want +got):\n%s", diff)
	}

	onlyA, err := ReadRuns(dir, "2024-03-10", "a")
	if err != nil {
		t.Fatalf("ReadRuns(a) = %v", err)
	}
	if len(onlyA) != 2 || onlyA[0].DatasetID != "orders" || onlyA[1].DatasetID != "livestream" {
		t.Fatalf("ReadRuns(a) = %+v", onlyA)
	}
}

func TestRunLogSplitsByDate(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLog(dir, 8, 1)
	_ = l.Record(RunRecord{Time: time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC), SessionID: "a"})
	_ = l.Record(RunRecord{Time: time.Date(2024, 3, 11, 0, 1, 0, 0, time.UTC), SessionID: "a"})
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	for _, day := range []string{"2024-03-10", "2024-03-11"} {
		got, err := ReadRuns(dir, day, "")
		if err != nil {
			t.Fatalf("ReadRuns(%s) = %v", day, err)
		}
		if len(got) != 1 {
			t.Fatalf("ReadRuns(%s) = %d records, want 1", day, len(got))
		}
	}
}

func TestRecordAfterCloseFails(t *testing.T) {
	l := NewRunLog(t.TempDir(), 1, 1)
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := l.Record(RunRecord{Time: time.Now()}); err != ErrClosed {
		t.Fatalf("Record() after Close = %v, want ErrClosed", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
}

func TestReadRunsMissingDayIsEmpty(t *testing.T) {
	got, err := ReadRuns(t.TempDir(), "2024-01-01", "")
	if err != nil {
		t.Fatalf("ReadRuns() = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("ReadRuns() = %#v, want empty slice", got)
	}
}

func TestReadRunsRejectsBadDate(t *testing.T) {
	if _, err := ReadRuns(t.TempDir(), "../etc", ""); err == nil {
		t.Fatal("ReadRuns() accepted a non-date")
	}
}

func TestTokenFingerprint(t *testing.T) {
	if TokenFingerprint("") != "" {
		t.Fatal("empty token should have no fingerprint")
	}
	a, b := TokenFingerprint("abc"), TokenFingerprint("abd")
	if len(a) != 12 || a == b || a != TokenFingerprint("abc") {
		t.Fatalf("fingerprints a=%q b=%q", a, b)
	}
}
