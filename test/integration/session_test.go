//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	sv := env.openSession(t)
	if !strings.HasPrefix(sv.TokenBadge, "Token: ") {
		t.Fatalf("token_badge = %q", sv.TokenBadge)
	}

	resp := env.GET(t, "/api/v1/sessions")
	requireStatus(t, resp, http.StatusOK)
	listing := decodeJSON[struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}](t, resp)
	found := false
	for _, s := range listing.Sessions {
		if s.ID == sv.SessionID {
			found = true
		}
	}
	if !found {
		t.Fatalf("session %s not listed", sv.SessionID)
	}

	resp = env.DELETE(t, env.sessionPath(sv.SessionID, ""))
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.GET(t, env.sessionPath(sv.SessionID, ""))
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestSessionAutoSelectsAndRuns(t *testing.T) {
	sv := env.openSession(t)
	settled := env.waitSettled(t, sv.SessionID)

	if len(settled.View.Datasets) == 0 {
		t.Fatal("expected at least one dataset (mock fallback included)")
	}
	requireField(t, settled.View.State.DatasetID, settled.View.Datasets[0].ID, "dataset_id")
	if settled.View.Fields == nil {
		t.Fatal("expected field catalog after auto-select")
	}
	if settled.View.State.Dimension == "" || settled.View.State.Measure == "" {
		t.Fatalf("state = %+v; want defaulted dimension and measure", settled.View.State)
	}
	t.Logf("auto-run: %d rows, run_error=%q", len(settled.View.Rows), settled.View.RunError)
}

func TestSelectionUpdates(t *testing.T) {
	sv := env.openSession(t)
	settled := env.waitSettled(t, sv.SessionID)

	resp := env.PUT(t, env.sessionPath(sv.SessionID, "chart-type"), map[string]any{"chart_type": "line"})
	requireStatus(t, resp, http.StatusOK)
	got := decodeJSON[sessionView](t, resp)
	requireField(t, got.View.State.ChartType, "line", "chart_type")

	resp = env.PUT(t, env.sessionPath(sv.SessionID, "dates"), map[string]any{"date_from": "2024-03-04", "date_to": "2024-03-10"})
	requireStatus(t, resp, http.StatusOK)
	got = decodeJSON[sessionView](t, resp)
	requireField(t, got.View.State.DateFrom, "2024-03-04", "date_from")
	requireField(t, got.View.State.DateTo, "2024-03-10", "date_to")

	resp = env.PUT(t, env.sessionPath(sv.SessionID, "dates"), map[string]any{"date_from": "2024-03-10", "date_to": "2024-03-04"})
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = env.PUT(t, env.sessionPath(sv.SessionID, "platform"), map[string]any{"platform": "tiktok"})
	requireStatus(t, resp, http.StatusOK)
	got = decodeJSON[sessionView](t, resp)
	requireField(t, got.View.State.Platform, "tiktok", "platform")

	if settled.View.Fields != nil {
		resp = env.PUT(t, env.sessionPath(sv.SessionID, "dimension"), map[string]any{"dimension": "no-such-field"})
		requireStatus(t, resp, http.StatusUnprocessableEntity)
		resp.Body.Close()
	}

	resp = env.PUT(t, env.sessionPath(sv.SessionID, "chart-type"), map[string]any{"chart_type": "radar"})
	requireStatus(t, resp, http.StatusUnprocessableEntity)
	resp.Body.Close()
}

func TestRunAndChart(t *testing.T) {
	sv := env.openSession(t)
	env.waitSettled(t, sv.SessionID)

	resp := env.POST(t, env.sessionPath(sv.SessionID, "run"), nil)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	settled := env.waitSettled(t, sv.SessionID)

	resp = env.GET(t, env.sessionPath(sv.SessionID, "chart"))
	requireStatus(t, resp, http.StatusOK)
	opt := decodeJSON[map[string]any](t, resp)
	if len(settled.View.Rows) == 0 {
		if len(opt) != 0 {
			t.Fatalf("chart option = %v; want {} without rows", opt)
		}
		return
	}
	if _, ok := opt["series"]; !ok {
		t.Fatalf("chart option missing series: %v", opt)
	}

	resp = env.GET(t, env.sessionPath(sv.SessionID, "export"))
	requireStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("export Content-Type = %q", ct)
	}
	resp.Body.Close()
}

func TestRunWithoutTokenIsRejected(t *testing.T) {
	resp := env.POST(t, "/api/v1/sessions", map[string]any{})
	requireStatus(t, resp, http.StatusCreated)
	sv := decodeJSON[sessionView](t, resp)
	t.Cleanup(func() {
		r := env.DELETE(t, env.sessionPath(sv.SessionID, ""))
		r.Body.Close()
	})

	resp = env.POST(t, env.sessionPath(sv.SessionID, "run"), nil)
	requireStatus(t, resp, http.StatusUnprocessableEntity)
	resp.Body.Close()
}

func TestDeepHealth(t *testing.T) {
	resp := env.GET(t, "/api/v1/health/deep")
	requireStatus(t, resp, http.StatusOK)
	result := decodeJSON[struct {
		Status  string `json:"status"`
		Backend string `json:"backend"`
	}](t, resp)
	if result.Status != "ok" && result.Status != "degraded" {
		t.Fatalf("status = %q", result.Status)
	}
	t.Logf("deep health: status=%s backend=%s", result.Status, result.Backend)
}
