package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/controller"
	"github.com/dgnsrekt/share_explorer/internal/relay"
	"github.com/dgnsrekt/share_explorer/internal/snapshot"
	"github.com/dgnsrekt/share_explorer/internal/storage"
	"github.com/dgnsrekt/share_explorer/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	CreateSession(ctx context.Context, token string) (controller.SessionView, error)
	ListSessions(ctx context.Context) []controller.SessionInfo
	GetSession(ctx context.Context, id string) (controller.SessionView, error)
	CloseSession(ctx context.Context, id string) error
	SetToken(ctx context.Context, id, token string) (controller.SessionView, error)
	SelectDataset(ctx context.Context, id, datasetID string) (controller.SessionView, error)
	SetDimension(ctx context.Context, id, dimension string) (controller.SessionView, error)
	SetMeasure(ctx context.Context, id, measure string) (controller.SessionView, error)
	SetDates(ctx context.Context, id, from, to string) (controller.SessionView, error)
	SetPlatform(ctx context.Context, id, platform string) (controller.SessionView, error)
	SetLimit(ctx context.Context, id string, limit int) (controller.SessionView, error)
	SetChartType(ctx context.Context, id, chartType string) (controller.SessionView, error)
	Run(ctx context.Context, id string) (controller.SessionView, error)
	ChartOption(ctx context.Context, id string) (chart.Option, error)
	ExportHTML(ctx context.Context, id string) ([]byte, error)
	TakeSnapshot(ctx context.Context, id string, width int, notes string) (snapshot.SnapshotMeta, error)
	ListSnapshots(ctx context.Context, sessionID string) ([]snapshot.SnapshotMeta, error)
	GetSnapshot(ctx context.Context, id string) (snapshot.SnapshotMeta, error)
	ReadSnapshotImage(ctx context.Context, id string) ([]byte, string, error)
	DeleteSnapshot(ctx context.Context, id string) error
	DeepHealthCheck(ctx context.Context) (controller.DeepHealthResult, error)
	ListRuns(ctx context.Context, date, sessionID string) ([]storage.RunRecord, error)
}

// Routes mounts extra non-OpenAPI routes, such as the dashboard page and the
// chart socket, on the shared router.
type Routes func(r chi.Router)

type sessionIDInput struct {
	SessionID string `path:"session_id"`
}

type sessionOutput struct {
	Body controller.SessionView
}

type statusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func NewServer(svc Service, broker *relay.Broker, extra ...Routes) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Share Explorer API", "1.0.0")
	cfg.DocsPath = ""
	// Chart options are handed to ECharts as-is; no $schema link in bodies.
	cfg.CreateHooks = nil
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(eventsDocsHTML)); err != nil {
			slog.Debug("events docs response write failed", "error", err)
		}
	})

	if broker != nil {
		stream := relay.SSEHandler(broker, func(r *http.Request) string {
			return chi.URLParam(r, "session_id")
		})
		router.Get("/api/v1/sessions/{session_id}/events", func(w http.ResponseWriter, r *http.Request) {
			if _, err := svc.GetSession(r.Context(), chi.URLParam(r, "session_id")); err != nil {
				writeErr(w, err)
				return
			}
			stream(w, r)
		})
	}

	registerSessionHandlers(api, svc)
	registerChartHandlers(api, svc)
	registerSnapshotHandlers(api, svc)
	registerMiscHandlers(api, svc)

	for _, mount := range extra {
		mount(router)
	}

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *types.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case types.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case types.CodeInvalidSelection:
			return huma.Error422UnprocessableEntity(coded.Message)
		case types.CodeSessionNotFound, types.CodeSnapshotNotFound:
			return huma.Error404NotFound(coded.Message)
		case types.CodeBackendUnavailable, types.CodeBackendStatus, types.CodeBackendDecode:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

// writeErr reports err on a raw chi route with the same status mapErr picks.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var se huma.StatusError
	if errors.As(mapErr(err), &se) {
		status = se.GetStatus()
	}
	http.Error(w, err.Error(), status)
}
