package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/share_explorer/internal/controller"
	"github.com/dgnsrekt/share_explorer/internal/storage"
)

func registerMiscHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type deepHealthOutput struct {
		Body controller.DeepHealthResult
	}
	huma.Register(api, huma.Operation{OperationID: "deep-health", Method: http.MethodGet, Path: "/api/v1/health/deep", Summary: "Deep health check including the analytics backend", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*deepHealthOutput, error) {
			result, err := svc.DeepHealthCheck(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &deepHealthOutput{}
			out.Body = result
			return out, nil
		})

	type listRunsOutput struct {
		Body struct {
			Runs []storage.RunRecord `json:"runs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-runs", Method: http.MethodGet, Path: "/api/v1/history/runs", Summary: "List logged backend queries for a day", Tags: []string{"History"}},
		func(ctx context.Context, input *struct {
			Date      string `query:"date" doc:"UTC day, YYYY-MM-DD; defaults to today" example:"2024-03-10"`
			SessionID string `query:"session_id" doc:"Only runs issued by this session"`
		}) (*listRunsOutput, error) {
			runs, err := svc.ListRuns(ctx, input.Date, input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listRunsOutput{}
			out.Body.Runs = runs
			return out, nil
		})
}
