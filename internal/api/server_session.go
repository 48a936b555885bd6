package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/share_explorer/internal/controller"
	"github.com/dgnsrekt/share_explorer/internal/types"
)

func registerSessionHandlers(api huma.API, svc Service) {
	type createSessionInput struct {
		Body struct {
			Token string `json:"token,omitempty" doc:"Share token; omit to create an idle session"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-session", Method: http.MethodPost, Path: "/api/v1/sessions", Summary: "Open an exploration session", Tags: []string{"Sessions"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *createSessionInput) (*sessionOutput, error) {
			sv, err := svc.CreateSession(ctx, input.Body.Token)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &sessionOutput{}
			out.Body = sv
			return out, nil
		})

	type listSessionsOutput struct {
		Body struct {
			Sessions []controller.SessionInfo `json:"sessions"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-sessions", Method: http.MethodGet, Path: "/api/v1/sessions", Summary: "List open sessions", Tags: []string{"Sessions"}},
		func(ctx context.Context, input *struct{}) (*listSessionsOutput, error) {
			out := &listSessionsOutput{}
			out.Body.Sessions = svc.ListSessions(ctx)
			if out.Body.Sessions == nil {
				out.Body.Sessions = []controller.SessionInfo{}
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-session", Method: http.MethodGet, Path: "/api/v1/sessions/{session_id}", Summary: "Get the current session view", Tags: []string{"Sessions"}},
		func(ctx context.Context, input *sessionIDInput) (*sessionOutput, error) {
			sv, err := svc.GetSession(ctx, input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &sessionOutput{}
			out.Body = sv
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "close-session", Method: http.MethodDelete, Path: "/api/v1/sessions/{session_id}", Summary: "Close a session and cancel its requests", Tags: []string{"Sessions"}},
		func(ctx context.Context, input *sessionIDInput) (*statusOutput, error) {
			if err := svc.CloseSession(ctx, input.SessionID); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "closed"
			return out, nil
		})

	// --- Selection endpoints ---

	type tokenInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			Token string `json:"token" doc:"Share token; empty stops loading"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-token", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/token", Summary: "Switch share token", Tags: []string{"Selection"}},
		func(ctx context.Context, input *tokenInput) (*sessionOutput, error) {
			sv, err := svc.SetToken(ctx, input.SessionID, input.Body.Token)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	type datasetInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			DatasetID string `json:"dataset_id" doc:"Dataset id from the session's dataset list" example:"orders"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "select-dataset", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/dataset", Summary: "Select dataset (resets dimension and measure)", Tags: []string{"Selection"}},
		func(ctx context.Context, input *datasetInput) (*sessionOutput, error) {
			sv, err := svc.SelectDataset(ctx, input.SessionID, input.Body.DatasetID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	type dimensionInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			Dimension string `json:"dimension" example:"dt"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-dimension", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/dimension", Summary: "Select dimension", Tags: []string{"Selection"}},
		func(ctx context.Context, input *dimensionInput) (*sessionOutput, error) {
			sv, err := svc.SetDimension(ctx, input.SessionID, input.Body.Dimension)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	type measureInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			Measure string `json:"measure" example:"revenue"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-measure", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/measure", Summary: "Select measure", Tags: []string{"Selection"}},
		func(ctx context.Context, input *measureInput) (*sessionOutput, error) {
			sv, err := svc.SetMeasure(ctx, input.SessionID, input.Body.Measure)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	type datesInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			DateFrom string `json:"date_from" doc:"Inclusive start, YYYY-MM-DD" example:"2024-03-04"`
			DateTo   string `json:"date_to" doc:"Inclusive end, YYYY-MM-DD" example:"2024-03-10"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-dates", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/dates", Summary: "Set the date range (does not re-run)", Tags: []string{"Selection"}},
		func(ctx context.Context, input *datesInput) (*sessionOutput, error) {
			sv, err := svc.SetDates(ctx, input.SessionID, input.Body.DateFrom, input.Body.DateTo)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	type platformInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			Platform string `json:"platform" doc:"Optional platform filter; empty clears it" example:"tiktok"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-platform", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/platform", Summary: "Set the platform filter (does not re-run)", Tags: []string{"Selection"}},
		func(ctx context.Context, input *platformInput) (*sessionOutput, error) {
			sv, err := svc.SetPlatform(ctx, input.SessionID, input.Body.Platform)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	type limitInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			Limit int `json:"limit" doc:"Row limit for the next run, capped by EXPLORER_MAX_LIMIT" example:"1000"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-limit", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/limit", Summary: "Set the row limit (does not re-run)", Tags: []string{"Selection"}},
		func(ctx context.Context, input *limitInput) (*sessionOutput, error) {
			sv, err := svc.SetLimit(ctx, input.SessionID, input.Body.Limit)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	type chartTypeInput struct {
		SessionID string `path:"session_id"`
		Body      struct {
			ChartType string `json:"chart_type" enum:"line,bar,pie,scatter" example:"bar"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-chart-type", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/chart-type", Summary: "Set the chart type (presentation only)", Tags: []string{"Selection"}},
		func(ctx context.Context, input *chartTypeInput) (*sessionOutput, error) {
			sv, err := svc.SetChartType(ctx, input.SessionID, input.Body.ChartType)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "run-query", Method: http.MethodPost, Path: "/api/v1/sessions/{session_id}/run", Summary: "Run the query for the current selection", Description: "An incomplete selection returns 422 with the localized message. Backend failures are reported in the view's run_error.", Tags: []string{"Selection"}},
		func(ctx context.Context, input *sessionIDInput) (*sessionOutput, error) {
			sv, err := svc.Run(ctx, input.SessionID)
			if err != nil {
				var coded *types.CodedError
				if errors.As(err, &coded) && coded.Code == types.CodeValidation {
					return nil, huma.Error422UnprocessableEntity(coded.Message)
				}
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: sv}, nil
		})
}
