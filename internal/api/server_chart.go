package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/share_explorer/internal/chart"
)

func registerChartHandlers(api huma.API, svc Service) {
	type chartOptionOutput struct {
		Body chart.Option
	}
	huma.Register(api, huma.Operation{OperationID: "get-chart-option", Method: http.MethodGet, Path: "/api/v1/sessions/{session_id}/chart", Summary: "Get the ECharts option for the current rows", Description: "Returns {} when there are no rows.", Tags: []string{"Chart"}},
		func(ctx context.Context, input *sessionIDInput) (*chartOptionOutput, error) {
			opt, err := svc.ChartOption(ctx, input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &chartOptionOutput{}
			out.Body = opt
			return out, nil
		})

	type exportOutput struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}
	huma.Register(api, huma.Operation{OperationID: "export-chart-html", Method: http.MethodGet, Path: "/api/v1/sessions/{session_id}/export", Summary: "Export the current chart as a standalone HTML page", Tags: []string{"Chart"}},
		func(ctx context.Context, input *struct {
			SessionID string `path:"session_id"`
			Download  bool   `query:"download" doc:"Send as an attachment"`
		}) (*exportOutput, error) {
			page, err := svc.ExportHTML(ctx, input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &exportOutput{ContentType: "text/html; charset=utf-8", Body: page}
			if input.Download {
				out.ContentDisposition = `attachment; filename="chart-` + input.SessionID + `.html"`
			}
			return out, nil
		})
}
