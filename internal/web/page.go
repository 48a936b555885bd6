package web

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dgnsrekt/share_explorer/internal/chart"
	"github.com/dgnsrekt/share_explorer/internal/controller"
	"github.com/dgnsrekt/share_explorer/internal/explorer"
	"github.com/dgnsrekt/share_explorer/internal/relay"
	"github.com/dgnsrekt/share_explorer/internal/types"
	"github.com/go-chi/chi/v5"
)

// Service is what the dashboard page and chart socket need from the session
// service.
type Service interface {
	CreateSession(ctx context.Context, token string) (controller.SessionView, error)
	ChartOption(ctx context.Context, id string) (chart.Option, error)
}

type chartTypeChoice struct {
	Value string
	Label string
}

type pageData struct {
	Lang        string
	Msgs        explorer.Messages
	Loading     bool
	SessionID   string
	TokenBadge  string
	ChartHeight int
	ChartTypes  []chartTypeChoice
	Script      scriptText
}

// scriptText is the subset of messages the page script needs.
type scriptText struct {
	Run        string `json:"run"`
	Running    string `json:"running"`
	RowsSuffix string `json:"rows_suffix"`
}

// Handler serves the dashboard page and the chart socket.
type Handler struct {
	svc         Service
	broker      *relay.Broker
	msgs        explorer.Messages
	lang        string
	chartHeight int
	tmpl        *template.Template
}

func New(svc Service, broker *relay.Broker, locale string, chartHeight int) *Handler {
	if chartHeight <= 0 {
		chartHeight = 450
	}
	return &Handler{
		svc:         svc,
		broker:      broker,
		msgs:        explorer.MessagesFor(locale),
		lang:        locale,
		chartHeight: chartHeight,
		tmpl:        template.Must(template.New("dashboard").Parse(dashboardHTML)),
	}
}

// Routes mounts the page and socket routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/s", h.page)
	r.Get("/s/", h.page)
	r.Get("/s/{token}", h.page)
	r.Get("/ws/sessions/{session_id}/chart", h.chartSocket)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Lang:        h.lang,
		Msgs:        h.msgs,
		ChartHeight: h.chartHeight,
		Script:      scriptText{Run: h.msgs.Run, Running: h.msgs.Running, RowsSuffix: h.msgs.RowsSuffix},
	}
	for _, ct := range []types.ChartType{types.ChartLine, types.ChartBar, types.ChartPie, types.ChartScatter} {
		data.ChartTypes = append(data.ChartTypes, chartTypeChoice{Value: string(ct), Label: h.msgs.ChartTypes[ct]})
	}

	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		data.Loading = true
	} else {
		sv, err := h.svc.CreateSession(r.Context(), token)
		if err != nil {
			slog.Warn("dashboard session create failed", "error", err)
			data.Loading = true
		} else {
			data.SessionID = sv.SessionID
			data.TokenBadge = sv.TokenBadge
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		slog.Debug("dashboard render failed", "error", err)
	}
}
