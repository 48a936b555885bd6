package chart

import (
	"fmt"
	"io"

	"github.com/dgnsrekt/share_explorer/internal/types"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ExportSpec describes one chart rendered outside the live dashboard.
type ExportSpec struct {
	Title     string
	Subtitle  string
	ChartType types.ChartType
	Rows      []types.Row
	XKey      string
	YKey      string
	Height    int
	Palette   Palette
}

func (s ExportSpec) height() int {
	if s.Height <= 0 {
		return 450
	}
	return s.Height
}

// RenderHTML writes a self-contained ECharts page for spec.
func RenderHTML(w io.Writer, spec ExportSpec) error {
	page := components.NewPage()
	page.PageTitle = spec.Title
	page.AddCharts(buildEChart(spec))
	if err := page.Render(w); err != nil {
		return types.NewError(types.CodeRenderFailure, "render html export", err)
	}
	return nil
}

func buildEChart(spec ExportSpec) components.Charter {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: spec.Title,
			Width:     "100%",
			Height:    fmt.Sprintf("%dpx", spec.height()),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    spec.Title,
			Subtitle: spec.Subtitle,
		}),
	}

	labels := make([]string, len(spec.Rows))
	values := make([]float64, len(spec.Rows))
	for i, r := range spec.Rows {
		labels[i] = label(r[spec.XKey])
		values[i] = toNumber(r[spec.YKey])
	}

	switch spec.ChartType {
	case types.ChartPie:
		data := make([]opts.PieData, len(values))
		for i := range values {
			data[i] = opts.PieData{Name: labels[i], Value: values[i]}
		}
		pie := charts.NewPie()
		pie.SetGlobalOptions(append(global, charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: "{b}: {c} ({d}%)",
		}))...)
		pie.AddSeries(spec.YKey, data).
			SetSeriesOptions(charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"40%", "70%"},
			}))
		return pie

	case types.ChartScatter:
		data := make([]opts.ScatterData, len(values))
		for i := range values {
			data[i] = opts.ScatterData{Value: []float64{float64(i), values[i]}, SymbolSize: 8}
		}
		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(append(global,
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
			charts.WithXAxisOpts(opts.XAxis{Type: "value"}),
			charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		)...)
		scatter.AddSeries(spec.YKey, data)
		if spec.Palette.Scatter != "" {
			scatter.SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{Color: spec.Palette.Scatter}))
		}
		return scatter

	case types.ChartLine:
		data := make([]opts.LineData, len(values))
		for i := range values {
			data[i] = opts.LineData{Value: values[i]}
		}
		line := charts.NewLine()
		line.SetGlobalOptions(append(global, charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}))...)
		line.SetXAxis(labels).AddSeries(spec.YKey, data)
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		if spec.Palette.Line != "" {
			line.SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{Color: spec.Palette.Line}))
		}
		return line

	default:
		data := make([]opts.BarData, len(values))
		for i := range values {
			data[i] = opts.BarData{Value: values[i]}
		}
		bar := charts.NewBar()
		bar.SetGlobalOptions(append(global, charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}))...)
		bar.SetXAxis(labels).AddSeries(spec.YKey, data)
		if spec.Palette.Bar != "" {
			bar.SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{Color: spec.Palette.Bar}))
		}
		return bar
	}
}

func label(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
