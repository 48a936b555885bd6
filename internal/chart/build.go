package chart

import "github.com/dgnsrekt/share_explorer/internal/types"

var defaultGrid = Grid{Left: 44, Right: 20, Top: 30, Bottom: 40}

// Build maps rows to an option document using DefaultPalette.
func Build(chartType types.ChartType, rows []types.Row, xKey, yKey string) Option {
	return BuildWithPalette(chartType, rows, xKey, yKey, DefaultPalette)
}

// BuildWithPalette maps rows to an option document. Rows keep their order.
// Empty rows yield the empty option.
func BuildWithPalette(chartType types.ChartType, rows []types.Row, xKey, yKey string, p Palette) Option {
	if len(rows) == 0 {
		return Option{}
	}

	switch chartType {
	case types.ChartPie:
		return buildPie(rows, xKey, yKey)
	case types.ChartScatter:
		return buildScatter(rows, yKey, p)
	default:
		return buildCartesian(chartType, rows, xKey, yKey, p)
	}
}

func buildPie(rows []types.Row, xKey, yKey string) Option {
	data := make([]PieDatum, len(rows))
	for i, r := range rows {
		data[i] = PieDatum{Name: r[xKey], Value: toNumber(r[yKey])}
	}
	zero := 0
	return Option{
		Tooltip: &Tooltip{Trigger: "item", Formatter: "{b}: {c} ({d}%)"},
		Series: []Series{{
			Type:   string(types.ChartPie),
			Data:   data,
			Radius: []string{"40%", "70%"},
			Emphasis: &Emphasis{ItemStyle: ItemStyle{
				ShadowBlur:    10,
				ShadowOffsetX: &zero,
				ShadowColor:   "rgba(0, 0, 0, 0.5)",
			}},
		}},
	}
}

func buildScatter(rows []types.Row, yKey string, p Palette) Option {
	data := make([][2]float64, len(rows))
	for i, r := range rows {
		data[i] = [2]float64{float64(i), toNumber(r[yKey])}
	}
	s := Series{
		Type:       string(types.ChartScatter),
		Data:       data,
		SymbolSize: 8,
	}
	if p.Scatter != "" {
		s.ItemStyle = &ItemStyle{Color: p.Scatter}
	}
	grid := defaultGrid
	return Option{
		Tooltip: &Tooltip{Trigger: "item"},
		XAxis:   &Axis{Type: "value", Scale: true},
		YAxis:   &Axis{Type: "value", Scale: true},
		Series:  []Series{s},
		Grid:    &grid,
	}
}

func buildCartesian(chartType types.ChartType, rows []types.Row, xKey, yKey string, p Palette) Option {
	xData := make([]any, len(rows))
	yData := make([]float64, len(rows))
	for i, r := range rows {
		xData[i] = r[xKey]
		yData[i] = toNumber(r[yKey])
	}

	smooth := chartType == types.ChartLine
	s := Series{
		Type:   string(chartType),
		Data:   yData,
		Smooth: &smooth,
	}
	switch chartType {
	case types.ChartBar:
		if p.Bar != "" {
			s.ItemStyle = &ItemStyle{Color: p.Bar}
		}
	case types.ChartLine:
		if p.Line != "" {
			s.ItemStyle = &ItemStyle{Color: p.Line}
		}
	}

	grid := defaultGrid
	return Option{
		Tooltip: &Tooltip{Trigger: "axis"},
		XAxis:   &Axis{Type: "category", Data: xData},
		YAxis:   &Axis{Type: "value"},
		Series:  []Series{s},
		Grid:    &grid,
	}
}
