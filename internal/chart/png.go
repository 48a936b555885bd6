package chart

import (
	"bytes"
	"io"
	"math"

	"github.com/dgnsrekt/share_explorer/internal/types"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// DefaultPNGWidth is the snapshot width in pixels.
const DefaultPNGWidth = 1024

// RenderPNG draws spec as a static PNG image.
func RenderPNG(w io.Writer, spec ExportSpec, width int) error {
	if len(spec.Rows) == 0 {
		return types.NewError(types.CodeRenderFailure, "no rows to render", nil)
	}
	if width <= 0 {
		width = DefaultPNGWidth
	}
	height := spec.height()

	labels := make([]string, len(spec.Rows))
	xs := make([]float64, len(spec.Rows))
	ys := make([]float64, len(spec.Rows))
	for i, r := range spec.Rows {
		labels[i] = label(r[spec.XKey])
		xs[i] = float64(i)
		ys[i] = toNumber(r[spec.YKey])
	}

	chartType := spec.ChartType
	if chartType == types.ChartPie && !pieDrawable(ys) {
		// go-chart cannot draw slices of a zero or negative total.
		chartType = types.ChartBar
	}

	// Render into a buffer so a failed render never leaves a partial image in w.
	var buf bytes.Buffer
	var err error
	switch chartType {
	case types.ChartPie:
		values := make([]gochart.Value, len(ys))
		for i, y := range ys {
			values[i] = gochart.Value{Value: y, Label: labels[i]}
		}
		graph := gochart.PieChart{
			Title:  spec.Title,
			Width:  width,
			Height: height,
			Values: values,
		}
		err = graph.Render(gochart.PNG, &buf)

	case types.ChartBar:
		bars := make([]gochart.Value, len(ys))
		for i, y := range ys {
			bars[i] = gochart.Value{Value: y, Label: labels[i]}
		}
		lo, hi := valueRange(ys, true)
		graph := gochart.BarChart{
			Title:  spec.Title,
			Width:  width,
			Height: height,
			Background: gochart.Style{
				Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			},
			YAxis: gochart.YAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
			Bars:  bars,
		}
		err = graph.Render(gochart.PNG, &buf)

	default:
		series := gochart.ContinuousSeries{
			Name:    spec.YKey,
			XValues: xs,
			YValues: ys,
		}
		if chartType == types.ChartScatter {
			series.Style = gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    4,
			}
		}
		graph := gochart.Chart{
			Title:  spec.Title,
			Width:  width,
			Height: height,
			Series: []gochart.Series{series},
		}
		if len(xs) == 1 {
			graph.XAxis.Range = &gochart.ContinuousRange{Min: -1, Max: 1}
		}
		if minOf(ys) == maxOf(ys) {
			lo, hi := valueRange(ys, false)
			graph.YAxis.Range = &gochart.ContinuousRange{Min: lo, Max: hi}
		}
		err = graph.Render(gochart.PNG, &buf)
	}

	if err != nil {
		return types.NewError(types.CodeRenderFailure, "render png", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func pieDrawable(ys []float64) bool {
	total := 0.0
	for _, y := range ys {
		if y < 0 {
			return false
		}
		total += y
	}
	return total > 0
}

// valueRange returns the axis bounds for ys. withZero stretches the range to
// include the baseline. A flat range is padded so the axis has a non-zero span.
func valueRange(ys []float64, withZero bool) (float64, float64) {
	lo, hi := minOf(ys), maxOf(ys)
	if withZero {
		lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	}
	if lo == hi {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

func minOf(ys []float64) float64 {
	m := ys[0]
	for _, y := range ys[1:] {
		m = math.Min(m, y)
	}
	return m
}

func maxOf(ys []float64) float64 {
	m := ys[0]
	for _, y := range ys[1:] {
		m = math.Max(m, y)
	}
	return m
}
