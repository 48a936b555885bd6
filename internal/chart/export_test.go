package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgnsrekt/share_explorer/internal/types"
)

var exportRows = []types.Row{
	{"dt": "2024-01-01", "revenue": 120},
	{"dt": "2024-01-02", "revenue": 80},
	{"dt": "2024-01-03", "revenue": 150},
}

func TestRenderHTMLForEveryChartType(t *testing.T) {
	for _, ct := range []types.ChartType{types.ChartLine, types.ChartBar, types.ChartPie, types.ChartScatter} {
		var buf bytes.Buffer
		err := RenderHTML(&buf, ExportSpec{
			Title:     "dt × revenue",
			ChartType: ct,
			Rows:      exportRows,
			XKey:      "dt",
			YKey:      "revenue",
			Palette:   DefaultPalette,
		})
		if err != nil {
			t.Fatalf("RenderHTML(%s) error = %v", ct, err)
		}
		out := buf.String()
		if !strings.Contains(out, "echarts") {
			t.Fatalf("RenderHTML(%s) output missing echarts script", ct)
		}
		if !strings.Contains(out, "450px") {
			t.Fatalf("RenderHTML(%s) output missing default height", ct)
		}
	}
}

func TestRenderPNGWritesImage(t *testing.T) {
	for _, ct := range []types.ChartType{types.ChartLine, types.ChartBar, types.ChartPie, types.ChartScatter} {
		var buf bytes.Buffer
		err := RenderPNG(&buf, ExportSpec{ChartType: ct, Rows: exportRows, XKey: "dt", YKey: "revenue", Height: 300}, 640)
		if err != nil {
			t.Fatalf("RenderPNG(%s) error = %v", ct, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
			t.Fatalf("RenderPNG(%s) did not produce a PNG", ct)
		}
	}
}

func TestRenderPNGRejectsEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPNG(&buf, ExportSpec{ChartType: types.ChartBar}, 0)
	if !types.HasCode(err, types.CodeRenderFailure) {
		t.Fatalf("RenderPNG(empty) error = %v; want %s", err, types.CodeRenderFailure)
	}
}

func TestRenderPNGDegenerateData(t *testing.T) {
	single := []types.Row{{"dt": "2024-01-01", "revenue": 42}}
	flat := []types.Row{{"dt": "a", "revenue": 7}, {"dt": "b", "revenue": 7}}
	zeros := []types.Row{{"dt": "a", "revenue": 0}, {"dt": "b", "revenue": 0}}
	negative := []types.Row{{"dt": "a", "revenue": -3}, {"dt": "b", "revenue": 5}}

	tests := []struct {
		name string
		ct   types.ChartType
		rows []types.Row
	}{
		{"single line", types.ChartLine, single},
		{"single scatter", types.ChartScatter, single},
		{"single bar", types.ChartBar, single},
		{"single pie", types.ChartPie, single},
		{"flat line", types.ChartLine, flat},
		{"flat bar", types.ChartBar, flat},
		{"zero bar", types.ChartBar, zeros},
		{"zero scatter", types.ChartScatter, zeros},
		{"zero pie", types.ChartPie, zeros},
		{"negative pie", types.ChartPie, negative},
		{"negative bar", types.ChartBar, negative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := RenderPNG(&buf, ExportSpec{ChartType: tt.ct, Rows: tt.rows, XKey: "dt", YKey: "revenue", Height: 300}, 640)
			if err != nil {
				t.Fatalf("RenderPNG() error = %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
				t.Fatalf("RenderPNG() did not produce a PNG")
			}
		})
	}
}

func TestValueRange(t *testing.T) {
	tests := []struct {
		ys       []float64
		withZero bool
		lo, hi   float64
	}{
		{[]float64{0, 0}, true, -1, 1},
		{[]float64{10}, false, 9, 11},
		{[]float64{10}, true, 0, 10},
		{[]float64{-4, 2}, true, -4, 2},
		{[]float64{3, 8}, false, 3, 8},
	}
	for _, tt := range tests {
		lo, hi := valueRange(tt.ys, tt.withZero)
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("valueRange(%v, %v) = %v, %v; want %v, %v", tt.ys, tt.withZero, lo, hi, tt.lo, tt.hi)
		}
	}
}
