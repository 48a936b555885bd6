package chart

// Option is the declarative chart document handed to the rendering surface.
// The zero value marshals to {} and tells the surface to draw nothing.
type Option struct {
	Tooltip *Tooltip `json:"tooltip,omitempty"`
	XAxis   *Axis    `json:"xAxis,omitempty"`
	YAxis   *Axis    `json:"yAxis,omitempty"`
	Grid    *Grid    `json:"grid,omitempty"`
	Series  []Series `json:"series,omitempty"`
}

// IsEmpty reports whether the option carries no series.
func (o Option) IsEmpty() bool {
	return len(o.Series) == 0
}

type Tooltip struct {
	Trigger   string `json:"trigger"`
	Formatter string `json:"formatter,omitempty"`
}

type Axis struct {
	Type  string `json:"type"`
	Data  []any  `json:"data,omitempty"`
	Scale bool   `json:"scale,omitempty"`
}

type Grid struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// Series is one data series. Data holds []float64 for line and bar,
// []PieDatum for pie and [][2]float64 for scatter.
type Series struct {
	Type       string     `json:"type"`
	Data       any        `json:"data"`
	Smooth     *bool      `json:"smooth,omitempty"`
	Radius     []string   `json:"radius,omitempty"`
	Emphasis   *Emphasis  `json:"emphasis,omitempty"`
	SymbolSize int        `json:"symbolSize,omitempty"`
	ItemStyle  *ItemStyle `json:"itemStyle,omitempty"`
}

type PieDatum struct {
	Name  any     `json:"name"`
	Value float64 `json:"value"`
}

type Emphasis struct {
	ItemStyle ItemStyle `json:"itemStyle"`
}

type ItemStyle struct {
	Color         string `json:"color,omitempty"`
	ShadowBlur    int    `json:"shadowBlur,omitempty"`
	ShadowOffsetX *int   `json:"shadowOffsetX,omitempty"`
	ShadowColor   string `json:"shadowColor,omitempty"`
}

// Palette carries per chart type color hints. An empty entry leaves the
// surface default in place.
type Palette struct {
	Line    string
	Bar     string
	Scatter string
}

// DefaultPalette matches the dashboard's indigo accent.
var DefaultPalette = Palette{
	Bar:     "rgba(102, 126, 234, 0.8)",
	Scatter: "rgba(102, 126, 234, 0.6)",
}

// WithOverrides returns p with every non-empty entry of colors applied.
// Keys are chart type names.
func (p Palette) WithOverrides(colors map[string]string) Palette {
	if v := colors["line"]; v != "" {
		p.Line = v
	}
	if v := colors["bar"]; v != "" {
		p.Bar = v
	}
	if v := colors["scatter"]; v != "" {
		p.Scatter = v
	}
	return p
}
