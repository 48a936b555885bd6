package types

import "fmt"

// Dataset is one queryable collection exposed by a share token.
type Dataset struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FieldCatalog lists the fields of a single dataset usable as chart axes.
type FieldCatalog struct {
	Dimensions []string `json:"dimensions"`
	Measures   []string `json:"measures"`
}

// HasDimension reports whether name is one of the catalog's dimensions.
func (f FieldCatalog) HasDimension(name string) bool {
	return contains(f.Dimensions, name)
}

// HasMeasure reports whether name is one of the catalog's measures.
func (f FieldCatalog) HasMeasure(name string) bool {
	return contains(f.Measures, name)
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// ChartType selects how rows are drawn.
type ChartType string

const (
	ChartLine    ChartType = "line"
	ChartBar     ChartType = "bar"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
)

// ParseChartType validates a chart type name.
func ParseChartType(s string) (ChartType, error) {
	switch ChartType(s) {
	case ChartLine, ChartBar, ChartPie, ChartScatter:
		return ChartType(s), nil
	}
	return "", NewError(CodeValidation, fmt.Sprintf("unsupported chart type %q", s), nil)
}
