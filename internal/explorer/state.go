package explorer

import (
	"time"

	"github.com/dgnsrekt/share_explorer/internal/types"
)

const dateLayout = "2006-01-02"

// State is the user's current exploration selection.
type State struct {
	DatasetID string          `json:"dataset_id"`
	Dimension string          `json:"dimension"`
	Measure   string          `json:"measure"`
	DateFrom  string          `json:"date_from"`
	DateTo    string          `json:"date_to"`
	Platform  string          `json:"platform"`
	ChartType types.ChartType `json:"chart_type"`
}

// NewState returns the initial selection: the last seven days ending at now
// (UTC calendar dates) and a bar chart.
func NewState(now time.Time) State {
	today := now.UTC()
	return State{
		DateFrom:  today.AddDate(0, 0, -6).Format(dateLayout),
		DateTo:    today.Format(dateLayout),
		ChartType: types.ChartBar,
	}
}

// Ready reports whether every field a query needs is selected.
func (s State) Ready() bool {
	return s.DatasetID != "" && s.Dimension != "" && s.Measure != ""
}

// QueryRequest builds the backend payload for s. An empty platform is sent
// as null.
func (s State) QueryRequest(limit int) types.QueryRequest {
	req := types.QueryRequest{
		DatasetID: s.DatasetID,
		Dimension: s.Dimension,
		Measure:   s.Measure,
		DateFrom:  s.DateFrom,
		DateTo:    s.DateTo,
		Limit:     limit,
		Order:     "asc",
	}
	if s.Platform != "" {
		p := s.Platform
		req.Platform = &p
	}
	return req
}

// DefaultDimension prefers "dt", then the first dimension, then empty.
func DefaultDimension(f types.FieldCatalog) string {
	return preferOrFirst(f.Dimensions, "dt")
}

// DefaultMeasure prefers "revenue", then the first measure, then empty.
func DefaultMeasure(f types.FieldCatalog) string {
	return preferOrFirst(f.Measures, "revenue")
}

func preferOrFirst(list []string, preferred string) string {
	for _, v := range list {
		if v == preferred {
			return preferred
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return ""
}

// applyFieldDefaults fills only the empty selections from catalog defaults.
func applyFieldDefaults(s State, f types.FieldCatalog) State {
	if s.Dimension == "" {
		s.Dimension = DefaultDimension(f)
	}
	if s.Measure == "" {
		s.Measure = DefaultMeasure(f)
	}
	return s
}
