package types

// Row is one aggregated result record keyed by field name.
type Row map[string]any

// QueryRequest is the body sent to the backend query endpoint.
// Platform is encoded as null when unset.
type QueryRequest struct {
	DatasetID string  `json:"dataset_id"`
	Dimension string  `json:"dimension"`
	Measure   string  `json:"measure"`
	DateFrom  string  `json:"date_from"`
	DateTo    string  `json:"date_to"`
	Platform  *string `json:"platform"`
	Limit     int     `json:"limit"`
	Order     string  `json:"order"`
}

// QueryResponse is the backend query result.
type QueryResponse struct {
	Rows []Row `json:"rows"`
}

// HealthStatus is the backend liveness payload.
type HealthStatus struct {
	Status string `json:"status"`
}
