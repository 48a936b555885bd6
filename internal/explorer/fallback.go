package explorer

import "github.com/dgnsrekt/share_explorer/internal/types"

// MockDatasets is served when the dataset list cannot be loaded.
func MockDatasets() []types.Dataset {
	return []types.Dataset{
		{ID: "orders", Label: "📦 Orders (Mock)"},
		{ID: "livestream", Label: "🔴 Livestream (Mock)"},
	}
}

// MockFields is served when a dataset's fields cannot be loaded.
func MockFields() types.FieldCatalog {
	return types.FieldCatalog{
		Dimensions: []string{"dt", "platform", "product_name"},
		Measures:   []string{"revenue", "orders"},
	}
}

// FallbackDatasets resolves a dataset load outcome. Any failure maps to the
// mock list; mock reports whether that happened.
func FallbackDatasets(list []types.Dataset, err error) (out []types.Dataset, mock bool) {
	if err != nil {
		return MockDatasets(), true
	}
	if list == nil {
		list = []types.Dataset{}
	}
	return list, false
}

// FallbackFields resolves a field load outcome the same way.
func FallbackFields(f types.FieldCatalog, err error) (out types.FieldCatalog, mock bool) {
	if err != nil {
		return MockFields(), true
	}
	if f.Dimensions == nil {
		f.Dimensions = []string{}
	}
	if f.Measures == nil {
		f.Measures = []string{}
	}
	return f, false
}
