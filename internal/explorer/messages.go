package explorer

import (
	"fmt"

	"github.com/dgnsrekt/share_explorer/internal/types"
)

// Messages holds user-facing dashboard text for one locale.
type Messages struct {
	Title            string
	Subtitle         string
	Loading          string
	Run              string
	Running          string
	ValidationFailed string
	QueryFailed      string
	DatasetLabel     string
	DimensionLabel   string
	MeasureLabel     string
	ChartTypeLabel   string
	DateFromLabel    string
	DateToLabel      string
	PlatformLabel    string
	PlatformHint     string
	RowsSuffix       string
	ChartTypes       map[types.ChartType]string
	ChartTitles      map[types.ChartType]string
}

var english = Messages{
	Title:            "📊 Data Explorer",
	Subtitle:         "Explore your data visually",
	Loading:          "⏳ Loading...",
	Run:              "▶️ Run",
	Running:          "⏳ Running...",
	ValidationFailed: "⚠️ Please select a dataset, dimension and measure",
	QueryFailed:      "❌ Query failed - check the backend or try again",
	DatasetLabel:     "📦 Dataset",
	DimensionLabel:   "📍 Dimension",
	MeasureLabel:     "📈 Measure",
	ChartTypeLabel:   "📊 Chart type",
	DateFromLabel:    "📅 From",
	DateToLabel:      "📅 To",
	PlatformLabel:    "📱 Platform (optional)",
	PlatformHint:     "e.g. tiktok",
	RowsSuffix:       "rows",
	ChartTypes: map[types.ChartType]string{
		types.ChartLine:    "📈 Line",
		types.ChartBar:     "📊 Bar",
		types.ChartPie:     "🥧 Pie",
		types.ChartScatter: "⚫ Scatter",
	},
	ChartTitles: map[types.ChartType]string{
		types.ChartLine:    "📈 Line chart",
		types.ChartBar:     "📊 Bar chart",
		types.ChartPie:     "🥧 Pie chart",
		types.ChartScatter: "⚫ Scatter chart",
	},
}

var vietnamese = Messages{
	Title:            "📊 Data Explorer",
	Subtitle:         "Khám phá dữ liệu của bạn một cách trực quan",
	Loading:          "⏳ Đang tải...",
	Run:              "▶️ Chạy",
	Running:          "⏳ Đang chạy...",
	ValidationFailed: "⚠️ Vui lòng chọn dataset, dimension và measure",
	QueryFailed:      "❌ Query lỗi - vui lòng kiểm tra backend hoặc thử lại",
	DatasetLabel:     "📦 Dataset",
	DimensionLabel:   "📍 Dimension",
	MeasureLabel:     "📈 Measure",
	ChartTypeLabel:   "📊 Loại Biểu Đồ",
	DateFromLabel:    "📅 Từ",
	DateToLabel:      "📅 Đến",
	PlatformLabel:    "📱 Platform (tùy chọn)",
	PlatformHint:     "vd: tiktok",
	RowsSuffix:       "hàng dữ liệu",
	ChartTypes: map[types.ChartType]string{
		types.ChartLine:    "📈 Đường",
		types.ChartBar:     "📊 Cột",
		types.ChartPie:     "🥧 Tròn",
		types.ChartScatter: "⚫ Điểm",
	},
	ChartTitles: map[types.ChartType]string{
		types.ChartLine:    "📈 Biểu đồ đường",
		types.ChartBar:     "📊 Biểu đồ cột",
		types.ChartPie:     "🥧 Biểu đồ tròn",
		types.ChartScatter: "⚫ Biểu đồ điểm",
	},
}

// MessagesFor returns the catalog for locale ("en" or "vi"); anything else
// gets English.
func MessagesFor(locale string) Messages {
	if locale == "vi" {
		return vietnamese
	}
	return english
}

// ChartSubtitle renders "dimension × measure • N rows".
func (m Messages) ChartSubtitle(dimension, measure string, rows int) string {
	return fmt.Sprintf("%s × %s • %d %s", dimension, measure, rows, m.RowsSuffix)
}

// TokenBadge shows the first 12 characters of a share token.
func TokenBadge(token string) string {
	r := []rune(token)
	if len(r) > 12 {
		r = r[:12]
	}
	return "Token: " + string(r) + "..."
}
