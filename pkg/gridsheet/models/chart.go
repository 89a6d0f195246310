package models

// ChartPosition places a chart on the grid.
type ChartPosition struct {
	// Row is the anchor row.
	Row uint32 `json:"row"`
	// Col is the anchor column.
	Col uint32 `json:"col"`
	// Width is the chart width in pixels.
	Width uint32 `json:"width"`
	// Height is the chart height in pixels.
	Height uint32 `json:"height"`
}

// DefaultChartPosition is used when a chart request omits a position.
var DefaultChartPosition = ChartPosition{Row: 0, Col: 5, Width: 400, Height: 300}

// ChartOptions holds display options.
type ChartOptions struct {
	// ShowLegend toggles the legend.
	ShowLegend bool `json:"show_legend"`
	// ShowGrid toggles grid lines.
	ShowGrid bool `json:"show_grid"`
	// Stacked stacks series.
	Stacked bool `json:"stacked"`
	// LegendPosition is top, bottom, left or right.
	LegendPosition string `json:"legend_position,omitempty"`
	// XAxisTitle is the category axis title.
	XAxisTitle string `json:"x_axis_title,omitempty"`
	// YAxisTitle is the value axis title.
	YAxisTitle string `json:"y_axis_title,omitempty"`
}

// ChartDataset is one series snapshot.
type ChartDataset struct {
	// Label is the series name.
	Label string `json:"label"`
	// Data is the series values captured at creation time.
	Data []float64 `json:"data"`
	// Color is the series line/bar color.
	Color string `json:"color"`
	// BackgroundColor is the series fill color.
	BackgroundColor string `json:"background_color,omitempty"`
}

// ChartConfig is a chart definition. Labels and Datasets are snapshots of the
// source ranges taken at creation; they do not follow later edits.
type ChartConfig struct {
	// ID identifies the chart.
	ID string `json:"id"`
	// ChartType is bar, line, pie, area, scatter, doughnut or radar.
	ChartType string `json:"chart_type"`
	// Title is the chart title.
	Title string `json:"title"`
	// DataRange is the A1 range the series were read from.
	DataRange string `json:"data_range"`
	// LabelRange is the A1 range the labels were read from.
	LabelRange string `json:"label_range"`
	// Position places the chart.
	Position ChartPosition `json:"position"`
	// Options holds display options.
	Options ChartOptions `json:"options"`
	// Datasets are the captured series.
	Datasets []ChartDataset `json:"datasets"`
	// Labels are the captured category labels.
	Labels []string `json:"labels"`
}

// Palette is the color cycle for chart series and collaborator presence.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
	"#BB8FCE", "#85C1E9", "#F1948A", "#82E0AA", "#F8C471", "#AED6F1", "#D7BDE2",
}

// PaletteColor returns the i-th palette color, wrapping around.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}
