package gridsheet

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

// SortRequest sorts the rows of a rectangle by one of its columns.
type SortRequest struct {
	WorksheetIndex int `json:"worksheet_index"`
	models.Rect
	SortCol   uint32 `json:"sort_col"`
	Ascending bool   `json:"ascending"`
}

// Sort stably reorders whole rows of the rectangle by the sort column.
// Values compare numerically when both parse as numbers, otherwise as text.
// Every cell of the rectangle is rewritten, so cells without a counterpart
// in the sorted order are cleared.
func (s *Service) Sort(ctx context.Context, id string, req SortRequest) (*models.Spreadsheet, error) {
	rect := req.Rect.Normalize()
	if req.SortCol < rect.StartCol || req.SortCol > rect.EndCol {
		return nil, NewOperationError(id, "sort", inputError("sort column %d outside columns %d-%d", req.SortCol, rect.StartCol, rect.EndCol))
	}
	return s.updateWorksheet(ctx, id, req.WorksheetIndex, "sort", func(ws *models.Worksheet) error {
		if p := ws.Protection; p != nil && p.Protected && !p.AllowSort {
			return ErrProtected
		}
		width := int(rect.EndCol-rect.StartCol) + 1
		var rows [][]*models.CellData
		for row := uint64(rect.StartRow); row <= uint64(rect.EndRow); row++ {
			cells := make([]*models.CellData, width)
			for i := range cells {
				if c, ok := ws.Cell(uint32(row), rect.StartCol+uint32(i)); ok {
					cells[i] = &c
				}
			}
			rows = append(rows, cells)
		}
		key := int(req.SortCol - rect.StartCol)
		slices.SortStableFunc(rows, func(a, b []*models.CellData) int {
			c := compareSortValues(sortValue(a[key]), sortValue(b[key]))
			if !req.Ascending {
				return -c
			}
			return c
		})
		for i, cells := range rows {
			row := rect.StartRow + uint32(i)
			for j, c := range cells {
				col := rect.StartCol + uint32(j)
				if c == nil {
					ws.PutCell(row, col, models.CellData{})
					continue
				}
				ws.PutCell(row, col, *c)
			}
		}
		recomputeHiddenRows(ws)
		return nil
	})
}

func sortValue(c *models.CellData) string {
	if c == nil {
		return ""
	}
	return c.Value
}

func compareSortValues(a, b string) int {
	x, okX := formula.ParseNumber(a)
	y, okY := formula.ParseNumber(b)
	if okX && okY {
		return cmp.Compare(x, y)
	}
	return strings.Compare(a, b)
}

// FilterRequest installs a filter on one column.
type FilterRequest struct {
	WorksheetIndex int `json:"worksheet_index"`
	Col            uint32 `json:"col"`
	models.FilterConfig
}

var filterTypes = []string{
	"values", "greaterThan", "lessThan", "between", "contains", "notContains",
	"isEmpty", "isNotEmpty", "condition",
}

// Filter sets the column's predicate and recomputes the hidden rows.
func (s *Service) Filter(ctx context.Context, id string, req FilterRequest) (*models.Spreadsheet, error) {
	if !slices.Contains(filterTypes, req.FilterType) {
		return nil, NewOperationError(id, "filter", inputError("unknown filter type %q", req.FilterType))
	}
	return s.updateWorksheet(ctx, id, req.WorksheetIndex, "filter", func(ws *models.Worksheet) error {
		if err := allowFilter(ws); err != nil {
			return err
		}
		if ws.Filters == nil {
			ws.Filters = make(map[uint32]models.FilterConfig)
		}
		ws.Filters[req.Col] = req.FilterConfig
		recomputeHiddenRows(ws)
		return nil
	})
}

// ClearFilter removes the filter on col, or every filter when col is nil,
// then recomputes the hidden rows from what remains.
func (s *Service) ClearFilter(ctx context.Context, id string, index int, col *uint32) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "clear_filter", func(ws *models.Worksheet) error {
		if err := allowFilter(ws); err != nil {
			return err
		}
		if col == nil {
			ws.Filters = nil
		} else {
			delete(ws.Filters, *col)
		}
		recomputeHiddenRows(ws)
		return nil
	})
}

// recomputeHiddenRows hides every row below the frozen rows whose value in
// some filtered column fails that column's filter.
func recomputeHiddenRows(ws *models.Worksheet) {
	ws.HiddenRows = nil
	if len(ws.Filters) == 0 {
		return
	}
	maxRow, _, ok := ws.Bounds()
	if !ok {
		return
	}
	for row := uint64(ws.FrozenRows); row <= uint64(maxRow); row++ {
		for col, f := range ws.Filters {
			if !MatchFilter(f, ws.Value(uint32(row), col)) {
				ws.HiddenRows = append(ws.HiddenRows, uint32(row))
				break
			}
		}
	}
}

// MatchFilter reports whether value passes a column filter. The condition
// filter type applies the predicate named by Condition.
func MatchFilter(f models.FilterConfig, value string) bool {
	kind := f.FilterType
	if kind == "condition" {
		kind = f.Condition
	}
	switch kind {
	case "values":
		return slices.Contains(f.Values, value)
	case "contains":
		return strings.Contains(strings.ToLower(value), strings.ToLower(f.Value1))
	case "notContains":
		return !strings.Contains(strings.ToLower(value), strings.ToLower(f.Value1))
	case "isEmpty":
		return strings.TrimSpace(value) == ""
	case "isNotEmpty":
		return strings.TrimSpace(value) != ""
	case "greaterThan", "lessThan", "between":
	default:
		return true
	}
	v, ok := formula.ParseNumber(value)
	if !ok {
		return false
	}
	lo, okLo := formula.ParseNumber(f.Value1)
	if !okLo {
		return false
	}
	switch kind {
	case "greaterThan":
		return v > lo
	case "lessThan":
		return v < lo
	}
	hi, okHi := formula.ParseNumber(f.Value2)
	return okHi && v >= min(lo, hi) && v <= max(lo, hi)
}

// ChartRequest creates a chart from A1 ranges.
type ChartRequest struct {
	WorksheetIndex int                   `json:"worksheet_index"`
	ChartType      string                `json:"chart_type"`
	DataRange      string                `json:"data_range"`
	LabelRange     string                `json:"label_range,omitempty"`
	Title          string                `json:"title,omitempty"`
	Position       *models.ChartPosition `json:"position,omitempty"`
	Options        *models.ChartOptions  `json:"options,omitempty"`
}

var chartTypes = []string{"bar", "line", "pie", "area", "scatter", "doughnut", "radar"}

// DefaultChartOptions is used when a chart request omits options.
var DefaultChartOptions = models.ChartOptions{ShowLegend: true, ShowGrid: true, LegendPosition: "top"}

// CreateChart snapshots the data and label ranges into a new chart. The
// chart keeps the captured values; later cell edits do not change it.
func (s *Service) CreateChart(ctx context.Context, id string, req ChartRequest) (*models.ChartConfig, error) {
	if !slices.Contains(chartTypes, req.ChartType) {
		return nil, NewOperationError(id, "create_chart", inputError("unknown chart type %q", req.ChartType))
	}
	data, err := ref.ParseRange(req.DataRange)
	if err != nil {
		return nil, NewOperationError(id, "create_chart", inputError("data range: %v", err))
	}
	var labels *ref.Range
	if strings.TrimSpace(req.LabelRange) != "" {
		r, err := ref.ParseRange(req.LabelRange)
		if err != nil {
			return nil, NewOperationError(id, "create_chart", inputError("label range: %v", err))
		}
		labels = &r
	}

	chart := models.ChartConfig{
		ID:         uuid.NewString(),
		ChartType:  req.ChartType,
		Title:      cmp.Or(req.Title, "Chart"),
		DataRange:  data.String(),
		LabelRange: req.LabelRange,
		Position:   models.DefaultChartPosition,
		Options:    DefaultChartOptions,
	}
	if req.Position != nil {
		chart.Position = *req.Position
	}
	if req.Options != nil {
		chart.Options = *req.Options
	}
	_, err = s.updateWorksheet(ctx, id, req.WorksheetIndex, "create_chart", func(ws *models.Worksheet) error {
		chart.Datasets = snapshotSeries(ws, data)
		chart.Labels = snapshotLabels(ws, data, labels)
		ws.Charts = append(ws.Charts, chart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &chart, nil
}

// snapshotSeries reads one series per column of data, or a single series
// when data is one row wide. Non-numeric cells read as 0.
func snapshotSeries(ws *models.Worksheet, data ref.Range) []models.ChartDataset {
	number := func(row, col uint32) float64 {
		v, _ := formula.ParseNumber(ws.Value(row, col))
		return v
	}
	if data.Rows() == 1 && data.Cols() > 1 {
		ds := models.ChartDataset{Label: "Series 1", Color: models.PaletteColor(0)}
		for col := uint64(data.Start.Col); col <= uint64(data.End.Col); col++ {
			ds.Data = append(ds.Data, number(data.Start.Row, uint32(col)))
		}
		ds.BackgroundColor = ds.Color + "80"
		return []models.ChartDataset{ds}
	}
	var out []models.ChartDataset
	for i := uint64(0); i < data.Cols(); i++ {
		col := data.Start.Col + uint32(i)
		ds := models.ChartDataset{
			Label: "Series " + strconv.FormatUint(i+1, 10),
			Color: models.PaletteColor(int(i)),
		}
		ds.BackgroundColor = ds.Color + "80"
		for row := uint64(data.Start.Row); row <= uint64(data.End.Row); row++ {
			ds.Data = append(ds.Data, number(uint32(row), col))
		}
		out = append(out, ds)
	}
	return out
}

// snapshotLabels reads the label range in row-major order, or numbers the
// data points from 1 when there is none.
func snapshotLabels(ws *models.Worksheet, data ref.Range, labels *ref.Range) []string {
	var out []string
	if labels != nil {
		for c := range labels.Cells() {
			out = append(out, ws.Value(c.Row, c.Col))
		}
		return out
	}
	n := data.Rows()
	if data.Rows() == 1 {
		n = data.Cols()
	}
	for i := uint64(1); i <= n; i++ {
		out = append(out, strconv.FormatUint(i, 10))
	}
	return out
}

// DeleteChart removes the chart with the given id. Deleting an unknown id is
// a no-op.
func (s *Service) DeleteChart(ctx context.Context, id string, index int, chartID string) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "delete_chart", func(ws *models.Worksheet) error {
		ws.Charts = slices.DeleteFunc(ws.Charts, func(c models.ChartConfig) bool { return c.ID == chartID })
		return nil
	})
}
