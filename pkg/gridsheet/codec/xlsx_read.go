package codec

import (
	"bytes"
	"cmp"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

const (
	// Sizes excelize reports for columns and rows without an override.
	defaultColWidth  = 9.140625
	defaultRowHeight = 15.0

	// maxValidationCells caps how many cells a single imported rule expands to.
	maxValidationCells = 10000
)

// readXLSX decodes an OOXML workbook. Cell values are read raw so the number
// format survives separately in CellData.Format.
func readXLSX(data []byte, password string, res *Result) (*models.Spreadsheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{Password: password, RawCellValue: true})
	if err != nil {
		return nil, unsupported(string(FormatXLSX), err.Error())
	}
	defer f.Close()

	sheet := &models.Spreadsheet{}
	if props, err := f.GetDocProps(); err == nil && props != nil {
		sheet.Name = strings.TrimSpace(props.Title)
	}
	names := f.GetSheetList()
	styles := make(map[int]cachedStyle)
	for _, name := range names {
		ws, err := readXLSXSheet(f, name, styles, res)
		if err != nil {
			return nil, unsupported(string(FormatXLSX), err.Error())
		}
		sheet.Worksheets = append(sheet.Worksheets, ws)
	}
	sheet.NamedRanges = namedRanges(f.GetDefinedName(), names, res)
	readXLSXCharts(data, sheet, res)
	return sheet, nil
}

type cachedStyle struct {
	style  *models.CellStyle
	format string
}

func readXLSXSheet(f *excelize.File, name string, styles map[int]cachedStyle, res *Result) (models.Worksheet, error) {
	ws := models.NewWorksheet(name)
	rows, err := f.GetRows(name)
	if err != nil {
		return ws, err
	}
	maxCol := 0
	for r, row := range rows {
		maxCol = max(maxCol, len(row))
		for c, value := range row {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return ws, err
			}
			cell := models.CellData{Value: value}
			if text, err := f.GetCellFormula(name, cellName); err == nil && text != "" {
				cell.Formula = "=" + text
			}
			if idx, err := f.GetCellStyle(name, cellName); err == nil && idx > 0 {
				cached, ok := styles[idx]
				if !ok {
					if s, err := f.GetStyle(idx); err == nil {
						cached.style, cached.format = fromExcelStyle(s)
					}
					styles[idx] = cached
				}
				cell.Style, cell.Format = cached.style, cached.format
			}
			ws.PutCell(uint32(r), uint32(c), cell)
		}
	}

	for c := 0; c < maxCol; c++ {
		letters := ref.ColIndexToLetters(uint32(c))
		if w, err := f.GetColWidth(name, letters); err == nil && math.Abs(w-defaultColWidth) > 1e-6 {
			if ws.ColumnWidths == nil {
				ws.ColumnWidths = make(map[uint32]uint32)
			}
			ws.ColumnWidths[uint32(c)] = uint32(math.Round(w))
		}
	}
	for r := range rows {
		if h, err := f.GetRowHeight(name, r+1); err == nil && math.Abs(h-defaultRowHeight) > 1e-6 {
			if ws.RowHeights == nil {
				ws.RowHeights = make(map[uint32]uint32)
			}
			ws.RowHeights[uint32(r)] = uint32(math.Round(h))
		}
	}

	if comments, err := f.GetComments(name); err == nil {
		for _, cm := range comments {
			col, row, err := excelize.CellNameToCoordinates(cm.Cell)
			if err != nil {
				continue
			}
			note := commentText(cm)
			if note == "" {
				continue
			}
			ws.UpdateCell(uint32(row-1), uint32(col-1), func(c *models.CellData) { c.Note = note })
		}
	}

	if merges, err := f.GetMergeCells(name); err == nil {
		for _, m := range merges {
			start, okStart := parseArea(m.GetStartAxis())
			end, okEnd := parseArea(m.GetEndAxis())
			if !okStart || !okEnd {
				continue
			}
			ws.MergedCells = append(ws.MergedCells, models.MergedCell{
				StartRow: start.StartRow, StartCol: start.StartCol,
				EndRow: end.EndRow, EndCol: end.EndCol,
			}.Normalize())
		}
	}

	if panes, err := f.GetPanes(name); err == nil && panes.Freeze {
		ws.FrozenRows = uint32(max(panes.YSplit, 0))
		ws.FrozenCols = uint32(max(panes.XSplit, 0))
	}

	if dvs, err := f.GetDataValidations(name); err == nil {
		for _, dv := range dvs {
			rule, ok := fromExcelValidation(dv)
			if !ok {
				res.warnf("%s: data validation on %s skipped: %s rule is not supported", name, dv.Sqref, cmp.Or(dv.Type, "untyped"))
				continue
			}
			applied := 0
			for _, rect := range sqrefRects(dv.Sqref) {
				rect.Each(func(row, col uint32) {
					if applied >= maxValidationCells {
						return
					}
					if ws.Validations == nil {
						ws.Validations = make(map[string]models.ValidationRule)
					}
					ws.Validations[models.CellKey(row, col)] = rule
					applied++
				})
			}
			if applied >= maxValidationCells {
				res.warnf("%s: data validation on %s truncated to %d cells", name, dv.Sqref, maxValidationCells)
			}
		}
	}
	return ws, nil
}

// commentText flattens a legacy comment into note text.
func commentText(cm excelize.Comment) string {
	if len(cm.Paragraph) == 0 {
		return strings.TrimSpace(cm.Text)
	}
	var b strings.Builder
	b.WriteString(cm.Text)
	for _, run := range cm.Paragraph {
		b.WriteString(run.Text)
	}
	return strings.TrimSpace(b.String())
}

// readXLSXCharts reads the chart parts that excelize does not expose and
// attaches them to their worksheets. Datasets come from the chart's cached
// values, falling back to the referenced cells.
func readXLSXCharts(data []byte, sheet *models.Spreadsheet, res *Result) {
	p, err := openPackage(data)
	if err != nil {
		return
	}
	names, parts := p.worksheetParts()
	for _, name := range names {
		idx := worksheetIndex(sheet, name)
		if idx < 0 {
			continue
		}
		for _, pc := range p.sheetCharts(parts[name]) {
			chart, ok := convertChart(pc, name, sheet)
			if !ok {
				res.warnf("%s: %s chart %q skipped: chart type is not supported", name, pc.kind, pc.title)
				continue
			}
			sheet.Worksheets[idx].Charts = append(sheet.Worksheets[idx].Charts, chart)
		}
	}
}

func worksheetIndex(sheet *models.Spreadsheet, name string) int {
	for i, ws := range sheet.Worksheets {
		if strings.EqualFold(ws.Name, name) {
			return i
		}
	}
	return -1
}

func convertChart(pc parsedChart, sheetName string, sheet *models.Spreadsheet) (models.ChartConfig, bool) {
	kind := chartKinds[pc.kind]
	if kind == "" || len(pc.series) == 0 {
		return models.ChartConfig{}, false
	}
	chart := models.ChartConfig{
		ID:        uuid.NewString(),
		ChartType: kind,
		Title:     cmp.Or(pc.title, "Chart"),
		Position: models.ChartPosition{
			Row:    uint32(max(pc.anchor.row, 0)),
			Col:    uint32(max(pc.anchor.col, 0)),
			Width:  uint32(max(pc.anchor.width, 1)),
			Height: uint32(max(pc.anchor.height, 1)),
		},
		Options: models.ChartOptions{
			ShowLegend:     true,
			ShowGrid:       true,
			LegendPosition: "top",
			YAxisTitle:     pc.yAxisTitle,
		},
	}

	var union models.Rect
	haveUnion, sameSheet := false, true
	for i, s := range pc.series {
		values := s.valCache
		if target, ok := parseSheetRef(s.valRef); ok {
			if len(values) == 0 {
				values = rangeValues(sheet, target)
			}
			if !strings.EqualFold(target.Sheet, sheetName) {
				sameSheet = false
			}
			rect := target.Rect.Normalize()
			if !haveUnion {
				union, haveUnion = rect, true
			} else {
				union = models.Rect{
					StartRow: min(union.StartRow, rect.StartRow), StartCol: min(union.StartCol, rect.StartCol),
					EndRow: max(union.EndRow, rect.EndRow), EndCol: max(union.EndCol, rect.EndCol),
				}
			}
		}
		label := s.name
		if label == "" {
			if target, ok := parseSheetRef(s.nameRef); ok {
				label = strings.Join(rangeValues(sheet, target), " ")
			}
		}
		color := models.PaletteColor(i)
		chart.Datasets = append(chart.Datasets, models.ChartDataset{
			Label:           cmp.Or(label, "Series "+strconv.Itoa(i+1)),
			Data:            parseSeriesValues(values),
			Color:           color,
			BackgroundColor: color + "80",
		})
		if chart.Labels == nil {
			chart.Labels = s.catCache
			if target, ok := parseSheetRef(s.catRef); ok {
				if len(chart.Labels) == 0 {
					chart.Labels = rangeValues(sheet, target)
				}
				chart.LabelRange = labelRange(target, sheetName)
			}
		}
	}
	if haveUnion {
		rng := ref.NewRange(union.StartRow, union.StartCol, union.EndRow, union.EndCol).String()
		if !sameSheet {
			rng = formatSheetRef(pc.series[0].sheetOf(), union)
		}
		chart.DataRange = rng
	}
	return chart, true
}

func (s parsedSeries) sheetOf() string {
	target, _ := parseSheetRef(s.valRef)
	return target.Sheet
}

func labelRange(target sheetRef, sheetName string) string {
	r := target.Rect.Normalize()
	if strings.EqualFold(target.Sheet, sheetName) {
		return ref.NewRange(r.StartRow, r.StartCol, r.EndRow, r.EndCol).String()
	}
	return formatSheetRef(target.Sheet, r)
}

// rangeValues reads the display values of a reference in row-major order.
func rangeValues(sheet *models.Spreadsheet, target sheetRef) []string {
	idx := worksheetIndex(sheet, target.Sheet)
	if idx < 0 {
		return nil
	}
	ws := &sheet.Worksheets[idx]
	var out []string
	target.Rect.Normalize().Each(func(row, col uint32) {
		out = append(out, ws.Value(row, col))
	})
	return out
}

// parseSeriesValues converts cached values; non-numeric entries become 0.
func parseSeriesValues(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			out[i] = f
		}
	}
	return out
}
