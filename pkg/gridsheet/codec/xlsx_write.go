package codec

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

const (
	commentAuthor = "gridsheet"
	maxSheetName  = 31
)

var excelChartTypes = map[string]excelize.ChartType{
	"bar":      excelize.Col,
	"line":     excelize.Line,
	"area":     excelize.Area,
	"pie":      excelize.Pie,
	"doughnut": excelize.Doughnut,
	"scatter":  excelize.Scatter,
	"radar":    excelize.Radar,
}

var stackedChartTypes = map[string]excelize.ChartType{
	"bar":  excelize.ColStacked,
	"area": excelize.AreaStacked,
}

// WriteXLSX renders the whole document as an OOXML workbook. Constructs the
// workbook format cannot hold are dropped: filters keep only their hidden
// rows and protection is written without a password since only its hash is
// known.
func WriteXLSX(sheet *models.Spreadsheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	names := excelSheetNames(sheet.Worksheets)
	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	if sheet.Name != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: sheet.Name, Creator: commentAuthor}); err != nil {
			return nil, err
		}
	}
	w := &xlsxWriter{f: f, styles: make(map[string]int)}
	for i := range sheet.Worksheets {
		if err := w.writeSheet(names[i], &sheet.Worksheets[i]); err != nil {
			return nil, fmt.Errorf("worksheet %q: %w", sheet.Worksheets[i].Name, err)
		}
	}
	for _, nr := range sheet.NamedRanges {
		if nr.WorksheetIndex < 0 || nr.WorksheetIndex >= len(names) {
			continue
		}
		dn := &excelize.DefinedName{
			Name:     nr.Name,
			Comment:  nr.Comment,
			RefersTo: formatSheetRef(names[nr.WorksheetIndex], nr.Rect.Normalize()),
		}
		if nr.Scope == "worksheet" {
			dn.Scope = names[nr.WorksheetIndex]
		}
		if err := f.SetDefinedName(dn); err != nil {
			return nil, fmt.Errorf("defined name %q: %w", nr.Name, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// excelSheetNames makes worksheet names acceptable to Excel: no reserved
// characters, at most 31 runes and unique ignoring case.
func excelSheetNames(sheets []models.Worksheet) []string {
	seen := make(map[string]bool)
	out := make([]string, len(sheets))
	for i, ws := range sheets {
		base := strings.Map(func(r rune) rune {
			if strings.ContainsRune(`:\/?*[]`, r) {
				return '_'
			}
			return r
		}, strings.Trim(ws.Name, "'"))
		base = truncateRunes(cmp.Or(strings.TrimSpace(base), "Sheet"+strconv.Itoa(i+1)), maxSheetName)
		name := base
		for n := 2; seen[strings.ToLower(name)]; n++ {
			suffix := " (" + strconv.Itoa(n) + ")"
			name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type xlsxWriter struct {
	f      *excelize.File
	styles map[string]int
}

func (w *xlsxWriter) writeSheet(name string, ws *models.Worksheet) error {
	f := w.f
	protected := ws.Protection != nil && ws.Protection.Protected
	for row, col := range ws.SortedKeys() {
		cell, _ := ws.Cell(row, col)
		axis := ref.CellName(row, col)
		if err := f.SetCellValue(name, axis, typedValue(cell.Value)); err != nil {
			return err
		}
		if cell.Formula != "" {
			if err := f.SetCellFormula(name, axis, strings.TrimPrefix(cell.Formula, "=")); err != nil {
				return err
			}
		}
		locked := protected && ws.IsLocked(row, col)
		if err := w.applyStyle(name, axis, cell, protected, locked); err != nil {
			return err
		}
	}
	if protected {
		for _, key := range ws.Protection.LockedCells {
			row, col, ok := models.ParseCellKey(key)
			if !ok {
				continue
			}
			if _, exists := ws.Cell(row, col); exists {
				continue
			}
			axis := ref.CellName(row, col)
			if err := w.applyStyle(name, axis, models.CellData{}, true, true); err != nil {
				return err
			}
		}
	}

	for _, key := range noteKeys(ws) {
		row, col, _ := models.ParseCellKey(key)
		text := noteText(ws, key)
		if err := f.AddComment(name, excelize.Comment{Cell: ref.CellName(row, col), Author: commentAuthor, Text: text}); err != nil {
			return err
		}
	}

	for _, col := range slices.Sorted(maps.Keys(ws.ColumnWidths)) {
		letters := ref.ColIndexToLetters(col)
		if err := f.SetColWidth(name, letters, letters, float64(ws.ColumnWidths[col])); err != nil {
			return err
		}
	}
	for _, row := range slices.Sorted(maps.Keys(ws.RowHeights)) {
		if err := f.SetRowHeight(name, int(row)+1, float64(ws.RowHeights[row])); err != nil {
			return err
		}
	}
	for _, row := range ws.HiddenRows {
		if err := f.SetRowVisible(name, int(row)+1, false); err != nil {
			return err
		}
	}
	for _, m := range ws.MergedCells {
		m = m.Normalize()
		if err := f.MergeCell(name, ref.CellName(m.StartRow, m.StartCol), ref.CellName(m.EndRow, m.EndCol)); err != nil {
			return err
		}
	}
	if ws.FrozenRows > 0 || ws.FrozenCols > 0 {
		topLeft := ref.CellName(ws.FrozenRows, ws.FrozenCols)
		if err := f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			XSplit:      int(ws.FrozenCols),
			YSplit:      int(ws.FrozenRows),
			TopLeftCell: topLeft,
			ActivePane:  frozenPane(ws.FrozenRows, ws.FrozenCols),
		}); err != nil {
			return err
		}
	}
	for _, g := range groupValidations(ws) {
		dv, err := toExcelValidation(g)
		if err != nil {
			continue
		}
		if err := f.AddDataValidation(name, dv); err != nil {
			return err
		}
	}
	for _, chart := range ws.Charts {
		if err := addChart(f, name, chart); err != nil {
			return fmt.Errorf("chart %q: %w", chart.Title, err)
		}
	}
	if protected {
		p := ws.Protection
		if err := f.ProtectSheet(name, &excelize.SheetProtectionOptions{
			AutoFilter:          p.AllowFilter,
			FormatCells:         p.AllowFormatCells,
			Sort:                p.AllowSort,
			SelectLockedCells:   true,
			SelectUnlockedCells: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// applyStyle sets the cell's style, reusing an existing style id when an
// identical one was already registered.
func (w *xlsxWriter) applyStyle(sheet, axis string, cell models.CellData, protected, locked bool) error {
	style := toExcelStyle(cell.Style, cell.Format)
	if protected {
		if style == nil {
			style = &excelize.Style{}
		}
		// Excel locks every cell by default, so unlocked cells need it spelled out.
		style.Protection = &excelize.Protection{Locked: locked}
	}
	if style == nil {
		return nil
	}
	key := fmt.Sprintf("%+v|%s|%v|%v", derefStyle(cell.Style), cell.Format, protected, locked)
	id, ok := w.styles[key]
	if !ok {
		var err error
		if id, err = w.f.NewStyle(style); err != nil {
			return err
		}
		w.styles[key] = id
	}
	return w.f.SetCellStyle(sheet, axis, axis, id)
}

func derefStyle(s *models.CellStyle) models.CellStyle {
	if s == nil {
		return models.CellStyle{}
	}
	return *s
}

// typedValue keeps plain numbers and booleans typed in the workbook.
func typedValue(v string) any {
	if v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && strings.TrimSpace(v) == v && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch v {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return v
}

func frozenPane(rows, cols uint32) string {
	switch {
	case rows > 0 && cols > 0:
		return "bottomRight"
	case rows > 0:
		return "bottomLeft"
	}
	return "topRight"
}

// noteKeys lists cells carrying a note or a comment thread.
func noteKeys(ws *models.Worksheet) []string {
	keys := make(map[string]struct{})
	for key, c := range ws.Data {
		if c.Note != "" {
			keys[key] = struct{}{}
		}
	}
	for key := range ws.Comments {
		keys[key] = struct{}{}
	}
	return sortedCellKeys(keys)
}

// noteText merges a cell note and its comment thread into one workbook
// comment, since a cell holds at most one.
func noteText(ws *models.Worksheet, key string) string {
	var lines []string
	if c := ws.Data[key]; c.Note != "" {
		lines = append(lines, c.Note)
	}
	if thread, ok := ws.Comments[key]; ok {
		lines = append(lines, fmt.Sprintf("%s: %s", thread.AuthorName, thread.Content))
		for _, reply := range thread.Replies {
			lines = append(lines, fmt.Sprintf("%s: %s", reply.AuthorName, reply.Content))
		}
	}
	return strings.Join(lines, "\n")
}

// addChart draws chart from its source ranges. Charts whose ranges do not
// parse on this worksheet are skipped, because a workbook chart needs live
// cell references rather than the stored snapshot.
func addChart(f *excelize.File, sheet string, chart models.ChartConfig) error {
	kind, ok := excelChartTypes[chart.ChartType]
	if chart.Options.Stacked {
		if stacked, has := stackedChartTypes[chart.ChartType]; has {
			kind = stacked
		}
	}
	if !ok {
		return nil
	}
	data, err := ref.ParseRange(chart.DataRange)
	if err != nil {
		return nil
	}
	var categories string
	if labels, err := ref.ParseRange(chart.LabelRange); err == nil {
		categories = formatSheetRef(sheet, models.Rect{
			StartRow: labels.Start.Row, StartCol: labels.Start.Col,
			EndRow: labels.End.Row, EndCol: labels.End.Col,
		})
	}

	var series []excelize.ChartSeries
	add := func(i int, rect models.Rect) {
		s := excelize.ChartSeries{Categories: categories, Values: formatSheetRef(sheet, rect)}
		if i < len(chart.Datasets) {
			if color := excelColor(chart.Datasets[i].Color); color != "" {
				s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
			}
		}
		series = append(series, s)
	}
	if data.Rows() == 1 && data.Cols() > 1 {
		add(0, models.Rect{StartRow: data.Start.Row, StartCol: data.Start.Col, EndRow: data.Start.Row, EndCol: data.End.Col})
	} else {
		for i := uint64(0); i < data.Cols(); i++ {
			col := data.Start.Col + uint32(i)
			add(int(i), models.Rect{StartRow: data.Start.Row, StartCol: col, EndRow: data.End.Row, EndCol: col})
		}
	}

	legend := "none"
	if chart.Options.ShowLegend {
		legend = cmp.Or(chart.Options.LegendPosition, "top")
	}
	pos := chart.Position
	return f.AddChart(sheet, ref.CellName(pos.Row, pos.Col), &excelize.Chart{
		Type:      kind,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: chart.Title}},
		Legend:    excelize.ChartLegend{Position: legend},
		Dimension: excelize.ChartDimension{Width: uint(cmp.Or(pos.Width, 480)), Height: uint(cmp.Or(pos.Height, 300))},
		XAxis:     excelize.ChartAxis{Title: axisTitle(chart.Options.XAxisTitle)},
		YAxis:     excelize.ChartAxis{Title: axisTitle(chart.Options.YAxisTitle), MajorGridLines: chart.Options.ShowGrid},
	})
}

func axisTitle(text string) []excelize.RichTextRun {
	if text == "" {
		return nil
	}
	return []excelize.RichTextRun{{Text: text}}
}
