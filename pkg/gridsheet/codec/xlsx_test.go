package codec

import (
	"bytes"
	"slices"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

func budgetSheet() *models.Spreadsheet {
	sales := models.NewWorksheet("Sales")
	rows := [][]string{
		{"Month", "Revenue", "Cost", "Total"},
		{"Jan", "10", "4"},
		{"Feb", "20", "5"},
		{"Mar", "30", "6"},
	}
	for r, row := range rows {
		for c, v := range row {
			sales.PutCell(uint32(r), uint32(c), models.CellData{Value: v})
		}
	}
	sales.UpdateCell(0, 0, func(c *models.CellData) {
		c.Style = &models.CellStyle{FontWeight: "bold", Background: "#FFEE00"}
		c.Note = "Month header"
	})
	sales.PutCell(1, 3, models.CellData{Value: "6", Formula: "=B2-C2"})
	sales.ColumnWidths = map[uint32]uint32{0: 20}
	sales.RowHeights = map[uint32]uint32{0: 30}
	sales.MergedCells = []models.MergedCell{{StartRow: 0, StartCol: 4, EndRow: 0, EndCol: 5}}
	sales.FrozenRows = 1
	sales.Validations = map[string]models.ValidationRule{
		"1,6": {ValidationType: "number", Operator: "between", Value1: "1", Value2: "10", ErrorMessage: "1 to 10"},
		"2,6": {ValidationType: "list", AllowedValues: []string{"yes", "no"}},
		"3,6": {ValidationType: "list", AllowedValues: []string{"yes", "no"}},
	}
	sales.Charts = []models.ChartConfig{{
		ID:         "c1",
		ChartType:  "bar",
		Title:      "Revenue",
		DataRange:  "B2:C4",
		LabelRange: "A2:A4",
		Position:   models.ChartPosition{Row: 5, Col: 0, Width: 400, Height: 300},
		Options:    models.ChartOptions{ShowLegend: true, ShowGrid: true, YAxisTitle: "USD"},
	}}

	notes := models.NewWorksheet("Notes")
	notes.PutCell(0, 0, models.CellData{Value: "x", HasComment: true})
	notes.Comments = map[string]models.CellComment{
		"0,0": {
			ID: "t1", AuthorName: "Ann", Content: "check",
			Replies:   []models.CommentReply{{ID: "r1", AuthorName: "Bob", Content: "done"}},
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	notes.Protection = &models.SheetProtection{Protected: true, LockedCells: []string{"1,1"}, AllowSort: true}

	return &models.Spreadsheet{
		Name:       "Budget",
		Worksheets: []models.Worksheet{sales, notes},
		NamedRanges: []models.NamedRange{{
			ID: "n1", Name: "Totals", Scope: "workbook", WorksheetIndex: 0,
			Rect: models.Rect{StartRow: 1, StartCol: 3, EndRow: 3, EndCol: 3},
		}},
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	data, err := WriteXLSX(budgetSheet())
	if err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	res, err := Import(data, "upload.xlsx", ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Format != FormatXLSX {
		t.Errorf("Expected xlsx, got %q", res.Format)
	}
	sheet := res.Spreadsheet
	if sheet.Name != "Budget" {
		t.Errorf("Expected document title 'Budget', got %q", sheet.Name)
	}
	if len(sheet.Worksheets) != 2 {
		t.Fatalf("Expected 2 worksheets, got %d", len(sheet.Worksheets))
	}
	sales := &sheet.Worksheets[0]
	if sales.Name != "Sales" {
		t.Errorf("Expected 'Sales', got %q", sales.Name)
	}

	header, _ := sales.Cell(0, 0)
	if header.Value != "Month" || header.Note != "Month header" {
		t.Errorf("Unexpected header cell %+v", header)
	}
	if header.Style == nil || !header.Style.Bold() || header.Style.Background != "#FFEE00" {
		t.Errorf("Expected bold yellow header, got %+v", header.Style)
	}
	if got := sales.Value(2, 1); got != "20" {
		t.Errorf("Expected '20', got %q", got)
	}
	total, _ := sales.Cell(1, 3)
	if total.Formula != "=B2-C2" || total.Value != "6" {
		t.Errorf("Expected formula cell =B2-C2 with value 6, got %+v", total)
	}

	if sales.ColumnWidths[0] != 20 {
		t.Errorf("Expected column width 20, got %v", sales.ColumnWidths)
	}
	if sales.RowHeights[0] != 30 {
		t.Errorf("Expected row height 30, got %v", sales.RowHeights)
	}
	wantMerge := []models.MergedCell{{StartRow: 0, StartCol: 4, EndRow: 0, EndCol: 5}}
	if !slices.Equal(sales.MergedCells, wantMerge) {
		t.Errorf("Expected merges %v, got %v", wantMerge, sales.MergedCells)
	}
	if sales.FrozenRows != 1 || sales.FrozenCols != 0 {
		t.Errorf("Expected 1 frozen row, got %d/%d", sales.FrozenRows, sales.FrozenCols)
	}

	number := sales.Validations["1,6"]
	if number.ValidationType != "number" || number.Operator != "between" || number.Value1 != "1" || number.Value2 != "10" {
		t.Errorf("Unexpected number rule %+v", number)
	}
	if number.ErrorMessage != "1 to 10" {
		t.Errorf("Expected error message to survive, got %q", number.ErrorMessage)
	}
	for _, key := range []string{"2,6", "3,6"} {
		list := sales.Validations[key]
		if list.ValidationType != "list" || !slices.Equal(list.AllowedValues, []string{"yes", "no"}) {
			t.Errorf("Unexpected list rule at %s: %+v", key, list)
		}
	}

	if len(sales.Charts) != 1 {
		t.Fatalf("Expected 1 chart, got %d", len(sales.Charts))
	}
	chart := sales.Charts[0]
	if chart.ChartType != "bar" || chart.Title != "Revenue" {
		t.Errorf("Unexpected chart %q/%q", chart.ChartType, chart.Title)
	}
	if chart.DataRange != "B2:C4" || chart.LabelRange != "A2:A4" {
		t.Errorf("Unexpected ranges %q/%q", chart.DataRange, chart.LabelRange)
	}
	if !slices.Equal(chart.Labels, []string{"Jan", "Feb", "Mar"}) {
		t.Errorf("Unexpected labels %v", chart.Labels)
	}
	if len(chart.Datasets) != 2 || !slices.Equal(chart.Datasets[0].Data, []float64{10, 20, 30}) {
		t.Errorf("Unexpected datasets %+v", chart.Datasets)
	}
	if chart.Position.Row != 5 || chart.Position.Col != 0 {
		t.Errorf("Expected chart anchored at row 5 col 0, got %+v", chart.Position)
	}
	if chart.Options.YAxisTitle != "USD" {
		t.Errorf("Expected y axis title USD, got %q", chart.Options.YAxisTitle)
	}

	notes := &sheet.Worksheets[1]
	if cell, _ := notes.Cell(0, 0); cell.Note != "Ann: check\nBob: done" {
		t.Errorf("Expected thread flattened into note, got %q", cell.Note)
	}

	if len(sheet.NamedRanges) != 1 {
		t.Fatalf("Expected 1 named range, got %d", len(sheet.NamedRanges))
	}
	nr := sheet.NamedRanges[0]
	if nr.Name != "Totals" || nr.Scope != "workbook" || nr.WorksheetIndex != 0 {
		t.Errorf("Unexpected named range %+v", nr)
	}
	if nr.Rect != (models.Rect{StartRow: 1, StartCol: 3, EndRow: 3, EndCol: 3}) {
		t.Errorf("Unexpected named range rect %+v", nr.Rect)
	}
}

func TestWriteXLSXProtection(t *testing.T) {
	data, err := WriteXLSX(budgetSheet())
	if err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}
	defer f.Close()

	locked := func(cell string) bool {
		idx, err := f.GetCellStyle("Notes", cell)
		if err != nil {
			t.Fatalf("GetCellStyle(%s) failed: %v", cell, err)
		}
		style, err := f.GetStyle(idx)
		if err != nil {
			t.Fatalf("GetStyle(%d) failed: %v", idx, err)
		}
		return style.Protection != nil && style.Protection.Locked
	}
	if !locked("B2") {
		t.Error("Expected B2 to be locked")
	}
	if locked("A1") {
		t.Error("Expected A1 to stay unlocked")
	}
	if v, err := f.GetCellValue("Sales", "B2"); err != nil || v != "10" {
		t.Errorf("Expected typed value 10, got %q (%v)", v, err)
	}
}

func TestImportXLSXFromExcelize(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Header")
	f.SetCellValue("Sheet1", "A2", 100)
	f.SetCellValue("Sheet1", "B2", 0.25)
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Color: "FF0000"},
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
	})
	if err != nil {
		t.Fatalf("NewStyle failed: %v", err)
	}
	f.SetCellStyle("Sheet1", "A1", "A1", style)
	f.SetDefinedName(&excelize.DefinedName{Name: "_xlnm.Print_Area", RefersTo: "Sheet1!$A$1:$B$2", Scope: "Sheet1"})
	f.SetDefinedName(&excelize.DefinedName{Name: "Split", RefersTo: "Sheet1!$A$1,Sheet1!$B$2"})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}

	res, err := Import(buf.Bytes(), "quarterly report.xlsx", ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Spreadsheet.Name != "quarterly report" {
		t.Errorf("Expected name from filename, got %q", res.Spreadsheet.Name)
	}
	ws := &res.Spreadsheet.Worksheets[0]
	if got := ws.Value(1, 0); got != "100" {
		t.Errorf("Expected raw '100', got %q", got)
	}
	if got := ws.Value(1, 1); got != "0.25" {
		t.Errorf("Expected raw '0.25', got %q", got)
	}
	cell, _ := ws.Cell(0, 0)
	want := models.CellStyle{FontStyle: "italic", Color: "#FF0000", TextAlign: "right", VerticalAlign: "middle"}
	if cell.Style == nil {
		t.Fatal("Expected style on A1")
	}
	got := *cell.Style
	got.FontFamily, got.FontSize = "", 0
	if got != want {
		t.Errorf("Expected style %+v, got %+v", want, got)
	}
	if len(res.Spreadsheet.NamedRanges) != 0 {
		t.Errorf("Expected print area and multi-area names to be skipped, got %+v", res.Spreadsheet.NamedRanges)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Expected one warning for the multi-area name, got %v", res.Warnings)
	}
}

func TestImportXLSXWrongPassword(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "secret")
	var buf bytes.Buffer
	if err := f.Write(&buf, excelize.Options{Password: "pw"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := Import(buf.Bytes(), "locked.xlsx", ImportOptions{Password: "nope"}); err == nil {
		t.Error("Expected error for a wrong password")
	}
	res, err := Import(buf.Bytes(), "locked.xlsx", ImportOptions{Password: "pw"})
	if err != nil {
		t.Fatalf("Import with password failed: %v", err)
	}
	if got := res.Spreadsheet.Worksheets[0].Value(0, 0); got != "secret" {
		t.Errorf("Expected 'secret', got %q", got)
	}
}

func TestExcelSheetNames(t *testing.T) {
	sheets := []models.Worksheet{
		{Name: "a/b"},
		{Name: "A/B"},
		{Name: ""},
		{Name: "A very long worksheet name that exceeds the limit"},
	}
	got := excelSheetNames(sheets)
	want := []string{"a_b", "A_B (2)", "Sheet3", "A very long worksheet name that"}
	if !slices.Equal(got, want) {
		t.Errorf("excelSheetNames = %q, want %q", got, want)
	}
}

func TestTypedValue(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"42", float64(42)},
		{"-1.5", -1.5},
		{" 7", " 7"},
		{"NaN", "NaN"},
		{"TRUE", true},
		{"FALSE", false},
		{"text", "text"},
		{"", nil},
	}
	for _, tt := range tests {
		if got := typedValue(tt.input); got != tt.expected {
			t.Errorf("typedValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.expected, tt.expected)
		}
	}
}
