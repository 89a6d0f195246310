package codec

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

func TestDetect(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	xlsx, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to build workbook: %v", err)
	}
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	if _, err := zw.Create("readme.txt"); err != nil {
		t.Fatalf("Failed to build archive: %v", err)
	}
	zw.Close()

	tests := []struct {
		name     string
		data     []byte
		filename string
		want     Format
		wantErr  bool
	}{
		{"csv by extension", []byte("a;b"), "data.csv", FormatCSV, false},
		{"tsv by extension", []byte("a,b"), "data.tab", FormatTSV, false},
		{"json by content", []byte(` {"id":"x"}`), "", FormatJSON, false},
		{"tab sniffed", []byte("a\tb\n1\t2"), "", FormatTSV, false},
		{"txt is tsv", []byte("a b"), "notes.txt", FormatTSV, false},
		{"plain text is csv", []byte("a,b\n1,2"), "", FormatCSV, false},
		{"utf8 bom", []byte("\xEF\xBB\xBFa,b"), "", FormatCSV, false},
		{"utf16 bom", []byte("\xFF\xFEa\x00,\x00b\x00"), "", FormatCSV, false},
		{"xlsx by content", xlsx.Bytes(), "upload", FormatXLSX, false},
		{"xlsx content under csv name", xlsx.Bytes(), "book.csv", FormatXLSX, false},
		{"ods by mimetype", buildODS(t, map[string]string{"mimetype": odsMimeType}), "", FormatODS, false},
		{"ods by extension", buildODS(t, map[string]string{"content.xml": odsContent}), "b.ods", FormatODS, false},
		{"zip without workbook", archive.Bytes(), "", "", true},
		{"fake xlsx", []byte("hello"), "book.xlsx", "", true},
		{"binary", []byte{0x01, 0x00, 0x02}, "", "", true},
		{"empty", nil, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data, tt.filename)
			if tt.wantErr {
				var ufe *UnsupportedFormatError
				if !errors.As(err, &ufe) {
					t.Fatalf("Detect() error = %v, want UnsupportedFormatError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectNamesRejectedExtension(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	if _, err := zw.Create("word/document.xml"); err != nil {
		t.Fatalf("Failed to build archive: %v", err)
	}
	zw.Close()

	tests := []struct {
		filename string
		data     []byte
		want     string
	}{
		{"notes.md", []byte("a,b\n1,2"), "md"},
		{"page.HTML", []byte("<p>a,b</p>"), "html"},
		{"data.xml", []byte("<rows/>"), "xml"},
		{"letter.docx", archive.Bytes(), "docx"},
		{"bundle.xlsx", archive.Bytes(), "xlsx"},
		{"", archive.Bytes(), "zip"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := Detect(tt.data, tt.filename)
			var ufe *UnsupportedFormatError
			if !errors.As(err, &ufe) {
				t.Fatalf("Detect(%q) error = %v, want UnsupportedFormatError", tt.filename, err)
			}
			if ufe.Format != tt.want {
				t.Errorf("Detect(%q) names %q, want %q", tt.filename, ufe.Format, tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name %q", err, tt.want)
			}
		})
	}
}

func TestImportCSV(t *testing.T) {
	res, err := Import([]byte("Name, Age \nAlice,30\n,=B2*2\n"), "people.csv", ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Format != FormatCSV {
		t.Errorf("Expected csv, got %q", res.Format)
	}
	sheet := res.Spreadsheet
	if sheet.Name != "people" {
		t.Errorf("Expected name 'people', got %q", sheet.Name)
	}
	if len(sheet.Worksheets) != 1 || sheet.Worksheets[0].Name != "Sheet1" {
		t.Fatalf("Expected one worksheet named Sheet1, got %+v", sheet.Worksheets)
	}
	ws := &sheet.Worksheets[0]
	if got := ws.Value(0, 1); got != "Age" {
		t.Errorf("Expected trimmed 'Age', got %q", got)
	}
	if _, ok := ws.Cell(2, 0); ok {
		t.Error("Expected empty field to produce no cell")
	}
	cell, ok := ws.Cell(2, 1)
	if !ok || cell.Formula != "" || cell.Value != "=B2*2" {
		t.Errorf("Expected literal text '=B2*2', got %+v", cell)
	}
}

func TestDelimitedRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"commas", "\"a,b\",c\n1,\"2,3\"\n"},
		{"embedded quotes", "\"say \"\"hi\"\"\",x\n"},
		{"newline in field", "\"line one\nline two\",x\n"},
		{"leading equals", "name,note\nbob,=total\n"},
		{"equals that parses as formula", "=1+1,=A1\n"},
		{"empty trailing cells", "a,b,c\nd,,\n,,\n,,e\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Import([]byte(tt.text), "round.csv", ImportOptions{})
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			var out bytes.Buffer
			if err := Export(&out, res.Spreadsheet, FormatCSV, 0); err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			if got := out.String(); got != tt.text {
				t.Errorf("round trip = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestReadDelimitedEncodings(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"windows-1252", []byte("caf\xe9,x"), "café"},
		{"utf-8 bom", []byte("\xEF\xBB\xBFcafé,x"), "café"},
		{"utf-16le bom", []byte("\xFF\xFEc\x00a\x00f\x00\xe9\x00,\x00x\x00"), "café"},
		{"quoted comma", []byte(`"caf,é",x`), "caf,é"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := ReadDelimited(bytes.NewReader(tt.data), ',', "S")
			if err != nil {
				t.Fatalf("ReadDelimited failed: %v", err)
			}
			if got := ws.Value(0, 0); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if got := ws.Value(0, 1); got != "x" {
				t.Errorf("Expected 'x', got %q", got)
			}
		})
	}
}

func TestExportDelimited(t *testing.T) {
	ws := models.NewWorksheet("S")
	ws.PutCell(0, 0, models.CellData{Value: "a,b"})
	ws.PutCell(1, 1, models.CellData{Value: "x", Formula: "=\"x\""})
	sheet := &models.Spreadsheet{Worksheets: []models.Worksheet{ws}}

	var csvOut bytes.Buffer
	if err := Export(&csvOut, sheet, FormatCSV, 0); err != nil {
		t.Fatalf("Export csv failed: %v", err)
	}
	if got, want := csvOut.String(), "\"a,b\",\n,x\n"; got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}

	var tsvOut bytes.Buffer
	if err := Export(&tsvOut, sheet, FormatTSV, 0); err != nil {
		t.Fatalf("Export tsv failed: %v", err)
	}
	if got, want := tsvOut.String(), "a,b\t\n\tx\n"; got != want {
		t.Errorf("tsv = %q, want %q", got, want)
	}

	if err := Export(&csvOut, sheet, FormatCSV, 3); err == nil {
		t.Error("Expected error for out of range worksheet")
	}
	var ufe *UnsupportedFormatError
	if err := Export(&csvOut, sheet, Format("pdf"), 0); !errors.As(err, &ufe) {
		t.Errorf("Expected UnsupportedFormatError, got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	ws := models.NewWorksheet("Data")
	ws.PutCell(0, 0, models.CellData{Value: "1"})
	ws.PutCell(0, 1, models.CellData{Formula: "=A1+1"})
	sheet := &models.Spreadsheet{ID: "s1", Name: "Plan", Worksheets: []models.Worksheet{ws}}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sheet); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	res, err := Import(buf.Bytes(), "upload.json", ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	got := res.Spreadsheet
	if got.Name != "Plan" || got.ID != "s1" {
		t.Errorf("Expected Plan/s1, got %q/%q", got.Name, got.ID)
	}
	if v := got.Worksheets[0].Value(0, 1); v != "2" {
		t.Errorf("Expected recalculated 2, got %q", v)
	}

	if _, err := Import([]byte(`{"worksheets":[]}`), "empty.json", ImportOptions{}); err == nil {
		t.Error("Expected error for a document without worksheets")
	}
}

func TestImportWarnsUnknownFunctions(t *testing.T) {
	ws := models.NewWorksheet("S")
	ws.PutCell(0, 0, models.CellData{Value: "1"})
	ws.PutCell(0, 1, models.CellData{Formula: "=NOSUCHFN(A1)"})
	var buf bytes.Buffer
	if err := WriteJSON(&buf, &models.Spreadsheet{Worksheets: []models.Worksheet{ws}}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	res, err := Import(buf.Bytes(), "f.json", ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "NOSUCHFN") {
		t.Errorf("Expected a warning naming NOSUCHFN, got %v", res.Warnings)
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report.xlsx", "report"},
		{`C:\Users\me\budget.csv`, "budget"},
		{"dir/archive.tar.gz", "archive.tar"},
		{".hidden", ".hidden"},
		{"", "Untitled Spreadsheet"},
	}
	for _, tt := range tests {
		if got := DocumentName(tt.input); got != tt.expected {
			t.Errorf("DocumentName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"csv", ".TSV", "xlsx", "json"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) unexpected error: %v", name, err)
		}
	}
	for _, name := range []string{"xls", "xlsb", "pdf", ""} {
		if _, err := ParseFormat(name); err == nil {
			t.Errorf("ParseFormat(%q) expected error", name)
		}
	}
	if got := FormatXLSX.ContentType(); !strings.Contains(got, "spreadsheetml") {
		t.Errorf("unexpected xlsx content type %q", got)
	}
}
