// Package codec translates external spreadsheet byte formats to and from the
// document model.
//
// Import accepts CSV/TSV, OOXML workbooks (xlsx, xlsm), binary workbooks
// (xlsb), legacy BIFF workbooks (xls), OpenDocument spreadsheets (ods) and
// JSON snapshots. Export writes CSV,
// TSV, xlsx and JSON. Imported documents carry no id or timestamps; the
// caller assigns those when it stores them.
package codec

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// Format names an external representation.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatXLSB Format = "xlsb"
	FormatXLS  Format = "xls"
	FormatODS  Format = "ods"
	FormatJSON Format = "json"
)

// ContentType returns the MIME type used when serving f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// UnsupportedFormatError reports input that cannot be imported or an export
// format that does not exist.
type UnsupportedFormatError struct {
	Format string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return "unsupported format: " + e.Reason
	}
	return fmt.Sprintf("unsupported format %q: %s", e.Format, e.Reason)
}

func unsupported(format, reason string) error {
	return &UnsupportedFormatError{Format: format, Reason: reason}
}

// ImportOptions tune Import.
type ImportOptions struct {
	// Password decrypts an encrypted OOXML workbook.
	Password string
	// SheetName names the single worksheet of a delimited import.
	SheetName string
}

// Result is a decoded document plus anything the decoder could not carry over.
type Result struct {
	Spreadsheet *models.Spreadsheet
	Format      Format
	Warnings    []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Import detects the format of data and decodes it. filename supplies the
// document name and breaks ties when the content is ambiguous.
func Import(data []byte, filename string, opts ImportOptions) (*Result, error) {
	format, err := Detect(data, filename)
	if err != nil {
		return nil, err
	}
	res := &Result{Format: format}
	var sheet *models.Spreadsheet
	switch format {
	case FormatCSV, FormatTSV:
		ws, err := ReadDelimited(bytes.NewReader(data), delimiter(format), cmp.Or(opts.SheetName, "Sheet1"))
		if err != nil {
			return nil, err
		}
		sheet = &models.Spreadsheet{Worksheets: []models.Worksheet{ws}}
	case FormatXLSX:
		sheet, err = readXLSX(data, opts.Password, res)
	case FormatXLSB:
		sheet, err = readXLSB(data, res)
	case FormatXLS:
		sheet, err = readXLS(data, res)
	case FormatODS:
		sheet, err = readODS(data, res)
	case FormatJSON:
		sheet, err = ReadJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if len(sheet.Worksheets) == 0 {
		return nil, unsupported(string(format), "workbook has no worksheets")
	}
	if sheet.Name == "" {
		sheet.Name = DocumentName(filename)
	}
	for i := range sheet.Worksheets {
		recalculate(&sheet.Worksheets[i], res)
	}
	res.Spreadsheet = sheet
	return res, nil
}

// DocumentName derives a document name from an uploaded file name.
func DocumentName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "Untitled Spreadsheet"
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Export encodes worksheet index of sheet as CSV/TSV, or the whole document
// as xlsx or JSON.
func Export(w io.Writer, sheet *models.Spreadsheet, format Format, index int) error {
	switch format {
	case FormatCSV, FormatTSV:
		ws, ok := sheet.Worksheet(index)
		if !ok {
			return fmt.Errorf("worksheet index %d out of range", index)
		}
		return WriteDelimited(w, ws, delimiter(format))
	case FormatXLSX:
		data, err := WriteXLSX(sheet)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		return WriteJSON(w, sheet)
	}
	return unsupported(string(format), "cannot export")
}

// ParseFormat maps an export format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(name, "."))); f {
	case FormatCSV, FormatTSV, FormatXLSX, FormatJSON:
		return f, nil
	}
	return "", unsupported(name, "export formats are csv, tsv, xlsx and json")
}

// ReadJSON decodes a JSON snapshot.
func ReadJSON(data []byte) (*models.Spreadsheet, error) {
	var sheet models.Spreadsheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, unsupported(string(FormatJSON), err.Error())
	}
	for i := range sheet.Worksheets {
		if sheet.Worksheets[i].Data == nil {
			sheet.Worksheets[i].Data = make(map[string]models.CellData)
		}
	}
	return &sheet, nil
}

// WriteJSON encodes the whole document.
func WriteJSON(w io.Writer, sheet *models.Spreadsheet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sheet)
}

// recalculate fills values for formulas that arrived without a cached result
// and records functions the evaluator does not implement.
func recalculate(ws *models.Worksheet, res *Result) {
	var unknown []string
	for key, c := range ws.Data {
		if c.Formula == "" {
			continue
		}
		for _, name := range formula.UnknownFunctions(c.Formula) {
			if !slices.Contains(unknown, name) {
				unknown = append(unknown, name)
			}
		}
		if c.Value == "" {
			c.Value = formula.Evaluate(c.Formula, ws).Value
			ws.Data[key] = c
		}
	}
	if len(unknown) > 0 {
		res.warnf("worksheet %q uses unsupported functions: %s", ws.Name, strings.Join(slices.Sorted(slices.Values(unknown)), ", "))
	}
}

func delimiter(f Format) rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}
