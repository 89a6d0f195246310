package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/TsubasaBE/go-xlsb/workbook"
	"github.com/TsubasaBE/go-xlsb/worksheet"
	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// readXLS decodes a BIFF workbook. Only cell text survives; the reader
// exposes no styles, merges or formulas.
func readXLS(data []byte, res *Result) (sheet *models.Spreadsheet, err error) {
	// The BIFF parser panics on malformed records instead of returning errors.
	defer func() {
		if r := recover(); r != nil {
			sheet, err = nil, unsupported(string(FormatXLS), fmt.Sprint("malformed workbook: ", r))
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, unsupported(string(FormatXLS), err.Error())
	}
	sheet = &models.Spreadsheet{Name: oleTitle(data)}
	for i := 0; i < wb.NumSheets(); i++ {
		src := wb.GetSheet(i)
		if src == nil {
			continue
		}
		ws := models.NewWorksheet(src.Name)
		for r := 0; r <= int(src.MaxRow); r++ {
			row := xlsRow(src, r)
			if row == nil {
				continue
			}
			for c := row.FirstCol(); c <= row.LastCol(); c++ {
				value := strings.TrimSpace(row.Col(c))
				if value == "" {
					continue
				}
				ws.PutCell(uint32(r), uint32(c), models.CellData{Value: value})
			}
		}
		sheet.Worksheets = append(sheet.Worksheets, ws)
	}
	res.warnf("xls import keeps cell values only; styles, formulas and merges are dropped")
	return sheet, nil
}

// xlsRow returns nil for rows the sheet does not store; the reader
// dereferences a nil row otherwise.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// oleTitle reads the Title property from the compound file's summary
// information stream, or "" when there is none.
func oleTitle(data []byte) string {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !msoleps.IsMSOLEPS(entry.Initial) {
			continue
		}
		props := msoleps.New()
		if err := props.Reset(doc); err != nil {
			continue
		}
		for _, p := range props.Property {
			if p.Name == "Title" {
				return strings.TrimSpace(p.String())
			}
		}
	}
	return ""
}

// readXLSB decodes a binary workbook. Dates keep their formatted text;
// other numbers are stored raw.
func readXLSB(data []byte, res *Result) (*models.Spreadsheet, error) {
	wb, err := workbook.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unsupported(string(FormatXLSB), err.Error())
	}
	defer wb.Close()

	sheet := &models.Spreadsheet{}
	for i, name := range wb.Sheets() {
		src, err := wb.Sheet(i + 1)
		if err != nil {
			return nil, unsupported(string(FormatXLSB), fmt.Sprintf("sheet %q: %v", name, err))
		}
		ws := models.NewWorksheet(name)
		for row := range src.Rows(true) {
			for _, cell := range row {
				value := xlsbValue(wb, src, cell)
				if value == "" {
					continue
				}
				ws.PutCell(uint32(cell.R), uint32(cell.C), models.CellData{Value: value})
			}
		}
		sheet.Worksheets = append(sheet.Worksheets, ws)
	}
	res.warnf("xlsb import keeps cell values only; styles, formulas and merges are dropped")
	return sheet, nil
}

func xlsbValue(wb *workbook.Workbook, ws *worksheet.Worksheet, cell worksheet.Cell) string {
	switch v := cell.V.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strings.ToUpper(strconv.FormatBool(v))
	case float64:
		if wb.Styles.IsDate(cell.Style) {
			return ws.FormatCell(cell)
		}
		return formula.FormatNumber(v)
	default:
		return fmt.Sprint(v)
	}
}
