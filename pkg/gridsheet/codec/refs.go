package codec

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

// sheetRef is a single-area reference such as 'Q1 Sales'!$A$1:$D$10.
type sheetRef struct {
	Sheet string
	Rect  models.Rect
}

// parseSheetRef splits a reference into its sheet name and rectangle. Multi-area
// references and references without a sheet are rejected.
func parseSheetRef(text string) (sheetRef, bool) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "=")
	if text == "" || strings.Contains(text, ",") {
		return sheetRef{}, false
	}
	idx := strings.LastIndex(text, "!")
	if idx <= 0 {
		return sheetRef{}, false
	}
	sheet := text[:idx]
	if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	rect, ok := parseArea(text[idx+1:])
	if !ok {
		return sheetRef{}, false
	}
	return sheetRef{Sheet: sheet, Rect: rect}, true
}

// parseArea parses $A$1:$D$10 or a single cell.
func parseArea(area string) (models.Rect, bool) {
	if strings.Contains(area, ":") {
		rng, err := ref.ParseRange(area)
		if err != nil {
			return models.Rect{}, false
		}
		return models.Rect{StartRow: rng.Start.Row, StartCol: rng.Start.Col, EndRow: rng.End.Row, EndCol: rng.End.Col}, true
	}
	row, col, err := ref.ParseCellRef(area)
	if err != nil {
		return models.Rect{}, false
	}
	return models.Rect{StartRow: row, StartCol: col, EndRow: row, EndCol: col}, true
}

// formatSheetRef renders an absolute reference to rect on sheet.
func formatSheetRef(sheet string, rect models.Rect) string {
	return quoteSheet(sheet) + "!" + absArea(rect)
}

func absArea(rect models.Rect) string {
	start := absCell(rect.StartRow, rect.StartCol)
	if rect.StartRow == rect.EndRow && rect.StartCol == rect.EndCol {
		return start
	}
	return start + ":" + absCell(rect.EndRow, rect.EndCol)
}

func absCell(row, col uint32) string {
	return "$" + ref.ColIndexToLetters(col) + "$" + strconv.FormatUint(uint64(row)+1, 10)
}

func quoteSheet(name string) string {
	for _, r := range name {
		if !(r == '_' || r == '.' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

// namedRanges converts the workbook's defined names. Built-in names such as
// print areas and names whose target is not a single area on a known sheet
// are reported as warnings.
func namedRanges(defined []excelize.DefinedName, sheets []string, res *Result) []models.NamedRange {
	index := func(name string) int {
		for i, s := range sheets {
			if strings.EqualFold(s, name) {
				return i
			}
		}
		return -1
	}
	var out []models.NamedRange
	for _, dn := range defined {
		if strings.HasPrefix(strings.ToLower(dn.Name), "_xlnm.") {
			continue
		}
		target, ok := parseSheetRef(dn.RefersTo)
		if !ok || index(target.Sheet) < 0 {
			res.warnf("defined name %q skipped: unsupported reference %q", dn.Name, dn.RefersTo)
			continue
		}
		nr := models.NamedRange{
			ID:             uuid.NewString(),
			Name:           dn.Name,
			Scope:          "workbook",
			WorksheetIndex: index(target.Sheet),
			Rect:           target.Rect,
			Comment:        dn.Comment,
		}
		if dn.Scope != "" && dn.Scope != "Workbook" {
			if i := index(dn.Scope); i >= 0 {
				nr.Scope = "worksheet"
				nr.WorksheetIndex = i
			}
		}
		out = append(out, nr)
	}
	return out
}
