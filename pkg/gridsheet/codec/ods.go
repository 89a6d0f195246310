package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

const (
	odsMimeType = "application/vnd.oasis.opendocument.spreadsheet"
	odsTableNS  = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
)

// maxODSRepeat caps how often a repeated row or cell with content is
// expanded. Empty repeats only advance the position.
const maxODSRepeat = 1024

// odsCell is one decoded table:table-cell.
type odsCell struct {
	col    uint32
	span   models.Rect
	data   models.CellData
	repeat uint32
}

// readODS decodes the content.xml part of an OpenDocument spreadsheet. Cell
// values keep their office value attributes when present and the paragraph
// text otherwise; formulas are rewritten from OpenFormula notation.
func readODS(data []byte, res *Result) (*models.Spreadsheet, error) {
	p, err := openPackage(data)
	if err != nil {
		return nil, unsupported(string(FormatODS), err.Error())
	}
	content, err := p.read("content.xml")
	if err != nil {
		return nil, unsupported(string(FormatODS), err.Error())
	}
	if content == nil {
		return nil, unsupported(string(FormatODS), "package has no content.xml")
	}

	sheet := &models.Spreadsheet{}
	dec := xml.NewDecoder(bytes.NewReader(content))
	var (
		ws      *models.Worksheet
		row     uint64
		rowRep  uint64
		col     uint64
		cells   []odsCell
		cell    *odsCell
		text    odsText
		note    odsText
		inNote  bool
		dropped bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, unsupported(string(FormatODS), err.Error())
		}
		para := &text
		if inNote {
			para = &note
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "table":
				if ws != nil || t.Name.Space != odsTableNS {
					continue
				}
				name := odsAttr(t, "name")
				if name == "" {
					name = fmt.Sprintf("Sheet%d", len(sheet.Worksheets)+1)
				}
				w := models.NewWorksheet(name)
				ws, row = &w, 0
			case "table-row":
				if ws == nil {
					continue
				}
				rowRep = odsCount(t, "number-rows-repeated")
				col, cells = 0, cells[:0]
			case "table-cell", "covered-table-cell":
				if ws == nil {
					continue
				}
				cell = &odsCell{col: uint32(min(col, maxIndex)), repeat: uint32(odsCount(t, "number-columns-repeated"))}
				var ok bool
				if cell.data, ok = odsCellData(t); !ok {
					dropped = true
				}
				if rows, cols := odsCount(t, "number-rows-spanned"), odsCount(t, "number-columns-spanned"); rows > 1 || cols > 1 {
					cell.span = models.Rect{EndRow: uint32(rows - 1), EndCol: uint32(cols - 1)}
				}
				text.reset()
				note.reset()
			case "annotation":
				inNote = cell != nil
			case "p":
				if cell != nil {
					para.startParagraph()
				}
			case "s":
				if cell != nil && para.depth > 0 {
					para.WriteString(strings.Repeat(" ", int(min(odsCount(t, "c"), maxODSRepeat))))
				}
			case "tab":
				if cell != nil && para.depth > 0 {
					para.WriteByte('\t')
				}
			case "line-break":
				if cell != nil && para.depth > 0 {
					para.WriteByte('\n')
				}
			}
		case xml.CharData:
			if cell != nil && para.depth > 0 {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if para.depth > 0 {
					para.depth--
				}
			case "annotation":
				inNote = false
			case "table-cell", "covered-table-cell":
				if cell == nil {
					continue
				}
				if cell.data.Value == "" {
					cell.data.Value = strings.TrimSpace(text.String())
				}
				cell.data.Note = strings.TrimSpace(note.String())
				if !cell.data.IsEmpty() || cell.span != (models.Rect{}) {
					cells = append(cells, *cell)
				}
				col += uint64(cell.repeat)
				cell = nil
			case "table-row":
				if ws == nil {
					continue
				}
				n := rowRep
				if len(cells) > 0 {
					n = min(n, maxODSRepeat)
				}
				for r := uint64(0); r < n && row+r <= maxIndex; r++ {
					putODSRow(ws, uint32(row+r), cells)
				}
				row += rowRep
			case "table":
				if ws == nil || t.Name.Space != odsTableNS {
					continue
				}
				sheet.Worksheets = append(sheet.Worksheets, *ws)
				ws = nil
			}
		}
	}
	if dropped {
		res.warnf("ods import dropped formulas it could not convert")
	}
	return sheet, nil
}

// odsText collects the paragraphs of a cell or of its annotation, one line
// per paragraph.
type odsText struct {
	strings.Builder
	depth int
	seen  bool
}

func (t *odsText) startParagraph() {
	if t.seen {
		t.WriteByte('\n')
	}
	t.seen = true
	t.depth++
}

func (t *odsText) reset() {
	t.Reset()
	t.depth, t.seen = 0, false
}

// maxIndex is the highest addressable row or column.
const maxIndex = 1<<32 - 1

func putODSRow(ws *models.Worksheet, row uint32, cells []odsCell) {
	for _, c := range cells {
		n := min(uint64(c.repeat), maxODSRepeat)
		for i := uint64(0); i < n && uint64(c.col)+i <= maxIndex; i++ {
			col := c.col + uint32(i)
			if !c.data.IsEmpty() {
				ws.PutCell(row, col, c.data)
			}
			if c.span.EndRow > 0 || c.span.EndCol > 0 {
				ws.MergedCells = append(ws.MergedCells, models.MergedCell{
					StartRow: row, StartCol: col,
					EndRow: satAdd(row, c.span.EndRow), EndCol: satAdd(col, c.span.EndCol),
				})
			}
		}
	}
}

func satAdd(a, b uint32) uint32 {
	return uint32(min(uint64(a)+uint64(b), maxIndex))
}

// odsCellData reads the typed value and formula attributes of a cell. The
// paragraph text fills in the value later when no typed value is present.
// It reports false when a formula could not be converted and was dropped.
func odsCellData(se xml.StartElement) (models.CellData, bool) {
	var c models.CellData
	switch odsAttr(se, "value-type") {
	case "float", "percentage", "currency":
		c.Value = odsAttr(se, "value")
	case "date":
		c.Value = odsAttr(se, "date-value")
	case "time":
		c.Value = odsAttr(se, "time-value")
	case "boolean":
		if v, err := strconv.ParseBool(odsAttr(se, "boolean-value")); err == nil {
			c.Value = strings.ToUpper(strconv.FormatBool(v))
		}
	case "string":
		c.Value = odsAttr(se, "string-value")
	}
	f := odsAttr(se, "formula")
	if f == "" {
		return c, true
	}
	converted, ok := fromOpenFormula(f)
	c.Formula = converted
	return c, ok
}

func odsAttr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// odsCount parses a positive count attribute, defaulting to 1.
func odsCount(se xml.StartElement, local string) uint64 {
	n, err := strconv.ParseUint(odsAttr(se, local), 10, 32)
	if err != nil || n == 0 {
		return 1
	}
	return n
}

var odsRefPattern = regexp.MustCompile(`\[([^\]]*)\]`)

// fromOpenFormula rewrites "of:=SUM([.A1:.B2];[Other.C3])" as
// "=SUM(A1:B2,Other!C3)". References into other documents are reported as
// not convertible.
func fromOpenFormula(f string) (string, bool) {
	if i := strings.Index(f, ":="); i >= 0 && i < 8 {
		f = f[i+1:]
	}
	if !strings.HasPrefix(f, "=") {
		return "", false
	}
	ok := true
	f = odsRefPattern.ReplaceAllStringFunc(f, func(m string) string {
		inner := m[1 : len(m)-1]
		if strings.HasPrefix(inner, "'file:") || strings.Contains(inner, "#$") {
			ok = false
			return m
		}
		parts := strings.Split(inner, ":")
		for i, part := range parts {
			part = strings.TrimPrefix(strings.TrimPrefix(part, "$"), ".")
			if dot := strings.LastIndexByte(part, '.'); dot > 0 {
				part = part[:dot] + "!" + part[dot+1:]
			}
			parts[i] = part
		}
		return strings.Join(parts, ":")
	})
	if !ok {
		return "", false
	}
	return replaceOutsideQuotes(f, ';', ','), true
}

func replaceOutsideQuotes(s string, from, to byte) string {
	b := []byte(s)
	quoted := false
	for i, ch := range b {
		switch {
		case ch == '"':
			quoted = !quoted
		case ch == from && !quoted:
			b[i] = to
		}
	}
	return string(b)
}
