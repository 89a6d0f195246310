package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// ReadDelimited parses comma or tab separated text into a worksheet named
// name. A byte order mark selects UTF-8 or UTF-16; input without one that is
// not valid UTF-8 is decoded as Windows-1252. Fields are trimmed and empty
// fields produce no cell. Every other field is stored as a literal value, so
// text beginning with "=" is never evaluated.
func ReadDelimited(r io.Reader, delim rune, name string) (models.Worksheet, error) {
	ws := models.NewWorksheet(name)
	raw, err := io.ReadAll(r)
	if err != nil {
		return ws, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return ws, unsupported(delimitedName(delim), err.Error())
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	for row := uint32(0); ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ws, unsupported(delimitedName(delim), err.Error())
		}
		for col, field := range record {
			if v := strings.TrimSpace(field); v != "" {
				ws.PutCell(row, uint32(col), models.CellData{Value: v})
			}
		}
	}
	return ws, nil
}

func decodeText(raw []byte) ([]byte, error) {
	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return nil, err
	}
	if utf8.Valid(text) {
		return text, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(text)
}

// WriteDelimited writes the occupied rectangle of ws, from A1 to the highest
// occupied row and column, as RFC 4180 records. Cells contribute their
// display value.
func WriteDelimited(w io.Writer, ws *models.Worksheet, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	maxRow, maxCol, ok := ws.Bounds()
	if !ok {
		return nil
	}
	record := make([]string, maxCol+1)
	for row := uint32(0); row <= maxRow; row++ {
		for col := range record {
			record[col] = ws.Value(row, uint32(col))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func delimitedName(delim rune) string {
	if delim == '\t' {
		return string(FormatTSV)
	}
	return string(FormatCSV)
}
