// Package ref resolves A1-style cell and range references to 0-based
// (row, col) coordinates and back.
package ref

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidReference is returned for text that is not a cell or range reference.
// Callers treat it as "not a reference" rather than as a fatal error.
var ErrInvalidReference = errors.New("invalid reference")

// ReferenceError describes why a reference could not be resolved.
type ReferenceError struct {
	Text   string
	Reason string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("invalid reference %q: %s", e.Text, e.Reason)
}

func (e *ReferenceError) Unwrap() error {
	return ErrInvalidReference
}

func invalid(text, reason string) error {
	return &ReferenceError{Text: text, Reason: reason}
}

// Coord is a 0-based cell coordinate.
type Coord struct {
	Row uint32
	Col uint32
}

// String renders the coordinate in A1 notation.
func (c Coord) String() string {
	return CellName(c.Row, c.Col)
}

// ParseCellRef resolves an A1 reference such as "b12" or "$C$3".
func ParseCellRef(text string) (row, col uint32, err error) {
	s := strings.TrimSpace(text)
	i := 0
	if i < len(s) && s[i] == '$' {
		i++
	}
	letterStart := i
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i == letterStart {
		return 0, 0, invalid(text, "missing column letters")
	}
	letters := s[letterStart:i]
	if i < len(s) && s[i] == '$' {
		i++
	}
	digitStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == digitStart {
		return 0, 0, invalid(text, "missing row digits")
	}
	if i != len(s) {
		return 0, 0, invalid(text, "unexpected trailing characters")
	}

	col, err = ColLettersToIndex(letters)
	if err != nil {
		return 0, 0, err
	}
	var n uint64
	for _, ch := range []byte(s[digitStart:i]) {
		n = n*10 + uint64(ch-'0')
		if n > math.MaxUint32 {
			return 0, 0, invalid(text, "row out of range")
		}
	}
	if n == 0 {
		return 0, 0, invalid(text, "rows are 1-based")
	}
	return uint32(n - 1), col, nil
}

// ColLettersToIndex converts base-26 column letters ("A", "ab") to a 0-based index.
func ColLettersToIndex(text string) (uint32, error) {
	if text == "" {
		return 0, invalid(text, "missing column letters")
	}
	var n uint64
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if !isLetter(ch) {
			return 0, invalid(text, "column must be letters")
		}
		n = n*26 + uint64(upper(ch)-'A'+1)
		if n-1 > math.MaxUint32 {
			return 0, invalid(text, "column out of range")
		}
	}
	return uint32(n - 1), nil
}

// ColIndexToLetters converts a 0-based column index to base-26 letters.
func ColIndexToLetters(col uint32) string {
	n := uint64(col) + 1
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// CellName renders (row, col) as an A1 reference.
func CellName(row, col uint32) string {
	return fmt.Sprintf("%s%d", ColIndexToLetters(col), uint64(row)+1)
}

// IsCellRef reports whether text resolves as a single cell reference.
func IsCellRef(text string) bool {
	_, _, err := ParseCellRef(text)
	return err == nil
}

func isLetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - ('a' - 'A')
	}
	return ch
}
