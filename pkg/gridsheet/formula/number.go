package formula

import (
	"math"
	"strconv"
	"strings"
)

// Error tokens produced by evaluation. They are ordinary cell values.
const (
	ErrDiv0  = "#DIV/0!"
	ErrValue = "#VALUE!"
	ErrNA    = "#N/A"
	ErrNum   = "#NUM!"
	ErrRef   = "#REF!"
	ErrOther = "#ERROR!"
)

const (
	valueTrue  = "TRUE"
	valueFalse = "FALSE"
)

// IsErrorValue reports whether v is an evaluation error token.
func IsErrorValue(v string) bool {
	return strings.HasPrefix(v, "#")
}

// FormatNumber renders n the way cells display numbers: integers have no
// decimal point and fractions keep at most six places with trailing zeros trimmed.
func FormatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return ErrNum
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		if n == 0 {
			return "0"
		}
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	s := strconv.FormatFloat(n, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// ParseNumber parses a cell value as a decimal number. Hex, infinities and
// NaN spellings accepted by strconv are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isDigit(ch) || ch == '.' || ch == '-' || ch == '+' || ch == 'e' || ch == 'E' {
			continue
		}
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func formatBool(b bool) string {
	if b {
		return valueTrue
	}
	return valueFalse
}
