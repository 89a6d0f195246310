package formula

import (
	"regexp"
	"strings"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

var cellRefPattern = regexp.MustCompile(`(?i)\$?\b[A-Z]+\$?\d+\b`)

// evalArithmetic substitutes every cell reference in expr with the cell's
// current value (missing or empty cells read as 0) and evaluates the result.
//
// Operators are found by scanning right to left: "+" then "-" split first,
// then "*" then "/". Parentheses are not grouped in this path.
func evalArithmetic(expr string, g Grid) (string, bool) {
	resolved := SubstituteRefs(expr, g)
	n, err := scanArithmetic(strings.ReplaceAll(resolved, " ", ""))
	if err == errDivByZero {
		return ErrDiv0, true
	}
	if err != nil {
		return "", false
	}
	return FormatNumber(n), true
}

// SubstituteRefs replaces A1-style references in expr with cell values.
func SubstituteRefs(expr string, g Grid) string {
	return cellRefPattern.ReplaceAllStringFunc(expr, func(m string) string {
		row, col, err := ref.ParseCellRef(m)
		if err != nil {
			return m
		}
		if v := g.Value(row, col); v != "" {
			return v
		}
		return "0"
	})
}

type arithmeticError string

func (e arithmeticError) Error() string { return string(e) }

const (
	errDivByZero  = arithmeticError("division by zero")
	errNotANumber = arithmeticError("not a number")
)

func scanArithmetic(expr string) (float64, error) {
	if n, ok := ParseNumber(expr); ok {
		return n, nil
	}
	if pos := strings.LastIndexByte(expr, '+'); pos > 0 {
		return binary(expr, pos, func(a, b float64) (float64, error) { return a + b, nil })
	}
	if pos := strings.LastIndexByte(expr, '-'); pos > 0 {
		return binary(expr, pos, func(a, b float64) (float64, error) { return a - b, nil })
	}
	if pos := strings.LastIndexByte(expr, '*'); pos >= 0 {
		return binary(expr, pos, func(a, b float64) (float64, error) { return a * b, nil })
	}
	if pos := strings.LastIndexByte(expr, '/'); pos >= 0 {
		return binary(expr, pos, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errDivByZero
			}
			return a / b, nil
		})
	}
	return 0, errNotANumber
}

func binary(expr string, pos int, op func(a, b float64) (float64, error)) (float64, error) {
	left, err := scanArithmetic(expr[:pos])
	if err != nil {
		return 0, err
	}
	right, err := scanArithmetic(expr[pos+1:])
	if err != nil {
		return 0, err
	}
	return op(left, right)
}
