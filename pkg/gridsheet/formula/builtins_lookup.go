package formula

import (
	"strings"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

func (e *Evaluator) lookup(fn Func, args []Node, g Grid) (string, bool) {
	switch fn {
	case FnVLookup, FnHLookup:
		if len(args) < 3 || len(args) > 4 {
			return "", false
		}
		needle := e.scalar(args[0], g)
		table, ok := rangeArg(args[1])
		if !ok {
			return "", false
		}
		offset, ok := e.intArg(args[2], g)
		if !ok {
			return "", false
		}
		if offset < 1 {
			return ErrValue, true
		}
		exactOnly := len(args) == 4 && e.isFalse(args[3], g)
		if fn == FnVLookup {
			return vlookup(needle, table, offset, exactOnly, g), true
		}
		return hlookup(needle, table, offset, exactOnly, g), true

	case FnIndex:
		if len(args) < 2 || len(args) > 3 {
			return "", false
		}
		r, ok := rangeArg(args[0])
		if !ok {
			return "", false
		}
		row, ok := e.intArg(args[1], g)
		if !ok {
			return "", false
		}
		col := 1
		if len(args) == 3 {
			if col, ok = e.intArg(args[2], g); !ok {
				return "", false
			}
		}
		if row < 1 || col < 1 {
			return ErrValue, true
		}
		if uint64(row) > r.Rows() || uint64(col) > r.Cols() {
			return ErrRef, true
		}
		return g.Value(r.Start.Row+uint32(row-1), r.Start.Col+uint32(col-1)), true
	}
	return "", false
}

// isFalse reports whether the range_lookup argument is the literal FALSE.
func (e *Evaluator) isFalse(n Node, g Grid) bool {
	if b, ok := n.(BoolLit); ok {
		return !b.Value
	}
	return strings.EqualFold(strings.TrimSpace(e.scalar(n, g)), valueFalse)
}

// vlookup scans the first column of table for needle, ignoring case. Unless
// exactOnly is set, a miss falls back to the first key that starts with needle.
func vlookup(needle string, table ref.Range, col int, exactOnly bool, g Grid) string {
	keyCol := table.Start.Col
	row, found := scan(needle, exactOnly, table.Start.Row, table.End.Row, func(i uint32) string {
		return g.Value(i, keyCol)
	})
	if !found {
		return ErrNA
	}
	if uint64(col) > table.Cols() {
		return ErrRef
	}
	return g.Value(row, table.Start.Col+uint32(col-1))
}

// hlookup is vlookup transposed: keys are read from the first row.
func hlookup(needle string, table ref.Range, row int, exactOnly bool, g Grid) string {
	keyRow := table.Start.Row
	col, found := scan(needle, exactOnly, table.Start.Col, table.End.Col, func(i uint32) string {
		return g.Value(keyRow, i)
	})
	if !found {
		return ErrNA
	}
	if uint64(row) > table.Rows() {
		return ErrRef
	}
	return g.Value(table.Start.Row+uint32(row-1), col)
}

func scan(needle string, exactOnly bool, from, to uint32, key func(uint32) string) (uint32, bool) {
	for i := uint64(from); i <= uint64(to); i++ {
		if strings.EqualFold(key(uint32(i)), needle) {
			return uint32(i), true
		}
	}
	if exactOnly || needle == "" {
		return 0, false
	}
	prefix := strings.ToLower(needle)
	for i := uint64(from); i <= uint64(to); i++ {
		if strings.HasPrefix(strings.ToLower(key(uint32(i))), prefix) {
			return uint32(i), true
		}
	}
	return 0, false
}
