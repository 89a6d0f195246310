package ref

import (
	"iter"
	"strings"
)

// Range is an inclusive rectangle of cells. Start is always the top-left corner.
type Range struct {
	Start Coord
	End   Coord
}

// ParseRange resolves "A1:B3". Both endpoints are required; the corners are
// normalized so that Start is top-left.
func ParseRange(text string) (Range, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 {
		return Range{}, invalid(text, "range needs exactly two endpoints")
	}
	r1, c1, err := ParseCellRef(parts[0])
	if err != nil {
		return Range{}, err
	}
	r2, c2, err := ParseCellRef(parts[1])
	if err != nil {
		return Range{}, err
	}
	return NewRange(r1, c1, r2, c2), nil
}

// NewRange builds a normalized range from two corners.
func NewRange(r1, c1, r2, c2 uint32) Range {
	return Range{
		Start: Coord{Row: min(r1, r2), Col: min(c1, c2)},
		End:   Coord{Row: max(r1, r2), Col: max(c1, c2)},
	}
}

// String renders the range in A1 notation.
func (r Range) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// Rows returns the number of rows spanned.
func (r Range) Rows() uint64 {
	return uint64(r.End.Row) - uint64(r.Start.Row) + 1
}

// Cols returns the number of columns spanned.
func (r Range) Cols() uint64 {
	return uint64(r.End.Col) - uint64(r.Start.Col) + 1
}

// Contains reports whether (row, col) lies in the range.
func (r Range) Contains(row, col uint32) bool {
	return row >= r.Start.Row && row <= r.End.Row && col >= r.Start.Col && col <= r.End.Col
}

// Cells yields every coordinate in row-major order.
func (r Range) Cells() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		for row := uint64(r.Start.Row); row <= uint64(r.End.Row); row++ {
			for col := uint64(r.Start.Col); col <= uint64(r.End.Col); col++ {
				if !yield(Coord{Row: uint32(row), Col: uint32(col)}) {
					return
				}
			}
		}
	}
}
