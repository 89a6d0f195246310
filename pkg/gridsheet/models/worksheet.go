package models

import (
	"iter"
	"slices"
)

// Worksheet is one tab of a Spreadsheet.
type Worksheet struct {
	// Name is the tab name. Uniqueness within a spreadsheet is left to callers.
	Name string `json:"name"`
	// Data is the sparse cell map keyed by "row,col".
	Data map[string]CellData `json:"data"`
	// ColumnWidths maps column index to width override.
	ColumnWidths map[uint32]uint32 `json:"column_widths,omitempty"`
	// RowHeights maps row index to height override.
	RowHeights map[uint32]uint32 `json:"row_heights,omitempty"`
	// FrozenRows is the number of frozen rows (0 = none).
	FrozenRows uint32 `json:"frozen_rows,omitempty"`
	// FrozenCols is the number of frozen columns (0 = none).
	FrozenCols uint32 `json:"frozen_cols,omitempty"`
	// MergedCells lists merged rectangles.
	MergedCells []MergedCell `json:"merged_cells,omitempty"`
	// Filters maps column index to its active filter.
	Filters map[uint32]FilterConfig `json:"filters,omitempty"`
	// HiddenRows is derived from Filters and recomputed on every filter mutation.
	HiddenRows []uint32 `json:"hidden_rows,omitempty"`
	// Validations maps "row,col" to its validation rule.
	Validations map[string]ValidationRule `json:"validations,omitempty"`
	// ConditionalFormats is ordered; later rules win on the same cell.
	ConditionalFormats []ConditionalFormatRule `json:"conditional_formats,omitempty"`
	// Charts lists chart definitions.
	Charts []ChartConfig `json:"charts,omitempty"`
	// Comments maps "row,col" to a comment thread.
	Comments map[string]CellComment `json:"comments,omitempty"`
	// Protection is the protection state, nil when never protected.
	Protection *SheetProtection `json:"protection,omitempty"`
}

// NewWorksheet returns an empty worksheet.
func NewWorksheet(name string) Worksheet {
	return Worksheet{Name: name, Data: make(map[string]CellData)}
}

// Cell returns the cell at (row, col).
func (w *Worksheet) Cell(row, col uint32) (CellData, bool) {
	c, ok := w.Data[CellKey(row, col)]
	return c, ok
}

// Value returns the display value at (row, col), or "" for a missing cell.
func (w *Worksheet) Value(row, col uint32) string {
	return w.Data[CellKey(row, col)].Value
}

// PutCell stores c at (row, col), deleting the entry when c is empty.
func (w *Worksheet) PutCell(row, col uint32, c CellData) {
	key := CellKey(row, col)
	if c.IsEmpty() {
		delete(w.Data, key)
		return
	}
	if w.Data == nil {
		w.Data = make(map[string]CellData)
	}
	w.Data[key] = c
}

// UpdateCell applies fn to the cell at (row, col), creating it when missing.
func (w *Worksheet) UpdateCell(row, col uint32, fn func(c *CellData)) {
	c := w.Data[CellKey(row, col)]
	fn(&c)
	w.PutCell(row, col, c)
}

// Bounds returns the highest occupied row and column.
func (w *Worksheet) Bounds() (maxRow, maxCol uint32, ok bool) {
	for key := range w.Data {
		r, c, valid := ParseCellKey(key)
		if !valid {
			continue
		}
		if !ok || r > maxRow {
			maxRow = r
		}
		if !ok || c > maxCol {
			maxCol = c
		}
		ok = true
	}
	return maxRow, maxCol, ok
}

// SortedKeys yields occupied coordinates in row-major order.
func (w *Worksheet) SortedKeys() iter.Seq2[uint32, uint32] {
	type coord struct{ r, c uint32 }
	coords := make([]coord, 0, len(w.Data))
	for key := range w.Data {
		if r, c, ok := ParseCellKey(key); ok {
			coords = append(coords, coord{r, c})
		}
	}
	slices.SortFunc(coords, func(a, b coord) int {
		if a.r != b.r {
			return int(int64(a.r) - int64(b.r))
		}
		return int(int64(a.c) - int64(b.c))
	})
	return func(yield func(uint32, uint32) bool) {
		for _, c := range coords {
			if !yield(c.r, c.c) {
				return
			}
		}
	}
}

// IsRowHidden reports whether a filter currently hides row.
func (w *Worksheet) IsRowHidden(row uint32) bool {
	_, found := slices.BinarySearch(w.HiddenRows, row)
	return found
}

// IsLocked reports whether a write to (row, col) is blocked by protection.
func (w *Worksheet) IsLocked(row, col uint32) bool {
	if w.Protection == nil || !w.Protection.Protected {
		return false
	}
	if c, ok := w.Cell(row, col); ok && c.Locked {
		return true
	}
	return slices.Contains(w.Protection.LockedCells, CellKey(row, col))
}
