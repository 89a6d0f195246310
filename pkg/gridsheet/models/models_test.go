package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCellKey(t *testing.T) {
	tests := []struct {
		row, col uint32
		expected string
	}{
		{0, 0, "0,0"},
		{9, 2, "9,2"},
		{4294967295, 1, "4294967295,1"},
	}

	for _, tt := range tests {
		key := CellKey(tt.row, tt.col)
		if key != tt.expected {
			t.Errorf("CellKey(%d, %d) = %q, expected %q", tt.row, tt.col, key, tt.expected)
		}
		r, c, ok := ParseCellKey(key)
		if !ok || r != tt.row || c != tt.col {
			t.Errorf("ParseCellKey(%q) = %d, %d, %v", key, r, c, ok)
		}
	}

	for _, bad := range []string{"", "1", "a,b", "1,-2"} {
		if _, _, ok := ParseCellKey(bad); ok {
			t.Errorf("ParseCellKey(%q) should fail", bad)
		}
	}
}

func TestPutCellRemovesEmptyEntries(t *testing.T) {
	ws := NewWorksheet("Sheet1")
	ws.PutCell(1, 1, CellData{Value: "x"})
	if len(ws.Data) != 1 {
		t.Fatalf("Expected 1 cell, got %d", len(ws.Data))
	}

	ws.UpdateCell(1, 1, func(c *CellData) { c.Value = "" })
	if len(ws.Data) != 0 {
		t.Errorf("Expected empty cell to be removed, got %v", ws.Data)
	}

	ws.PutCell(2, 2, CellData{Style: &CellStyle{}})
	if _, ok := ws.Cell(2, 2); ok {
		t.Error("Cell with zero style should not be stored")
	}
}

func TestBounds(t *testing.T) {
	ws := NewWorksheet("Sheet1")
	if _, _, ok := ws.Bounds(); ok {
		t.Error("Expected no bounds for empty worksheet")
	}
	ws.PutCell(3, 1, CellData{Value: "a"})
	ws.PutCell(0, 7, CellData{Value: "b"})
	r, c, ok := ws.Bounds()
	if !ok || r != 3 || c != 7 {
		t.Errorf("Bounds() = %d, %d, %v; expected 3, 7, true", r, c, ok)
	}
}

func TestSortedKeys(t *testing.T) {
	ws := NewWorksheet("Sheet1")
	ws.PutCell(1, 0, CellData{Value: "c"})
	ws.PutCell(0, 2, CellData{Value: "b"})
	ws.PutCell(0, 1, CellData{Value: "a"})

	var got []string
	for r, c := range ws.SortedKeys() {
		got = append(got, ws.Value(r, c))
	}
	if strings.Join(got, "") != "abc" {
		t.Errorf("SortedKeys order = %v", got)
	}
}

func TestRectEach(t *testing.T) {
	r := Rect{StartRow: 2, StartCol: 1, EndRow: 0, EndCol: 0}.Normalize()
	count := 0
	r.Each(func(row, col uint32) {
		if !r.Contains(row, col) {
			t.Errorf("(%d,%d) outside %+v", row, col, r)
		}
		count++
	})
	if count != 6 {
		t.Errorf("Expected 6 cells, got %d", count)
	}
}

func TestIsLocked(t *testing.T) {
	ws := NewWorksheet("Sheet1")
	ws.PutCell(0, 0, CellData{Value: "a", Locked: true})
	if ws.IsLocked(0, 0) {
		t.Error("Unprotected worksheet should not lock cells")
	}
	ws.Protection = &SheetProtection{Protected: true, LockedCells: []string{"5,5"}}
	if !ws.IsLocked(0, 0) || !ws.IsLocked(5, 5) {
		t.Error("Expected locked cells while protected")
	}
	if ws.IsLocked(1, 1) {
		t.Error("Unlocked cell reported as locked")
	}
}

func TestSpreadsheetJSONFieldNames(t *testing.T) {
	s := Spreadsheet{
		ID:         "abc",
		OwnerID:    "u",
		Worksheets: []Worksheet{NewWorksheet("Sheet1")},
	}
	s.Worksheets[0].FrozenRows = 1
	s.Worksheets[0].MergedCells = []MergedCell{{StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 1}}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, field := range []string{`"owner_id"`, `"frozen_rows":1`, `"merged_cells"`, `"start_row":0`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected %s in %s", field, data)
		}
	}
	if strings.Contains(string(data), `"frozen_cols"`) {
		t.Errorf("Zero frozen_cols should be omitted: %s", data)
	}
}
