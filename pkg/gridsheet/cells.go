package gridsheet

import (
	"context"
	"strings"

	"github.com/xuri/nfp"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// SetCellRequest writes one cell.
type SetCellRequest struct {
	WorksheetIndex int    `json:"worksheet_index"`
	Row            uint32 `json:"row"`
	Col            uint32 `json:"col"`
	// Value is literal text, or a formula when it starts with "=".
	Value string `json:"value"`
	// RejectInvalid refuses values that fail the cell's validation rule
	// instead of storing them and reporting the failure.
	RejectInvalid bool `json:"reject_invalid,omitempty"`
	// Identity names the collaborator making the edit. When set, the change
	// is broadcast to the document's other subscribers after it persists.
	Identity string `json:"identity,omitempty"`
}

// SetCellResult is the stored cell plus the validation outcome.
type SetCellResult struct {
	Cell       models.CellData         `json:"cell"`
	Validation models.ValidationResult `json:"validation"`
}

// SetCell stores a literal value or evaluates and stores a formula together
// with its computed value. Writing a literal clears any prior formula.
func (s *Service) SetCell(ctx context.Context, id string, req SetCellRequest) (*SetCellResult, error) {
	var res SetCellResult
	_, err := s.updateWorksheet(ctx, id, req.WorksheetIndex, "set_cell", func(ws *models.Worksheet) error {
		if ws.IsLocked(req.Row, req.Col) {
			return ErrCellLocked
		}
		cell, _ := ws.Cell(req.Row, req.Col)
		if strings.HasPrefix(req.Value, "=") {
			cell.Formula = req.Value
			cell.Value = s.eval.Evaluate(req.Value, ws).Value
		} else {
			cell.Formula = ""
			cell.Value = req.Value
		}
		res.Validation = validateAt(ws, req.Row, req.Col, cell.Value)
		if !res.Validation.Valid && req.RejectInvalid {
			return inputError("%s", res.Validation.ErrorMessage)
		}
		ws.PutCell(req.Row, req.Col, cell)
		res.Cell = cell
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(id, req.Identity, req.Row, req.Col, res.Cell.Value)
	return &res, nil
}

// EvaluateFormula evaluates formula against a stored worksheet without
// persisting anything.
func (s *Service) EvaluateFormula(ctx context.Context, id string, index int, text string) (formula.Result, error) {
	_, ws, err := s.view(ctx, id, index, "evaluate")
	if err != nil {
		return formula.Result{}, err
	}
	return s.eval.Evaluate(text, ws), nil
}

// Evaluator exposes the evaluator configured with the service clock.
func (s *Service) Evaluator() *formula.Evaluator {
	return s.eval
}

// Precedents lists the A1 references the formula at (row, col) reads. A cell
// without a formula has none.
func (s *Service) Precedents(ctx context.Context, id string, index int, row, col uint32) ([]string, error) {
	_, ws, err := s.view(ctx, id, index, "precedents")
	if err != nil {
		return nil, err
	}
	cell, ok := ws.Cell(row, col)
	if !ok || cell.Formula == "" {
		return []string{}, nil
	}
	return formula.Precedents(cell.Formula), nil
}

// AddNote attaches a note to a cell, or clears it when note is empty. The
// cell's value and formula are untouched.
func (s *Service) AddNote(ctx context.Context, id string, index int, row, col uint32, note string) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "add_note", func(ws *models.Worksheet) error {
		ws.UpdateCell(row, col, func(c *models.CellData) { c.Note = note })
		return nil
	})
}

// SetNumberFormat applies a number-format code to every cell of rect. An
// empty code clears the format.
func (s *Service) SetNumberFormat(ctx context.Context, id string, index int, rect models.Rect, code string) (*models.Spreadsheet, error) {
	if err := ValidateNumberFormat(code); err != nil {
		return nil, NewOperationError(id, "set_number_format", err)
	}
	return s.updateWorksheet(ctx, id, index, "set_number_format", func(ws *models.Worksheet) error {
		if err := allowFormat(ws); err != nil {
			return err
		}
		rect.Normalize().Each(func(row, col uint32) {
			ws.UpdateCell(row, col, func(c *models.CellData) { c.Format = code })
		})
		return nil
	})
}

// ValidateNumberFormat checks that code tokenizes as a spreadsheet number
// format with at most four sections.
func ValidateNumberFormat(code string) error {
	if code == "" {
		return nil
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(code)
	if len(sections) == 0 || len(sections) > 4 {
		return inputError("number format %q has %d sections", code, len(sections))
	}
	for _, section := range sections {
		for _, tok := range section.Items {
			if tok.TType == nfp.TokenTypeUnknown {
				return inputError("number format %q: unknown token %q", code, tok.TValue)
			}
		}
	}
	return nil
}

// SetColumnWidth overrides a column width. Zero removes the override.
func (s *Service) SetColumnWidth(ctx context.Context, id string, index int, col, width uint32) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "set_column_width", func(ws *models.Worksheet) error {
		if width == 0 {
			delete(ws.ColumnWidths, col)
			return nil
		}
		if ws.ColumnWidths == nil {
			ws.ColumnWidths = make(map[uint32]uint32)
		}
		ws.ColumnWidths[col] = width
		return nil
	})
}

// SetRowHeight overrides a row height. Zero removes the override.
func (s *Service) SetRowHeight(ctx context.Context, id string, index int, row, height uint32) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "set_row_height", func(ws *models.Worksheet) error {
		if height == 0 {
			delete(ws.RowHeights, row)
			return nil
		}
		if ws.RowHeights == nil {
			ws.RowHeights = make(map[uint32]uint32)
		}
		ws.RowHeights[row] = height
		return nil
	})
}
