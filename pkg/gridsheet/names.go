package gridsheet

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

// ErrNamedRangeNotFound indicates no named range with the given id.
var ErrNamedRangeNotFound = errors.New("named range not found")

const (
	ScopeWorkbook  = "workbook"
	ScopeWorksheet = "worksheet"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_\\][A-Za-z0-9_.\\]*$`)

// NamedRangeRequest creates a named range.
type NamedRangeRequest struct {
	Name           string `json:"name"`
	Scope          string `json:"scope,omitempty"`
	WorksheetIndex int    `json:"worksheet_index"`
	models.Rect
	Comment string `json:"comment,omitempty"`
}

// NamedRangeUpdate changes the fields that are set.
type NamedRangeUpdate struct {
	Name     *string `json:"name,omitempty"`
	StartRow *uint32 `json:"start_row,omitempty"`
	StartCol *uint32 `json:"start_col,omitempty"`
	EndRow   *uint32 `json:"end_row,omitempty"`
	EndCol   *uint32 `json:"end_col,omitempty"`
	Comment  *string `json:"comment,omitempty"`
}

// CreateNamedRange adds a name. Names are unique case-insensitively and must
// not look like a cell reference.
func (s *Service) CreateNamedRange(ctx context.Context, id string, req NamedRangeRequest) (*models.NamedRange, error) {
	scope := req.Scope
	if scope == "" {
		scope = ScopeWorkbook
	}
	if scope != ScopeWorkbook && scope != ScopeWorksheet {
		return nil, NewOperationError(id, "create_named_range", inputError("unknown scope %q", scope))
	}
	nr := models.NamedRange{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Scope:          scope,
		WorksheetIndex: req.WorksheetIndex,
		Rect:           req.Rect.Normalize(),
		Comment:        req.Comment,
	}
	_, err := s.update(ctx, id, "create_named_range", func(sheet *models.Spreadsheet) error {
		if _, err := worksheetAt(sheet, nr.WorksheetIndex); err != nil {
			return err
		}
		if err := checkName(sheet, nr.Name, ""); err != nil {
			return err
		}
		sheet.NamedRanges = append(sheet.NamedRanges, nr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &nr, nil
}

// UpdateNamedRange applies the set fields of upd to the named range.
func (s *Service) UpdateNamedRange(ctx context.Context, id, rangeID string, upd NamedRangeUpdate) (*models.NamedRange, error) {
	var out models.NamedRange
	_, err := s.update(ctx, id, "update_named_range", func(sheet *models.Spreadsheet) error {
		i := slices.IndexFunc(sheet.NamedRanges, func(nr models.NamedRange) bool { return nr.ID == rangeID })
		if i < 0 {
			return ErrNamedRangeNotFound
		}
		nr := &sheet.NamedRanges[i]
		if upd.Name != nil {
			if err := checkName(sheet, *upd.Name, nr.ID); err != nil {
				return err
			}
			nr.Name = *upd.Name
		}
		setIf(&nr.StartRow, upd.StartRow)
		setIf(&nr.StartCol, upd.StartCol)
		setIf(&nr.EndRow, upd.EndRow)
		setIf(&nr.EndCol, upd.EndCol)
		setIf(&nr.Comment, upd.Comment)
		nr.Rect = nr.Rect.Normalize()
		out = *nr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// DeleteNamedRange removes a named range by id.
func (s *Service) DeleteNamedRange(ctx context.Context, id, rangeID string) (*models.Spreadsheet, error) {
	return s.update(ctx, id, "delete_named_range", func(sheet *models.Spreadsheet) error {
		before := len(sheet.NamedRanges)
		sheet.NamedRanges = slices.DeleteFunc(sheet.NamedRanges, func(nr models.NamedRange) bool { return nr.ID == rangeID })
		if len(sheet.NamedRanges) == before {
			return ErrNamedRangeNotFound
		}
		return nil
	})
}

// ListNamedRanges returns every named range of the spreadsheet.
func (s *Service) ListNamedRanges(ctx context.Context, id string) ([]models.NamedRange, error) {
	sheet, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet.NamedRanges == nil {
		return []models.NamedRange{}, nil
	}
	return sheet.NamedRanges, nil
}

// checkName validates name and rejects a case-insensitive duplicate of any
// range other than selfID.
func checkName(sheet *models.Spreadsheet, name, selfID string) error {
	if !namePattern.MatchString(name) || ref.IsCellRef(name) {
		return inputError("invalid range name %q", name)
	}
	for _, nr := range sheet.NamedRanges {
		if nr.ID != selfID && strings.EqualFold(nr.Name, name) {
			return inputError("range name %q already exists", name)
		}
	}
	return nil
}
