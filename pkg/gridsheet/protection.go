package gridsheet

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// ProtectRequest enables worksheet protection.
type ProtectRequest struct {
	WorksheetIndex int `json:"worksheet_index"`
	// Password is hashed with bcrypt; only the hash is stored. Empty means
	// anyone may unprotect.
	Password         string   `json:"password,omitempty"`
	LockedCells      []string `json:"locked_cells,omitempty"`
	AllowFormatCells bool     `json:"allow_format_cells"`
	AllowSort        bool     `json:"allow_sort"`
	AllowFilter      bool     `json:"allow_filter"`
}

// ProtectWorksheet turns protection on, replacing any previous settings.
func (s *Service) ProtectWorksheet(ctx context.Context, id string, req ProtectRequest) (*models.Spreadsheet, error) {
	p := &models.SheetProtection{
		Protected:        true,
		LockedCells:      req.LockedCells,
		AllowFormatCells: req.AllowFormatCells,
		AllowSort:        req.AllowSort,
		AllowFilter:      req.AllowFilter,
	}
	if p.LockedCells == nil {
		p.LockedCells = []string{}
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, NewOperationError(id, "protect", inputError("password: %v", err))
		}
		p.PasswordHash = string(hash)
	}
	return s.updateWorksheet(ctx, id, req.WorksheetIndex, "protect", func(ws *models.Worksheet) error {
		ws.Protection = p
		return nil
	})
}

// UnprotectWorksheet removes protection. When a password was set, the same
// password must be supplied.
func (s *Service) UnprotectWorksheet(ctx context.Context, id string, index int, password string) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "unprotect", func(ws *models.Worksheet) error {
		if p := ws.Protection; p != nil && p.PasswordHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
				return ErrWrongPassword
			}
		}
		ws.Protection = nil
		return nil
	})
}

// LockCells sets or clears the locked flag on every cell of rect. The flag
// only takes effect while the worksheet is protected.
func (s *Service) LockCells(ctx context.Context, id string, index int, rect models.Rect, locked bool) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "lock_cells", func(ws *models.Worksheet) error {
		rect.Normalize().Each(func(row, col uint32) {
			ws.UpdateCell(row, col, func(c *models.CellData) { c.Locked = locked })
		})
		return nil
	})
}

func allowFormat(ws *models.Worksheet) error {
	if p := ws.Protection; p != nil && p.Protected && !p.AllowFormatCells {
		return ErrProtected
	}
	return nil
}

func allowFilter(ws *models.Worksheet) error {
	if p := ws.Protection; p != nil && p.Protected && !p.AllowFilter {
		return ErrProtected
	}
	return nil
}
