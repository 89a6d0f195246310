package gridsheet

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
	"go.alis.build/alog"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

const (
	defaultSpreadsheetName = "Untitled Spreadsheet"
	defaultWorksheetName   = "Sheet1"
	xlsxArtifact           = ".xlsx"
)

// New creates and persists an empty spreadsheet with a single worksheet.
func (s *Service) New(ctx context.Context, name string) (*models.Spreadsheet, error) {
	if strings.TrimSpace(name) == "" {
		name = defaultSpreadsheetName
	}
	return s.Import(ctx, &models.Spreadsheet{
		Name:       name,
		Worksheets: []models.Worksheet{models.NewWorksheet(defaultWorksheetName)},
	})
}

// Import persists doc as a new spreadsheet owned by the configured user. It
// assigns a fresh id and timestamps.
func (s *Service) Import(ctx context.Context, doc *models.Spreadsheet) (*models.Spreadsheet, error) {
	doc.ID = uuid.NewString()
	now := s.opts.Clock.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	return s.store(ctx, doc, "create")
}

// Load reads a spreadsheet.
func (s *Service) Load(ctx context.Context, id string) (*models.Spreadsheet, error) {
	sheet, err := s.repo.Load(ctx, s.opts.UserID, id)
	if err != nil {
		s.logFailure(ctx, id, "load", err)
		return nil, NewOperationError(id, "load", err)
	}
	return sheet, nil
}

// Save overwrites a whole spreadsheet. A missing id is assigned; created_at is
// kept when set.
func (s *Service) Save(ctx context.Context, sheet *models.Spreadsheet) (*models.Spreadsheet, error) {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	now := s.opts.Clock.Now()
	if sheet.CreatedAt.IsZero() {
		sheet.CreatedAt = now
	}
	sheet.UpdatedAt = now
	return s.store(ctx, sheet, "save")
}

func (s *Service) store(ctx context.Context, sheet *models.Spreadsheet, op string) (*models.Spreadsheet, error) {
	if len(sheet.Worksheets) == 0 {
		return nil, NewOperationError(sheet.ID, op, inputError("spreadsheet needs at least one worksheet"))
	}
	for i := range sheet.Worksheets {
		if sheet.Worksheets[i].Data == nil {
			sheet.Worksheets[i].Data = make(map[string]models.CellData)
		}
	}
	sheet.OwnerID = s.opts.UserID
	if s.opts.SerializeWrites {
		unlock := s.locks.lock(sheet.ID)
		defer unlock()
	}
	if err := s.repo.Save(ctx, sheet); err != nil {
		s.logFailure(ctx, sheet.ID, op, err)
		return nil, NewOperationError(sheet.ID, op, err)
	}
	alog.Infof(ctx, "%s: stored spreadsheet %s (%q)", op, sheet.ID, sheet.Name)
	return sheet, nil
}

// Delete removes a spreadsheet and its cached xlsx artifact.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.opts.SerializeWrites {
		unlock := s.locks.lock(id)
		defer unlock()
	}
	if err := s.repo.Delete(ctx, s.opts.UserID, id, xlsxArtifact); err != nil {
		s.logFailure(ctx, id, "delete", err)
		return NewOperationError(id, "delete", err)
	}
	alog.Infof(ctx, "delete: removed spreadsheet %s", id)
	return nil
}

// List returns metadata for every readable spreadsheet, most recent first.
func (s *Service) List(ctx context.Context) ([]models.SpreadsheetMetadata, error) {
	list, err := s.repo.List(ctx, s.opts.UserID)
	if err != nil {
		s.logFailure(ctx, "", "list", err)
		return nil, NewOperationError("", "list", err)
	}
	return list, nil
}

// Search filters List by a case-insensitive substring of the name. An empty
// query matches everything.
func (s *Service) Search(ctx context.Context, query string) ([]models.SpreadsheetMetadata, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list, nil
	}
	out := list[:0]
	for _, m := range list {
		if strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// StoreArtifact keeps a derived file such as an xlsx export beside the snapshot.
func (s *Service) StoreArtifact(ctx context.Context, id, ext, contentType string, data []byte) error {
	if err := s.repo.PutArtifact(ctx, s.opts.UserID, id, ext, contentType, data); err != nil {
		s.logFailure(ctx, id, "store_artifact", err)
		return NewOperationError(id, "store_artifact", err)
	}
	return nil
}

// AddWorksheet appends an empty worksheet. An empty name becomes "SheetN".
func (s *Service) AddWorksheet(ctx context.Context, id, name string) (*models.Spreadsheet, error) {
	return s.update(ctx, id, "add_worksheet", func(sheet *models.Spreadsheet) error {
		if strings.TrimSpace(name) == "" {
			name = "Sheet" + strconv.Itoa(len(sheet.Worksheets)+1)
		}
		sheet.Worksheets = append(sheet.Worksheets, models.NewWorksheet(name))
		return nil
	})
}

// DuplicateWorksheet appends a deep copy of a worksheet named "<name> (copy)".
// Charts and comment threads in the copy get fresh ids.
func (s *Service) DuplicateWorksheet(ctx context.Context, id string, index int) (*models.Spreadsheet, error) {
	return s.update(ctx, id, "duplicate_worksheet", func(sheet *models.Spreadsheet) error {
		src, err := worksheetAt(sheet, index)
		if err != nil {
			return err
		}
		var dup models.Worksheet
		if err := deepcopy.Copy(&dup, src); err != nil {
			return errors.Join(ErrSerialization, err)
		}
		dup.Name = src.Name + " (copy)"
		for i := range dup.Charts {
			dup.Charts[i].ID = uuid.NewString()
		}
		for key, c := range dup.Comments {
			c.ID = uuid.NewString()
			dup.Comments[key] = c
		}
		sheet.Worksheets = append(sheet.Worksheets, dup)
		return nil
	})
}

// RenameWorksheet changes a worksheet's tab name.
func (s *Service) RenameWorksheet(ctx context.Context, id string, index int, name string) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "rename_worksheet", func(ws *models.Worksheet) error {
		if strings.TrimSpace(name) == "" {
			return inputError("worksheet name is empty")
		}
		ws.Name = name
		return nil
	})
}

// DeleteWorksheet removes a worksheet. The last worksheet cannot be removed.
// Worksheet-scoped named ranges on it are dropped and later indexes shift down.
func (s *Service) DeleteWorksheet(ctx context.Context, id string, index int) (*models.Spreadsheet, error) {
	return s.update(ctx, id, "delete_worksheet", func(sheet *models.Spreadsheet) error {
		if _, err := worksheetAt(sheet, index); err != nil {
			return err
		}
		if len(sheet.Worksheets) == 1 {
			return ErrLastWorksheet
		}
		sheet.Worksheets = append(sheet.Worksheets[:index], sheet.Worksheets[index+1:]...)
		kept := sheet.NamedRanges[:0]
		for _, nr := range sheet.NamedRanges {
			switch {
			case nr.WorksheetIndex == index:
				continue
			case nr.WorksheetIndex > index:
				nr.WorksheetIndex--
			}
			kept = append(kept, nr)
		}
		sheet.NamedRanges = kept
		return nil
	})
}
