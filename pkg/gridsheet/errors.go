package gridsheet

import (
	"errors"
	"fmt"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/storage"
)

// ErrNotFound indicates the spreadsheet id is unknown to the store.
var ErrNotFound = storage.ErrNotFound

// ErrStorage indicates the backing store was unreachable, denied access or timed out.
var ErrStorage = storage.ErrStorage

// ErrSerialization indicates a stored snapshot is corrupt.
var ErrSerialization = storage.ErrSerialization

// ErrInvalidWorksheetIndex indicates a worksheet index outside the document.
var ErrInvalidWorksheetIndex = errors.New("invalid worksheet index")

// ErrUserInput indicates a malformed request that the caller must fix.
var ErrUserInput = errors.New("invalid input")

var (
	// ErrUnsupportedFormat indicates an import or export format that is not handled.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrUserInput)
	// ErrCellLocked indicates a write to a locked cell of a protected worksheet.
	ErrCellLocked = fmt.Errorf("%w: cell is locked", ErrUserInput)
	// ErrProtected indicates a mutation the worksheet protection does not allow.
	ErrProtected = fmt.Errorf("%w: worksheet is protected", ErrUserInput)
	// ErrWrongPassword indicates a protection password mismatch.
	ErrWrongPassword = fmt.Errorf("%w: wrong password", ErrUserInput)
	// ErrLastWorksheet indicates an attempt to delete the only worksheet.
	ErrLastWorksheet = fmt.Errorf("%w: cannot delete the last worksheet", ErrUserInput)
)

// OperationError records which mutation on which spreadsheet failed.
type OperationError struct {
	SheetID   string
	Operation string // "set_cell", "sort", "create_chart", ...
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s on spreadsheet %q: %v", e.Operation, e.SheetID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError.
func NewOperationError(sheetID, operation string, err error) *OperationError {
	return &OperationError{
		SheetID:   sheetID,
		Operation: operation,
		Err:       err,
	}
}

// inputError wraps a descriptive message around ErrUserInput.
func inputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUserInput, fmt.Sprintf(format, args...))
}
