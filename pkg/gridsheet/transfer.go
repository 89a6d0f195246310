package gridsheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.alis.build/alog"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/codec"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// ImportResult is a stored import plus what the decoder could not carry over.
type ImportResult struct {
	Spreadsheet *models.Spreadsheet `json:"spreadsheet"`
	Format      codec.Format        `json:"format"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// ImportFile decodes an uploaded file and stores it as a new spreadsheet.
func (s *Service) ImportFile(ctx context.Context, data []byte, filename string, opts codec.ImportOptions) (*ImportResult, error) {
	res, err := codec.Import(data, filename, opts)
	if err != nil {
		return nil, NewOperationError("", "import", formatError(err))
	}
	for _, w := range res.Warnings {
		alog.Warnf(ctx, "import %s: %s", filename, w)
	}
	sheet, err := s.Import(ctx, res.Spreadsheet)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Spreadsheet: sheet, Format: res.Format, Warnings: res.Warnings}, nil
}

// Export encodes a stored spreadsheet. CSV and TSV cover the worksheet at
// index; xlsx and JSON cover the whole document. An xlsx export is also kept
// beside the snapshot.
func (s *Service) Export(ctx context.Context, id string, format codec.Format, index int, w io.Writer) error {
	sheet, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if format == codec.FormatCSV || format == codec.FormatTSV {
		if _, err := worksheetAt(sheet, index); err != nil {
			return NewOperationError(id, "export", err)
		}
	}
	if format != codec.FormatXLSX {
		if err := codec.Export(w, sheet, format, index); err != nil {
			return NewOperationError(id, "export", formatError(err))
		}
		return nil
	}

	var buf bytes.Buffer
	if err := codec.Export(&buf, sheet, format, index); err != nil {
		return NewOperationError(id, "export", formatError(err))
	}
	if err := s.StoreArtifact(ctx, id, xlsxArtifact, format.ContentType(), buf.Bytes()); err != nil {
		// Caching is best effort.
		alog.Warnf(ctx, "export: caching xlsx for %s: %v", id, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// formatError maps codec failures onto ErrUnsupportedFormat.
func formatError(err error) error {
	var ufe *codec.UnsupportedFormatError
	if errors.As(err, &ufe) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return err
}
