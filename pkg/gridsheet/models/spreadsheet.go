// Package models defines the persisted spreadsheet document model.
package models

import "time"

// Spreadsheet is a whole document: the unit of load, save and broadcast.
type Spreadsheet struct {
	// ID is the document identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// OwnerID is the owning user.
	OwnerID string `json:"owner_id"`
	// Worksheets is the ordered list of tabs. It is never empty for a valid document.
	Worksheets []Worksheet `json:"worksheets"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is bumped by every persisted mutation.
	UpdatedAt time.Time `json:"updated_at"`
	// NamedRanges lists workbook and worksheet scoped names.
	NamedRanges []NamedRange `json:"named_ranges,omitempty"`
}

// SpreadsheetMetadata is the listing view of a Spreadsheet.
type SpreadsheetMetadata struct {
	// ID is the document identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// OwnerID is the owning user.
	OwnerID string `json:"owner_id"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the last mutation timestamp.
	UpdatedAt time.Time `json:"updated_at"`
	// WorksheetCount is the number of worksheets.
	WorksheetCount int `json:"worksheet_count"`
}

// Worksheet returns the worksheet at index, or false when index is out of range.
func (s *Spreadsheet) Worksheet(index int) (*Worksheet, bool) {
	if index < 0 || index >= len(s.Worksheets) {
		return nil, false
	}
	return &s.Worksheets[index], true
}

// Metadata summarizes the document for listings.
func (s *Spreadsheet) Metadata() SpreadsheetMetadata {
	return SpreadsheetMetadata{
		ID:             s.ID,
		Name:           s.Name,
		OwnerID:        s.OwnerID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		WorksheetCount: len(s.Worksheets),
	}
}
