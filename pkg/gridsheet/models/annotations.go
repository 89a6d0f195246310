package models

import "time"

// CellComment is a comment thread attached to a cell.
type CellComment struct {
	// ID identifies the thread.
	ID string `json:"id"`
	// AuthorID is the user who opened the thread.
	AuthorID string `json:"author_id"`
	// AuthorName is the display name of the author.
	AuthorName string `json:"author_name"`
	// Content is the comment text.
	Content string `json:"content"`
	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt changes on reply or resolution.
	UpdatedAt time.Time `json:"updated_at"`
	// Replies are ordered oldest first.
	Replies []CommentReply `json:"replies"`
	// Resolved marks the thread closed.
	Resolved bool `json:"resolved"`
}

// CommentReply is one reply in a thread.
type CommentReply struct {
	// ID identifies the reply.
	ID string `json:"id"`
	// AuthorID is the replying user.
	AuthorID string `json:"author_id"`
	// AuthorName is the display name of the replying user.
	AuthorName string `json:"author_name"`
	// Content is the reply text.
	Content string `json:"content"`
	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"created_at"`
}

// SheetProtection restricts edits to a worksheet.
type SheetProtection struct {
	// Protected enables the restrictions.
	Protected bool `json:"protected"`
	// PasswordHash is the bcrypt hash of the unprotect password.
	PasswordHash string `json:"password_hash,omitempty"`
	// LockedCells lists "row,col" keys locked in addition to per-cell flags.
	LockedCells []string `json:"locked_cells"`
	// AllowFormatCells permits style mutations while protected.
	AllowFormatCells bool `json:"allow_format_cells"`
	// AllowSort permits sorting while protected.
	AllowSort bool `json:"allow_sort"`
	// AllowFilter permits filtering while protected.
	AllowFilter bool `json:"allow_filter"`
}

// NamedRange binds a name to a rectangle.
type NamedRange struct {
	// ID identifies the name.
	ID string `json:"id"`
	// Name is unique case-insensitively within the spreadsheet.
	Name string `json:"name"`
	// Scope is "workbook" or "worksheet".
	Scope string `json:"scope"`
	// WorksheetIndex is the owning worksheet for worksheet scope, or the target
	// worksheet for workbook scope.
	WorksheetIndex int `json:"worksheet_index"`
	Rect
	// Comment is an optional description.
	Comment string `json:"comment,omitempty"`
}

// Collaborator is a transient session of a connected user. It is never persisted.
type Collaborator struct {
	// ID is the synthetic session identity.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Color is the display color.
	Color string `json:"color"`
	// CursorRow is the last reported cursor row.
	CursorRow *uint32 `json:"cursor_row,omitempty"`
	// CursorCol is the last reported cursor column.
	CursorCol *uint32 `json:"cursor_col,omitempty"`
	// ConnectedAt is the connection time.
	ConnectedAt time.Time `json:"connected_at"`
}
