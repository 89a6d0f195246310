package models

import (
	"strconv"
	"strings"
)

// CellData is a single entry of the sparse cell map.
type CellData struct {
	// Value is the display value. For formula cells it is the last evaluated result.
	Value string `json:"value,omitempty"`
	// Formula is the formula text including the leading "=".
	Formula string `json:"formula,omitempty"`
	// Style is the cell style.
	Style *CellStyle `json:"style,omitempty"`
	// Format is the number-format code.
	Format string `json:"format,omitempty"`
	// Note is a free-text annotation.
	Note string `json:"note,omitempty"`
	// Locked marks the cell as read-only while the worksheet is protected.
	Locked bool `json:"locked,omitempty"`
	// HasComment is set while a comment thread is attached to the cell.
	HasComment bool `json:"has_comment,omitempty"`
}

// IsEmpty reports whether every field is absent. Empty cells are not stored.
func (c CellData) IsEmpty() bool {
	return c.Value == "" && c.Formula == "" && (c.Style == nil || c.Style.IsZero()) &&
		c.Format == "" && c.Note == "" && !c.Locked && !c.HasComment
}

// CellStyle describes the visual formatting of a cell.
type CellStyle struct {
	// FontFamily is the font name.
	FontFamily string `json:"font_family,omitempty"`
	// FontSize is the font size in points.
	FontSize uint32 `json:"font_size,omitempty"`
	// FontWeight is "bold" or "normal".
	FontWeight string `json:"font_weight,omitempty"`
	// FontStyle is "italic" or "normal".
	FontStyle string `json:"font_style,omitempty"`
	// TextDecoration holds "underline" and/or "line-through".
	TextDecoration string `json:"text_decoration,omitempty"`
	// Color is the foreground color as #RRGGBB.
	Color string `json:"color,omitempty"`
	// Background is the fill color as #RRGGBB.
	Background string `json:"background,omitempty"`
	// TextAlign is left, center or right.
	TextAlign string `json:"text_align,omitempty"`
	// VerticalAlign is top, middle or bottom.
	VerticalAlign string `json:"vertical_align,omitempty"`
	// Border is a CSS-like border description.
	Border string `json:"border,omitempty"`
}

// IsZero reports whether no style attribute is set.
func (s CellStyle) IsZero() bool {
	return s == CellStyle{}
}

// Bold reports whether the font weight is bold.
func (s CellStyle) Bold() bool { return s.FontWeight == "bold" }

// Italic reports whether the font style is italic.
func (s CellStyle) Italic() bool { return s.FontStyle == "italic" }

// Underline reports whether the decoration includes an underline.
func (s CellStyle) Underline() bool { return strings.Contains(s.TextDecoration, "underline") }

// Strike reports whether the decoration includes a line-through.
func (s CellStyle) Strike() bool { return strings.Contains(s.TextDecoration, "line-through") }

// Overlay returns s with every non-empty attribute of o applied on top.
func (s CellStyle) Overlay(o CellStyle) CellStyle {
	if o.FontFamily != "" {
		s.FontFamily = o.FontFamily
	}
	if o.FontSize != 0 {
		s.FontSize = o.FontSize
	}
	if o.FontWeight != "" {
		s.FontWeight = o.FontWeight
	}
	if o.FontStyle != "" {
		s.FontStyle = o.FontStyle
	}
	if o.TextDecoration != "" {
		s.TextDecoration = o.TextDecoration
	}
	if o.Color != "" {
		s.Color = o.Color
	}
	if o.Background != "" {
		s.Background = o.Background
	}
	if o.TextAlign != "" {
		s.TextAlign = o.TextAlign
	}
	if o.VerticalAlign != "" {
		s.VerticalAlign = o.VerticalAlign
	}
	if o.Border != "" {
		s.Border = o.Border
	}
	return s
}

// CellKey renders the canonical sparse-map key "row,col".
func CellKey(row, col uint32) string {
	return strconv.FormatUint(uint64(row), 10) + "," + strconv.FormatUint(uint64(col), 10)
}

// ParseCellKey splits a "row,col" key.
func ParseCellKey(key string) (row, col uint32, ok bool) {
	r, c, found := strings.Cut(key, ",")
	if !found {
		return 0, 0, false
	}
	rv, err := strconv.ParseUint(r, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	cv, err := strconv.ParseUint(c, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(rv), uint32(cv), true
}
