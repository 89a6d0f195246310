package codec

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

var hexColor = regexp.MustCompile(`#?([0-9A-Fa-f]{6})\b`)

// excelColor converts "#rrggbb" into the RRGGBB form excelize expects.
func excelColor(css string) string {
	m := hexColor.FindStringSubmatch(css)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// cssColor converts RRGGBB or AARRGGBB into "#RRGGBB".
func cssColor(argb string) string {
	argb = strings.TrimPrefix(argb, "#")
	if len(argb) == 8 {
		argb = argb[2:]
	}
	if len(argb) != 6 {
		return ""
	}
	return "#" + strings.ToUpper(argb)
}

// toExcelStyle maps a cell style and number format onto an excelize style.
// It returns nil when there is nothing to apply.
func toExcelStyle(style *models.CellStyle, format string) *excelize.Style {
	if (style == nil || style.IsZero()) && format == "" {
		return nil
	}
	out := &excelize.Style{}
	if format != "" {
		out.CustomNumFmt = &format
	}
	if style == nil {
		return out
	}
	font := &excelize.Font{
		Bold:   style.Bold(),
		Italic: style.Italic(),
		Strike: style.Strike(),
		Family: style.FontFamily,
		Size:   float64(style.FontSize),
		Color:  excelColor(style.Color),
	}
	if style.Underline() {
		font.Underline = "single"
	}
	if *font != (excelize.Font{}) {
		out.Font = font
	}
	if bg := excelColor(style.Background); bg != "" {
		out.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bg}}
	}
	align := &excelize.Alignment{}
	switch style.TextAlign {
	case "left", "center", "right", "justify":
		align.Horizontal = style.TextAlign
	}
	switch style.VerticalAlign {
	case "top", "bottom":
		align.Vertical = style.VerticalAlign
	case "middle":
		align.Vertical = "center"
	}
	if align.Horizontal != "" || align.Vertical != "" {
		out.Alignment = align
	}
	if style.Border != "" && style.Border != "none" {
		color := cmp.Or(excelColor(style.Border), "000000")
		for _, side := range []string{"left", "top", "right", "bottom"} {
			out.Border = append(out.Border, excelize.Border{Type: side, Color: color, Style: 1})
		}
	}
	return out
}

// fromExcelStyle maps an excelize style back onto a cell style and custom
// number format. Like the spreadsheet UI, a style is only kept when it sets
// something visible beyond the default font.
func fromExcelStyle(s *excelize.Style) (*models.CellStyle, string) {
	if s == nil {
		return nil, ""
	}
	var format string
	if s.CustomNumFmt != nil {
		format = *s.CustomNumFmt
	}
	var style models.CellStyle
	visible := false
	if f := s.Font; f != nil {
		if f.Bold {
			style.FontWeight = "bold"
		}
		if f.Italic {
			style.FontStyle = "italic"
		}
		var deco []string
		if f.Underline != "" && f.Underline != "none" {
			deco = append(deco, "underline")
		}
		if f.Strike {
			deco = append(deco, "line-through")
		}
		style.TextDecoration = strings.Join(deco, " ")
		style.Color = cssColor(f.Color)
		visible = f.Bold || f.Italic || len(deco) > 0 || style.Color != ""
		style.FontFamily = f.Family
		if f.Size > 0 {
			style.FontSize = uint32(math.Round(f.Size))
		}
	}
	if s.Fill.Type == "pattern" && s.Fill.Pattern == 1 && len(s.Fill.Color) > 0 {
		style.Background = cssColor(s.Fill.Color[0])
		visible = visible || style.Background != ""
	}
	if a := s.Alignment; a != nil {
		switch a.Horizontal {
		case "left", "center", "right":
			style.TextAlign = a.Horizontal
			visible = true
		}
		switch a.Vertical {
		case "top", "bottom":
			style.VerticalAlign = a.Vertical
		case "center":
			style.VerticalAlign = "middle"
		}
	}
	if len(s.Border) > 0 && s.Border[0].Style > 0 {
		style.Border = fmt.Sprintf("1px solid %s", cmp.Or(cssColor(s.Border[0].Color), "#000000"))
		visible = true
	}
	if !visible {
		return nil, format
	}
	return &style, format
}
