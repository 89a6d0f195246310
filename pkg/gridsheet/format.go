package gridsheet

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// FormatCells overlays style onto every cell of rect. Only the attributes set
// in style change, so repeating the call is a no-op.
func (s *Service) FormatCells(ctx context.Context, id string, index int, rect models.Rect, style models.CellStyle) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "format_cells", func(ws *models.Worksheet) error {
		if err := allowFormat(ws); err != nil {
			return err
		}
		rect.Normalize().Each(func(row, col uint32) {
			ws.UpdateCell(row, col, func(c *models.CellData) { paint(c, style) })
		})
		return nil
	})
}

func paint(c *models.CellData, style models.CellStyle) {
	var base models.CellStyle
	if c.Style != nil {
		base = *c.Style
	}
	merged := base.Overlay(style)
	c.Style = &merged
}

// ConditionalFormatRequest describes a one-shot conditional paint.
type ConditionalFormatRequest struct {
	WorksheetIndex int `json:"worksheet_index"`
	models.Rect
	RuleType  string           `json:"rule_type"`
	Condition string           `json:"condition"`
	Style     models.CellStyle `json:"style"`
}

var ruleTypes = []string{
	"greaterThan", "lessThan", "greaterThanOrEqual", "lessThanOrEqual", "between",
	"equal", "notEqual", "textContains", "isEmpty", "isNotEmpty", "criteria",
}

// ConditionalFormat records the rule and paints its style onto the cells of
// the rectangle whose current value satisfies it. Later edits do not re-run
// the rule.
func (s *Service) ConditionalFormat(ctx context.Context, id string, req ConditionalFormatRequest) (*models.ConditionalFormatRule, error) {
	if !slices.Contains(ruleTypes, req.RuleType) {
		return nil, NewOperationError(id, "conditional_format", inputError("unknown rule type %q", req.RuleType))
	}
	var rule models.ConditionalFormatRule
	_, err := s.updateWorksheet(ctx, id, req.WorksheetIndex, "conditional_format", func(ws *models.Worksheet) error {
		if err := allowFormat(ws); err != nil {
			return err
		}
		rule = models.ConditionalFormatRule{
			ID:        uuid.NewString(),
			Rect:      req.Rect.Normalize(),
			RuleType:  req.RuleType,
			Condition: req.Condition,
			Style:     req.Style,
			Priority:  uint32(len(ws.ConditionalFormats) + 1),
		}
		ws.ConditionalFormats = append(ws.ConditionalFormats, rule)
		rule.Rect.Each(func(row, col uint32) {
			if MatchRule(rule, ws.Value(row, col)) {
				ws.UpdateCell(row, col, func(c *models.CellData) { paint(c, rule.Style) })
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// MatchRule reports whether value satisfies a conditional-format rule.
// Ordering rules need both sides numeric.
func MatchRule(rule models.ConditionalFormatRule, value string) bool {
	cond := strings.TrimSpace(rule.Condition)
	switch rule.RuleType {
	case "isEmpty":
		return strings.TrimSpace(value) == ""
	case "isNotEmpty":
		return strings.TrimSpace(value) != ""
	case "textContains":
		return strings.Contains(strings.ToLower(value), strings.ToLower(cond))
	case "criteria":
		return formula.MatchCriteria(value, cond)
	case "equal":
		return looseEqual(value, cond)
	case "notEqual":
		return !looseEqual(value, cond)
	case "between":
		lo, hi, ok := strings.Cut(cond, ",")
		if !ok {
			return false
		}
		v, okV := formula.ParseNumber(value)
		l, okL := formula.ParseNumber(strings.TrimSpace(lo))
		h, okH := formula.ParseNumber(strings.TrimSpace(hi))
		return okV && okL && okH && v >= min(l, h) && v <= max(l, h)
	}
	v, okV := formula.ParseNumber(value)
	c, okC := formula.ParseNumber(cond)
	if !okV || !okC {
		return false
	}
	switch rule.RuleType {
	case "greaterThan":
		return v > c
	case "lessThan":
		return v < c
	case "greaterThanOrEqual":
		return v >= c
	case "lessThanOrEqual":
		return v <= c
	}
	return false
}

// looseEqual compares numerically when both sides parse, otherwise as
// case-insensitive text.
func looseEqual(a, b string) bool {
	x, okX := formula.ParseNumber(a)
	y, okY := formula.ParseNumber(b)
	if okX && okY {
		return x == y
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Merge records a merged rectangle. Cell data is not touched. Merging a
// rectangle that is already merged is a no-op.
func (s *Service) Merge(ctx context.Context, id string, index int, rect models.Rect) (*models.Spreadsheet, error) {
	rect = rect.Normalize()
	return s.updateWorksheet(ctx, id, index, "merge", func(ws *models.Worksheet) error {
		if rect.StartRow == rect.EndRow && rect.StartCol == rect.EndCol {
			return inputError("cannot merge a single cell")
		}
		if !slices.Contains(ws.MergedCells, rect) {
			ws.MergedCells = append(ws.MergedCells, rect)
		}
		return nil
	})
}

// Unmerge removes the merged rectangle with exactly the given boundaries.
func (s *Service) Unmerge(ctx context.Context, id string, index int, rect models.Rect) (*models.Spreadsheet, error) {
	rect = rect.Normalize()
	return s.updateWorksheet(ctx, id, index, "unmerge", func(ws *models.Worksheet) error {
		ws.MergedCells = slices.DeleteFunc(ws.MergedCells, func(m models.MergedCell) bool { return m == rect })
		return nil
	})
}

// Freeze sets the frozen row and column counts. Zero clears that axis.
// Active filters are re-applied since they never hide frozen rows.
func (s *Service) Freeze(ctx context.Context, id string, index int, rows, cols uint32) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "freeze", func(ws *models.Worksheet) error {
		ws.FrozenRows = rows
		ws.FrozenCols = cols
		recomputeHiddenRows(ws)
		return nil
	})
}
