package models

// Rect is an inclusive cell rectangle.
type Rect struct {
	// StartRow is the first row (0-based).
	StartRow uint32 `json:"start_row"`
	// StartCol is the first column (0-based).
	StartCol uint32 `json:"start_col"`
	// EndRow is the last row (inclusive).
	EndRow uint32 `json:"end_row"`
	// EndCol is the last column (inclusive).
	EndCol uint32 `json:"end_col"`
}

// MergedCell is a merged rectangle layered over the cell map.
type MergedCell = Rect

// Normalize orders the corners so that start <= end.
func (r Rect) Normalize() Rect {
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	return r
}

// Contains reports whether (row, col) lies within r.
func (r Rect) Contains(row, col uint32) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

// Each calls fn for every coordinate of r in row-major order.
func (r Rect) Each(fn func(row, col uint32)) {
	for row := uint64(r.StartRow); row <= uint64(r.EndRow); row++ {
		for col := uint64(r.StartCol); col <= uint64(r.EndCol); col++ {
			fn(uint32(row), uint32(col))
		}
	}
}

// FilterConfig is a predicate over one column's values.
type FilterConfig struct {
	// FilterType is values, greaterThan, lessThan, between, contains,
	// notContains, isEmpty, isNotEmpty, or condition.
	FilterType string `json:"filter_type"`
	// Values is the allowed set for the values filter.
	Values []string `json:"values"`
	// Condition names the predicate when FilterType is condition.
	Condition string `json:"condition,omitempty"`
	// Value1 is the first operand.
	Value1 string `json:"value1,omitempty"`
	// Value2 is the upper bound for between.
	Value2 string `json:"value2,omitempty"`
}

// ValidationRule constrains the values accepted by a cell.
type ValidationRule struct {
	// ValidationType is list, number, integer, textLength, date, or custom.
	ValidationType string `json:"validation_type"`
	// Operator is between, notBetween, greaterThan, lessThan,
	// greaterThanOrEqual, lessThanOrEqual, equal, or notEqual.
	Operator string `json:"operator,omitempty"`
	// Value1 is the first bound (or the reference value for custom).
	Value1 string `json:"value1,omitempty"`
	// Value2 is the second bound for between and notBetween.
	Value2 string `json:"value2,omitempty"`
	// AllowedValues is the allowed set for list.
	AllowedValues []string `json:"allowed_values,omitempty"`
	// ErrorTitle is the title shown on rejection.
	ErrorTitle string `json:"error_title,omitempty"`
	// ErrorMessage is the message shown on rejection.
	ErrorMessage string `json:"error_message,omitempty"`
	// InputTitle is the input prompt title.
	InputTitle string `json:"input_title,omitempty"`
	// InputMessage is the input prompt message.
	InputMessage string `json:"input_message,omitempty"`
}

// ValidationResult is the outcome of checking a value against a rule.
type ValidationResult struct {
	// Valid reports whether the value satisfies the rule.
	Valid bool `json:"valid"`
	// ErrorMessage explains a failure.
	ErrorMessage string `json:"error_message,omitempty"`
}

// ConditionalFormatRule paints Style onto cells of a rectangle whose value
// satisfies the rule at the time it is applied.
type ConditionalFormatRule struct {
	// ID identifies the rule.
	ID string `json:"id"`
	Rect
	// RuleType is greaterThan, lessThan, greaterThanOrEqual, lessThanOrEqual,
	// between, equal, notEqual, textContains, isEmpty, isNotEmpty, or criteria.
	RuleType string `json:"rule_type"`
	// Condition is the comparand (or "low,high" for between, or a criteria expression).
	Condition string `json:"condition"`
	// Style is painted onto matching cells.
	Style CellStyle `json:"style"`
	// Priority is the position of the rule when it was added (1-based).
	Priority uint32 `json:"priority"`
}
