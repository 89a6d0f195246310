package gridsheet

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

const defaultValidationMessage = "Invalid value"

// ValidationRequest attaches a rule to every cell of a rectangle.
type ValidationRequest struct {
	WorksheetIndex int `json:"worksheet_index"`
	models.Rect
	models.ValidationRule
}

var (
	validationTypes = []string{"list", "number", "integer", "textLength", "date", "custom"}
	operators       = []string{
		"between", "notBetween", "greaterThan", "lessThan",
		"greaterThanOrEqual", "lessThanOrEqual", "equal", "notEqual",
	}
)

// SetValidation stores the rule on every cell of the rectangle, replacing any
// previous rule there. Existing values are not re-checked.
func (s *Service) SetValidation(ctx context.Context, id string, req ValidationRequest) (*models.Spreadsheet, error) {
	rule := req.ValidationRule
	if rule.ValidationType == "text_length" {
		rule.ValidationType = "textLength"
	}
	if !slices.Contains(validationTypes, rule.ValidationType) {
		return nil, NewOperationError(id, "set_validation", inputError("unknown validation type %q", rule.ValidationType))
	}
	if rule.Operator != "" && !slices.Contains(operators, rule.Operator) {
		return nil, NewOperationError(id, "set_validation", inputError("unknown operator %q", rule.Operator))
	}
	return s.updateWorksheet(ctx, id, req.WorksheetIndex, "set_validation", func(ws *models.Worksheet) error {
		if ws.Validations == nil {
			ws.Validations = make(map[string]models.ValidationRule)
		}
		req.Rect.Normalize().Each(func(row, col uint32) {
			ws.Validations[models.CellKey(row, col)] = rule
		})
		return nil
	})
}

// ValidateCell checks value against the rule stored at (row, col). A cell
// without a rule accepts everything.
func (s *Service) ValidateCell(ctx context.Context, id string, index int, row, col uint32, value string) (models.ValidationResult, error) {
	_, ws, err := s.view(ctx, id, index, "validate_cell")
	if err != nil {
		return models.ValidationResult{}, err
	}
	return validateAt(ws, row, col, value), nil
}

func validateAt(ws *models.Worksheet, row, col uint32, value string) models.ValidationResult {
	rule, ok := ws.Validations[models.CellKey(row, col)]
	if !ok {
		return models.ValidationResult{Valid: true}
	}
	return ValidateValue(rule, value)
}

// ValidateValue checks value against rule. Number, integer and text-length
// rules compare against Value1 and Value2 with the rule's operator; without
// an operator they only check the value's kind.
func ValidateValue(rule models.ValidationRule, value string) models.ValidationResult {
	var valid bool
	switch rule.ValidationType {
	case "list":
		valid = len(rule.AllowedValues) == 0 || slices.Contains(rule.AllowedValues, value)
	case "number":
		n, ok := formula.ParseNumber(strings.TrimSpace(value))
		valid = ok && withinOperator(rule, n)
	case "integer":
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		valid = err == nil && withinOperator(rule, float64(n))
	case "textLength", "text_length":
		valid = withinOperator(rule, float64(utf8.RuneCountInString(value)))
	case "date":
		_, err := parseISODate(value)
		valid = err == nil
	case "custom":
		valid = value == rule.Value1
	default:
		valid = true
	}
	if valid {
		return models.ValidationResult{Valid: true}
	}
	msg := rule.ErrorMessage
	if msg == "" {
		msg = defaultValidationMessage
	}
	return models.ValidationResult{Valid: false, ErrorMessage: msg}
}

// withinOperator applies rule.Operator to n. An unparseable bound fails the
// comparison. Text-length rules without an operator default to between with
// open bounds.
func withinOperator(rule models.ValidationRule, n float64) bool {
	op := rule.Operator
	if op == "" {
		if rule.ValidationType != "textLength" && rule.ValidationType != "text_length" {
			return true
		}
		op = "between"
	}
	bound := func(s string, def float64) (float64, bool) {
		if strings.TrimSpace(s) == "" {
			return def, op == "between" || op == "notBetween"
		}
		return formula.ParseNumber(strings.TrimSpace(s))
	}
	lo, okLo := bound(rule.Value1, 0)
	switch op {
	case "between", "notBetween":
		hi, okHi := bound(rule.Value2, maxBound)
		if !okLo || !okHi {
			return false
		}
		in := n >= min(lo, hi) && n <= max(lo, hi)
		if op == "notBetween" {
			return !in
		}
		return in
	}
	if !okLo {
		return false
	}
	switch op {
	case "greaterThan":
		return n > lo
	case "lessThan":
		return n < lo
	case "greaterThanOrEqual":
		return n >= lo
	case "lessThanOrEqual":
		return n <= lo
	case "equal":
		return n == lo
	case "notEqual":
		return n != lo
	}
	return false
}

const maxBound = 1e308

func parseISODate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(s))
}
