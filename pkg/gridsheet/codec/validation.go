package codec

import (
	"cmp"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

var (
	toExcelType = map[string]excelize.DataValidationType{
		"number":     excelize.DataValidationTypeDecimal,
		"integer":    excelize.DataValidationTypeWhole,
		"textLength": excelize.DataValidationTypeTextLength,
		"date":       excelize.DataValidationTypeDate,
	}
	toExcelOperator = map[string]excelize.DataValidationOperator{
		"between":            excelize.DataValidationOperatorBetween,
		"notBetween":         excelize.DataValidationOperatorNotBetween,
		"equal":              excelize.DataValidationOperatorEqual,
		"notEqual":           excelize.DataValidationOperatorNotEqual,
		"greaterThan":        excelize.DataValidationOperatorGreaterThan,
		"greaterThanOrEqual": excelize.DataValidationOperatorGreaterThanOrEqual,
		"lessThan":           excelize.DataValidationOperatorLessThan,
		"lessThanOrEqual":    excelize.DataValidationOperatorLessThanOrEqual,
	}
	fromExcelType = map[string]string{
		"decimal":    "number",
		"whole":      "integer",
		"textLength": "textLength",
		"date":       "date",
		"list":       "list",
		"custom":     "custom",
	}
	dateFormula = regexp.MustCompile(`^(?i)DATE\((\d{1,4}),\s*(\d{1,2}),\s*(\d{1,2})\)$`)
	xmlEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	// openBounds stand in for a missing operator, which only checks the kind.
	openBounds = map[string][2]string{
		"number":     {"-1E+307", "1E+307"},
		"integer":    {"-2147483648", "2147483647"},
		"textLength": {"0", "32767"},
		"date":       {"DATE(1900,1,1)", "DATE(9999,12,31)"},
	}
)

// validationGroup is a rule and every cell it applies to.
type validationGroup struct {
	rule  models.ValidationRule
	cells []string
}

// groupValidations merges cells that share an identical rule so each rule
// becomes one data validation with a multi-cell sqref.
func groupValidations(ws *models.Worksheet) []validationGroup {
	var groups []validationGroup
	index := make(map[string]int)
	for _, key := range sortedCellKeys(ws.Validations) {
		rule := ws.Validations[key]
		row, col, _ := models.ParseCellKey(key)
		sig, err := json.Marshal(rule)
		if err != nil {
			continue
		}
		i, ok := index[string(sig)]
		if !ok {
			i = len(groups)
			index[string(sig)] = i
			groups = append(groups, validationGroup{rule: rule})
		}
		groups[i].cells = append(groups[i].cells, ref.CellName(row, col))
	}
	return groups
}

// toExcelValidation builds the data validation for a group.
func toExcelValidation(g validationGroup) (*excelize.DataValidation, error) {
	rule := g.rule
	dv := excelize.NewDataValidation(true)
	dv.SetSqref(strings.Join(g.cells, " "))
	switch rule.ValidationType {
	case "list":
		if len(rule.AllowedValues) == 0 {
			return nil, fmt.Errorf("list validation without values")
		}
		if err := dv.SetDropList(rule.AllowedValues); err != nil {
			return nil, err
		}
	case "custom":
		dv.Type = "custom"
		// Formula1 is written as inner XML, so it is escaped by hand here.
		dv.Formula1 = xmlEscaper.Replace(fmt.Sprintf(`EXACT(%s,"%s")`, g.cells[0], strings.ReplaceAll(rule.Value1, `"`, `""`)))
	default:
		t, ok := toExcelType[rule.ValidationType]
		if !ok {
			return nil, fmt.Errorf("validation type %q has no workbook equivalent", rule.ValidationType)
		}
		op, ok := toExcelOperator[rule.Operator]
		v1, v2 := excelBound(rule.ValidationType, rule.Value1), excelBound(rule.ValidationType, rule.Value2)
		if !ok {
			op = excelize.DataValidationOperatorBetween
			v1, v2 = openBounds[rule.ValidationType][0], openBounds[rule.ValidationType][1]
		}
		if v2 == "" {
			v2 = v1
		}
		if err := dv.SetRange(v1, v2, t, op); err != nil {
			return nil, err
		}
	}
	if rule.ErrorTitle != "" || rule.ErrorMessage != "" {
		dv.SetError(excelize.DataValidationErrorStyleStop, rule.ErrorTitle, rule.ErrorMessage)
	}
	if rule.InputTitle != "" || rule.InputMessage != "" {
		dv.SetInput(rule.InputTitle, rule.InputMessage)
	}
	return dv, nil
}

// excelBound renders an ISO date bound as a DATE() formula.
func excelBound(kind, v string) string {
	if kind != "date" || v == "" {
		return v
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return v
	}
	return fmt.Sprintf("DATE(%d,%d,%d)", t.Year(), int(t.Month()), t.Day())
}

// fromExcelValidation converts a workbook data validation. ok is false for
// kinds the document model cannot express, such as list sources that point
// at a range.
func fromExcelValidation(dv *excelize.DataValidation) (models.ValidationRule, bool) {
	kind, ok := fromExcelType[dv.Type]
	if !ok {
		return models.ValidationRule{}, false
	}
	rule := models.ValidationRule{
		ValidationType: kind,
		ErrorTitle:     deref(dv.ErrorTitle),
		ErrorMessage:   deref(dv.Error),
		InputTitle:     deref(dv.PromptTitle),
		InputMessage:   deref(dv.Prompt),
	}
	switch kind {
	case "list":
		f := strings.TrimSpace(dv.Formula1)
		if len(f) < 2 || f[0] != '"' || f[len(f)-1] != '"' {
			return rule, false
		}
		for _, v := range strings.Split(f[1:len(f)-1], ",") {
			rule.AllowedValues = append(rule.AllowedValues, strings.TrimSpace(v))
		}
	case "custom":
		rule.Value1 = dv.Formula1
	default:
		if b, ok := openBounds[kind]; ok && dv.Formula1 == b[0] && dv.Formula2 == b[1] {
			break
		}
		rule.Operator = cmp.Or(dv.Operator, "between")
		rule.Value1 = modelBound(kind, dv.Formula1)
		if rule.Operator == "between" || rule.Operator == "notBetween" {
			rule.Value2 = modelBound(kind, dv.Formula2)
		}
	}
	return rule, true
}

// modelBound renders a date serial or DATE() formula as an ISO date.
func modelBound(kind, v string) string {
	if kind != "date" {
		return v
	}
	if m := dateFormula.FindStringSubmatch(v); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format(time.DateOnly)
}

// sqrefRects splits a space separated sqref into rectangles.
func sqrefRects(sqref string) []models.Rect {
	var out []models.Rect
	for _, area := range strings.Fields(sqref) {
		if rect, ok := parseArea(area); ok {
			out = append(out, rect)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sortedCellKeys returns the valid "row,col" keys of m in row-major order.
func sortedCellKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		if _, _, ok := models.ParseCellKey(key); ok {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		ar, ac, _ := models.ParseCellKey(a)
		br, bc, _ := models.ParseCellKey(b)
		return cmp.Or(cmp.Compare(ar, br), cmp.Compare(ac, bc))
	})
	return keys
}
