package formula

import (
	"slices"
	"strings"

	"github.com/xuri/efp"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

// Precedents lists the cell and range references a formula reads, in
// first-seen order without duplicates. Absolute markers are dropped.
// Text that does not start with "=" has no precedents.
func Precedents(formula string) []string {
	if !strings.HasPrefix(formula, "=") {
		return nil
	}
	ps := efp.ExcelParser()
	var out []string
	for _, tok := range ps.Parse(formula) {
		if tok.TType != efp.TokenTypeOperand || tok.TSubType != efp.TokenSubTypeRange {
			continue
		}
		name := strings.ToUpper(strings.ReplaceAll(tok.TValue, "$", ""))
		if !isReference(name) || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// UnknownFunctions lists function names used by formula that have no
// built-in implementation.
func UnknownFunctions(formula string) []string {
	if !strings.HasPrefix(formula, "=") {
		return nil
	}
	ps := efp.ExcelParser()
	var out []string
	for _, tok := range ps.Parse(formula) {
		if tok.TType != efp.TokenTypeFunction || tok.TSubType != efp.TokenSubTypeStart {
			continue
		}
		name := strings.ToUpper(tok.TValue)
		if IsSupported(name) || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func isReference(name string) bool {
	if strings.Contains(name, ":") {
		_, err := ref.ParseRange(name)
		return err == nil
	}
	return ref.IsCellRef(name)
}
