package formula

import (
	"regexp"
	"strings"
)

// condition evaluates an IF/AND/OR/NOT argument to a boolean.
func (e *Evaluator) condition(n Node, g Grid) bool {
	switch n := n.(type) {
	case Compare:
		return compareValues(n.Op, e.scalar(n.Left, g), e.scalar(n.Right, g))
	case BoolLit:
		return n.Value
	}
	return truthy(e.scalar(n, g))
}

// truthy is the bare-value check: non-empty, not "0" and not FALSE.
func truthy(v string) bool {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, valueTrue) {
		return true
	}
	return v != "" && v != "0" && !strings.EqualFold(v, valueFalse)
}

// compareValues compares numerically when both sides parse as numbers.
// Otherwise only equality operators apply, and they ignore case.
func compareValues(op, left, right string) bool {
	l, lok := ParseNumber(left)
	r, rok := ParseNumber(right)
	numeric := lok && rok
	switch op {
	case ">=":
		return numeric && l >= r
	case "<=":
		return numeric && l <= r
	case ">":
		return numeric && l > r
	case "<":
		return numeric && l < r
	case "=":
		if numeric {
			return l == r
		}
		return strings.EqualFold(left, right)
	case "<>", "!=":
		if numeric {
			return l != r
		}
		return !strings.EqualFold(left, right)
	}
	return false
}

// Criteria is a compiled COUNTIF-style criteria string such as ">=10",
// "<>done", "=Yes" or "ap*".
type Criteria struct {
	raw      string
	wildcard *regexp.Regexp
}

// NewCriteria compiles criteria once for matching against many values.
func NewCriteria(criteria string) Criteria {
	c := Criteria{raw: criteria}
	if !strings.HasPrefix(criteria, ">") && !strings.HasPrefix(criteria, "<") &&
		!strings.HasPrefix(criteria, "=") && !strings.HasPrefix(criteria, "!=") &&
		strings.ContainsAny(criteria, "*?") {
		if re, err := wildcardPattern(criteria); err == nil {
			c.wildcard = re
		}
	}
	return c
}

// MatchCriteria reports whether value satisfies criteria.
func MatchCriteria(value, criteria string) bool {
	return NewCriteria(criteria).Match(value)
}

// Match reports whether value satisfies the criteria. Relational operators
// compare numerically and fall back to case-insensitive equality against
// the whole criteria string when either side is not a number.
func (c Criteria) Match(value string) bool {
	criteria := c.raw
	switch {
	case strings.HasPrefix(criteria, ">="):
		if v, n, ok := numericPair(value, criteria[2:]); ok {
			return v >= n
		}
	case strings.HasPrefix(criteria, "<="):
		if v, n, ok := numericPair(value, criteria[2:]); ok {
			return v <= n
		}
	case strings.HasPrefix(criteria, "<>"), strings.HasPrefix(criteria, "!="):
		return !strings.EqualFold(value, criteria[2:])
	case strings.HasPrefix(criteria, ">"):
		if v, n, ok := numericPair(value, criteria[1:]); ok {
			return v > n
		}
	case strings.HasPrefix(criteria, "<"):
		if v, n, ok := numericPair(value, criteria[1:]); ok {
			return v < n
		}
	case strings.HasPrefix(criteria, "="):
		return strings.EqualFold(value, criteria[1:])
	case c.wildcard != nil:
		return c.wildcard.MatchString(value)
	}
	return strings.EqualFold(value, criteria)
}

func numericPair(value, criteria string) (float64, float64, bool) {
	v, vok := ParseNumber(value)
	c, cok := ParseNumber(criteria)
	return v, c, vok && cok
}

// wildcardPattern compiles "*" and "?" wildcards to an anchored,
// case-insensitive regular expression; everything else matches literally.
func wildcardPattern(criteria string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?i)^")
	for _, r := range criteria {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
