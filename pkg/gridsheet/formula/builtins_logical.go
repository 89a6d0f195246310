package formula

import "strings"

func (e *Evaluator) logical(fn Func, args []Node, g Grid) (string, bool) {
	switch fn {
	case FnIf:
		if len(args) < 2 || len(args) > 3 {
			return "", false
		}
		if e.condition(args[0], g) {
			return e.scalar(args[1], g), true
		}
		if len(args) == 3 {
			return e.scalar(args[2], g), true
		}
		return valueFalse, true

	case FnIfError:
		if len(args) != 2 {
			return "", false
		}
		v, ok := e.strict(args[0], g)
		if !ok || IsErrorValue(v) {
			return e.scalar(args[1], g), true
		}
		return v, true

	case FnAnd:
		if len(args) == 0 {
			return "", false
		}
		for _, arg := range args {
			if !e.condition(arg, g) {
				return valueFalse, true
			}
		}
		return valueTrue, true

	case FnOr:
		if len(args) == 0 {
			return "", false
		}
		for _, arg := range args {
			if e.condition(arg, g) {
				return valueTrue, true
			}
		}
		return valueFalse, true

	case FnNot:
		if len(args) != 1 {
			return "", false
		}
		return formatBool(!e.condition(args[0], g)), true
	}
	return "", false
}

// strict evaluates n the way a whole formula body is evaluated: arithmetic
// that cannot be computed is a failure rather than literal text.
func (e *Evaluator) strict(n Node, g Grid) (string, bool) {
	switch n := n.(type) {
	case Call:
		return e.call(n, g)
	case Arithmetic:
		if strings.TrimSpace(n.Text) == "" {
			return "", true
		}
		return evalArithmetic(n.Text, g)
	}
	return e.scalar(n, g), true
}
