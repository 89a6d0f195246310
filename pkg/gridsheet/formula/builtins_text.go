package formula

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func (e *Evaluator) text(fn Func, args []Node, g Grid) (string, bool) {
	switch fn {
	case FnConcatenate, FnConcat:
		return strings.Join(e.values(args, g), ""), true

	case FnLeft, FnRight:
		if len(args) < 1 || len(args) > 2 {
			return "", false
		}
		runes := []rune(e.scalar(args[0], g))
		n := 1
		if len(args) == 2 {
			n = e.countArg(args[1], g, 1)
		}
		if n < 0 {
			return ErrValue, true
		}
		n = min(n, len(runes))
		if fn == FnLeft {
			return string(runes[:n]), true
		}
		return string(runes[len(runes)-n:]), true

	case FnMid:
		if len(args) != 3 {
			return "", false
		}
		runes := []rune(e.scalar(args[0], g))
		start := e.countArg(args[1], g, 1)
		n := e.countArg(args[2], g, 1)
		if start < 1 || n < 0 {
			return ErrValue, true
		}
		if start > len(runes) {
			return "", true
		}
		n = min(n, len(runes)-start+1)
		return string(runes[start-1 : start-1+n]), true

	case FnLen:
		if len(args) != 1 {
			return "", false
		}
		return FormatNumber(float64(utf8.RuneCountInString(e.scalar(args[0], g)))), true

	case FnTrim:
		if len(args) != 1 {
			return "", false
		}
		return strings.Join(strings.Fields(e.scalar(args[0], g)), " "), true

	case FnUpper:
		if len(args) != 1 {
			return "", false
		}
		return strings.ToUpper(e.scalar(args[0], g)), true

	case FnLower:
		if len(args) != 1 {
			return "", false
		}
		return strings.ToLower(e.scalar(args[0], g)), true

	case FnProper:
		if len(args) != 1 {
			return "", false
		}
		return properCase(e.scalar(args[0], g)), true

	case FnSubstitute:
		if len(args) != 3 {
			return "", false
		}
		text := e.scalar(args[0], g)
		old := e.scalar(args[1], g)
		if old == "" {
			return text, true
		}
		return strings.ReplaceAll(text, old, e.scalar(args[2], g)), true
	}
	return "", false
}

// countArg reads a character count, using def when the argument is not a number.
func (e *Evaluator) countArg(n Node, g Grid, def int) int {
	if _, empty := n.(Empty); empty {
		return def
	}
	v, ok := e.intArg(n, g)
	if !ok {
		return def
	}
	return v
}

// properCase capitalizes the first letter of each whitespace-separated word
// and lower-cases the rest. Runs of whitespace collapse to one space.
func properCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
