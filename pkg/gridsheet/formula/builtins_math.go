package formula

import "math"

func (e *Evaluator) numeric(fn Func, args []Node, g Grid) (string, bool) {
	switch fn {
	case FnRound, FnRoundUp, FnRoundDown:
		if len(args) < 1 || len(args) > 2 {
			return "", false
		}
		n, ok := ParseNumber(e.scalar(args[0], g))
		if !ok {
			return ErrValue, true
		}
		digits := 0
		if len(args) == 2 {
			digits = e.countArg(args[1], g, 0)
		}
		factor := math.Pow(10, float64(digits))
		switch fn {
		case FnRoundUp:
			return FormatNumber(math.Ceil(n*factor) / factor), true
		case FnRoundDown:
			return FormatNumber(math.Floor(n*factor) / factor), true
		}
		return FormatNumber(math.Round(n*factor) / factor), true

	case FnAbs, FnSqrt:
		if len(args) != 1 {
			return "", false
		}
		n, ok := ParseNumber(e.scalar(args[0], g))
		if !ok {
			return ErrValue, true
		}
		if fn == FnAbs {
			return FormatNumber(math.Abs(n)), true
		}
		if n < 0 {
			return ErrNum, true
		}
		return FormatNumber(math.Sqrt(n)), true

	case FnPower, FnMod:
		if len(args) != 2 {
			return "", false
		}
		a, aok := ParseNumber(e.scalar(args[0], g))
		b, bok := ParseNumber(e.scalar(args[1], g))
		if !aok || !bok {
			return ErrValue, true
		}
		if fn == FnPower {
			return FormatNumber(math.Pow(a, b)), true
		}
		if b == 0 {
			return ErrDiv0, true
		}
		return FormatNumber(math.Mod(a, b)), true
	}
	return "", false
}
