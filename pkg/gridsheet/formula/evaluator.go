// Package formula evaluates spreadsheet formulas against a worksheet.
//
// A formula body is tokenized and parsed into a small AST. A body of the form
// NAME(args) with a known NAME is dispatched to the built-in function library;
// anything else goes through the arithmetic fallback, which substitutes cell
// references and evaluates + - * / by right-to-left operator scanning.
//
// Evaluation errors such as #DIV/0! are returned as values, not Go errors.
package formula

import (
	"math"
	"strings"
	"time"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

// Grid is the read-only cell source a formula is evaluated against.
// Missing cells read as "".
type Grid interface {
	Value(row, col uint32) string
}

// Result is the outcome of evaluating a formula.
type Result struct {
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

// Clock supplies the current time to TODAY and NOW.
type Clock interface {
	Now() time.Time
}

// WallClock reads the process-local system time.
type WallClock struct{}

func (WallClock) Now() time.Time {
	return time.Now()
}

// Evaluator evaluates formulas. The zero value is not usable; use NewEvaluator.
type Evaluator struct {
	clock Clock
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source used by TODAY and NOW.
func WithClock(c Clock) Option {
	return func(e *Evaluator) {
		e.clock = c
	}
}

// NewEvaluator returns an evaluator using the wall clock unless overridden.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{clock: WallClock{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = NewEvaluator()

// Evaluate evaluates formula against g with the default evaluator.
func Evaluate(formula string, g Grid) Result {
	return defaultEvaluator.Evaluate(formula, g)
}

// Evaluate returns text that does not start with "=" unchanged. Otherwise the
// body is parsed and evaluated; a body that no strategy can evaluate yields
// #ERROR! with an error message.
func (e *Evaluator) Evaluate(formula string, g Grid) Result {
	body, ok := strings.CutPrefix(formula, "=")
	if !ok {
		return Result{Value: formula}
	}
	var (
		value string
		done  bool
	)
	switch n := Parse(body).(type) {
	case Call:
		value, done = e.call(n, g)
	case Arithmetic:
		value, done = evalArithmetic(n.Text, g)
	}
	if !done {
		return Result{Value: ErrOther, Error: "Invalid formula"}
	}
	return Result{Value: value}
}

// scalar resolves an argument to a single string value.
func (e *Evaluator) scalar(n Node, g Grid) string {
	switch n := n.(type) {
	case StringLit:
		return n.Value
	case NumberLit:
		return n.Text
	case BoolLit:
		return formatBool(n.Value)
	case CellRef:
		return g.Value(n.Coord.Row, n.Coord.Col)
	case RangeRef:
		return ErrValue
	case Call:
		if v, ok := e.call(n, g); ok {
			return v
		}
		return ErrOther
	case Compare:
		return formatBool(e.condition(n, g))
	case Arithmetic:
		if v, ok := evalArithmetic(n.Text, g); ok {
			return v
		}
		return n.Text
	}
	return ""
}

// numbers collects the numeric values of every argument. Range cells that
// do not parse as numbers are skipped.
func (e *Evaluator) numbers(args []Node, g Grid) []float64 {
	var out []float64
	for _, arg := range args {
		switch a := arg.(type) {
		case Empty:
		case RangeRef:
			for c := range a.Range.Cells() {
				if n, ok := ParseNumber(g.Value(c.Row, c.Col)); ok {
					out = append(out, n)
				}
			}
		default:
			if n, ok := ParseNumber(e.scalar(arg, g)); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// values collects the string value of every cell or argument, blanks included.
func (e *Evaluator) values(args []Node, g Grid) []string {
	var out []string
	for _, arg := range args {
		switch a := arg.(type) {
		case Empty:
		case RangeRef:
			for c := range a.Range.Cells() {
				out = append(out, g.Value(c.Row, c.Col))
			}
		default:
			out = append(out, e.scalar(arg, g))
		}
	}
	return out
}

// cells returns the values of a range argument in row-major order. A single
// cell reference is treated as a one-cell range.
func cells(n Node, g Grid) ([]string, bool) {
	var r ref.Range
	switch a := n.(type) {
	case RangeRef:
		r = a.Range
	case CellRef:
		r = ref.Range{Start: a.Coord, End: a.Coord}
	default:
		return nil, false
	}
	out := make([]string, 0, min(r.Rows()*r.Cols(), 4096))
	for c := range r.Cells() {
		out = append(out, g.Value(c.Row, c.Col))
	}
	return out, true
}

func rangeArg(n Node) (ref.Range, bool) {
	switch a := n.(type) {
	case RangeRef:
		return a.Range, true
	case CellRef:
		return ref.Range{Start: a.Coord, End: a.Coord}, true
	}
	return ref.Range{}, false
}

// intArg resolves an argument to an integer, truncating fractions. Values
// beyond the 32-bit range are clamped to it.
func (e *Evaluator) intArg(n Node, g Grid) (int, bool) {
	f, ok := ParseNumber(e.scalar(n, g))
	if !ok {
		return 0, false
	}
	return int(max(min(f, math.MaxInt32), math.MinInt32)), true
}

// call dispatches to the built-in. The second result is false when the call
// is malformed (wrong arity or unusable arguments).
func (e *Evaluator) call(c Call, g Grid) (string, bool) {
	args := c.Args
	switch c.Fn {
	case FnSum, FnAverage, FnCount, FnCountA, FnCountBlank, FnMax, FnMin:
		return e.aggregate(c.Fn, args, g)
	case FnCountIf, FnSumIf, FnAverageIf:
		return e.conditionalAggregate(c.Fn, args, g)
	case FnIf, FnIfError, FnAnd, FnOr, FnNot:
		return e.logical(c.Fn, args, g)
	case FnVLookup, FnHLookup, FnIndex:
		return e.lookup(c.Fn, args, g)
	case FnConcatenate, FnConcat, FnLeft, FnRight, FnMid, FnLen, FnTrim,
		FnUpper, FnLower, FnProper, FnSubstitute:
		return e.text(c.Fn, args, g)
	case FnRound, FnRoundUp, FnRoundDown, FnAbs, FnSqrt, FnPower, FnMod:
		return e.numeric(c.Fn, args, g)
	case FnToday, FnNow, FnDate, FnYear, FnMonth, FnDay, FnDateDif:
		return e.date(c.Fn, args, g)
	}
	return "", false
}
