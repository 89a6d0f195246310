package formula

import "slices"

func (e *Evaluator) aggregate(fn Func, args []Node, g Grid) (string, bool) {
	switch fn {
	case FnSum:
		var sum float64
		for _, n := range e.numbers(args, g) {
			sum += n
		}
		return FormatNumber(sum), true

	case FnAverage:
		nums := e.numbers(args, g)
		if len(nums) == 0 {
			return ErrDiv0, true
		}
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return FormatNumber(sum / float64(len(nums))), true

	case FnCount:
		return FormatNumber(float64(len(e.numbers(args, g)))), true

	case FnCountA:
		count := 0
		for _, v := range e.values(args, g) {
			if v != "" {
				count++
			}
		}
		return FormatNumber(float64(count)), true

	case FnCountBlank:
		if len(args) != 1 {
			return "", false
		}
		vals, ok := cells(args[0], g)
		if !ok {
			return ErrValue, true
		}
		count := 0
		for _, v := range vals {
			if v == "" {
				count++
			}
		}
		return FormatNumber(float64(count)), true

	case FnMax:
		nums := e.numbers(args, g)
		if len(nums) == 0 {
			return "0", true
		}
		return FormatNumber(slices.Max(nums)), true

	case FnMin:
		nums := e.numbers(args, g)
		if len(nums) == 0 {
			return "0", true
		}
		return FormatNumber(slices.Min(nums)), true
	}
	return "", false
}

// conditionalAggregate implements COUNTIF, SUMIF and AVERAGEIF. The optional
// third range is read in parallel with the criteria range: the i-th cell of
// one pairs with the i-th cell of the other.
func (e *Evaluator) conditionalAggregate(fn Func, args []Node, g Grid) (string, bool) {
	if fn == FnCountIf && len(args) != 2 {
		return "", false
	}
	if len(args) < 2 || len(args) > 3 {
		return "", false
	}
	keys, ok := cells(args[0], g)
	if !ok {
		return "", false
	}
	criteria := NewCriteria(e.scalar(args[1], g))

	if fn == FnCountIf {
		count := 0
		for _, v := range keys {
			if criteria.Match(v) {
				count++
			}
		}
		return FormatNumber(float64(count)), true
	}

	targets := keys
	if len(args) == 3 {
		if targets, ok = cells(args[2], g); !ok {
			return "", false
		}
	}
	var sum float64
	matched := 0
	for i, v := range keys {
		if i >= len(targets) || !criteria.Match(v) {
			continue
		}
		if n, ok := ParseNumber(targets[i]); ok {
			sum += n
			matched++
		}
	}
	if fn == FnAverageIf {
		if matched == 0 {
			return ErrDiv0, true
		}
		return FormatNumber(sum / float64(matched)), true
	}
	return FormatNumber(sum), true
}
