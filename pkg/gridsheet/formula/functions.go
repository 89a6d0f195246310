package formula

// Func identifies a built-in function. Names resolve through an exact
// lookup, so a name can never shadow a longer one that shares its prefix.
type Func int

const (
	FnUnknown Func = iota

	// aggregate
	FnSum
	FnAverage
	FnCount
	FnCountA
	FnCountBlank
	FnMax
	FnMin

	// conditional aggregate
	FnCountIf
	FnSumIf
	FnAverageIf

	// logical
	FnIf
	FnIfError
	FnAnd
	FnOr
	FnNot

	// lookup
	FnVLookup
	FnHLookup
	FnIndex

	// text
	FnConcatenate
	FnConcat
	FnLeft
	FnRight
	FnMid
	FnLen
	FnTrim
	FnUpper
	FnLower
	FnProper
	FnSubstitute

	// numeric
	FnRound
	FnRoundUp
	FnRoundDown
	FnAbs
	FnSqrt
	FnPower
	FnMod

	// date
	FnToday
	FnNow
	FnDate
	FnYear
	FnMonth
	FnDay
	FnDateDif
)

var funcNames = map[string]Func{
	"SUM":         FnSum,
	"AVERAGE":     FnAverage,
	"COUNT":       FnCount,
	"COUNTA":      FnCountA,
	"COUNTBLANK":  FnCountBlank,
	"MAX":         FnMax,
	"MIN":         FnMin,
	"COUNTIF":     FnCountIf,
	"SUMIF":       FnSumIf,
	"AVERAGEIF":   FnAverageIf,
	"IF":          FnIf,
	"IFERROR":     FnIfError,
	"AND":         FnAnd,
	"OR":          FnOr,
	"NOT":         FnNot,
	"VLOOKUP":     FnVLookup,
	"HLOOKUP":     FnHLookup,
	"INDEX":       FnIndex,
	"CONCATENATE": FnConcatenate,
	"CONCAT":      FnConcat,
	"LEFT":        FnLeft,
	"RIGHT":       FnRight,
	"MID":         FnMid,
	"LEN":         FnLen,
	"TRIM":        FnTrim,
	"UPPER":       FnUpper,
	"LOWER":       FnLower,
	"PROPER":      FnProper,
	"SUBSTITUTE":  FnSubstitute,
	"ROUND":       FnRound,
	"ROUNDUP":     FnRoundUp,
	"ROUNDDOWN":   FnRoundDown,
	"ABS":         FnAbs,
	"SQRT":        FnSqrt,
	"POWER":       FnPower,
	"MOD":         FnMod,
	"TODAY":       FnToday,
	"NOW":         FnNow,
	"DATE":        FnDate,
	"YEAR":        FnYear,
	"MONTH":       FnMonth,
	"DAY":         FnDay,
	"DATEDIF":     FnDateDif,
}

var funcByID = func() map[Func]string {
	m := make(map[Func]string, len(funcNames))
	for name, fn := range funcNames {
		m[fn] = name
	}
	return m
}()

// LookupFunc resolves an upper-case function name.
func LookupFunc(name string) (Func, bool) {
	fn, ok := funcNames[name]
	return fn, ok
}

// IsSupported reports whether name is a built-in function.
func IsSupported(name string) bool {
	_, ok := funcNames[name]
	return ok
}

func (f Func) String() string {
	if name, ok := funcByID[f]; ok {
		return name
	}
	return "UNKNOWN"
}
