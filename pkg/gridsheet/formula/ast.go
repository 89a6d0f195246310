package formula

import "github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"

// Node is a parsed formula body or argument. The concrete variants are the
// types below; the evaluator switches over them exhaustively.
type Node interface {
	node()
}

// Call is a built-in function applied to its argument list.
type Call struct {
	Fn   Func
	Args []Node
}

// Arithmetic is text evaluated by reference substitution and operator scanning.
type Arithmetic struct {
	Text string
}

// StringLit is a double-quoted literal with escapes removed.
type StringLit struct {
	Value string
}

// NumberLit keeps the literal text as written alongside its value.
type NumberLit struct {
	Text  string
	Value float64
}

// BoolLit is TRUE or FALSE.
type BoolLit struct {
	Value bool
}

// CellRef is a single-cell reference.
type CellRef struct {
	Coord ref.Coord
}

// RangeRef is a rectangular range reference.
type RangeRef struct {
	Range ref.Range
}

// Compare is a condition such as A1>10.
type Compare struct {
	Op    string
	Left  Node
	Right Node
}

// Empty is an omitted argument, as in IF(A1,,"x").
type Empty struct{}

func (Call) node()       {}
func (Arithmetic) node() {}
func (StringLit) node()  {}
func (NumberLit) node()  {}
func (BoolLit) node()    {}
func (CellRef) node()    {}
func (RangeRef) node()   {}
func (Compare) node()    {}
func (Empty) node()      {}
