package formula

import (
	"strconv"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/ref"
)

// compareOps lists comparison operators in the order a condition is split on.
var compareOps = []string{">=", "<=", "<>", "!=", "=", ">", "<"}

// Parse turns a formula body (the text after "=") into a node. A body whose
// outermost shape is NAME(...) with a known NAME becomes a Call; anything else
// is left to the arithmetic fallback.
func Parse(body string) Node {
	tokens, ok := NewLexer(body).Tokenize()
	if !ok {
		return Arithmetic{Text: body}
	}
	toks := tokens[:len(tokens)-1]
	if call, ok := parseCall(body, toks); ok {
		return call
	}
	return Arithmetic{Text: body}
}

func parseCall(body string, toks []Token) (Call, bool) {
	if len(toks) < 3 ||
		toks[0].Type != TokenFunction ||
		toks[1].Type != TokenLeftParen ||
		toks[len(toks)-1].Type != TokenRightParen {
		return Call{}, false
	}
	if closingParen(toks, 1) != len(toks)-1 {
		return Call{}, false
	}
	fn, ok := LookupFunc(toks[0].Value)
	if !ok {
		return Call{}, false
	}

	groups := splitArgs(toks[2 : len(toks)-1])
	args := make([]Node, 0, len(groups))
	for _, group := range groups {
		args = append(args, parseArg(body, group))
	}
	return Call{Fn: fn, Args: args}, true
}

// closingParen returns the index of the parenthesis matching toks[open].
func closingParen(toks []Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Type {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits an argument list at commas that are not nested inside
// parentheses. A trailing empty argument after the last comma is dropped.
func splitArgs(toks []Token) [][]Token {
	if len(toks) == 0 {
		return nil
	}
	var groups [][]Token
	depth, start := 0, 0
	for i, tok := range toks {
		switch tok.Type {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
		case TokenComma:
			if depth == 0 {
				groups = append(groups, toks[start:i])
				start = i + 1
			}
		}
	}
	if start < len(toks) {
		groups = append(groups, toks[start:])
	}
	return groups
}

func parseArg(body string, toks []Token) Node {
	if len(toks) == 0 {
		return Empty{}
	}
	if call, ok := parseCall(body, toks); ok {
		return call
	}
	if len(toks) == 1 {
		if lit, ok := parseLiteral(toks[0]); ok {
			return lit
		}
	}
	if i := comparisonAt(toks); i > 0 && i < len(toks)-1 {
		return Compare{
			Op:    toks[i].Value,
			Left:  parseArg(body, toks[:i]),
			Right: parseArg(body, toks[i+1:]),
		}
	}
	return Arithmetic{Text: rawText(body, toks)}
}

func parseLiteral(tok Token) (Node, bool) {
	switch tok.Type {
	case TokenString:
		return StringLit{Value: tok.Value}, true
	case TokenNumber:
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, false
		}
		return NumberLit{Text: tok.Value, Value: v}, true
	case TokenBoolean:
		return BoolLit{Value: tok.Value == "TRUE"}, true
	case TokenCell:
		row, col, err := ref.ParseCellRef(tok.Value)
		if err != nil {
			return nil, false
		}
		return CellRef{Coord: ref.Coord{Row: row, Col: col}}, true
	case TokenRange:
		r, err := ref.ParseRange(tok.Value)
		if err != nil {
			return nil, false
		}
		return RangeRef{Range: r}, true
	}
	return nil, false
}

// comparisonAt finds the top-level comparison operator to split on, trying
// each operator in compareOps order. It returns -1 when there is none.
func comparisonAt(toks []Token) int {
	for _, op := range compareOps {
		depth := 0
		for i, tok := range toks {
			switch tok.Type {
			case TokenLeftParen:
				depth++
			case TokenRightParen:
				depth--
			case TokenOperator:
				if depth == 0 && tok.Value == op {
					return i
				}
			}
		}
	}
	return -1
}

func rawText(body string, toks []Token) string {
	return body[toks[0].Pos:toks[len(toks)-1].End]
}
