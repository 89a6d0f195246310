package formula

import (
	"slices"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens, ok := NewLexer(`sum(a1:b2, "Mixed ""Case""", 1.5e2) <> TRUE`).Tokenize()
	if !ok {
		t.Fatalf("Tokenize failed: %+v", tokens)
	}
	expected := []struct {
		typ   TokenType
		value string
	}{
		{TokenFunction, "SUM"},
		{TokenLeftParen, "("},
		{TokenRange, "A1:B2"},
		{TokenComma, ","},
		{TokenString, `Mixed "Case"`},
		{TokenComma, ","},
		{TokenNumber, "1.5e2"},
		{TokenRightParen, ")"},
		{TokenOperator, "<>"},
		{TokenBoolean, "TRUE"},
		{TokenEOF, ""},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("got %d tokens, expected %d: %+v", len(tokens), len(expected), tokens)
	}
	for i, e := range expected {
		if tokens[i].Type != e.typ || tokens[i].Value != e.value {
			t.Errorf("token %d = (%d, %q), expected (%d, %q)", i, tokens[i].Type, tokens[i].Value, e.typ, e.value)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, body := range []string{`SUM(A1`, `A1)`, `"open`, `A1 ! B1`, `A1 # 2`} {
		if _, ok := NewLexer(body).Tokenize(); ok {
			t.Errorf("Tokenize(%q) succeeded, expected failure", body)
		}
	}
}

func TestParseNested(t *testing.T) {
	node := Parse(`SUM(A1,IF(B1>2,1,2),"x,y")`)
	call, ok := node.(Call)
	if !ok || call.Fn != FnSum {
		t.Fatalf("Parse returned %#v", node)
	}
	if len(call.Args) != 3 {
		t.Fatalf("got %d args, expected 3", len(call.Args))
	}
	if _, ok := call.Args[0].(CellRef); !ok {
		t.Errorf("arg 0 = %#v, expected CellRef", call.Args[0])
	}
	inner, ok := call.Args[1].(Call)
	if !ok || inner.Fn != FnIf || len(inner.Args) != 3 {
		t.Fatalf("arg 1 = %#v, expected IF call", call.Args[1])
	}
	cmp, ok := inner.Args[0].(Compare)
	if !ok || cmp.Op != ">" {
		t.Errorf("IF condition = %#v", inner.Args[0])
	}
	if lit, ok := call.Args[2].(StringLit); !ok || lit.Value != "x,y" {
		t.Errorf("arg 2 = %#v", call.Args[2])
	}
}

func TestParseFallsBackToArithmetic(t *testing.T) {
	for _, body := range []string{"A1+B1", "SUM(A1)+1", "MAXIFS(A1:A3)", "A1"} {
		if _, ok := Parse(body).(Arithmetic); !ok {
			t.Errorf("Parse(%q) = %#v, expected Arithmetic", body, Parse(body))
		}
	}
}

func TestParseEmptyArgument(t *testing.T) {
	call, ok := Parse(`IF(A1,,"x")`).(Call)
	if !ok || len(call.Args) != 3 {
		t.Fatalf("Parse returned %#v", call)
	}
	if _, ok := call.Args[1].(Empty); !ok {
		t.Errorf("arg 1 = %#v, expected Empty", call.Args[1])
	}
}

func TestLookupFunc(t *testing.T) {
	if fn, ok := LookupFunc("MAX"); !ok || fn != FnMax || fn.String() != "MAX" {
		t.Errorf("LookupFunc(MAX) = %v, %v", fn, ok)
	}
	if _, ok := LookupFunc("MAXIFS"); ok {
		t.Error("LookupFunc(MAXIFS) should not resolve")
	}
}

func TestMatchCriteria(t *testing.T) {
	tests := []struct {
		value    string
		criteria string
		expected bool
	}{
		{"5", ">3", true},
		{"5", ">=5", true},
		{"5", "<=4", false},
		{"2", "<3", true},
		{"abc", ">3", false},
		{"Done", "=done", true},
		{"Done", "<>done", false},
		{"open", "!=done", true},
		{"Apple", "ap*", true},
		{"apple", "?pple", true},
		{"apple", "b*", false},
		{"a.c", "a.c", true},
		{"abc", "a.c", false},
		{"x+y", "x+*", true},
		{"Yes", "yes", true},
		{">=", ">=", true},
	}
	for _, tt := range tests {
		if got := MatchCriteria(tt.value, tt.criteria); got != tt.expected {
			t.Errorf("MatchCriteria(%q, %q) = %v, expected %v", tt.value, tt.criteria, got, tt.expected)
		}
	}
}

func TestPrecedents(t *testing.T) {
	got := Precedents("=SUM(A1:B2)+$C$3*a1+A1")
	expected := []string{"A1:B2", "C3", "A1"}
	if !slices.Equal(got, expected) {
		t.Errorf("Precedents = %v, expected %v", got, expected)
	}
	if got := Precedents("plain text"); got != nil {
		t.Errorf("Precedents(plain) = %v", got)
	}
}

func TestUnknownFunctions(t *testing.T) {
	got := UnknownFunctions("=SUM(A1)+XLOOKUP(1,A1:A2,B1:B2)+xlookup(2)")
	if !slices.Equal(got, []string{"XLOOKUP"}) {
		t.Errorf("UnknownFunctions = %v", got)
	}
}
