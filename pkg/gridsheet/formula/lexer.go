package formula

import "strings"

// TokenType classifies formula tokens.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenBoolean
	TokenCell
	TokenRange
	TokenFunction
	TokenIdentifier
	TokenOperator
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenError
)

// Token is one lexeme of a formula body. Pos and End are byte offsets into
// the body so callers can recover the raw text a token sequence spans.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
	End   int
}

const (
	charQuote  = '"'
	charLParen = '('
	charRParen = ')'
	charComma  = ','
	charColon  = ':'
	charDollar = '$'
	charPeriod = '.'
)

// Lexer splits a formula body (the text after "=") into tokens.
type Lexer struct {
	input      string
	pos        int
	parenDepth int
}

// NewLexer returns a lexer over body.
func NewLexer(body string) *Lexer {
	return &Lexer{input: body}
}

// Tokenize returns the token stream terminated by TokenEOF, or the first
// error token when the body cannot be tokenized.
func (l *Lexer) Tokenize() ([]Token, bool) {
	var tokens []Token
	for {
		tok := l.next()
		switch tok.Type {
		case TokenError:
			return []Token{tok}, false
		case TokenEOF:
			if l.parenDepth != 0 {
				return []Token{{Type: TokenError, Value: "unbalanced parentheses", Pos: tok.Pos, End: tok.End}}, false
			}
			return append(tokens, tok), true
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) next() Token {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos, End: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == charQuote:
		return l.scanString()
	case isDigit(ch) || (ch == charPeriod && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.scanNumber()
	case isLetter(ch) || ch == charDollar || ch == '_':
		return l.scanIdentifierOrCell()
	}

	switch ch {
	case charLParen:
		l.pos++
		l.parenDepth++
		return Token{Type: TokenLeftParen, Value: "(", Pos: start, End: l.pos}
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return Token{Type: TokenError, Value: "unexpected closing parenthesis", Pos: start, End: l.pos}
		}
		return Token{Type: TokenRightParen, Value: ")", Pos: start, End: l.pos}
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start, End: l.pos}
	case '+', '-', '*', '/', '^', '&', '%':
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: start, End: l.pos}
	case '=':
		l.pos++
		return Token{Type: TokenOperator, Value: "=", Pos: start, End: l.pos}
	case '<', '>', '!':
		l.pos++
		if l.pos < len(l.input) {
			pair := l.input[start : l.pos+1]
			if pair == "<=" || pair == ">=" || pair == "<>" || pair == "!=" {
				l.pos++
				return Token{Type: TokenOperator, Value: pair, Pos: start, End: l.pos}
			}
		}
		if ch == '!' {
			return Token{Type: TokenError, Value: "unexpected character: !", Pos: start, End: l.pos}
		}
		return Token{Type: TokenOperator, Value: string(ch), Pos: start, End: l.pos}
	}

	l.pos++
	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: start, End: l.pos}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

// scanString reads a double-quoted literal; "" inside the literal is an escaped quote.
func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == charQuote {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == charQuote {
				sb.WriteByte(charQuote)
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Type: TokenString, Value: sb.String(), Pos: start, End: l.pos}
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return Token{Type: TokenError, Value: "unclosed string literal", Pos: start, End: l.pos}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == charPeriod {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		saved := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = saved
		}
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start, End: l.pos}
}

// scanIdentifierOrCell reads a function name, boolean, cell, range, or bare identifier.
// Names and references are upper-cased; string literals never are.
func (l *Lexer) scanIdentifierOrCell() Token {
	start := l.pos
	l.scanWord()
	word := l.input[start:l.pos]
	upperWord := strings.ToUpper(word)

	if isCellWord(word) {
		if l.pos < len(l.input) && l.input[l.pos] == charColon {
			saved := l.pos
			l.pos++
			secondStart := l.pos
			l.scanWord()
			if isCellWord(l.input[secondStart:l.pos]) {
				return Token{Type: TokenRange, Value: strings.ToUpper(l.input[start:l.pos]), Pos: start, End: l.pos}
			}
			l.pos = saved
		}
		return Token{Type: TokenCell, Value: upperWord, Pos: start, End: l.pos}
	}

	if upperWord == "TRUE" || upperWord == "FALSE" {
		if l.pos >= len(l.input) || l.input[l.pos] != charLParen {
			return Token{Type: TokenBoolean, Value: upperWord, Pos: start, End: l.pos}
		}
	}

	if l.pos < len(l.input) && l.input[l.pos] == charLParen {
		return Token{Type: TokenFunction, Value: upperWord, Pos: start, End: l.pos}
	}
	return Token{Type: TokenIdentifier, Value: word, Pos: start, End: l.pos}
}

func (l *Lexer) scanWord() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isLetter(ch) || isDigit(ch) || ch == '_' || ch == charDollar || ch == charPeriod {
			l.pos++
			continue
		}
		break
	}
}

// isCellWord reports whether word has the shape [$]LETTERS[$]DIGITS.
func isCellWord(word string) bool {
	i := 0
	if i < len(word) && word[i] == charDollar {
		i++
	}
	letters := i
	for i < len(word) && isLetter(word[i]) {
		i++
	}
	if i == letters {
		return false
	}
	if i < len(word) && word[i] == charDollar {
		i++
	}
	digits := i
	for i < len(word) && isDigit(word[i]) {
		i++
	}
	return i > digits && i == len(word)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
