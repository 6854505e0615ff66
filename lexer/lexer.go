package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/scvdview/scvd/token"
)

type Lexer struct {
	input        string
	base         int  // offset of input within the enclosing source
	position     int  // current position in input (points to current rune)
	readPosition int  // current reading position in input (after current rune)
	curr         rune // current rune under examination
}

func New(input string) *Lexer {
	return NewAt(input, 0)
}

// NewAt returns a lexer whose token spans are shifted by base. The printf
// parser uses it for expressions embedded in a larger format string.
func NewAt(input string, base int) *Lexer {
	l := &Lexer{input: input, base: base}
	l.readRune()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	start := l.position
	switch {
	case l.curr == 0 && l.position >= len(l.input):
		return l.emit(token.EOF, start)
	case IsLetter(l.curr):
		l.readIdentifier()
		return l.emit(token.IDENT, start)
	case isDigit(l.curr) || (l.curr == '.' && isDigit(l.peekRune())):
		return l.emit(l.readNumber(), start)
	case l.curr == '"':
		if !l.readQuoted('"') {
			return l.emit(token.ILLEGAL, start)
		}
		return l.emit(token.STRING, start)
	case l.curr == '\'':
		if !l.readQuoted('\'') {
			return l.emit(token.ILLEGAL, start)
		}
		return l.emit(token.CHAR, start)
	}

	// longest match over the operator table
	typ, ok := token.LookupOperator(string(l.curr))
	l.readRune()
	for l.position < len(l.input) {
		next, found := token.LookupOperator(l.input[start:l.readPosition])
		if !found {
			break
		}
		typ, ok = next, true
		l.readRune()
	}
	if !ok {
		return l.emit(token.ILLEGAL, start)
	}
	return l.emit(typ, start)
}

// Tokens returns every token up to and including EOF.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) emit(t token.TokenType, start int) token.Token {
	return token.Token{
		Type:    t,
		Literal: l.input[start:l.position],
		Span:    token.Span{Start: l.base + start, End: l.base + l.position},
	}
}

func (l *Lexer) skipWhitespace() {
	for l.position < len(l.input) && unicode.IsSpace(l.curr) {
		l.readRune()
	}
}

func (l *Lexer) readRune() {
	if l.readPosition >= len(l.input) {
		l.curr = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.curr = r
	l.position = l.readPosition
	l.readPosition += w
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) readIdentifier() {
	for l.position < len(l.input) && IsLetterOrDigit(l.curr) {
		l.readRune()
	}
}

// readNumber consumes an integer or floating literal including C suffixes.
// Validation of the digits is left to the parser.
func (l *Lexer) readNumber() token.TokenType {
	typ := token.INT
	if l.curr == '0' && (l.peekRune() == 'x' || l.peekRune() == 'X') {
		l.readRune()
		l.readRune()
		for l.position < len(l.input) && isHexDigit(l.curr) {
			l.readRune()
		}
		l.readIntSuffix()
		return typ
	}

	for l.position < len(l.input) && (isDigit(l.curr) || l.curr == 'b' || l.curr == 'B') {
		l.readRune()
	}
	if l.curr == '.' {
		typ = token.FLOAT
		l.readRune()
		for l.position < len(l.input) && isDigit(l.curr) {
			l.readRune()
		}
	}
	if l.curr == 'e' || l.curr == 'E' {
		typ = token.FLOAT
		l.readRune()
		if l.curr == '+' || l.curr == '-' {
			l.readRune()
		}
		for l.position < len(l.input) && isDigit(l.curr) {
			l.readRune()
		}
	}
	if typ == token.FLOAT {
		if l.curr == 'f' || l.curr == 'F' {
			l.readRune()
		}
		return typ
	}
	l.readIntSuffix()
	return typ
}

func (l *Lexer) readIntSuffix() {
	for l.position < len(l.input) && (l.curr == 'u' || l.curr == 'U' || l.curr == 'l' || l.curr == 'L') {
		l.readRune()
	}
}

// readQuoted consumes a quoted literal starting at the opening quote. It
// reports false when the closing quote is missing.
func (l *Lexer) readQuoted(quote rune) bool {
	l.readRune()
	for l.position < len(l.input) {
		switch l.curr {
		case '\\':
			l.readRune()
			if l.position >= len(l.input) {
				return false
			}
		case quote:
			l.readRune()
			return true
		}
		l.readRune()
	}
	return false
}

func IsLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func IsLetterOrDigit(ch rune) bool {
	return IsLetter(ch) || isDigit(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
