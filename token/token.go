package token

import "strconv"

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	literal_beg
	// Identifiers + literals
	IDENT  // os_Info, __GetRegVal, _count
	INT    // 1343456, 0x20, 10u
	FLOAT  // 123.45
	CHAR   // 'a'
	STRING // "abc"
	literal_end

	operator_beg
	// Operators and delimiters
	ASSIGN // =
	LNOT   // !
	NOT    // ~

	ADD // +
	SUB // -
	MUL // *
	QUO // /
	REM // %

	AND // &
	OR  // |
	XOR // ^
	SHL // <<
	SHR // >>

	LAND // &&
	LOR  // ||
	INC  // ++
	DEC  // --

	ADD_ASSIGN // +=
	SUB_ASSIGN // -=
	MUL_ASSIGN // *=
	QUO_ASSIGN // /=
	REM_ASSIGN // %=

	AND_ASSIGN // &=
	OR_ASSIGN  // |=
	XOR_ASSIGN // ^=
	SHL_ASSIGN // <<=
	SHR_ASSIGN // >>=

	QUESTION // ?
	COLON    // :
	LPAREN   // (
	LBRACK   // [
	COMMA    // ,
	PERIOD   // .
	ARROW    // ->

	RPAREN // )
	RBRACK // ]
	operator_end

	comparison_beg
	EQL // ==
	LSS // <
	GTR // >

	NEQ // !=
	LEQ // <=
	GEQ // >=
	comparison_end
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	CHAR:   "CHAR",
	STRING: "STRING",

	ASSIGN: "=",
	LNOT:   "!",
	NOT:    "~",

	ADD: "+",
	SUB: "-",
	MUL: "*",
	QUO: "/",
	REM: "%",

	AND: "&",
	OR:  "|",
	XOR: "^",
	SHL: "<<",
	SHR: ">>",

	LAND: "&&",
	LOR:  "||",
	INC:  "++",
	DEC:  "--",

	ADD_ASSIGN: "+=",
	SUB_ASSIGN: "-=",
	MUL_ASSIGN: "*=",
	QUO_ASSIGN: "/=",
	REM_ASSIGN: "%=",

	AND_ASSIGN: "&=",
	OR_ASSIGN:  "|=",
	XOR_ASSIGN: "^=",
	SHL_ASSIGN: "<<=",
	SHR_ASSIGN: ">>=",

	QUESTION: "?",
	COLON:    ":",
	LPAREN:   "(",
	LBRACK:   "[",
	COMMA:    ",",
	PERIOD:   ".",
	ARROW:    "->",

	RPAREN: ")",
	RBRACK: "]",

	EQL: "==",
	LSS: "<",
	GTR: ">",

	NEQ: "!=",
	LEQ: "<=",
	GEQ: ">=",
}

// operators maps every operator spelling to its type. The lexer uses it with
// longest-match, the same way cparse munches punctuation.
var operators = func() map[string]TokenType {
	m := make(map[string]TokenType)
	for i := operator_beg + 1; i < comparison_end; i++ {
		if i == operator_end || i == comparison_beg {
			continue
		}
		m[tokens[i]] = i
	}
	return m
}()

// LookupOperator returns the operator spelled s.
func LookupOperator(s string) (TokenType, bool) {
	t, ok := operators[s]
	return t, ok
}

// compound maps an assignment operator to its binary operator.
var compound = map[TokenType]TokenType{
	ADD_ASSIGN: ADD,
	SUB_ASSIGN: SUB,
	MUL_ASSIGN: MUL,
	QUO_ASSIGN: QUO,
	REM_ASSIGN: REM,
	AND_ASSIGN: AND,
	OR_ASSIGN:  OR,
	XOR_ASSIGN: XOR,
	SHL_ASSIGN: SHL,
	SHR_ASSIGN: SHR,
}

// BinaryOf returns the binary operator applied by a compound assignment.
// For plain ASSIGN it returns ILLEGAL, false.
func BinaryOf(t TokenType) (TokenType, bool) {
	op, ok := compound[t]
	if !ok {
		return ILLEGAL, false
	}
	return op, true
}

type Token struct {
	Type    TokenType
	Literal string
	Span    Span
}

func (t Token) IsComparison() bool {
	return comparison_beg < t.Type && comparison_end > t.Type
}

func (t Token) IsAssignment() bool {
	if t.Type == ASSIGN {
		return true
	}
	_, ok := compound[t.Type]
	return ok
}

func (t Token) String() string {
	return t.Type.String()
}

func (tokenType TokenType) IsComparison() bool {
	return comparison_beg < tokenType && comparison_end > tokenType
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}
