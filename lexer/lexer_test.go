package lexer

import (
	"testing"

	"github.com/scvdview/scvd/token"
	"github.com/stretchr/testify/require"
)

type Test struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func checkInput(t *testing.T, input string, tests []Test) {
	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken(t *testing.T) {
	input := `os_Info.thread[idx + 1]._count
    __GetRegVal("PSP") << 2 >>= 0x1Fu
    a->b != ~c && !d || e ? 1.5 : 'x'
    i++ -- <= >= == <<`

	tests := []Test{
		{token.IDENT, "os_Info"},
		{token.PERIOD, "."},
		{token.IDENT, "thread"},
		{token.LBRACK, "["},
		{token.IDENT, "idx"},
		{token.ADD, "+"},
		{token.INT, "1"},
		{token.RBRACK, "]"},
		{token.PERIOD, "."},
		{token.IDENT, "_count"},
		{token.IDENT, "__GetRegVal"},
		{token.LPAREN, "("},
		{token.STRING, `"PSP"`},
		{token.RPAREN, ")"},
		{token.SHL, "<<"},
		{token.INT, "2"},
		{token.SHR_ASSIGN, ">>="},
		{token.INT, "0x1Fu"},
		{token.IDENT, "a"},
		{token.ARROW, "->"},
		{token.IDENT, "b"},
		{token.NEQ, "!="},
		{token.NOT, "~"},
		{token.IDENT, "c"},
		{token.LAND, "&&"},
		{token.LNOT, "!"},
		{token.IDENT, "d"},
		{token.LOR, "||"},
		{token.IDENT, "e"},
		{token.QUESTION, "?"},
		{token.FLOAT, "1.5"},
		{token.COLON, ":"},
		{token.CHAR, "'x'"},
		{token.IDENT, "i"},
		{token.INC, "++"},
		{token.DEC, "--"},
		{token.LEQ, "<="},
		{token.GEQ, ">="},
		{token.EQL, "=="},
		{token.SHL, "<<"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestIllegalAndUnterminated(t *testing.T) {
	tests := []Test{
		{token.IDENT, "a"},
		{token.ILLEGAL, "@"},
		{token.IDENT, "b"},
		{token.ILLEGAL, `"open`},
		{token.EOF, ""},
	}
	checkInput(t, `a @ b "open`, tests)
}

func TestSpans(t *testing.T) {
	l := NewAt("ab + 12", 10)
	toks := l.Tokens()
	require.Len(t, toks, 4)
	require.Equal(t, token.Span{Start: 10, End: 12}, toks[0].Span)
	require.Equal(t, token.Span{Start: 13, End: 14}, toks[1].Span)
	require.Equal(t, token.Span{Start: 15, End: 17}, toks[2].Span)
	require.Equal(t, token.EOF, toks[3].Type)
}

func TestScanPrintf(t *testing.T) {
	tests := []struct {
		name  string
		input string
		segs  []Segment
		diags int
	}{
		{
			name:  "TextOnly",
			input: "Idle",
			segs:  []Segment{{Text: "Idle"}},
		},
		{
			name:  "EscapedPercent",
			input: "load 50%% now",
			segs:  []Segment{{Text: "load 50% now"}},
		},
		{
			name:  "Directives",
			input: "id=%d[th.id] name=%t[name]",
			segs: []Segment{
				{Text: "id="},
				{Directive: 'd', Expr: "th.id"},
				{Text: " name="},
				{Directive: 't', Expr: "name"},
			},
		},
		{
			name:  "NestedBrackets",
			input: "%x[arr[i+1]]%%",
			segs: []Segment{
				{Directive: 'x', Expr: "arr[i+1]"},
				{Text: "%"},
			},
		},
		{
			name:  "UnknownDirective",
			input: "bad %q[x]",
			segs:  []Segment{{Text: "bad %q[x]"}},
			diags: 1,
		},
		{
			name:  "MissingBracket",
			input: "v=%d[x",
			segs:  []Segment{{Text: "v=%d[x"}},
			diags: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			segs, diags := ScanPrintf(tc.input)
			require.Len(t, diags, tc.diags)
			require.Len(t, segs, len(tc.segs))
			for i, want := range tc.segs {
				require.Equal(t, want.Text, segs[i].Text, "segment %d", i)
				require.Equal(t, want.Directive, segs[i].Directive, "segment %d", i)
				require.Equal(t, want.Expr, segs[i].Expr, "segment %d", i)
			}
		})
	}
}

func TestScanPrintfExprSpan(t *testing.T) {
	src := "v=%d[abc]"
	segs, diags := ScanPrintf(src)
	require.Empty(t, diags)
	require.Len(t, segs, 2)
	sp := segs[1].ExprSpan
	require.Equal(t, "abc", src[sp.Start:sp.End])
}
