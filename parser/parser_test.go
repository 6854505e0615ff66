package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/scvdview/scvd/ast"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

func parseOK(t *testing.T, input string) *ParseResult {
	t.Helper()
	res := ParseExpression(input, false)
	require.False(t, res.HasErrors(), "unexpected diagnostics for %q: %v", input, res.Diagnostics)
	require.NotNil(t, res.AST)
	return res
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		input string
		want  types.Value
	}{
		{"2+3*4", types.NewInt(14, 32)},
		{"(2+3)*4", types.NewInt(20, 32)},
		{"10 % 3", types.NewInt(1, 32)},
		{"-5", types.NewInt(-5, 32)},
		{"~1", types.NewUint(4294967294, 32)},
		{"1 << 4", types.NewUint(16, 32)},
		{"0x10 | 1", types.NewInt(17, 32)},
		{"3000000000", types.NewUint(3000000000, 32)},
		{"-1 < 0u", types.NewInt(0, 32)},
		{"1 == 1", types.NewInt(1, 32)},
		{"!0", types.NewInt(1, 32)},
		{"'A'", types.NewInt(65, 32)},
		{"5.5 / 2.5", types.NewFloat(2.2, 64)},
		{"1ll + 2ll", types.WideFromInt64(3)},
		{"1 ? 2 : 3", types.NewInt(2, 32)},
		{"0 ? 2 : 3", types.NewInt(3, 32)},
		{"0 && a", types.NewInt(0, 32)},
		{"1 || a", types.NewInt(1, 32)},
		{`"x" + 5`, types.NewString("x5")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := parseOK(t, tt.input)
			require.True(t, res.IsConst(), "expected %q to fold, got %s", tt.input, res.AST)
			require.True(t, tt.want.Equal(res.ConstValue), "want %s, got %s", tt.want.Dump(), res.ConstValue.Dump())
			require.Empty(t, res.ExternalSymbols)
		})
	}
}

func TestNotConstant(t *testing.T) {
	res := parseOK(t, "a+1")
	require.False(t, res.IsConst())
	require.Contains(t, res.ExternalSymbols, "a")

	res = parseOK(t, "a + 2*3")
	require.False(t, res.IsConst())
	ie, ok := res.AST.(*ast.InfixExpression)
	require.True(t, ok, "got %T", res.AST)
	lit, ok := ie.Right.(*ast.NumberLiteral)
	require.True(t, ok, "right operand not folded: %T", ie.Right)
	require.Equal(t, int64(6), lit.Value.Int64())
	require.Equal(t, token.Span{Start: 4, End: 7}, lit.Span())

	res = parseOK(t, "x = 5")
	require.False(t, res.IsConst())
	require.Equal(t, []string{"x"}, res.Externals())

	res = parseOK(t, "__Running")
	require.False(t, res.IsConst())
	require.Empty(t, res.ExternalSymbols)

	res = parseOK(t, "th.stack[i].size")
	require.Equal(t, []string{"i", "th"}, res.Externals())
}

func TestFoldFailureIsWarning(t *testing.T) {
	for _, input := range []string{"1/0", "5 % 0", "0xFFFFFFFFFF + 1"} {
		t.Run(input, func(t *testing.T) {
			res := ParseExpression(input, false)
			require.False(t, res.HasErrors())
			require.False(t, res.IsConst())
			require.Len(t, res.Diagnostics, 1)
			require.Equal(t, token.SeverityWarning, res.Diagnostics[0].Severity)
			_, ok := res.AST.(*ast.InfixExpression)
			require.True(t, ok)
		})
	}
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		{"a - b - c", "((a - b) - c)"},
		{"a << 1 + b", "(a << (1 + b))"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)))"},
		{"a & b == c", "(a & (b == c))"},
		{"a || b && c", "(a || (b && c))"},
		{"a = b = c", "(a = (b = c))"},
		{"a += b * 2", "(a += (b * 2))"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
		{"a ? b : c = d", "((a ? b : c) = d)"},
		{"-a.b[1]", "(-a.b[1])"},
		{"!a && b", "((!a) && b)"},
		{"a->b.c", "a.b.c"},
		{"x++", "(x++)"},
		{"--x", "(--x)"},
		{"(a + b) * c", "((a + b) * c)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := ParseExpression(tt.input, false)
			require.Equal(t, tt.expected, res.AST.String())
		})
	}
}

func TestIntrinsics(t *testing.T) {
	res := parseOK(t, "__CalcMemUsed(stack, 0x100, 0xCCCCCCCC, 0xE25A2EA5)")
	in, ok := res.AST.(*ast.IntrinsicExpression)
	require.True(t, ok)
	require.Equal(t, token.CalcMemUsed, in.Name)
	require.Len(t, in.Arguments, 4)
	require.Equal(t, []string{"stack"}, res.Externals())

	res = parseOK(t, "__Running")
	in, ok = res.AST.(*ast.IntrinsicExpression)
	require.True(t, ok)
	require.Equal(t, token.Running, in.Name)
	require.Empty(t, in.Arguments)

	res = parseOK(t, "arr._count")
	in, ok = res.AST.(*ast.IntrinsicExpression)
	require.True(t, ok)
	require.Equal(t, token.Count, in.Name)
	require.Equal(t, "arr", in.Receiver.String())

	res = parseOK(t, "arr[2]._addr + 4")
	ie, ok := res.AST.(*ast.InfixExpression)
	require.True(t, ok)
	in, ok = ie.Left.(*ast.IntrinsicExpression)
	require.True(t, ok)
	require.Equal(t, token.Addr, in.Name)
	require.Equal(t, "arr[2]", in.Receiver.String())

	res = parseOK(t, "__Offset_of(TCB:stack.top)")
	in, ok = res.AST.(*ast.IntrinsicExpression)
	require.True(t, ok)
	require.Len(t, in.Arguments, 1)
	cp, ok := in.Arguments[0].(*ast.ColonPath)
	require.True(t, ok)
	require.Equal(t, "TCB", cp.Scope)
	require.Equal(t, "stack.top", cp.Member)
	require.Empty(t, res.ExternalSymbols)

	// arity is enforced when evaluating; the parser only warns
	res = ParseExpression("__CalcMemUsed()", false)
	require.False(t, res.HasErrors())
	require.Len(t, res.Diagnostics, 1)
	require.Equal(t, token.SeverityWarning, res.Diagnostics[0].Severity)
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"", "empty expression"},
		{"a +", "unexpected end of expression"},
		{"(a", "expected next token to be ), got end of expression instead"},
		{"a b", `unexpected "b" after expression`},
		{"3 = 4", "cannot apply = to 3: not assignable"},
		{`"abc`, `illegal token "\"abc"`},
		{"__Nope(1)", "unknown intrinsic __Nope"},
		{"foo(1)", "unknown function foo"},
		{"a.", "expected next token to be IDENT, got end of expression instead"},
		{"__FindSymbol", "intrinsic __FindSymbol needs an argument list"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := ParseExpression(tt.input, false)
			require.True(t, res.HasErrors())
			require.NotNil(t, res.AST)
			require.False(t, res.IsConst())
			var msgs []string
			for _, d := range res.Diagnostics {
				msgs = append(msgs, d.Message)
			}
			require.Contains(t, msgs, tt.message)
		})
	}
}

func TestPrintf(t *testing.T) {
	res := ParseExpression("Count: %d[n] of %x[0x10]%%", true)
	require.True(t, res.IsPrintf)
	require.False(t, res.HasErrors())
	require.False(t, res.IsConst())
	require.Equal(t, []string{"n"}, res.Externals())

	pe, ok := res.AST.(*ast.PrintfExpression)
	require.True(t, ok)
	require.Len(t, pe.Segments, 5)
	require.Equal(t, "Count: ", pe.Segments[0].Text)
	require.Equal(t, 'd', pe.Segments[1].Directive)
	require.Equal(t, "n", pe.Segments[1].Value.String())
	require.Equal(t, 'x', pe.Segments[3].Directive)
	lit, ok := pe.Segments[3].Value.(*ast.NumberLiteral)
	require.True(t, ok)
	require.Equal(t, uint64(16), lit.Value.Uint64())
	require.Equal(t, "%", pe.Segments[4].Text)
	require.Equal(t, "Count: %d[n] of %x[16]%%", pe.String())

	res = ParseExpression("100%% done", true)
	require.True(t, res.IsConst())
	require.Equal(t, "100% done", res.ConstValue.Str())

	src := "v=%d[abc]"
	res = ParseExpression(src, true)
	pe = res.AST.(*ast.PrintfExpression)
	sp := pe.Segments[1].Value.Span()
	require.Equal(t, "abc", src[sp.Start:sp.End])

	res = ParseExpression("v=%d[a +]", true)
	require.True(t, res.HasErrors())
	require.Equal(t, 8, res.Diagnostics[0].Span.Start)
}
