package types

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/scvdview/scvd/token"
	"github.com/stretchr/testify/require"
)

func TestBinary(t *testing.T) {
	tests := []struct {
		name string
		op   token.TokenType
		a, b Value
		want Value
		ok   bool
	}{
		{"IntAdd", token.ADD, NewInt(2, 32), NewInt(3, 32), NewInt(5, 32), true},
		{"IntWrap", token.ADD, NewInt(math.MaxInt32, 32), NewInt(1, 32), NewInt(math.MinInt32, 32), true},
		{"PromoteChar", token.ADD, NewUint(255, 8), NewUint(1, 8), NewInt(256, 32), true},
		{"UnsignedWins", token.SUB, NewUint(0, 32), NewInt(1, 32), NewUint(math.MaxUint32, 32), true},
		{"UnsignedDiv", token.QUO, NewUint(5, 32), NewUint(2, 32), NewUint(2, 32), true},
		{"SignedDivTruncates", token.QUO, NewInt(-7, 32), NewInt(2, 32), NewInt(-3, 32), true},
		{"SignedRem", token.REM, NewInt(-7, 32), NewInt(2, 32), NewInt(-1, 32), true},
		{"DivByZero", token.QUO, NewInt(5, 32), NewInt(0, 32), Absent, false},
		{"RemByZero", token.REM, NewUint(5, 32), NewUint(0, 32), Absent, false},
		{"FloatDiv", token.QUO, NewFloat(5.5, 64), NewFloat(2.5, 64), NewFloat(2.2, 64), true},
		{"FloatDivByZero", token.QUO, NewFloat(1, 64), NewFloat(0, 64), Absent, false},
		{"MixedFloat", token.MUL, NewInt(3, 32), NewFloat(0.5, 64), NewFloat(1.5, 64), true},
		{"ShiftIsUnsigned32", token.SHL, NewInt(1, 32), NewInt(31, 32), NewUint(1 << 31, 32), true},
		{"ShiftRight", token.SHR, NewInt(-1, 32), NewInt(28, 32), NewUint(15, 32), true},
		{"BitAnd", token.AND, NewUint(0xF0, 8), NewUint(0x3C, 8), NewInt(0x30, 32), true},
		{"CompareSigned", token.LSS, NewInt(-1, 32), NewInt(0, 32), NewInt(1, 32), true},
		{"CompareUnsigned", token.LSS, NewInt(-1, 32), NewUint(0, 32), NewInt(0, 32), true},
		{"GreaterEqual", token.GEQ, NewInt(3, 32), NewInt(3, 32), NewInt(1, 32), true},
		{"Concat", token.ADD, NewString("x"), NewInt(5, 32), NewString("x5"), true},
		{"ConcatLeftNumber", token.ADD, NewInt(5, 32), NewString("x"), NewString("5x"), true},
		{"StringEqual", token.EQL, NewString("a"), NewString("a"), NewInt(1, 32), true},
		{"StringMinus", token.SUB, NewString("a"), NewInt(1, 32), Absent, false},
		{"WideAdd", token.ADD, WideFromUint64(math.MaxUint64), WideFromUint64(1), NewWide(new(uint256.Int).Lsh(uint256.NewInt(1), 64), false), true},
		{"WideSignedDiv", token.QUO, WideFromInt64(-9), WideFromInt64(2), WideFromInt64(-4), true},
		{"WideShiftKeeps64", token.SHL, WideFromUint64(1 << 63), WideFromUint64(1), WideFromUint64(0), true},
		{"WideCompare", token.GTR, WideFromUint64(1 << 40), WideFromUint64(1), NewInt(1, 32), true},
		{"WideMixed", token.ADD, WideFromUint64(1), NewInt(1, 32), Absent, false},
		{"WideMixedCompare", token.EQL, WideFromUint64(1), NewInt(1, 32), Absent, false},
		{"LogicalAnd", token.LAND, NewInt(1, 32), NewInt(0, 32), NewInt(0, 32), true},
		{"LogicalOrWide", token.LOR, WideFromUint64(0), NewInt(7, 32), NewInt(1, 32), true},
		{"AbsentOperand", token.ADD, Absent, NewInt(1, 32), Absent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Binary(tt.op, tt.a, tt.b)
			require.Equal(t, tt.ok, ok)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want.Dump(), got.Dump())
		})
	}
}

func TestUnary(t *testing.T) {
	tests := []struct {
		name string
		op   token.TokenType
		v    Value
		want Value
	}{
		{"NotOne", token.NOT, NewInt(1, 32), NewUint(4294967294, 32)},
		{"NotByte", token.NOT, NewUint(0, 8), NewUint(math.MaxUint32, 32)},
		{"Negate", token.SUB, NewInt(5, 32), NewInt(-5, 32)},
		{"NegateUnsigned", token.SUB, NewUint(1, 32), NewUint(math.MaxUint32, 32)},
		{"NegateFloat", token.SUB, NewFloat(1.5, 64), NewFloat(-1.5, 64)},
		{"LogicalNot", token.LNOT, NewInt(0, 32), NewInt(1, 32)},
		{"LogicalNotString", token.LNOT, NewString("x"), NewInt(0, 32)},
		{"WideNot", token.NOT, WideFromUint64(0), WideFromUint64(math.MaxUint64)},
		{"WideNegate", token.SUB, WideFromInt64(3), WideFromInt64(-3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Unary(tt.op, tt.v)
			require.True(t, ok)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want.Dump(), got.Dump())
		})
	}

	_, ok := Unary(token.SUB, NewString("x"))
	require.False(t, ok)
	_, ok = Unary(token.NOT, Absent)
	require.False(t, ok)
}

func TestParseIntLiteral(t *testing.T) {
	tests := []struct {
		lit  string
		want Value
	}{
		{"0", NewInt(0, 32)},
		{"42", NewInt(42, 32)},
		{"0x7FFFFFFF", NewInt(math.MaxInt32, 32)},
		{"0x80000000", NewUint(0x80000000, 32)},
		{"10u", NewUint(10, 32)},
		{"017", NewInt(15, 32)},
		{"0b101", NewInt(5, 32)},
		{"0x100000000", WideFromInt64(1 << 32)},
		{"0xFFFFFFFFFFFFFFFF", WideFromUint64(math.MaxUint64)},
		{"5ll", WideFromInt64(5)},
		{"5ull", WideFromUint64(5)},
		{"7L", NewInt(7, 32)},
	}
	for _, tt := range tests {
		t.Run(tt.lit, func(t *testing.T) {
			got, err := ParseIntLiteral(tt.lit)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want.Dump(), got.Dump())
		})
	}

	for _, bad := range []string{"0x", "09", "12ab", "0x1FFFFFFFFFFFFFFFF"} {
		_, err := ParseIntLiteral(bad)
		require.Error(t, err, bad)
	}
}

func TestOtherLiterals(t *testing.T) {
	v, err := ParseFloatLiteral("1.5f")
	require.NoError(t, err)
	require.Equal(t, 1.5, v.Float64())

	v, err = ParseCharLiteral(`'\n'`)
	require.NoError(t, err)
	require.Equal(t, int64('\n'), v.Int64())

	_, err = ParseCharLiteral(`'ab'`)
	require.Error(t, err)

	s, err := UnquoteString(`"a\tb"`)
	require.NoError(t, err)
	require.Equal(t, "a\tb", s)
}

func TestDecodeEncode(t *testing.T) {
	tests := []struct {
		name   string
		bytes  []byte
		scalar Scalar
		want   Value
	}{
		{"U8", []byte{0xFF}, U8, NewUint(255, 8)},
		{"I8", []byte{0xFF}, I8, NewInt(-1, 8)},
		{"U16", []byte{0x34, 0x12}, U16, NewUint(0x1234, 16)},
		{"I32", []byte{0xFE, 0xFF, 0xFF, 0xFF}, I32, NewInt(-2, 32)},
		{"U64IsWide", []byte{1, 0, 0, 0, 0, 0, 0, 0x80}, U64, WideFromUint64(0x8000000000000001)},
		{"I64IsWide", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, I64, WideFromInt64(-1)},
		{"F32", []byte{0, 0, 0xC0, 0x3F}, F32, NewFloat(1.5, 32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(tt.bytes, tt.scalar)
			require.True(t, ok)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want.Dump(), got.Dump())

			enc, ok := Encode(got, tt.scalar.Size())
			require.True(t, ok)
			require.Equal(t, tt.bytes, enc)
		})
	}

	_, ok := Decode([]byte{1}, U32)
	require.False(t, ok, "short buffer")

	enc, ok := Encode(NewString("abcdef"), 4)
	require.True(t, ok)
	require.Equal(t, []byte("abcd"), enc)

	enc, ok = Encode(NewBytes([]byte{1, 2}), 4)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 0, 0}, enc)
}

func TestConvert(t *testing.T) {
	v, ok := Convert(NewInt(-1, 32), U8)
	require.True(t, ok)
	require.True(t, NewUint(255, 8).Equal(v))

	v, ok = Convert(NewInt(-1, 32), I64)
	require.True(t, ok)
	require.True(t, WideFromInt64(-1).Equal(v))

	v, ok = Convert(NewFloat(3.9, 64), I32)
	require.True(t, ok)
	require.True(t, NewInt(3, 32).Equal(v))

	_, ok = Convert(NewString("x"), U32)
	require.False(t, ok)
}

func TestValueNumber(t *testing.T) {
	n, ok := NewUint(7, 16).Number()
	require.True(t, ok)
	require.Equal(t, 7.0, n)

	_, ok = WideFromUint64(7).Number()
	require.False(t, ok, "wide values do not enter the regular domain")

	require.Equal(t, "-5", WideFromInt64(-5).String())
	require.Equal(t, "<absent>", Absent.String())
}

func TestLookupScalar(t *testing.T) {
	s, ok := LookupScalar(" Uint16_t ")
	require.True(t, ok)
	require.Equal(t, U16, s)

	s, ok = LookupScalar("unsigned int")
	require.True(t, ok)
	require.Equal(t, U32, s)

	_, ok = LookupScalar("struct foo")
	require.False(t, ok)
}
