package types

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/scvdview/scvd/token"
)

// intType is the signedness and width integer arithmetic is carried out in.
type intType struct {
	bits   int
	signed bool
}

// promote widens anything narrower than int to int, as C does.
func promote(v Value) intType {
	t := intType{bits: v.bits, signed: v.kind == Int}
	if t.bits < 32 {
		t = intType{bits: 32, signed: true}
	}
	return t
}

// balance applies the usual arithmetic conversions to two promoted types.
func balance(a, b intType) intType {
	switch {
	case a.signed == b.signed:
		if b.bits > a.bits {
			return b
		}
		return a
	case !a.signed && a.bits >= b.bits:
		return a
	case !b.signed && b.bits >= a.bits:
		return b
	case a.signed && a.bits > b.bits:
		return a
	case b.signed && b.bits > a.bits:
		return b
	}
	return intType{bits: max(a.bits, b.bits), signed: false}
}

func (t intType) make(raw uint64) Value {
	if t.signed {
		return NewInt(int64(raw), t.bits)
	}
	return NewUint(raw, t.bits)
}

// opFunc applies a binary operator to two operands already known to be in
// the same domain. ok is false for evaluation failures such as division by
// zero.
type opFunc func(a, b Value) (Value, bool)

// domain selects the operator table for an operand pair.
type domain int

const (
	domainInt domain = iota
	domainFloat
	domainWide
	domainString
	domainBytes
)

type opKey struct {
	Operator token.TokenType
	Domain   domain
}

var defaultOps = map[opKey]opFunc{}

func register(d domain, fn opFunc, ops ...token.TokenType) {
	for _, op := range ops {
		defaultOps[opKey{Operator: op, Domain: d}] = fn
	}
}

func init() {
	for _, op := range []token.TokenType{
		token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
		token.AND, token.OR, token.XOR, token.SHL, token.SHR,
		token.EQL, token.NEQ, token.LSS, token.GTR, token.LEQ, token.GEQ,
	} {
		op := op
		register(domainInt, func(a, b Value) (Value, bool) { return intBinary(op, a, b) }, op)
		register(domainWide, func(a, b Value) (Value, bool) { return wideBinary(op, a, b) }, op)
	}
	for _, op := range []token.TokenType{
		token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
		token.EQL, token.NEQ, token.LSS, token.GTR, token.LEQ, token.GEQ,
	} {
		op := op
		register(domainFloat, func(a, b Value) (Value, bool) { return floatBinary(op, a, b) }, op)
	}
	// bitwise operators on floats work on the 32-bit integer view
	register(domainFloat, func(a, b Value) (Value, bool) {
		return intBinary(token.AND, NewUint(a.Uint64(), 32), NewUint(b.Uint64(), 32))
	}, token.AND)
	register(domainFloat, func(a, b Value) (Value, bool) {
		return intBinary(token.OR, NewUint(a.Uint64(), 32), NewUint(b.Uint64(), 32))
	}, token.OR)
	register(domainFloat, func(a, b Value) (Value, bool) {
		return intBinary(token.XOR, NewUint(a.Uint64(), 32), NewUint(b.Uint64(), 32))
	}, token.XOR)
	register(domainFloat, func(a, b Value) (Value, bool) {
		return intBinary(token.SHL, NewUint(a.Uint64(), 32), NewUint(b.Uint64(), 32))
	}, token.SHL)
	register(domainFloat, func(a, b Value) (Value, bool) {
		return intBinary(token.SHR, NewUint(a.Uint64(), 32), NewUint(b.Uint64(), 32))
	}, token.SHR)

	register(domainString, func(a, b Value) (Value, bool) {
		return NewString(a.String() + b.String()), true
	}, token.ADD)
	register(domainString, func(a, b Value) (Value, bool) {
		if a.kind != String || b.kind != String {
			return Absent, false
		}
		return Bool(a.s == b.s), true
	}, token.EQL)
	register(domainString, func(a, b Value) (Value, bool) {
		if a.kind != String || b.kind != String {
			return Absent, false
		}
		return Bool(a.s != b.s), true
	}, token.NEQ)
	register(domainBytes, func(a, b Value) (Value, bool) {
		return Bool(a.Equal(b)), true
	}, token.EQL)
	register(domainBytes, func(a, b Value) (Value, bool) {
		return Bool(!a.Equal(b)), true
	}, token.NEQ)
}

func domainOf(a, b Value) (domain, bool) {
	switch {
	case !a.IsValid() || !b.IsValid():
		return 0, false
	case a.kind == String || b.kind == String:
		return domainString, true
	case a.kind == Bytes || b.kind == Bytes:
		if a.kind != b.kind {
			return 0, false
		}
		return domainBytes, true
	case a.kind == Wide || b.kind == Wide:
		// no implicit widening between the wide and the regular domain
		if a.kind != b.kind {
			return 0, false
		}
		return domainWide, true
	case a.kind == Float || b.kind == Float:
		return domainFloat, true
	}
	return domainInt, true
}

// Binary applies a binary operator. The second result is false when the
// operation has no value: mismatched domains, unsupported operand kinds or
// division by zero.
func Binary(op token.TokenType, a, b Value) (Value, bool) {
	if op == token.LAND || op == token.LOR {
		ta, ok1 := a.Truthy()
		tb, ok2 := b.Truthy()
		if !ok1 || !ok2 {
			return Absent, false
		}
		if op == token.LAND {
			return Bool(ta && tb), true
		}
		return Bool(ta || tb), true
	}

	d, ok := domainOf(a, b)
	if !ok {
		return Absent, false
	}
	fn, ok := defaultOps[opKey{Operator: op, Domain: d}]
	if !ok {
		return Absent, false
	}
	return fn(a, b)
}

// Unary applies a prefix operator.
func Unary(op token.TokenType, v Value) (Value, bool) {
	if !v.IsValid() {
		return Absent, false
	}
	if op == token.LNOT {
		t, _ := v.Truthy()
		return Bool(!t), true
	}

	switch v.kind {
	case Int, Uint:
		t := promote(v)
		switch op {
		case token.ADD:
			return t.make(v.raw), true
		case token.SUB:
			return t.make(-v.raw), true
		case token.NOT:
			return NewUint(uint64(^uint32(v.raw)), 32), true
		}
	case Float:
		switch op {
		case token.ADD:
			return v, true
		case token.SUB:
			return NewFloat(-v.f, v.bits), true
		case token.NOT:
			return NewUint(uint64(^uint32(v.Uint64())), 32), true
		}
	case Wide:
		switch op {
		case token.ADD:
			return v, true
		case token.SUB:
			return NewWide(new(uint256.Int).Neg(&v.wide), true), true
		case token.NOT:
			z := new(uint256.Int).Not(&v.wide)
			return NewWide(z.And(z, wideMask64), false), true
		}
	}
	return Absent, false
}

func intBinary(op token.TokenType, a, b Value) (Value, bool) {
	switch op {
	case token.SHL:
		return NewUint(uint64(uint32(a.raw)<<(uint32(b.raw)&31)), 32), true
	case token.SHR:
		return NewUint(uint64(uint32(a.raw)>>(uint32(b.raw)&31)), 32), true
	}

	t := balance(promote(a), promote(b))
	x, y := t.make(a.raw), t.make(b.raw)
	xs, ys := int64(x.raw), int64(y.raw)
	xu, yu := clamp(x.raw, t.bits), clamp(y.raw, t.bits)

	switch op {
	case token.ADD:
		return t.make(xu + yu), true
	case token.SUB:
		return t.make(xu - yu), true
	case token.MUL:
		return t.make(xu * yu), true
	case token.QUO:
		if yu == 0 {
			return Absent, false
		}
		if t.signed {
			return t.make(uint64(xs / ys)), true
		}
		return t.make(xu / yu), true
	case token.REM:
		if yu == 0 {
			return Absent, false
		}
		if t.signed {
			return t.make(uint64(xs % ys)), true
		}
		return t.make(xu % yu), true
	case token.AND:
		return t.make(xu & yu), true
	case token.OR:
		return t.make(xu | yu), true
	case token.XOR:
		return t.make(xu ^ yu), true
	}

	var less, equal bool
	if t.signed {
		less, equal = xs < ys, xs == ys
	} else {
		less, equal = xu < yu, xu == yu
	}
	return compare(op, less, equal)
}

func floatBinary(op token.TokenType, a, b Value) (Value, bool) {
	x, y := a.Float64(), b.Float64()
	bits := 64
	if a.kind == Float && b.kind == Float && a.bits == 32 && b.bits == 32 {
		bits = 32
	}
	switch op {
	case token.ADD:
		return NewFloat(x+y, bits), true
	case token.SUB:
		return NewFloat(x-y, bits), true
	case token.MUL:
		return NewFloat(x*y, bits), true
	case token.QUO:
		if y == 0 {
			return Absent, false
		}
		return NewFloat(x/y, bits), true
	case token.REM:
		if y == 0 {
			return Absent, false
		}
		return NewFloat(math.Mod(x, y), bits), true
	}
	return compare(op, x < y, x == y)
}

// wideBinary computes in the extended domain. Arithmetic is not truncated;
// shifts keep the 64-bit view.
func wideBinary(op token.TokenType, a, b Value) (Value, bool) {
	x, y := &a.wide, &b.wide
	signed := a.signed && b.signed
	z := new(uint256.Int)
	switch op {
	case token.ADD:
		z.Add(x, y)
	case token.SUB:
		z.Sub(x, y)
	case token.MUL:
		z.Mul(x, y)
	case token.QUO:
		if y.IsZero() {
			return Absent, false
		}
		if signed {
			z.SDiv(x, y)
		} else {
			z.Div(x, y)
		}
	case token.REM:
		if y.IsZero() {
			return Absent, false
		}
		if signed {
			z.SMod(x, y)
		} else {
			z.Mod(x, y)
		}
	case token.AND:
		z.And(x, y)
	case token.OR:
		z.Or(x, y)
	case token.XOR:
		z.Xor(x, y)
	case token.SHL:
		z.Lsh(x, uint(y.Uint64()&63))
		z.And(z, wideMask64)
	case token.SHR:
		z.And(x, wideMask64)
		z.Rsh(z, uint(y.Uint64()&63))
	default:
		if signed {
			return compare(op, x.Slt(y), x.Eq(y))
		}
		return compare(op, x.Lt(y), x.Eq(y))
	}
	return NewWide(z, signed), true
}

func compare(op token.TokenType, less, equal bool) (Value, bool) {
	switch op {
	case token.EQL:
		return Bool(equal), true
	case token.NEQ:
		return Bool(!equal), true
	case token.LSS:
		return Bool(less), true
	case token.LEQ:
		return Bool(less || equal), true
	case token.GTR:
		return Bool(!less && !equal), true
	case token.GEQ:
		return Bool(!less), true
	}
	return Absent, false
}
