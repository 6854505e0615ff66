package types

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/holiman/uint256"
)

type Kind int

const (
	Invalid Kind = iota // absent: the expression has no value
	Int                 // signed integer of Bits width
	Uint                // unsigned integer of Bits width
	Float               // 32 or 64 bit float
	Wide                // 64-bit-class integer kept in the extended domain
	String
	Bytes
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case Wide:
		return "wide"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Value is the tagged result of evaluating an expression. The zero Value is
// invalid and means "no value".
type Value struct {
	kind   Kind
	bits   int
	raw    uint64 // Int/Uint, clamped to bits and sign extended for Int
	f      float64
	wide   uint256.Int
	signed bool // Wide only
	s      string
	b      []byte
}

// Absent is the invalid value.
var Absent = Value{}

func NewInt(v int64, bits int) Value {
	return Value{kind: Int, bits: bits, raw: signExtend(clamp(uint64(v), bits), bits)}
}

func NewUint(v uint64, bits int) Value {
	return Value{kind: Uint, bits: bits, raw: clamp(v, bits)}
}

func NewFloat(f float64, bits int) Value {
	if bits == 32 {
		f = float64(float32(f))
	}
	return Value{kind: Float, bits: bits, f: f}
}

// NewWide copies w into a wide value.
func NewWide(w *uint256.Int, signed bool) Value {
	v := Value{kind: Wide, bits: 64, signed: signed}
	v.wide.Set(w)
	return v
}

func WideFromUint64(u uint64) Value {
	return NewWide(uint256.NewInt(u), false)
}

func WideFromInt64(i int64) Value {
	w := uint256.NewInt(uint64(i))
	if i < 0 {
		w.Neg(uint256.NewInt(uint64(-i)))
	}
	return NewWide(w, true)
}

func NewString(s string) Value {
	return Value{kind: String, s: s}
}

func NewBytes(b []byte) Value {
	return Value{kind: Bytes, b: append([]byte(nil), b...)}
}

var (
	valueTrue  = NewInt(1, 32)
	valueFalse = NewInt(0, 32)
)

// Bool returns the normalized boolean 1 or 0.
func Bool(b bool) Value {
	if b {
		return valueTrue
	}
	return valueFalse
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) Bits() int      { return v.bits }
func (v Value) IsValid() bool  { return v.kind != Invalid }
func (v Value) IsString() bool { return v.kind == String }
func (v Value) IsWide() bool   { return v.kind == Wide }

// IsInteger reports whether v is a regular-domain integer.
func (v Value) IsInteger() bool {
	return v.kind == Int || v.kind == Uint
}

// IsNumeric reports whether v is in the regular numeric domain.
func (v Value) IsNumeric() bool {
	return v.kind == Int || v.kind == Uint || v.kind == Float
}

// Signed reports whether integer arithmetic on v is signed.
func (v Value) Signed() bool {
	switch v.kind {
	case Int:
		return true
	case Wide:
		return v.signed
	}
	return false
}

// Int64 returns v as a signed integer. Floats truncate toward zero.
func (v Value) Int64() int64 {
	switch v.kind {
	case Int, Uint:
		return int64(v.raw)
	case Float:
		return int64(v.f)
	case Wide:
		return int64(v.wide.Uint64())
	}
	return 0
}

// Uint64 returns the bits of v clamped to its width.
func (v Value) Uint64() uint64 {
	switch v.kind {
	case Int, Uint:
		return clamp(v.raw, v.bits)
	case Float:
		if v.f < 0 {
			return uint64(int64(v.f))
		}
		return uint64(v.f)
	case Wide:
		return v.wide.Uint64()
	}
	return 0
}

// Float64 converts a regular-domain number to float64.
func (v Value) Float64() float64 {
	switch v.kind {
	case Int:
		return float64(int64(v.raw))
	case Uint:
		return float64(v.raw)
	case Float:
		return v.f
	}
	return math.NaN()
}

// Number returns v in the regular numeric domain. Wide values are refused
// rather than truncated, so no precision is lost silently.
func (v Value) Number() (float64, bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	return v.Float64(), true
}

// Wide returns a copy of the extended-domain integer.
func (v Value) Wide() *uint256.Int {
	return new(uint256.Int).Set(&v.wide)
}

func (v Value) Str() string   { return v.s }
func (v Value) Raw() []byte   { return v.b }
func (v Value) Scalar() Scalar {
	switch v.kind {
	case Int:
		return Scalar{Kind: IntKind, Bits: v.bits}
	case Uint:
		return Scalar{Kind: UintKind, Bits: v.bits}
	case Float:
		return Scalar{Kind: FloatKind, Bits: v.bits}
	case Wide:
		if v.signed {
			return Scalar{Kind: IntKind, Bits: 64}
		}
		return Scalar{Kind: UintKind, Bits: 64}
	}
	return Scalar{}
}

// Truthy reports the C truth value of v. The second result is false for an
// invalid value.
func (v Value) Truthy() (bool, bool) {
	switch v.kind {
	case Int, Uint:
		return v.raw != 0, true
	case Float:
		return v.f != 0, true
	case Wide:
		return !v.wide.IsZero(), true
	case String:
		return v.s != "", true
	case Bytes:
		return len(v.b) > 0, true
	}
	return false, false
}

// Equal reports whether two values have the same kind, width and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Int, Uint:
		return v.bits == o.bits && v.raw == o.raw
	case Float:
		return v.f == o.f
	case Wide:
		return v.signed == o.signed && v.wide.Eq(&o.wide)
	case String:
		return v.s == o.s
	case Bytes:
		return string(v.b) == string(o.b)
	}
	return true
}

// String renders v for display and for string concatenation.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(int64(v.raw), 10)
	case Uint:
		return strconv.FormatUint(v.raw, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Wide:
		if v.signed && v.wide.Sign() < 0 {
			return "-" + new(uint256.Int).Neg(&v.wide).Dec()
		}
		return v.wide.Dec()
	case String:
		return v.s
	case Bytes:
		return hex.EncodeToString(v.b)
	}
	return "<absent>"
}

// Dump renders v with its type, for diagnostics and tests.
func (v Value) Dump() string {
	switch v.kind {
	case Int, Uint, Float:
		return fmt.Sprintf("(%s)%s", v.Scalar(), v)
	case Wide:
		return fmt.Sprintf("(wide %s)%s", v.Scalar(), v)
	case String:
		return Quote(v.s)
	case Bytes:
		return "bytes:" + v.String()
	}
	return v.String()
}

func Quote(s string) string {
	return strconv.Quote(s)
}

func clamp(val uint64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return val
	}
	return val & (uint64(1)<<uint(bits) - 1)
}

func signExtend(val uint64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return val
	}
	if val&(uint64(1)<<uint(bits-1)) != 0 {
		return val | ^(uint64(1)<<uint(bits) - 1)
	}
	return val
}
