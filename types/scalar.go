package types

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

type ScalarKind int

const (
	UnknownKind ScalarKind = iota
	IntKind
	UintKind
	FloatKind
)

// Scalar is the type a host reports for a leaf: signedness and bit width.
type Scalar struct {
	Kind ScalarKind
	Bits int
}

var (
	I8  = Scalar{IntKind, 8}
	I16 = Scalar{IntKind, 16}
	I32 = Scalar{IntKind, 32}
	I64 = Scalar{IntKind, 64}
	U8  = Scalar{UintKind, 8}
	U16 = Scalar{UintKind, 16}
	U32 = Scalar{UintKind, 32}
	U64 = Scalar{UintKind, 64}
	F32 = Scalar{FloatKind, 32}
	F64 = Scalar{FloatKind, 64}
)

func (s Scalar) String() string {
	switch s.Kind {
	case IntKind:
		return fmt.Sprintf("int%d", s.Bits)
	case UintKind:
		return fmt.Sprintf("uint%d", s.Bits)
	case FloatKind:
		return fmt.Sprintf("float%d", s.Bits)
	}
	return "?"
}

// Size returns the width in bytes.
func (s Scalar) Size() int {
	return (s.Bits + 7) / 8
}

// IsWide reports whether values of this type live in the wide domain.
func (s Scalar) IsWide() bool {
	return s.Kind != FloatKind && s.Bits > 32
}

func (s Scalar) Valid() bool {
	switch s.Kind {
	case IntKind, UintKind:
		return s.Bits == 8 || s.Bits == 16 || s.Bits == 32 || s.Bits == 64
	case FloatKind:
		return s.Bits == 32 || s.Bits == 64
	}
	return false
}

// DecodeUint reads up to eight little-endian bytes.
func DecodeUint(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

// EncodeUint writes the low size bytes of v little-endian. Sizes above eight
// are zero filled.
func EncodeUint(v uint64, size int) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	out := make([]byte, size)
	copy(out, buf[:])
	return out
}

// Decode interprets b as a little-endian value of type s. Integers wider
// than 32 bits become Wide values.
func Decode(b []byte, s Scalar) (Value, bool) {
	if !s.Valid() || len(b) < s.Size() {
		return Absent, false
	}
	b = b[:s.Size()]
	raw := DecodeUint(b)
	switch s.Kind {
	case FloatKind:
		if s.Bits == 32 {
			return NewFloat(float64(math.Float32frombits(uint32(raw))), 32), true
		}
		return NewFloat(math.Float64frombits(raw), 64), true
	case IntKind:
		if s.IsWide() {
			return WideFromInt64(int64(raw)), true
		}
		return NewInt(int64(raw), s.Bits), true
	case UintKind:
		if s.IsWide() {
			return WideFromUint64(raw), true
		}
		return NewUint(raw, s.Bits), true
	}
	return Absent, false
}

// Encode renders v as size little-endian bytes. Strings and byte sequences
// are truncated or zero padded to size.
func Encode(v Value, size int) ([]byte, bool) {
	if size <= 0 {
		return nil, false
	}
	switch v.kind {
	case Int, Uint:
		return EncodeUint(v.raw, size), true
	case Float:
		switch size {
		case 4:
			return EncodeUint(uint64(math.Float32bits(float32(v.f))), 4), true
		case 8:
			return EncodeUint(math.Float64bits(v.f), 8), true
		}
		return EncodeUint(uint64(int64(v.f)), size), true
	case Wide:
		le := v.wide.Bytes32()
		out := make([]byte, size)
		for i := 0; i < size && i < 32; i++ {
			out[i] = le[31-i]
		}
		return out, true
	case String:
		out := make([]byte, size)
		copy(out, v.s)
		return out, true
	case Bytes:
		out := make([]byte, size)
		copy(out, v.b)
		return out, true
	}
	return nil, false
}

// Convert casts v to type s the way a store to a target field would.
func Convert(v Value, s Scalar) (Value, bool) {
	if !v.IsValid() || !s.Valid() {
		return Absent, false
	}
	switch v.kind {
	case String:
		return Absent, false
	case Bytes:
		return Decode(append(append([]byte(nil), v.b...), make([]byte, 8)...), s)
	}
	if s.Kind == FloatKind {
		if v.kind == Wide {
			if v.signed {
				return NewFloat(float64(int64(v.wide.Uint64())), s.Bits), true
			}
			return NewFloat(float64(v.wide.Uint64()), s.Bits), true
		}
		return NewFloat(v.Float64(), s.Bits), true
	}
	var raw uint64
	switch v.kind {
	case Float:
		raw = uint64(int64(v.f))
	case Wide:
		raw = v.wide.Uint64()
	default:
		raw = v.raw
	}
	if s.IsWide() {
		if s.Kind == IntKind {
			return WideFromInt64(int64(raw)), true
		}
		return WideFromUint64(raw), true
	}
	if s.Kind == IntKind {
		return NewInt(int64(raw), s.Bits), true
	}
	return NewUint(raw, s.Bits), true
}

// wideMask64 keeps the 64-bit-class view of a wide operand.
var wideMask64 = uint256.NewInt(math.MaxUint64)
