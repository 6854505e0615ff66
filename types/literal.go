package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseIntLiteral types a C integer literal: int32 when it fits, uint32 when
// it fits unsigned or carries a 'u' suffix, otherwise a wide value.
func ParseIntLiteral(lit string) (Value, error) {
	digits := strings.TrimRight(lit, "uUlL")
	suffix := strings.ToLower(lit[len(digits):])
	unsigned := strings.Contains(suffix, "u")
	long := strings.Count(suffix, "l") >= 2

	base := 10
	switch {
	case strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X"):
		base, digits = 16, digits[2:]
	case strings.HasPrefix(digits, "0b") || strings.HasPrefix(digits, "0B"):
		base, digits = 2, digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		base, digits = 8, digits[1:]
	}
	if digits == "" {
		return Absent, fmt.Errorf("invalid integer literal %q", lit)
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Absent, fmt.Errorf("invalid integer literal %q", lit)
	}

	switch {
	case long && unsigned:
		return WideFromUint64(u), nil
	case long:
		if u > math.MaxInt64 {
			return WideFromUint64(u), nil
		}
		return WideFromInt64(int64(u)), nil
	case !unsigned && u <= math.MaxInt32:
		return NewInt(int64(u), 32), nil
	case u <= math.MaxUint32:
		return NewUint(u, 32), nil
	case !unsigned && u <= math.MaxInt64:
		return WideFromInt64(int64(u)), nil
	}
	return WideFromUint64(u), nil
}

func ParseFloatLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(strings.TrimRight(lit, "fF"), 64)
	if err != nil {
		return Absent, fmt.Errorf("invalid float literal %q", lit)
	}
	return NewFloat(f, 64), nil
}

// ParseCharLiteral returns the int value of a quoted character literal.
func ParseCharLiteral(lit string) (Value, error) {
	if len(lit) < 3 || lit[0] != '\'' || lit[len(lit)-1] != '\'' {
		return Absent, fmt.Errorf("invalid character literal %s", lit)
	}
	r, _, tail, err := strconv.UnquoteChar(lit[1:len(lit)-1], '\'')
	if err != nil || tail != "" {
		return Absent, fmt.Errorf("invalid character literal %s", lit)
	}
	return NewInt(int64(r), 32), nil
}

// UnquoteString decodes a double-quoted literal with C escapes.
func UnquoteString(lit string) (string, error) {
	s, err := strconv.Unquote(lit)
	if err != nil {
		return "", fmt.Errorf("invalid string literal %s", lit)
	}
	return s, nil
}
