package types

import "strings"

// scalarTypeNames maps the type spellings used by component-description
// documents to scalar types.
var scalarTypeNames = map[string]Scalar{
	"int8_t":   I8,
	"int16_t":  I16,
	"int32_t":  I32,
	"int64_t":  I64,
	"uint8_t":  U8,
	"uint16_t": U16,
	"uint32_t": U32,
	"uint64_t": U64,

	"int8":   I8,
	"int16":  I16,
	"int32":  I32,
	"int64":  I64,
	"uint8":  U8,
	"uint16": U16,
	"uint32": U32,
	"uint64": U64,

	"char":               I8,
	"signed char":        I8,
	"unsigned char":      U8,
	"short":              I16,
	"unsigned short":     U16,
	"int":                I32,
	"unsigned":           U32,
	"unsigned int":       U32,
	"long":               I32,
	"unsigned long":      U32,
	"long long":          I64,
	"unsigned long long": U64,
	"bool":               U8,

	"float":   F32,
	"double":  F64,
	"float32": F32,
	"float64": F64,
}

// LookupScalar returns the scalar type spelled name. Matching ignores case
// and surrounding space.
func LookupScalar(name string) (Scalar, bool) {
	s, ok := scalarTypeNames[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// ScalarTypeNames returns every recognized scalar type spelling.
func ScalarTypeNames() []string {
	names := make([]string, 0, len(scalarTypeNames))
	for n := range scalarTypeNames {
		names = append(names, n)
	}
	return names
}

// IsScalarTypeName reports whether name spells a scalar type.
func IsScalarTypeName(name string) bool {
	_, ok := LookupScalar(name)
	return ok
}
