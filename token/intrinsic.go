package token

import "strings"

// Intrinsic describes a built-in evaluated by the evaluator itself rather
// than by symbol lookup.
type Intrinsic struct {
	Name    string
	MinArgs int
	// Bare intrinsics may be written without an argument list.
	Bare bool
	// Member intrinsics are written as pseudo-members: a._count, a[i]._addr.
	Member bool
}

const (
	CalcMemUsed  = "__CalcMemUsed"
	FindSymbol   = "__FindSymbol"
	GetRegVal    = "__GetRegVal"
	OffsetOf     = "__Offset_of"
	SizeOf       = "__size_of"
	SymbolExists = "__Symbol_exists"
	Running      = "__Running"
	Count        = "_count"
	Addr         = "_addr"
)

var intrinsics = map[string]Intrinsic{
	CalcMemUsed:  {Name: CalcMemUsed, MinArgs: 4},
	FindSymbol:   {Name: FindSymbol, MinArgs: 1},
	GetRegVal:    {Name: GetRegVal, MinArgs: 1},
	OffsetOf:     {Name: OffsetOf, MinArgs: 1},
	SizeOf:       {Name: SizeOf, MinArgs: 1},
	SymbolExists: {Name: SymbolExists, MinArgs: 1},
	Running:      {Name: Running, Bare: true},
	Count:        {Name: Count, Member: true},
	Addr:         {Name: Addr, Member: true},
}

// LookupIntrinsic returns the intrinsic called name.
func LookupIntrinsic(name string) (Intrinsic, bool) {
	in, ok := intrinsics[name]
	return in, ok
}

// IsIntrinsicName reports whether name is in the reserved intrinsic namespace.
func IsIntrinsicName(name string) bool {
	return strings.HasPrefix(name, "__")
}
