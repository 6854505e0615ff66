// Package model is the symbol tree a view is described with: root symbols
// at target addresses, struct members at byte offsets, fixed arrays and
// lists loaded from target memory.
package model

import (
	"fmt"
	"maps"
	"slices"

	"github.com/scvdview/scvd/types"
)

type Kind int

const (
	ScalarKind Kind = iota
	StructKind
	ArrayKind
	// ListKind elements are read from the target at run time, either Len
	// consecutive elements or by following the Next member.
	ListKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case StructKind:
		return "struct"
	case ArrayKind:
		return "array"
	case ListKind:
		return "list"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Symbol struct {
	Ident  string
	Kind   Kind
	Scalar types.Scalar
	// Address is the target address of a root symbol.
	Address uint64
	// Offset is the byte offset within the parent.
	Offset  int
	Size    int
	Members []*Symbol
	Elem    *Symbol
	Len     int
	// Next names the member of Elem holding the address of the next list
	// element.
	Next string
	// Limit bounds the number of list elements read. Zero means no bound
	// other than the loader's own.
	Limit int
	// Enum names the values of a scalar.
	Enum map[int64]string
}

func (s *Symbol) Name() string {
	return s.Ident
}

func (s *Symbol) String() string {
	return s.Ident
}

// Member returns the direct member called name.
func (s *Symbol) Member(name string) (*Symbol, bool) {
	for _, m := range s.Members {
		if m.Ident == name {
			return m, true
		}
	}
	return nil, false
}

// Stride is the byte distance between consecutive elements.
func (s *Symbol) Stride() int {
	if s.Elem == nil {
		return 0
	}
	return s.Elem.Size
}

// EnumName returns the enumerator naming v.
func (s *Symbol) EnumName(v int64) (string, bool) {
	name, ok := s.Enum[v]
	return name, ok
}

func (s *Symbol) IsScalar() bool {
	return s.Kind == ScalarKind
}

// Layout fills in missing sizes bottom-up.
func Layout(s *Symbol) {
	if s.Elem != nil {
		Layout(s.Elem)
	}
	for _, m := range s.Members {
		Layout(m)
	}
	if s.Size != 0 {
		return
	}
	switch s.Kind {
	case ScalarKind:
		s.Size = s.Scalar.Size()
	case StructKind:
		for _, m := range s.Members {
			s.Size = max(s.Size, m.Offset+m.Size)
		}
	case ArrayKind:
		s.Size = s.Len * s.Stride()
	case ListKind:
		s.Size = s.Stride()
	}
}

type ScopeKind int

const (
	SymbolScope ScopeKind = iota
	TypeScope
)

type Scope[T any] struct {
	Elems     map[string]T
	ScopeKind ScopeKind
}

func NewScope[T any](sk ScopeKind) Scope[T] {
	return Scope[T]{
		Elems:     make(map[string]T),
		ScopeKind: sk,
	}
}

func (s Scope[T]) Put(name string, elem T) {
	s.Elems[name] = elem
}

func (s Scope[T]) Get(name string) (T, bool) {
	e, ok := s.Elems[name]
	return e, ok
}

// Names returns the scope's names in sorted order.
func (s Scope[T]) Names() []string {
	return slices.Sorted(maps.Keys(s.Elems))
}

// Model holds the root symbols and the named types colon paths refer to.
type Model struct {
	Symbols Scope[*Symbol]
	Types   Scope[*Symbol]
}

func New() *Model {
	return &Model{
		Symbols: NewScope[*Symbol](SymbolScope),
		Types:   NewScope[*Symbol](TypeScope),
	}
}

func (m *Model) AddSymbol(s *Symbol) {
	Layout(s)
	m.Symbols.Put(s.Ident, s)
}

func (m *Model) AddType(t *Symbol) {
	Layout(t)
	m.Types.Put(t.Ident, t)
}

func (m *Model) Symbol(name string) (*Symbol, bool) {
	return m.Symbols.Get(name)
}

func (m *Model) Type(name string) (*Symbol, bool) {
	return m.Types.Get(name)
}

// SymbolAt returns the root symbol whose storage contains addr.
func (m *Model) SymbolAt(addr uint64) (*Symbol, bool) {
	for _, name := range m.Symbols.Names() {
		s := m.Symbols.Elems[name]
		if addr >= s.Address && addr < s.Address+uint64(s.Size) {
			return s, true
		}
	}
	return nil, false
}
