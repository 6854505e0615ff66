package model

import (
	"testing"

	"github.com/scvdview/scvd/types"
	"github.com/stretchr/testify/require"
)

func scalar(name string, t types.Scalar, offset int) *Symbol {
	return &Symbol{Ident: name, Kind: ScalarKind, Scalar: t, Offset: offset}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name string
		sym  *Symbol
		want int
	}{
		{"scalar", scalar("x", types.U16, 0), 2},
		{"struct", &Symbol{Kind: StructKind, Members: []*Symbol{
			scalar("a", types.U8, 0),
			scalar("b", types.U32, 4),
		}}, 8},
		{"array", &Symbol{Kind: ArrayKind, Len: 3, Elem: scalar("e", types.U32, 0)}, 12},
		{"list", &Symbol{Kind: ListKind, Elem: scalar("e", types.U64, 0)}, 8},
		{"explicit", &Symbol{Kind: StructKind, Size: 32, Members: []*Symbol{scalar("a", types.U8, 0)}}, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Layout(tt.sym)
			require.Equal(t, tt.want, tt.sym.Size)
		})
	}
}

func TestModel(t *testing.T) {
	m := New()
	m.AddSymbol(&Symbol{Ident: "b", Kind: ArrayKind, Address: 0x100, Len: 4, Elem: scalar("b[]", types.U8, 0)})
	m.AddSymbol(&Symbol{Ident: "a", Kind: StructKind, Address: 0x200, Members: []*Symbol{scalar("x", types.U32, 0)}})
	m.AddType(&Symbol{Ident: "pair", Kind: StructKind, Members: []*Symbol{
		scalar("lo", types.U16, 0),
		scalar("hi", types.U16, 2),
	}})

	require.Equal(t, []string{"a", "b"}, m.Symbols.Names())

	a, ok := m.Symbol("a")
	require.True(t, ok)
	x, ok := a.Member("x")
	require.True(t, ok)
	require.True(t, x.IsScalar())
	_, ok = a.Member("y")
	require.False(t, ok)

	pair, ok := m.Type("pair")
	require.True(t, ok)
	require.Equal(t, 4, pair.Size)
	_, ok = m.Symbol("pair")
	require.False(t, ok)

	s, ok := m.SymbolAt(0x103)
	require.True(t, ok)
	require.Equal(t, "b", s.Name())
	_, ok = m.SymbolAt(0x104)
	require.False(t, ok)
	_, ok = m.SymbolAt(0x203)
	require.True(t, ok)
}
