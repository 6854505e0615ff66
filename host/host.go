// Package host defines the capabilities the evaluator needs from its
// environment: symbol navigation, scalar reads and writes, type metadata,
// intrinsics and printf composition.
package host

import (
	"context"

	"github.com/scvdview/scvd/types"
)

// Node is a symbol, member or array element in the host's model. The
// evaluator never looks inside a Node; it only hands it back to the host.
type Node interface {
	Name() string
}

// RefContainer is the resolution handle threaded through an access chain.
// Anchor is the root symbol and keys the byte storage; Current is the node
// reached so far. OffsetBytes and WidthBytes locate Current within the
// anchor's bytes and are meaningful once a scalar leaf is reached.
type RefContainer struct {
	Anchor      Node
	Current     Node
	OffsetBytes int
	WidthBytes  int
	// Index is the element index when Current was reached by indexing, -1
	// otherwise.
	Index int
}

// NewRoot returns the container for a root symbol.
func NewRoot(sym Node, width int) *RefContainer {
	return &RefContainer{Anchor: sym, Current: sym, WidthBytes: width, Index: -1}
}

// Narrow returns a container for child located offset bytes into r. The
// receiver is not modified; access paths only ever narrow.
func (r *RefContainer) Narrow(child Node, offset, width int) *RefContainer {
	return &RefContainer{
		Anchor:      r.Anchor,
		Current:     child,
		OffsetBytes: r.OffsetBytes + offset,
		WidthBytes:  width,
		Index:       -1,
	}
}

// Element is Narrow for the index-th element of an array with the given stride.
func (r *RefContainer) Element(child Node, index, stride int) *RefContainer {
	c := r.Narrow(child, index*stride, stride)
	c.Index = index
	return c
}

func (r *RefContainer) String() string {
	if r == nil || r.Current == nil {
		return "<nil>"
	}
	return r.Current.Name()
}

// PrintfValue is one pre-evaluated piece of a printf expression handed to
// the host for composition. Text segments have Directive 0.
type PrintfValue struct {
	Text      string
	Directive rune
	Value     types.Value
	Ref       *RefContainer
}

// DataHost is the environment an expression is evaluated against. Every
// call may need a round trip to the target and reports failure with ok ==
// false rather than an error.
type DataHost interface {
	ResolveSymbol(ctx context.Context, name string, forWrite bool) (*RefContainer, bool)
	ResolveMember(ctx context.Context, parent *RefContainer, name string) (*RefContainer, bool)
	ElementRef(ctx context.Context, array *RefContainer, index int) (*RefContainer, bool)
	ElementStride(ctx context.Context, array *RefContainer) (int, bool)
	MemberOffset(ctx context.Context, parent *RefContainer, member string) (int, bool)
	ResolveColonPath(ctx context.Context, scope, member string) (*RefContainer, bool)

	ByteWidth(ctx context.Context, ref *RefContainer) (int, bool)
	ScalarType(ctx context.Context, ref *RefContainer) (types.Scalar, bool)
	ReadValue(ctx context.Context, ref *RefContainer) (types.Value, bool)
	// WriteValue stores v and returns the value as written, after
	// conversion to the target's type.
	WriteValue(ctx context.Context, ref *RefContainer, v types.Value) (types.Value, bool)

	CalcMemUsed(ctx context.Context, base, size, fill, magic uint64) (types.Value, bool)
	FindSymbol(ctx context.Context, name string) (types.Value, bool)
	GetRegVal(ctx context.Context, name string) (types.Value, bool)
	OffsetOf(ctx context.Context, ref *RefContainer) (types.Value, bool)
	SizeOf(ctx context.Context, ref *RefContainer) (types.Value, bool)
	SymbolExists(ctx context.Context, name string) (types.Value, bool)
	Running(ctx context.Context) (types.Value, bool)
	Count(ctx context.Context, ref *RefContainer) (types.Value, bool)
	Addr(ctx context.Context, ref *RefContainer) (types.Value, bool)

	FormatPrintf(ctx context.Context, segments []PrintfValue) (string, bool)
	ReportError(err error)
}
