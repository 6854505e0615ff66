package host

import (
	"context"

	"github.com/scvdview/scvd/types"
)

// NopHost supports nothing: every capability reports absent. Hosts embed it
// and override what they implement.
type NopHost struct{}

var _ DataHost = NopHost{}

func (NopHost) ResolveSymbol(context.Context, string, bool) (*RefContainer, bool) {
	return nil, false
}

func (NopHost) ResolveMember(context.Context, *RefContainer, string) (*RefContainer, bool) {
	return nil, false
}

func (NopHost) ElementRef(context.Context, *RefContainer, int) (*RefContainer, bool) {
	return nil, false
}

func (NopHost) ElementStride(context.Context, *RefContainer) (int, bool) {
	return 0, false
}

func (NopHost) MemberOffset(context.Context, *RefContainer, string) (int, bool) {
	return 0, false
}

func (NopHost) ResolveColonPath(context.Context, string, string) (*RefContainer, bool) {
	return nil, false
}

func (NopHost) ByteWidth(context.Context, *RefContainer) (int, bool) {
	return 0, false
}

func (NopHost) ScalarType(context.Context, *RefContainer) (types.Scalar, bool) {
	return types.Scalar{}, false
}

func (NopHost) ReadValue(context.Context, *RefContainer) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) WriteValue(context.Context, *RefContainer, types.Value) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) CalcMemUsed(context.Context, uint64, uint64, uint64, uint64) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) FindSymbol(context.Context, string) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) GetRegVal(context.Context, string) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) OffsetOf(context.Context, *RefContainer) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) SizeOf(context.Context, *RefContainer) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) SymbolExists(context.Context, string) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) Running(context.Context) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) Count(context.Context, *RefContainer) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) Addr(context.Context, *RefContainer) (types.Value, bool) {
	return types.Absent, false
}

func (NopHost) FormatPrintf(context.Context, []PrintfValue) (string, bool) {
	return "", false
}

func (NopHost) ReportError(error) {}
