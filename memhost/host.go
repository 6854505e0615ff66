// Package memhost implements host.DataHost over a symbol model, a target
// and the caches in package cache.
package memhost

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/scvdview/scvd/cache"
	"github.com/scvdview/scvd/host"
	"github.com/scvdview/scvd/model"
	"github.com/scvdview/scvd/types"
)

// Target is the debugged system. Every call may be a round trip.
type Target interface {
	ReadMemory(ctx context.Context, addr uint64, n int) ([]byte, error)
	WriteMemory(ctx context.Context, addr uint64, data []byte) error
	ReadRegister(ctx context.Context, name string) (uint64, error)
	Running(ctx context.Context) (bool, error)
}

// maxNumberBytes is the widest span ReadNumber accepts.
const maxNumberBytes = 4

var ErrWideNumber = errors.New("number wider than 4 bytes")

type CachedMemoryHost struct {
	model  *model.Model
	target Target

	symbols *cache.SymbolCache
	regs    *cache.RegisterCache
	meta    *cache.MetadataCache

	log log.Logger

	mu   sync.Mutex
	errs []error
}

var _ host.DataHost = (*CachedMemoryHost)(nil)

func New(m *model.Model, t Target) *CachedMemoryHost {
	return &CachedMemoryHost{
		model:   m,
		target:  t,
		symbols: cache.NewSymbolCache(),
		regs:    cache.NewRegisterCache(),
		meta:    cache.NewMetadataCache(),
		log:     log.New("module", "memhost"),
	}
}

func (h *CachedMemoryHost) Model() *model.Model { return h.model }

// Invalidate marks everything read from the target stale. Call it whenever
// the target ran.
func (h *CachedMemoryHost) Invalidate() {
	h.symbols.InvalidateAll()
	h.regs.InvalidateAll()
	h.meta.ClearCounts()
}

// Clear drops all cached state.
func (h *CachedMemoryHost) Clear() {
	h.symbols.Clear()
	h.regs.Clear()
	h.meta.ClearAll()
}

// ReportError records err for Errors and logs it.
func (h *CachedMemoryHost) ReportError(err error) {
	h.log.Warn("Expression error", "err", err)
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

// Errors returns the errors reported since the last call.
func (h *CachedMemoryHost) Errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	errs := h.errs
	h.errs = nil
	return errs
}

func symbolOf(n host.Node) (*model.Symbol, bool) {
	s, ok := n.(*model.Symbol)
	return s, ok
}

func (h *CachedMemoryHost) ResolveSymbol(_ context.Context, name string, _ bool) (*host.RefContainer, bool) {
	s, ok := h.model.Symbol(name)
	if !ok {
		return nil, false
	}
	return host.NewRoot(s, s.Size), true
}

func (h *CachedMemoryHost) ResolveMember(_ context.Context, parent *host.RefContainer, name string) (*host.RefContainer, bool) {
	s, ok := symbolOf(parent.Current)
	if !ok {
		return nil, false
	}
	m, ok := s.Member(name)
	if !ok {
		return nil, false
	}
	return parent.Narrow(m, m.Offset, m.Size), true
}

func (h *CachedMemoryHost) ElementRef(ctx context.Context, array *host.RefContainer, index int) (*host.RefContainer, bool) {
	s, ok := symbolOf(array.Current)
	if !ok || index < 0 {
		return nil, false
	}
	switch s.Kind {
	case model.ArrayKind:
		if index >= s.Len {
			return nil, false
		}
		return array.Element(s.Elem, index, s.Stride()), true
	case model.ListKind:
		offsets, _, ok := h.elements(ctx, s)
		if !ok || index >= len(offsets) {
			return nil, false
		}
		r := array.Narrow(s.Elem, offsets[index], s.Stride())
		r.Index = index
		return r, true
	}
	return nil, false
}

func (h *CachedMemoryHost) ElementStride(_ context.Context, array *host.RefContainer) (int, bool) {
	s, ok := symbolOf(array.Current)
	if !ok || s.Elem == nil {
		return 0, false
	}
	return s.Stride(), true
}

func (h *CachedMemoryHost) MemberOffset(_ context.Context, parent *host.RefContainer, member string) (int, bool) {
	s, ok := symbolOf(parent.Current)
	if !ok {
		return 0, false
	}
	m, ok := s.Member(member)
	if !ok {
		return 0, false
	}
	return m.Offset, true
}

// ResolveColonPath resolves type:member, where member may be a dotted path.
// For a type scope the result is not backed by target memory; it only
// carries the offset and width of the member within the type.
func (h *CachedMemoryHost) ResolveColonPath(_ context.Context, scope, member string) (*host.RefContainer, bool) {
	t, ok := h.model.Type(scope)
	if !ok {
		if t, ok = h.model.Symbol(scope); !ok {
			return nil, false
		}
	}
	ref := host.NewRoot(t, t.Size)
	cur := t
	for _, name := range strings.Split(member, ".") {
		if cur.Elem != nil && cur.Kind != model.StructKind {
			cur = cur.Elem
		}
		m, ok := cur.Member(name)
		if !ok {
			return nil, false
		}
		ref = ref.Narrow(m, m.Offset, m.Size)
		cur = m
	}
	return ref, true
}

func (h *CachedMemoryHost) ByteWidth(_ context.Context, ref *host.RefContainer) (int, bool) {
	s, ok := symbolOf(ref.Current)
	if !ok || s.Size == 0 {
		return 0, false
	}
	return s.Size, true
}

func (h *CachedMemoryHost) ScalarType(_ context.Context, ref *host.RefContainer) (types.Scalar, bool) {
	s, ok := symbolOf(ref.Current)
	if !ok || !s.IsScalar() {
		return types.Scalar{}, false
	}
	return s.Scalar, true
}

func (h *CachedMemoryHost) ReadValue(ctx context.Context, ref *host.RefContainer) (types.Value, bool) {
	s, ok := symbolOf(ref.Current)
	if !ok || !s.IsScalar() {
		return types.Absent, false
	}
	b, ok := h.readBytes(ctx, ref, ref.OffsetBytes, s.Scalar.Size())
	if !ok {
		return types.Absent, false
	}
	return types.Decode(b, s.Scalar)
}

// ReadNumber reads the unsigned little-endian number a scalar reference
// covers. It refuses references wider than 4 bytes.
func (h *CachedMemoryHost) ReadNumber(ctx context.Context, ref *host.RefContainer) (uint64, error) {
	if ref.WidthBytes <= 0 || ref.WidthBytes > maxNumberBytes {
		h.log.Error("Refusing number read", "ref", ref, "width", ref.WidthBytes)
		return 0, fmt.Errorf("read %s: %w", ref, ErrWideNumber)
	}
	b, ok := h.readBytes(ctx, ref, ref.OffsetBytes, ref.WidthBytes)
	if !ok {
		return 0, fmt.Errorf("read %s: no data", ref)
	}
	return types.DecodeUint(b), nil
}

func (h *CachedMemoryHost) WriteValue(ctx context.Context, ref *host.RefContainer, v types.Value) (types.Value, bool) {
	s, ok := symbolOf(ref.Current)
	if !ok || !s.IsScalar() {
		return types.Absent, false
	}
	cv, ok := types.Convert(v, s.Scalar)
	if !ok {
		return types.Absent, false
	}
	b, ok := types.Encode(cv, s.Scalar.Size())
	if !ok {
		return types.Absent, false
	}
	addr, ok := h.address(ctx, ref)
	if !ok {
		return types.Absent, false
	}
	if err := h.target.WriteMemory(ctx, addr, b); err != nil {
		h.log.Warn("Target write failed", "addr", fmt.Sprintf("%#x", addr), "err", err)
		return types.Absent, false
	}

	anchor := ref.Anchor.(*model.Symbol)
	h.symbols.GetSymbol(anchor.Ident).Update(func(c *cache.MemoryContainer) bool {
		c.Write(ref.OffsetBytes, b, len(b))
		return false
	})
	return cv, true
}

// readBytes returns n cached bytes at offset within the anchor of ref,
// fetching the anchor from the target when its entry is stale.
func (h *CachedMemoryHost) readBytes(ctx context.Context, ref *host.RefContainer, offset, n int) ([]byte, bool) {
	anchor, ok := h.rootOf(ref)
	if !ok {
		return nil, false
	}
	entry, ok := h.load(ctx, anchor)
	if !ok {
		return nil, false
	}
	var out []byte
	entry.View(func(c *cache.MemoryContainer, _ bool) {
		out, ok = c.Peek(offset, n)
	})
	return out, ok
}

// load returns the valid cache entry of a root symbol.
func (h *CachedMemoryHost) load(ctx context.Context, anchor *model.Symbol) (*cache.SymbolEntry, bool) {
	entry := h.symbols.GetSymbol(anchor.Ident)
	if entry.Valid() {
		return entry, true
	}
	if anchor.Kind == model.ListKind {
		return entry, h.LoadArray(ctx, anchor) == nil
	}

	data, err := h.target.ReadMemory(ctx, anchor.Address, anchor.Size)
	if err != nil {
		h.log.Warn("Target read failed", "symbol", anchor.Ident, "addr", fmt.Sprintf("%#x", anchor.Address), "err", err)
		return nil, false
	}
	entry.Update(func(c *cache.MemoryContainer) bool {
		return c.Write(0, data, anchor.Size)
	})
	h.log.Trace("Symbol fetched", "symbol", anchor.Ident, "size", anchor.Size)
	return entry, true
}

// rootOf returns the anchor of ref when it is a root symbol of the model.
// Type anchors from colon paths have no target storage.
func (h *CachedMemoryHost) rootOf(ref *host.RefContainer) (*model.Symbol, bool) {
	anchor, ok := symbolOf(ref.Anchor)
	if !ok {
		return nil, false
	}
	root, ok := h.model.Symbol(anchor.Ident)
	return anchor, ok && root == anchor
}

// address is the target address a reference covers.
func (h *CachedMemoryHost) address(ctx context.Context, ref *host.RefContainer) (uint64, bool) {
	anchor, ok := h.rootOf(ref)
	if !ok {
		return 0, false
	}
	if anchor.Kind != model.ListKind {
		return anchor.Address + uint64(ref.OffsetBytes), true
	}
	offsets, bases, ok := h.elements(ctx, anchor)
	if !ok {
		return 0, false
	}
	for i := len(offsets) - 1; i >= 0; i-- {
		if ref.OffsetBytes >= offsets[i] {
			return bases[i] + uint64(ref.OffsetBytes-offsets[i]), true
		}
	}
	return 0, false
}

func addrValue(a uint64) types.Value {
	if a > math.MaxUint32 {
		return types.WideFromUint64(a)
	}
	return types.NewUint(a, 32)
}
