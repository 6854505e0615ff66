package memhost

import (
	"context"
	"fmt"

	"github.com/scvdview/scvd/cache"
	"github.com/scvdview/scvd/host"
	"github.com/scvdview/scvd/model"
	"github.com/scvdview/scvd/types"
)

// Result layout of __CalcMemUsed.
const (
	memUsedMask     = 0xfffff
	memPercentShift = 20
	memPercentMask  = 0x1ff
	memOverflowBit  = 1 << 31
)

// CalcMemUsed scans size bytes at base for the fill pattern. The first word
// holds magic when magic is non-zero; finding anything else there sets the
// overflow bit. The result packs the used byte count in bits 0-19 and the
// used percentage in bits 20-28.
func (h *CachedMemoryHost) CalcMemUsed(ctx context.Context, base, size, fill, magic uint64) (types.Value, bool) {
	if size == 0 || size > memUsedMask {
		return types.Absent, false
	}
	data, err := h.target.ReadMemory(ctx, base, int(size))
	if err != nil {
		h.log.Warn("Memory scan failed", "base", fmt.Sprintf("%#x", base), "size", size, "err", err)
		return types.Absent, false
	}

	word := func(off int) uint32 {
		return uint32(types.DecodeUint(data[off : off+4]))
	}
	var result uint64
	start := 0
	if magic != 0 && len(data) >= 4 {
		if word(0) != uint32(magic) {
			result |= memOverflowBit
		}
		start = 4
	}
	unused := 0
	for off := start; off+4 <= len(data) && word(off) == uint32(fill); off += 4 {
		unused += 4
	}
	region := len(data) - start
	used := region - unused
	percent := 0
	if region > 0 {
		percent = used * 100 / region
	}
	result |= uint64(used)&memUsedMask | uint64(percent&memPercentMask)<<memPercentShift
	return types.NewUint(result, 32), true
}

func (h *CachedMemoryHost) symbolAddress(_ context.Context, name string) (uint64, bool) {
	s, ok := h.model.Symbol(name)
	if !ok || s.Kind == model.ListKind {
		return 0, false
	}
	return s.Address, true
}

func (h *CachedMemoryHost) FindSymbol(ctx context.Context, name string) (types.Value, bool) {
	a, ok := h.meta.GetAddress(ctx, name, h.symbolAddress)
	if !ok {
		return types.Absent, false
	}
	return addrValue(a), true
}

// GetRegVal serves registers from the register cache and fetches on a miss.
func (h *CachedMemoryHost) GetRegVal(ctx context.Context, name string) (types.Value, bool) {
	if v, ok := h.regs.Read(name); ok {
		return types.NewUint(uint64(v), 32), true
	}
	raw, err := h.target.ReadRegister(ctx, cache.NormalizeRegister(name))
	if err != nil {
		h.log.Warn("Register read failed", "reg", name, "err", err)
		return types.Absent, false
	}
	return types.NewUint(uint64(h.regs.Write(name, raw)), 32), true
}

func (h *CachedMemoryHost) OffsetOf(_ context.Context, ref *host.RefContainer) (types.Value, bool) {
	return types.NewUint(uint64(ref.OffsetBytes), 32), true
}

// SizeOf is the element count of an array or list and the byte size of
// anything else. Root symbol sizes are memoized.
func (h *CachedMemoryHost) SizeOf(ctx context.Context, ref *host.RefContainer) (types.Value, bool) {
	s, ok := symbolOf(ref.Current)
	if !ok {
		return types.Absent, false
	}
	if s.Kind == model.ArrayKind || s.Kind == model.ListKind {
		return h.Count(ctx, ref)
	}
	if ref.Current != ref.Anchor {
		return types.NewUint(uint64(s.Size), 32), true
	}
	n, ok := h.meta.GetSize(ctx, s.Ident, func(context.Context, string) (uint64, bool) {
		return uint64(s.Size), s.Size > 0
	})
	if !ok {
		return types.Absent, false
	}
	return types.NewUint(n, 32), true
}

func (h *CachedMemoryHost) SymbolExists(_ context.Context, name string) (types.Value, bool) {
	_, isSym := h.model.Symbol(name)
	_, isType := h.model.Type(name)
	return types.Bool(isSym || isType), true
}

func (h *CachedMemoryHost) Running(ctx context.Context) (types.Value, bool) {
	r, err := h.target.Running(ctx)
	if err != nil {
		h.log.Warn("Run state unavailable", "err", err)
		return types.Absent, false
	}
	return types.Bool(r), true
}

// Count is the number of elements of an array or list, 1 for anything else.
func (h *CachedMemoryHost) Count(ctx context.Context, ref *host.RefContainer) (types.Value, bool) {
	s, ok := symbolOf(ref.Current)
	if !ok {
		return types.Absent, false
	}
	switch s.Kind {
	case model.ArrayKind:
		return types.NewUint(uint64(s.Len), 32), true
	case model.ListKind:
		n, ok := h.meta.GetCount(ctx, s.Ident, func(ctx context.Context, _ string) (uint64, bool) {
			offsets, _, ok := h.elements(ctx, s)
			return uint64(len(offsets)), ok
		})
		if !ok {
			return types.Absent, false
		}
		return types.NewUint(n, 32), true
	}
	return types.NewUint(1, 32), true
}

func (h *CachedMemoryHost) Addr(ctx context.Context, ref *host.RefContainer) (types.Value, bool) {
	a, ok := h.address(ctx, ref)
	if !ok {
		return types.Absent, false
	}
	return addrValue(a), true
}
