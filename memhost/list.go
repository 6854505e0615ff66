package memhost

import (
	"context"
	"fmt"

	"github.com/scvdview/scvd/cache"
	"github.com/scvdview/scvd/model"
	"github.com/scvdview/scvd/types"
)

// maxListElements bounds list loading when the symbol sets no limit.
const maxListElements = 1024

// LoadArray reads a list symbol from the target into its cache entry,
// appending one element per read. Lists with Len read that many
// consecutive elements; lists with Next follow the next pointer until it is
// zero, repeats, or the limit is reached.
func (h *CachedMemoryHost) LoadArray(ctx context.Context, s *model.Symbol) error {
	if s.Kind != model.ListKind || s.Elem == nil {
		return fmt.Errorf("load %s: not a list", s.Ident)
	}
	var next *model.Symbol
	if s.Len == 0 {
		m, ok := s.Elem.Member(s.Next)
		if !ok {
			return fmt.Errorf("load %s: element has no member %q", s.Ident, s.Next)
		}
		next = m
	}
	limit := s.Limit
	if limit <= 0 {
		limit = maxListElements
	}
	if s.Len > 0 {
		limit = min(limit, s.Len)
	}

	stride := s.Stride()
	var err error
	h.symbols.GetSymbol(s.Ident).Update(func(c *cache.MemoryContainer) bool {
		c.Reset()
		seen := map[uint64]bool{}
		for addr := s.Address; addr != 0 && c.Meta().Count() < limit && !seen[addr]; {
			if err = ctx.Err(); err != nil {
				return false
			}
			seen[addr] = true
			data, rerr := h.target.ReadMemory(ctx, addr, stride)
			if rerr != nil {
				err = fmt.Errorf("load %s at %#x: %w", s.Ident, addr, rerr)
				return false
			}
			idx, _ := c.Append(data, stride, addr)
			if next == nil {
				addr += uint64(stride)
				continue
			}
			ptr, ok := readNumber(c, c.Meta().Offsets[idx]+next.Offset, next.Size)
			if !ok {
				err = fmt.Errorf("load %s: next member %s is not a number", s.Ident, next.Ident)
				return false
			}
			addr = ptr
		}
		return true
	})
	if err != nil {
		h.log.Warn("List load failed", "symbol", s.Ident, "err", err)
		return err
	}
	h.log.Debug("List loaded", "symbol", s.Ident, "count", h.count(s))
	return nil
}

func readNumber(c *cache.MemoryContainer, offset, size int) (uint64, bool) {
	if size <= 0 || size > maxNumberBytes {
		return 0, false
	}
	b, ok := c.Peek(offset, size)
	if !ok {
		return 0, false
	}
	return types.DecodeUint(b), true
}

// elements returns the container offsets and target bases of a loaded list.
func (h *CachedMemoryHost) elements(ctx context.Context, s *model.Symbol) ([]int, []uint64, bool) {
	entry, ok := h.load(ctx, s)
	if !ok {
		return nil, nil, false
	}
	var offsets []int
	var bases []uint64
	entry.View(func(c *cache.MemoryContainer, _ bool) {
		offsets = append(offsets, c.Meta().Offsets...)
		bases = append(bases, c.Meta().Bases...)
	})
	return offsets, bases, true
}

func (h *CachedMemoryHost) count(s *model.Symbol) int {
	n := 0
	h.symbols.GetSymbol(s.Ident).View(func(c *cache.MemoryContainer, _ bool) {
		n = c.Meta().Count()
	})
	return n
}
