package memhost

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/scvdview/scvd/eval"
	"github.com/scvdview/scvd/host"
	"github.com/scvdview/scvd/types"
)

// maxStringBytes bounds %N and %U reads from the target.
const (
	maxStringBytes = 256
	stringChunk    = 16
)

// FormatPrintf composes printf output. %N and %U read a NUL terminated
// string at the value's address, %S and %C name the symbol containing the
// address and %E names the value from the enumerators of the symbol the
// segment refers to. Everything else is formatted by eval.FormatValue.
func (h *CachedMemoryHost) FormatPrintf(ctx context.Context, segs []host.PrintfValue) (string, bool) {
	var out strings.Builder
	for _, seg := range segs {
		if seg.Directive == 0 {
			out.WriteString(seg.Text)
			continue
		}
		if !seg.Value.IsValid() {
			out.WriteString(eval.Unknown)
			continue
		}
		switch seg.Directive {
		case 'N':
			out.WriteString(h.cString(ctx, seg.Value))
		case 'U':
			out.WriteString(h.wideString(ctx, seg.Value))
		case 'S', 'C':
			out.WriteString(h.symbolName(seg.Value))
		case 'E':
			out.WriteString(enumName(seg))
		default:
			out.WriteString(eval.FormatValue(seg.Directive, seg.Value))
		}
	}
	return out.String(), true
}

// readString reads from the address in v chunk by chunk until a chunk holds
// a NUL unit of the given width. Chunks shrink when a read fails.
func (h *CachedMemoryHost) readString(ctx context.Context, v types.Value, unit int) ([]byte, bool) {
	if !v.IsInteger() && !v.IsWide() {
		return nil, false
	}
	addr := v.Uint64()
	var out []byte
	for n := stringChunk; len(out) < maxStringBytes; {
		chunk, err := h.target.ReadMemory(ctx, addr+uint64(len(out)), n)
		if err != nil {
			// the string may end close to the end of mapped memory
			if n > unit {
				n /= 2
				continue
			}
			if len(out) == 0 {
				h.log.Debug("String read failed", "addr", fmt.Sprintf("%#x", addr), "err", err)
				return nil, false
			}
			break
		}
		out = append(out, chunk...)
		if hasNul(chunk, unit) {
			break
		}
	}
	return out, true
}

func hasNul(b []byte, unit int) bool {
	for i := 0; i+unit <= len(b); i += unit {
		if !slices.ContainsFunc(b[i:i+unit], func(c byte) bool { return c != 0 }) {
			return true
		}
	}
	return false
}

func (h *CachedMemoryHost) cString(ctx context.Context, v types.Value) string {
	if v.IsString() {
		return v.Str()
	}
	b, ok := h.readString(ctx, v, 1)
	if !ok {
		return eval.Unknown
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (h *CachedMemoryHost) wideString(ctx context.Context, v types.Value) string {
	if v.IsString() {
		return v.Str()
	}
	b, ok := h.readString(ctx, v, 2)
	if !ok {
		return eval.Unknown
	}
	var units []uint16
	for i := 0; i+1 < len(b); i += 2 {
		u := uint16(b[i]) | uint16(b[i+1])<<8
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

func (h *CachedMemoryHost) symbolName(v types.Value) string {
	if !v.IsInteger() && !v.IsWide() {
		return v.String()
	}
	addr := v.Uint64()
	s, ok := h.model.SymbolAt(addr)
	if !ok {
		return fmt.Sprintf("%#x", addr)
	}
	if off := addr - s.Address; off != 0 {
		return fmt.Sprintf("%s+%#x", s.Ident, off)
	}
	return s.Ident
}

// enumName falls back to the number when the referenced symbol has no
// enumerator for the value.
func enumName(seg host.PrintfValue) string {
	if seg.Ref != nil && (seg.Value.IsInteger() || seg.Value.IsWide()) {
		if s, ok := symbolOf(seg.Ref.Current); ok {
			if name, ok := s.EnumName(seg.Value.Int64()); ok {
				return name
			}
		}
	}
	return eval.FormatValue('d', seg.Value)
}
