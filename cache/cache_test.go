package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerReadWrite(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		data    []byte
		logical int
		read    int
		want    []byte
	}{
		{"exact", 0, []byte{1, 2, 3, 4}, 0, 4, []byte{1, 2, 3, 4}},
		{"padded", 2, []byte{0xaa}, 4, 4, []byte{0xaa, 0, 0, 0}},
		{"far", 200, []byte{7, 8}, 2, 2, []byte{7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c MemoryContainer
			require.True(t, c.Write(tt.offset, tt.data, tt.logical))
			require.Equal(t, tt.want, c.Read(tt.offset, tt.read))
			require.Equal(t, tt.offset+max(tt.logical, len(tt.data)), c.ByteLength())
		})
	}
}

func TestContainerGrowKeepsBytes(t *testing.T) {
	var c MemoryContainer
	require.True(t, c.Write(0, []byte{1, 2, 3, 4}, 0))
	require.True(t, c.Write(1000, []byte{9}, 0))

	start, size := c.Window()
	require.Equal(t, 1000, start)
	require.GreaterOrEqual(t, size, 1)

	require.Equal(t, []byte{1, 2, 3, 4}, c.Read(0, 4))
	require.Equal(t, []byte{0, 0}, c.Read(500, 2))
	require.Equal(t, 1001, c.ByteLength())
}

func TestContainerPaddingOverwritesOldBytes(t *testing.T) {
	var c MemoryContainer
	require.True(t, c.Write(0, []byte{0xff, 0xff, 0xff, 0xff}, 0))
	require.True(t, c.Write(0, []byte{0x11}, 4))
	require.Equal(t, []byte{0x11, 0, 0, 0}, c.Read(0, 4))
}

func TestContainerRejectsBadWrites(t *testing.T) {
	var c MemoryContainer
	require.True(t, c.Write(0, []byte{1, 2}, 0))

	require.False(t, c.Write(-2, []byte{1}, 0))
	require.False(t, c.Write(0, []byte{1, 2, 3}, 2))
	require.Nil(t, c.Read(-1, 2))

	require.Equal(t, 2, c.ByteLength())
	require.Equal(t, []byte{1, 2}, c.Read(0, 2))
}

func TestContainerAppend(t *testing.T) {
	var c MemoryContainer
	for i, base := range []uint64{0x1000, 0x2000, 0x3000} {
		idx, ok := c.Append([]byte{byte(i), byte(i)}, 8, base)
		require.True(t, ok)
		require.Equal(t, i, idx)
	}

	meta := c.Meta()
	require.Equal(t, 3, meta.Count())
	require.Equal(t, []int{0, 8, 16}, meta.Offsets)
	require.Equal(t, []uint64{0x1000, 0x2000, 0x3000}, meta.Bases)
	size, ok := meta.ElementSize()
	require.True(t, ok)
	require.Equal(t, 8, size)

	require.True(t, c.SetElementBase(1, 0x2222))
	require.False(t, c.SetElementBase(3, 0))
	require.Equal(t, []uint64{0x1000, 0x2222, 0x3000}, meta.Bases)

	require.Equal(t, []byte{2, 2, 0, 0, 0, 0, 0, 0}, c.Variable(16, 0))
}

func TestElementSizeClearsOnMismatch(t *testing.T) {
	var c MemoryContainer
	c.Append([]byte{1}, 4, 0)
	c.Append([]byte{1}, 8, 0)
	c.Append([]byte{1}, 4, 0)

	_, ok := c.Meta().ElementSize()
	require.False(t, ok)
	require.Equal(t, 3, c.Meta().Count())
}

func TestElementSpan(t *testing.T) {
	var c MemoryContainer
	c.Append(make([]byte, 4), 0, 0)
	c.Append(make([]byte, 12), 0, 0)

	tests := []struct {
		name         string
		offset, size int
		wantSize     int
	}{
		{"explicit size", 4, 2, 2},
		{"element", 4, 0, 12},
		{"first element", 0, 0, 4},
		{"offset to end", 6, 0, 10},
		{"past end", 40, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, n := c.ElementSpan(tt.offset, tt.size)
			require.Equal(t, tt.offset, off)
			require.Equal(t, tt.wantSize, n)
		})
	}
}

func TestSymbolCache(t *testing.T) {
	sc := NewSymbolCache()

	e := sc.GetSymbol("xTask")
	require.False(t, e.Valid())
	require.Same(t, e, sc.GetSymbol("xTask"))
	require.Equal(t, 1, sc.Len())

	e.Update(func(c *MemoryContainer) bool {
		return c.Write(0, []byte{1, 2, 3, 4}, 0)
	})
	require.True(t, e.Valid())

	sc.Invalidate("xTask")
	require.False(t, e.Valid())
	e.View(func(c *MemoryContainer, valid bool) {
		require.False(t, valid)
		b, ok := c.Peek(0, 4)
		require.True(t, ok)
		require.Equal(t, []byte{1, 2, 3, 4}, b)
	})

	sc.Invalidate("missing")
	require.Equal(t, 1, sc.Len())

	require.True(t, sc.RemoveSymbol("xTask"))
	require.False(t, sc.RemoveSymbol("xTask"))
	require.NotSame(t, e, sc.GetSymbol("xTask"))

	sc.GetSymbol("other")
	sc.Clear()
	require.Equal(t, 0, sc.Len())
}

func TestSymbolCacheConcurrent(t *testing.T) {
	sc := NewSymbolCache()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := sc.GetSymbol("shared")
			e.Update(func(c *MemoryContainer) bool {
				return c.Write(i*4, []byte{byte(i)}, 4)
			})
			sc.InvalidateAll()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, sc.Len())
	sc.GetSymbol("shared").View(func(c *MemoryContainer, _ bool) {
		require.Equal(t, 32, c.ByteLength())
		for i := range 8 {
			b, ok := c.Peek(i*4, 1)
			require.True(t, ok)
			require.Equal(t, byte(i), b[0])
		}
	})
}

func TestRegisterCache(t *testing.T) {
	rc := NewRegisterCache()

	_, ok := rc.Read("R0")
	require.False(t, ok)

	require.Equal(t, uint32(0x89abcdef), rc.Write("  R0 ", 0x1234567_89abcdef))
	v, ok := rc.Read("r0")
	require.True(t, ok)
	require.Equal(t, uint32(0x89abcdef), v)

	rc.Invalidate("R0")
	_, ok = rc.Read("r0")
	require.False(t, ok)
	e, ok := rc.Entry("r0")
	require.True(t, ok)
	require.Equal(t, uint32(0x89abcdef), e.Value)

	rc.Invalidate("never")
	_, ok = rc.Entry("never")
	require.False(t, ok)

	rc.Write("sp", 4)
	rc.Write("pc", 8)
	rc.InvalidateAll()
	_, ok = rc.Read("sp")
	require.False(t, ok)

	rc.Clear()
	_, ok = rc.Entry("pc")
	require.False(t, ok)
}

func TestMetadataCache(t *testing.T) {
	ctx := context.Background()
	mc := NewMetadataCache()

	calls := map[string]int{}
	compute := func(_ context.Context, name string) (uint64, bool) {
		calls[name]++
		if name == "unknown" {
			return 0, false
		}
		return uint64(len(name)), true
	}

	for range 3 {
		v, ok := mc.GetAddress(ctx, "xTask", compute)
		require.True(t, ok)
		require.Equal(t, uint64(5), v)
	}
	require.Equal(t, 1, calls["xTask"])

	key, v, ok := mc.GetAddressWithName(ctx, " xTask ", compute)
	require.True(t, ok)
	require.Equal(t, "xTask", key)
	require.Equal(t, uint64(5), v)
	require.Equal(t, 1, calls["xTask"])

	for range 2 {
		_, ok := mc.GetCount(ctx, "unknown", compute)
		require.False(t, ok)
	}
	require.Equal(t, 2, calls["unknown"])

	mc.GetSize(ctx, "xTask", compute)
	require.Equal(t, 2, calls["xTask"])

	mc.ClearAddresses()
	mc.GetSize(ctx, "xTask", compute)
	require.Equal(t, 2, calls["xTask"])
	mc.GetAddress(ctx, "xTask", compute)
	require.Equal(t, 3, calls["xTask"])

	mc.ClearAll()
	mc.GetSize(ctx, "xTask", compute)
	mc.GetAddress(ctx, "xTask", compute)
	require.Equal(t, 5, calls["xTask"])
}

func TestPeekLeavesWindow(t *testing.T) {
	var c MemoryContainer
	require.True(t, c.Write(0, make([]byte, 256), 0))
	c.Read(0, 4)
	start, size := c.Window()

	b, ok := c.Peek(200, 4)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0, 0}, b)
	gotStart, gotSize := c.Window()
	require.Equal(t, start, gotStart)
	require.Equal(t, size, gotSize)

	_, ok = c.Peek(254, 4)
	require.False(t, ok)
	_, ok = c.Peek(-1, 1)
	require.False(t, ok)
}
