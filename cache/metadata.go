package cache

import (
	"context"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// ComputeFunc derives a property of a named symbol. ok is false when the
// property is unknown; such results are not cached.
type ComputeFunc func(ctx context.Context, name string) (uint64, bool)

type memo struct {
	values *xsync.MapOf[string, uint64]
}

func newMemo() memo {
	return memo{values: xsync.NewMapOf[string, uint64]()}
}

func (m memo) get(ctx context.Context, key string, compute ComputeFunc) (uint64, bool) {
	if v, ok := m.values.Load(key); ok {
		return v, true
	}
	v, ok := compute(ctx, key)
	if !ok {
		return 0, false
	}
	m.values.Store(key, v)
	return v, true
}

// MetadataCache memoizes addresses, sizes and element counts of symbols.
// Each kind is cleared independently.
type MetadataCache struct {
	addresses memo
	sizes     memo
	counts    memo
}

func NewMetadataCache() *MetadataCache {
	return &MetadataCache{
		addresses: newMemo(),
		sizes:     newMemo(),
		counts:    newMemo(),
	}
}

func metaKey(name string) string {
	return strings.TrimSpace(name)
}

func (mc *MetadataCache) GetAddress(ctx context.Context, name string, compute ComputeFunc) (uint64, bool) {
	return mc.addresses.get(ctx, metaKey(name), compute)
}

// GetAddressWithName is GetAddress also returning the key the address is
// cached under.
func (mc *MetadataCache) GetAddressWithName(ctx context.Context, name string, compute ComputeFunc) (string, uint64, bool) {
	key := metaKey(name)
	v, ok := mc.addresses.get(ctx, key, compute)
	return key, v, ok
}

func (mc *MetadataCache) GetSize(ctx context.Context, name string, compute ComputeFunc) (uint64, bool) {
	return mc.sizes.get(ctx, metaKey(name), compute)
}

func (mc *MetadataCache) GetCount(ctx context.Context, name string, compute ComputeFunc) (uint64, bool) {
	return mc.counts.get(ctx, metaKey(name), compute)
}

func (mc *MetadataCache) ClearAddresses() { mc.addresses.values.Clear() }
func (mc *MetadataCache) ClearSizes()     { mc.sizes.values.Clear() }
func (mc *MetadataCache) ClearCounts()    { mc.counts.values.Clear() }

func (mc *MetadataCache) ClearAll() {
	mc.ClearAddresses()
	mc.ClearSizes()
	mc.ClearCounts()
}
