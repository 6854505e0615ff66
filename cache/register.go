package cache

import (
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// RegisterEntry is the last known value of a register.
type RegisterEntry struct {
	Value uint32
	Valid bool
}

// RegisterCache holds 32-bit register values by normalized name.
type RegisterCache struct {
	entries *xsync.MapOf[string, RegisterEntry]
}

func NewRegisterCache() *RegisterCache {
	return &RegisterCache{entries: xsync.NewMapOf[string, RegisterEntry]()}
}

// NormalizeRegister trims and lower-cases a register name.
func NormalizeRegister(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Read returns the value of name if it is cached and valid.
func (rc *RegisterCache) Read(name string) (uint32, bool) {
	e, ok := rc.entries.Load(NormalizeRegister(name))
	if !ok || !e.Valid {
		return 0, false
	}
	return e.Value, true
}

// Entry returns the entry for name even when it is stale.
func (rc *RegisterCache) Entry(name string) (RegisterEntry, bool) {
	return rc.entries.Load(NormalizeRegister(name))
}

// Write stores value truncated to 32 bits and returns what was stored.
func (rc *RegisterCache) Write(name string, value uint64) uint32 {
	v := uint32(value)
	rc.entries.Store(NormalizeRegister(name), RegisterEntry{Value: v, Valid: true})
	return v
}

func (rc *RegisterCache) Invalidate(name string) {
	rc.entries.Compute(NormalizeRegister(name), func(e RegisterEntry, loaded bool) (RegisterEntry, bool) {
		e.Valid = false
		return e, !loaded
	})
}

func (rc *RegisterCache) InvalidateAll() {
	rc.entries.Range(func(name string, e RegisterEntry) bool {
		if e.Valid {
			e.Valid = false
			rc.entries.Store(name, e)
		}
		return true
	})
}

func (rc *RegisterCache) Clear() {
	rc.entries.Clear()
}
