// Package cache holds the byte, register and metadata caches that sit
// between expression evaluation and an expensive target.
package cache

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/puzpuzpuz/xsync/v3"
)

// AppendOffset is the write offset that appends at the current end of a
// container and records the write as a new array element.
const AppendOffset = -1

// windowMin is the smallest window a relocation opens.
const windowMin = 64

func logger() log.Logger {
	return log.Root().With("module", "cache")
}

// ElementMeta records the elements appended to a container. Offsets, Sizes
// and Bases are parallel and have one entry per append.
type ElementMeta struct {
	Offsets []int
	Sizes   []int
	Bases   []uint64

	elementSize    int
	hasElementSize bool
}

// Count is the number of appended elements.
func (m *ElementMeta) Count() int {
	return len(m.Offsets)
}

// ElementSize is the size shared by every append so far. It is unset as
// soon as two appends disagree and stays unset.
func (m *ElementMeta) ElementSize() (int, bool) {
	return m.elementSize, m.hasElementSize
}

func (m *ElementMeta) record(offset, size int, base uint64) {
	switch {
	case len(m.Offsets) == 0:
		m.elementSize, m.hasElementSize = size, true
	case m.hasElementSize && size != m.elementSize:
		m.elementSize, m.hasElementSize = 0, false
	}
	m.Offsets = append(m.Offsets, offset)
	m.Sizes = append(m.Sizes, size)
	m.Bases = append(m.Bases, base)
}

func (m *ElementMeta) indexOf(offset int) int {
	for i, o := range m.Offsets {
		if o == offset {
			return i
		}
	}
	return -1
}

// MemoryContainer is a growable byte store for one symbol. The window is the
// region most recently touched; accesses outside it relocate it and grow the
// store when needed. Bytes already stored are never lost by a relocation.
type MemoryContainer struct {
	store []byte
	size  int

	winStart int
	winSize  int

	meta ElementMeta
}

// ByteLength is the logical length: the end of the furthest write.
func (c *MemoryContainer) ByteLength() int {
	return c.size
}

// Window returns the current window bounds.
func (c *MemoryContainer) Window() (start, size int) {
	return c.winStart, c.winSize
}

func (c *MemoryContainer) Meta() *ElementMeta {
	return &c.meta
}

// ensure makes [offset, offset+n) addressable and moves the window over it.
func (c *MemoryContainer) ensure(offset, n int) {
	end := offset + n
	if end > len(c.store) {
		grown := max(end, 2*len(c.store), windowMin)
		store := make([]byte, grown)
		copy(store, c.store)
		c.store = store
	}
	if offset >= c.winStart && end <= c.winStart+c.winSize {
		return
	}
	c.winStart = offset
	c.winSize = min(max(n, windowMin), len(c.store)-offset)
}

// Read returns a copy of size bytes at offset, growing the store so the
// region is addressable. Bytes never written read as zero.
func (c *MemoryContainer) Read(offset, size int) []byte {
	if offset < 0 || size < 0 {
		logger().Error("Invalid container read", "offset", offset, "size", size)
		return nil
	}
	c.ensure(offset, size)
	out := make([]byte, size)
	copy(out, c.store[offset:offset+size])
	return out
}

// Peek returns a copy of size bytes at offset without touching the window.
// It is the read to use under SymbolEntry.View. ok is false when the region
// lies outside the logical length.
func (c *MemoryContainer) Peek(offset, size int) ([]byte, bool) {
	if offset < 0 || size < 0 || offset+size > c.size {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, c.store[offset:offset+size])
	return out, true
}

// Write stores data at offset and zero-pads it up to logicalSize. A
// logicalSize of zero means len(data). With AppendOffset the data goes to the
// current end and is recorded as a new element with base 0.
func (c *MemoryContainer) Write(offset int, data []byte, logicalSize int) bool {
	_, ok := c.write(offset, data, logicalSize, 0)
	return ok
}

// Append is Write at AppendOffset recording base as the element's target
// address. It returns the element index.
func (c *MemoryContainer) Append(data []byte, logicalSize int, base uint64) (int, bool) {
	return c.write(AppendOffset, data, logicalSize, base)
}

func (c *MemoryContainer) write(offset int, data []byte, logicalSize int, base uint64) (int, bool) {
	if offset < AppendOffset {
		logger().Error("Invalid container write offset", "offset", offset)
		return -1, false
	}
	if logicalSize == 0 {
		logicalSize = len(data)
	}
	if logicalSize < len(data) {
		logger().Error("Container write exceeds logical size", "len", len(data), "size", logicalSize)
		return -1, false
	}

	appending := offset == AppendOffset
	if appending {
		offset = c.size
	}
	c.ensure(offset, logicalSize)
	copy(c.store[offset:], data)
	clear(c.store[offset+len(data) : offset+logicalSize])
	c.size = max(c.size, offset+logicalSize)

	if !appending {
		return -1, true
	}
	c.meta.record(offset, logicalSize, base)
	return c.meta.Count() - 1, true
}

// SetElementBase updates the target address recorded for element i.
func (c *MemoryContainer) SetElementBase(i int, base uint64) bool {
	if i < 0 || i >= c.meta.Count() {
		logger().Error("Invalid element index", "index", i, "count", c.meta.Count())
		return false
	}
	c.meta.Bases[i] = base
	return true
}

// ElementSpan resolves the region to read for a variable at offset. An
// explicit size wins. Otherwise an element appended at offset gives its
// recorded size, and anything else extends to the end of the container.
func (c *MemoryContainer) ElementSpan(offset, size int) (int, int) {
	if size > 0 {
		return offset, size
	}
	if i := c.meta.indexOf(offset); i >= 0 {
		return offset, c.meta.Sizes[i]
	}
	return offset, max(c.size-offset, 0)
}

// Variable reads the region ElementSpan resolves.
func (c *MemoryContainer) Variable(offset, size int) []byte {
	offset, size = c.ElementSpan(offset, size)
	return c.Read(offset, size)
}

// Reset drops all bytes and element records.
func (c *MemoryContainer) Reset() {
	*c = MemoryContainer{}
}

// SymbolEntry is the cached state of one symbol. Valid is false until the
// bytes were fetched and after every invalidation.
type SymbolEntry struct {
	Name string

	mu    *xsync.RBMutex
	valid bool
	data  MemoryContainer
}

func newSymbolEntry(name string) *SymbolEntry {
	return &SymbolEntry{Name: name, mu: xsync.NewRBMutex()}
}

func (e *SymbolEntry) Valid() bool {
	t := e.mu.RLock()
	defer e.mu.RUnlock(t)
	return e.valid
}

// View runs fn with shared access to the container. fn must not modify it
// and must read through Peek, since Read moves the window.
func (e *SymbolEntry) View(fn func(c *MemoryContainer, valid bool)) {
	t := e.mu.RLock()
	defer e.mu.RUnlock(t)
	fn(&e.data, e.valid)
}

// Update runs fn with exclusive access to the container and marks the entry
// valid when fn returns true.
func (e *SymbolEntry) Update(fn func(c *MemoryContainer) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn(&e.data) {
		e.valid = true
	}
}

func (e *SymbolEntry) invalidate() {
	e.mu.Lock()
	e.valid = false
	e.mu.Unlock()
}

func (e *SymbolEntry) dispose() {
	e.mu.Lock()
	e.valid = false
	e.data.Reset()
	e.mu.Unlock()
}

// SymbolCache maps symbol names to entries, creating them on first use.
type SymbolCache struct {
	entries *xsync.MapOf[string, *SymbolEntry]
	log     log.Logger
}

func NewSymbolCache() *SymbolCache {
	return &SymbolCache{
		entries: xsync.NewMapOf[string, *SymbolEntry](),
		log:     log.New("module", "cache"),
	}
}

// GetSymbol returns the entry for name, creating an invalid one on a miss.
func (sc *SymbolCache) GetSymbol(name string) *SymbolEntry {
	e, loaded := sc.entries.LoadOrCompute(name, func() *SymbolEntry {
		return newSymbolEntry(name)
	})
	if !loaded {
		sc.log.Trace("Symbol entry created", "name", name)
	}
	return e
}

// Invalidate marks name stale. Its bytes stay for reuse by the next fetch.
func (sc *SymbolCache) Invalidate(name string) {
	if e, ok := sc.entries.Load(name); ok {
		e.invalidate()
	}
}

func (sc *SymbolCache) InvalidateAll() {
	sc.entries.Range(func(_ string, e *SymbolEntry) bool {
		e.invalidate()
		return true
	})
	sc.log.Debug("Symbol cache invalidated", "entries", sc.entries.Size())
}

// RemoveSymbol drops name and reports whether it was present.
func (sc *SymbolCache) RemoveSymbol(name string) bool {
	e, ok := sc.entries.LoadAndDelete(name)
	if ok {
		e.dispose()
	}
	return ok
}

func (sc *SymbolCache) Clear() {
	sc.entries.Range(func(_ string, e *SymbolEntry) bool {
		e.dispose()
		return true
	})
	sc.entries.Clear()
}

func (sc *SymbolCache) Len() int {
	return sc.entries.Size()
}
