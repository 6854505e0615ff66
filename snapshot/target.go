package snapshot

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/scvdview/scvd/cache"
)

// ErrUnmapped is returned for accesses outside every memory region.
var ErrUnmapped = errors.New("address not mapped")

type region struct {
	base uint64
	data []byte
}

func (r *region) contains(addr uint64, n int) bool {
	return addr >= r.base && addr+uint64(n) <= r.base+uint64(len(r.data))
}

// Target serves memory, registers and the run state of a snapshot. It is
// safe for concurrent use and can be swapped to a newer snapshot in place.
type Target struct {
	mu      sync.RWMutex
	regions []*region
	regs    map[string]uint64
	running bool
	log     log.Logger
}

func NewTarget(s *Snapshot) (*Target, error) {
	t := &Target{log: log.New("module", "snapshot")}
	if err := t.Replace(s); err != nil {
		return nil, err
	}
	return t, nil
}

// Replace swaps in the state of s.
func (t *Target) Replace(s *Snapshot) error {
	regions := make([]*region, 0, len(s.Memory))
	for _, r := range s.Memory {
		data, err := r.Data()
		if err != nil {
			return &FormatError{Err: err}
		}
		regions = append(regions, &region{base: r.Address, data: data})
	}
	slices.SortFunc(regions, func(a, b *region) int {
		switch {
		case a.base < b.base:
			return -1
		case a.base > b.base:
			return 1
		}
		return 0
	})
	for i := 1; i < len(regions); i++ {
		prev := regions[i-1]
		if prev.base+uint64(len(prev.data)) > regions[i].base {
			return &FormatError{Err: fmt.Errorf("regions %#x and %#x overlap", prev.base, regions[i].base)}
		}
	}
	regs := make(map[string]uint64, len(s.Registers))
	for name, v := range s.Registers {
		regs[cache.NormalizeRegister(name)] = v
	}

	t.mu.Lock()
	t.regions, t.regs, t.running = regions, regs, s.Running
	t.mu.Unlock()
	t.log.Debug("Snapshot state loaded", "regions", len(regions), "registers", len(regs), "running", s.Running)
	return nil
}

func (t *Target) find(addr uint64, n int) (*region, error) {
	for _, r := range t.regions {
		if r.contains(addr, n) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%d bytes at %#x: %w", n, addr, ErrUnmapped)
}

func (t *Target) ReadMemory(ctx context.Context, addr uint64, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, err := t.find(addr, n)
	if err != nil {
		return nil, err
	}
	off := addr - r.base
	return slices.Clone(r.data[off : off+uint64(n)]), nil
}

func (t *Target) WriteMemory(ctx context.Context, addr uint64, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	r, err := t.find(addr, len(data))
	if err != nil {
		return err
	}
	copy(r.data[addr-r.base:], data)
	return nil
}

func (t *Target) ReadRegister(_ context.Context, name string) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.regs[cache.NormalizeRegister(name)]
	if !ok {
		return 0, fmt.Errorf("unknown register %q", name)
	}
	return v, nil
}

func (t *Target) Running(context.Context) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running, nil
}

// Export writes the current memory of t back into s as hex regions.
func (t *Target) Export(s *Snapshot) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s.Memory = s.Memory[:0]
	for _, r := range t.regions {
		s.Memory = append(s.Memory, Region{Address: r.base, Bytes: hex.EncodeToString(r.data)})
	}
	s.Running = t.running
}
