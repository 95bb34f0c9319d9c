// Package freelist implements a first-fit free-list allocator over an address range.
//
// The list hands out addresses only; it never touches the memory it manages.
// Adjacent free spans are coalesced on release.
package freelist

import (
	"sort"
	"sync"

	"github.com/wippyai/vecmem/internal/layout"
)

// Granule is the allocation granularity in bytes.
const Granule = 8

type span struct {
	start uint64
	size  uint64
}

// List is a first-fit allocator. It is safe for concurrent use.
type List struct {
	used  map[uint64]uint64
	free  []span
	base  uint64
	limit uint64
	inUse uint64
	mu    sync.Mutex
}

// New creates a list managing [base, base+size).
func New(base, size uint64) *List {
	l := &List{
		used:  make(map[uint64]uint64),
		base:  base,
		limit: base + size,
	}
	if size > 0 {
		l.free = []span{{start: base, size: size}}
	}
	return l
}

// Alloc reserves size bytes aligned to align. It reports false when no free span fits.
func (l *List) Alloc(size, align uint64) (uint64, bool) {
	size = layout.AlignTo(max(size, 1), Granule)
	align = max(align, Granule)

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, s := range l.free {
		addr := layout.AlignTo(s.start, align)
		end := s.start + s.size
		if addr+size > end || addr+size < addr {
			continue
		}

		var repl []span
		if addr > s.start {
			repl = append(repl, span{start: s.start, size: addr - s.start})
		}
		if tail := end - (addr + size); tail > 0 {
			repl = append(repl, span{start: addr + size, size: tail})
		}
		l.free = append(l.free[:i], append(repl, l.free[i+1:]...)...)

		l.used[addr] = size
		l.inUse += size
		return addr, true
	}
	return 0, false
}

// Free releases the block starting at addr and returns its reserved size.
// It reports false when addr is not a live allocation.
func (l *List) Free(addr uint64) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	size, ok := l.used[addr]
	if !ok {
		return 0, false
	}
	delete(l.used, addr)
	l.inUse -= size

	i := sort.Search(len(l.free), func(i int) bool { return l.free[i].start > addr })
	l.free = append(l.free, span{})
	copy(l.free[i+1:], l.free[i:])
	l.free[i] = span{start: addr, size: size}

	// merge with successor, then predecessor
	if i+1 < len(l.free) && l.free[i].start+l.free[i].size == l.free[i+1].start {
		l.free[i].size += l.free[i+1].size
		l.free = append(l.free[:i+1], l.free[i+2:]...)
	}
	if i > 0 && l.free[i-1].start+l.free[i-1].size == l.free[i].start {
		l.free[i-1].size += l.free[i].size
		l.free = append(l.free[:i], l.free[i+1:]...)
	}
	return size, true
}

// InUse returns the number of reserved bytes.
func (l *List) InUse() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inUse
}

// Available returns the number of free bytes, fragmented or not.
func (l *List) Available() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit - l.base - l.inUse
}

// Live returns the number of live allocations.
func (l *List) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.used)
}
