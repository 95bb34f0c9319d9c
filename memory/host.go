package memory

import (
	"sort"
	"sync"
	"unsafe"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/layout"
)

const (
	// hostBase is the first address handed out by a HostMemory.
	hostBase = 0x10000
	// regionAlign is the minimum alignment of region base addresses.
	regionAlign = 64
	// regionGap separates regions so that no two are ever adjacent.
	regionGap = 256

	// MaxRegion is the largest region a HostResource maps (1TB).
	MaxRegion = 1 << 40
)

type region struct {
	data   []byte
	words  []uint64 // backing storage for mapped regions, nil for pinned ones
	base   uint64
	pinned bool
}

func (r *region) end() uint64 { return r.base + uint64(len(r.data)) }

// HostMemory is an address space over Go-owned storage.
// It is safe for concurrent use.
type HostMemory struct {
	regions []region // sorted by base
	next    uint64
	mapped  uint64
	space   vecmem.Space
	mu      sync.RWMutex
}

var _ vecmem.Memory = (*HostMemory)(nil)

// NewHostMemory creates an empty host address space.
func NewHostMemory() *HostMemory {
	return &HostMemory{space: vecmem.SpaceHost, next: hostBase}
}

// NewSharedMemory creates an empty address space tagged as shared memory.
func NewSharedMemory() *HostMemory {
	return &HostMemory{space: vecmem.SpaceShared, next: hostBase}
}

// Space returns the memory space tag.
func (m *HostMemory) Space() vecmem.Space {
	return m.space
}

// Map creates a zeroed region of size bytes and returns its base address.
func (m *HostMemory) Map(size, align uint64) vecmem.Ptr {
	// uint64 words keep every region 8-byte aligned in the real address space
	words := make([]uint64, max((size+7)/8, 1))
	data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), size)
	return m.insert(region{data: data, words: words}, align)
}

// Pin registers an existing byte slice as a region and returns its address.
// The slice stays reachable until Unmap is called with the returned address.
func (m *HostMemory) Pin(b []byte) vecmem.Ptr {
	return m.insert(region{data: b, pinned: true}, regionAlign)
}

func (m *HostMemory) insert(r region, align uint64) vecmem.Ptr {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.base = layout.AlignTo(m.next, max(align, regionAlign))
	m.next = layout.AlignTo(r.end(), regionAlign) + regionGap
	m.regions = append(m.regions, r)
	if !r.pinned {
		m.mapped += uint64(len(r.data))
	}
	return vecmem.Ptr(r.base)
}

// Unmap removes the region starting at ptr. It reports false if no region starts there.
func (m *HostMemory) Unmap(ptr vecmem.Ptr) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.search(uint64(ptr))
	if !ok || m.regions[i].base != uint64(ptr) {
		return false
	}
	if !m.regions[i].pinned {
		m.mapped -= uint64(len(m.regions[i].data))
	}
	m.regions = append(m.regions[:i], m.regions[i+1:]...)
	return true
}

// Regions returns the number of live regions.
func (m *HostMemory) Regions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regions)
}

// Mapped returns the number of bytes in mapped (not pinned) regions.
func (m *HostMemory) Mapped() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mapped
}

// search returns the index of the last region with base <= addr.
func (m *HostMemory) search(addr uint64) (int, bool) {
	i := sort.Search(len(m.regions), func(i int) bool { return m.regions[i].base > addr })
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// Read returns a view of length bytes at ptr.
func (m *HostMemory) Read(ptr vecmem.Ptr, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	addr := uint64(ptr)
	i, ok := m.search(addr)
	if !ok {
		return nil, errors.MemoryRange(errors.PhaseAccess, addr, length)
	}
	r := &m.regions[i]
	if addr+length > r.end() || addr+length < addr {
		return nil, errors.MemoryRange(errors.PhaseAccess, addr, length)
	}
	off := addr - r.base
	return r.data[off : off+length : off+length], nil
}

// Write copies data into memory at ptr.
func (m *HostMemory) Write(ptr vecmem.Ptr, data []byte) error {
	dst, err := m.Read(ptr, uint64(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// LoadU32 atomically loads the counter at ptr.
func (m *HostMemory) LoadU32(ptr vecmem.Ptr) (uint32, error) {
	b, err := m.Read(ptr, 4)
	if err != nil {
		return 0, err
	}
	return LoadWord(b)
}

// StoreU32 atomically stores value at ptr.
func (m *HostMemory) StoreU32(ptr vecmem.Ptr, value uint32) error {
	b, err := m.Read(ptr, 4)
	if err != nil {
		return err
	}
	return StoreWord(b, value)
}

// CompareAndSwapU32 atomically swaps the counter at ptr from old to value.
func (m *HostMemory) CompareAndSwapU32(ptr vecmem.Ptr, old, value uint32) (bool, error) {
	b, err := m.Read(ptr, 4)
	if err != nil {
		return false, err
	}
	return CompareAndSwapWord(b, old, value)
}

// PinSlice pins the elements of s into m and returns the address of s[0].
// The returned release function unpins the slice.
func PinSlice[T any](m *HostMemory, s []T) (vecmem.Ptr, func(), error) {
	info, err := layout.Of[T]()
	if err != nil {
		return 0, nil, err
	}
	if len(s) == 0 {
		return 0, func() {}, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), uint64(len(s))*info.Size)
	ptr := m.Pin(b)
	var once sync.Once
	return ptr, func() { once.Do(func() { m.Unmap(ptr) }) }, nil
}
