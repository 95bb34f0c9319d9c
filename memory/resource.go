package memory

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/layout"
)

// HostOption configures a HostResource.
type HostOption func(*HostResource)

// WithMemory makes the resource allocate from an existing address space.
func WithMemory(m *HostMemory) HostOption {
	return func(r *HostResource) { r.mem = m }
}

// WithLimit caps the number of bytes the resource may have allocated at once.
func WithLimit(bytes uint64) HostOption {
	return func(r *HostResource) { r.limit = bytes }
}

// HostResource allocates one host region per allocation.
type HostResource struct {
	mem   *HostMemory
	limit uint64
	used  uint64
	mu    sync.Mutex
}

var _ vecmem.Resource = (*HostResource)(nil)

// NewHostResource creates a resource over a fresh host address space unless
// WithMemory is given.
func NewHostResource(opts ...HostOption) *HostResource {
	r := &HostResource{}
	for _, opt := range opts {
		opt(r)
	}
	if r.mem == nil {
		r.mem = NewHostMemory()
	}
	return r
}

// NewSharedResource creates a resource over a fresh shared address space.
func NewSharedResource(opts ...HostOption) *HostResource {
	return NewHostResource(append([]HostOption{WithMemory(NewSharedMemory())}, opts...)...)
}

// Allocate maps a new zeroed region.
func (r *HostResource) Allocate(size, align uint64) (vecmem.Ptr, error) {
	if size > MaxRegion {
		Logger().Warn("host allocation too large",
			zap.Uint64("size", size),
			zap.Uint64("max", MaxRegion))
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
	}
	r.mu.Lock()
	if r.limit > 0 && r.used+size > r.limit {
		used := r.used
		r.mu.Unlock()
		Logger().Warn("host allocation over limit",
			zap.Uint64("size", size),
			zap.Uint64("used", used),
			zap.Uint64("limit", r.limit))
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
	}
	r.used += size
	r.mu.Unlock()

	return r.mem.Map(size, align), nil
}

// Deallocate unmaps the region at ptr.
func (r *HostResource) Deallocate(ptr vecmem.Ptr, size, align uint64) {
	if !r.mem.Unmap(ptr) {
		Logger().Warn("deallocate of unknown host region",
			zap.Uint64("ptr", uint64(ptr)),
			zap.Uint64("size", size))
		return
	}
	r.mu.Lock()
	r.used -= min(size, r.used)
	r.mu.Unlock()
}

// Memory returns the address space the resource allocates from.
func (r *HostResource) Memory() vecmem.Memory {
	return r.mem
}

// Host returns the concrete host address space.
func (r *HostResource) Host() *HostMemory {
	return r.mem
}

// ContiguousResource hands out consecutive addresses from one upstream block.
// Deallocate is a no-op; the block is released by Close.
type ContiguousResource struct {
	upstream vecmem.Resource
	base     vecmem.Ptr
	size     uint64
	next     uint64
	closed   bool
	mu       sync.Mutex
}

var _ vecmem.Resource = (*ContiguousResource)(nil)

// NewContiguousResource reserves size bytes from upstream.
func NewContiguousResource(upstream vecmem.Resource, size uint64) (*ContiguousResource, error) {
	base, err := upstream.Allocate(size, regionAlign)
	if err != nil {
		return nil, err
	}
	return &ContiguousResource{upstream: upstream, base: base, size: size}, nil
}

// Allocate returns the next aligned address in the block.
func (r *ContiguousResource) Allocate(size, align uint64) (vecmem.Ptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errors.Closed(errors.PhaseAlloc, "contiguous resource")
	}
	start := layout.AlignTo(uint64(r.base)+r.next, max(align, 1)) - uint64(r.base)
	if start+size > r.size {
		Logger().Warn("contiguous resource exhausted",
			zap.Uint64("size", size),
			zap.Uint64("remaining", r.size-min(start, r.size)))
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
	}
	r.next = start + size
	return r.base.Add(start), nil
}

// Deallocate does nothing; memory is reclaimed when the resource is closed.
func (r *ContiguousResource) Deallocate(vecmem.Ptr, uint64, uint64) {}

// Memory returns the upstream memory.
func (r *ContiguousResource) Memory() vecmem.Memory {
	return r.upstream.Memory()
}

// Used returns the number of bytes consumed, including alignment padding.
func (r *ContiguousResource) Used() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Close returns the block to the upstream resource.
func (r *ContiguousResource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.upstream.Deallocate(r.base, r.size, regionAlign)
	return nil
}
