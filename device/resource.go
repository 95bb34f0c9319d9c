package device

import (
	"go.uber.org/zap"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/freelist"
)

// Resource allocates device memory from a free list over the linear memory.
type Resource struct {
	mem  *Memory
	list *freelist.List
	name string
}

var _ vecmem.Resource = (*Resource)(nil)

// Allocate reserves size bytes aligned to align.
func (r *Resource) Allocate(size, align uint64) (vecmem.Ptr, error) {
	addr, ok := r.list.Alloc(size, align)
	if !ok {
		Logger().Warn("device allocation failed",
			zap.String("device", r.name),
			zap.Uint64("size", size),
			zap.Uint64("align", align),
			zap.Uint64("available", r.list.Available()))
		err := errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
		err.Path = []string{r.name}
		return 0, err
	}
	return vecmem.Ptr(addr), nil
}

// Deallocate releases the block at ptr.
func (r *Resource) Deallocate(ptr vecmem.Ptr, size, align uint64) {
	if _, ok := r.list.Free(uint64(ptr)); !ok {
		Logger().Warn("deallocate of unknown device block",
			zap.String("device", r.name),
			zap.Uint64("ptr", uint64(ptr)),
			zap.Uint64("size", size))
	}
}

// Memory returns the device memory.
func (r *Resource) Memory() vecmem.Memory {
	return r.mem
}

// InUse returns the number of allocated bytes, including rounding.
func (r *Resource) InUse() uint64 {
	return r.list.InUse()
}

// Available returns the number of free bytes.
func (r *Resource) Available() uint64 {
	return r.list.Available()
}

// Live returns the number of live allocations.
func (r *Resource) Live() int {
	return r.list.Live()
}
