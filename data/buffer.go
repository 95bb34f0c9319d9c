package data

import (
	"fmt"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/layout"
)

// Type selects how a buffer tracks its size.
type Type uint8

const (
	// Fixed buffers have capacity == size and no counter.
	Fixed Type = iota
	// Resizable buffers keep their logical size in a counter next to the payload.
	Resizable
)

func (t Type) String() string {
	switch t {
	case Fixed:
		return "fixed"
	case Resizable:
		return "resizable"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// noCopy lets go vet's copylocks check flag copies of owning values.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// counterOffset returns where the payload starts after a leading size counter.
func counterOffset(align uint64) uint64 {
	return layout.AlignTo(4, align)
}

// Buffer owns one allocation and describes it as a View.
// Buffers must not be copied; use Move to transfer ownership.
type Buffer[T any] struct {
	noCopy noCopy
	res    vecmem.Resource
	view   View[T]
	base   vecmem.Ptr
	bytes  uint64
	align  uint64
	typ    Type
}

// NewBuffer allocates a buffer for capacity elements of T in res.
// A resizable buffer's size is undefined until the copy engine sets it up.
func NewBuffer[T any](capacity vecmem.SizeType, res vecmem.Resource, typ Type) (*Buffer[T], error) {
	info, err := layout.Of[T]()
	if err != nil {
		return nil, err
	}
	payload, ok := layout.Bytes(uint64(capacity), info.Size)
	if !ok {
		return nil, errors.AllocationFailed(errors.PhaseLayout, uint64(capacity), info.Size, nil)
	}

	b := &Buffer[T]{res: res, typ: typ, align: max(info.Align, 4)}
	r := rawOf(res.Memory(), info)
	r.Capacity = capacity

	switch typ {
	case Fixed:
		r.Size = capacity
		if payload > 0 {
			b.bytes = payload
			if b.base, err = res.Allocate(b.bytes, b.align); err != nil {
				return nil, err
			}
			r.Ptr = b.base
		}
	case Resizable:
		off := counterOffset(b.align)
		b.bytes = off + payload
		if b.base, err = res.Allocate(b.bytes, b.align); err != nil {
			return nil, err
		}
		r.SizePtr = b.base
		r.Ptr = b.base.Add(off)
	default:
		return nil, errors.InvalidInput(errors.PhaseLayout, "unknown buffer type "+typ.String())
	}

	b.view = View[T]{raw: r}
	return b, nil
}

// View returns a view of the buffer.
func (b *Buffer[T]) View() View[T] { return b.view }

// Const returns a read-only view of the buffer.
func (b *Buffer[T]) Const() ConstView[T] { return b.view.Const() }

// Raw returns the buffer's untyped geometry.
func (b *Buffer[T]) Raw() Raw { return b.view.raw }

// Size returns the logical size.
func (b *Buffer[T]) Size() (vecmem.SizeType, error) { return b.view.Size() }

// Capacity returns the number of elements the buffer can hold.
func (b *Buffer[T]) Capacity() vecmem.SizeType { return b.view.Capacity() }

// Elements returns the buffer's capacity as a Go slice aliasing memory.
func (b *Buffer[T]) Elements() ([]T, error) { return b.view.Elements() }

// Type returns the buffer type.
func (b *Buffer[T]) Type() Type { return b.typ }

// Resource returns the resource that owns the allocation.
func (b *Buffer[T]) Resource() vecmem.Resource { return b.res }

// Move transfers ownership to a new Buffer and leaves b empty.
func (b *Buffer[T]) Move() *Buffer[T] {
	m := &Buffer[T]{
		res:   b.res,
		view:  b.view,
		base:  b.base,
		bytes: b.bytes,
		align: b.align,
		typ:   b.typ,
	}
	b.reset()
	return m
}

// Close releases the allocation. Closing an empty or moved-from buffer does nothing.
func (b *Buffer[T]) Close() error {
	if b.base.IsNull() {
		b.reset()
		return nil
	}
	b.res.Deallocate(b.base, b.bytes, b.align)
	b.reset()
	return nil
}

func (b *Buffer[T]) reset() {
	b.base = 0
	b.bytes = 0
	b.view = View[T]{raw: Raw{Mem: b.view.raw.Mem, ElemType: b.view.raw.ElemType, ElemSize: b.view.raw.ElemSize, Align: b.view.raw.Align}}
}
