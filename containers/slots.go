package containers

import (
	"unsafe"

	"github.com/wippyai/vecmem/internal/layout"
)

// Slots manages element lifetimes over fixed storage.
type Slots[T any] struct {
	elems []T
	size  uintptr
	raw   bool
}

// NewSlots wraps storage. Relocation uses raw byte moves only when T holds no
// Go pointers.
func NewSlots[T any](storage []T) Slots[T] {
	var zero T
	return Slots[T]{
		elems: storage,
		size:  unsafe.Sizeof(zero),
		raw:   layout.Relocatable[T](),
	}
}

// Len returns the number of slots.
func (s Slots[T]) Len() int { return len(s.elems) }

// At returns a pointer to slot i.
func (s Slots[T]) At(i int) *T { return &s.elems[i] }

// Construct stores v in slot i.
func (s Slots[T]) Construct(i int, v T) { s.elems[i] = v }

// Destruct zeroes slot i.
func (s Slots[T]) Destruct(i int) {
	var zero T
	s.elems[i] = zero
}

// DestructRange zeroes slots [first, last).
func (s Slots[T]) DestructRange(first, last int) {
	clear(s.elems[first:last])
}

// Relocate moves n elements from src to dst. The ranges may overlap.
func (s Slots[T]) Relocate(dst, src, n int) {
	if n <= 0 || dst == src {
		return
	}
	if s.raw && s.size > 0 {
		b := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s.elems))), uintptr(len(s.elems))*s.size)
		copy(b[uintptr(dst)*s.size:], b[uintptr(src)*s.size:uintptr(src+n)*s.size])
		return
	}

	if dst < src {
		for k := 0; k < n; k++ {
			s.elems[dst+k] = s.elems[src+k]
		}
	} else {
		for k := n - 1; k >= 0; k-- {
			s.elems[dst+k] = s.elems[src+k]
		}
	}
	// vacated slots must not keep references alive
	for i := src; i < src+n; i++ {
		if i < dst || i >= dst+n {
			s.Destruct(i)
		}
	}
}
