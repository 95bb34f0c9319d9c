package data

import (
	"unsafe"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/internal/layout"
	"github.com/wippyai/vecmem/memory"
)

// Viewer is implemented by View and ConstView. Copy sources accept either.
type Viewer[T any] interface {
	Raw() Raw
	Size() (vecmem.SizeType, error)
	Capacity() vecmem.SizeType
	Elements() ([]T, error)
}

// View is a non-owning description of elements of type T in one memory space.
// Views are plain values: copy them freely, but only while the memory they
// describe is alive.
type View[T any] struct {
	raw Raw
}

// NewView describes size elements at ptr. The view is fixed-size.
// It panics if T cannot live in raw memory.
func NewView[T any](mem vecmem.Memory, size vecmem.SizeType, ptr vecmem.Ptr) View[T] {
	r := rawOf(mem, layout.MustOf[T]())
	r.Ptr = ptr
	r.Size = size
	r.Capacity = size
	return View[T]{raw: r}
}

// NewResizableView describes capacity elements at ptr whose logical size is the
// counter at sizePtr.
// It panics if T cannot live in raw memory.
func NewResizableView[T any](mem vecmem.Memory, capacity vecmem.SizeType, sizePtr, ptr vecmem.Ptr) View[T] {
	r := rawOf(mem, layout.MustOf[T]())
	r.Ptr = ptr
	r.SizePtr = sizePtr
	r.Capacity = capacity
	return View[T]{raw: r}
}

// ViewOf types an untyped geometry. The element size must match T.
func ViewOf[T any](r Raw) (View[T], error) {
	info, err := layout.Of[T]()
	if err != nil {
		return View[T]{}, err
	}
	if r.ElemSize != info.Size {
		return View[T]{}, elemMismatch(info, r.ElemType, r.ElemSize)
	}
	r.ElemType = info.Name
	r.Align = info.Align
	return View[T]{raw: r}, nil
}

// Size returns the logical size, loading the counter of a resizable view.
func (v View[T]) Size() (vecmem.SizeType, error) { return v.raw.LoadSize() }

// Capacity returns the number of elements the view can hold.
func (v View[T]) Capacity() vecmem.SizeType { return v.raw.Capacity }

// Ptr returns the address of the first element.
func (v View[T]) Ptr() vecmem.Ptr { return v.raw.Ptr }

// SizePtr returns the address of the size counter, or null for a fixed view.
func (v View[T]) SizePtr() vecmem.Ptr { return v.raw.SizePtr }

// Resizable reports whether the size lives in a counter.
func (v View[T]) Resizable() bool { return v.raw.Resizable() }

// Memory returns the memory space the view points into.
func (v View[T]) Memory() vecmem.Memory { return v.raw.Mem }

// Raw returns the untyped geometry.
func (v View[T]) Raw() Raw { return v.raw }

// Equal reports whether both views describe the same geometry.
func (v View[T]) Equal(o View[T]) bool { return v.raw.Equal(o.raw) }

// Const returns a read-only view of the same geometry.
func (v View[T]) Const() ConstView[T] { return ConstView[T]{raw: v.raw} }

// Elements returns the view's full capacity as a Go slice aliasing memory.
func (v View[T]) Elements() ([]T, error) { return elements[T](v.raw) }

// ConstView is a read-only View.
type ConstView[T any] struct {
	raw Raw
}

// Size returns the logical size.
func (v ConstView[T]) Size() (vecmem.SizeType, error) { return v.raw.LoadSize() }

// Capacity returns the number of elements the view can hold.
func (v ConstView[T]) Capacity() vecmem.SizeType { return v.raw.Capacity }

// Ptr returns the address of the first element.
func (v ConstView[T]) Ptr() vecmem.Ptr { return v.raw.Ptr }

// Memory returns the memory space the view points into.
func (v ConstView[T]) Memory() vecmem.Memory { return v.raw.Mem }

// Raw returns the untyped geometry.
func (v ConstView[T]) Raw() Raw { return v.raw }

// Equal reports whether both views describe the same geometry.
func (v ConstView[T]) Equal(o ConstView[T]) bool { return v.raw.Equal(o.raw) }

// Elements returns the view's capacity as a Go slice. Callers must not write to it.
func (v ConstView[T]) Elements() ([]T, error) { return elements[T](v.raw) }

func elements[T any](r Raw) ([]T, error) {
	b, err := r.Bytes(r.Capacity)
	if err != nil || len(b) == 0 {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), r.Capacity), nil
}

// Pin exposes a Go slice as a fixed-size host View without copying.
// The view is valid until release is called.
func Pin[T any](m *memory.HostMemory, s []T) (View[T], func(), error) {
	ptr, release, err := memory.PinSlice(m, s)
	if err != nil {
		return View[T]{}, nil, err
	}
	return NewView[T](m, vecmem.SizeType(len(s)), ptr), release, nil
}
