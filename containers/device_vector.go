package containers

import (
	"iter"
	"sync/atomic"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/data"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/memory"
)

// DeviceVector is a vector over the memory of a View. It never allocates.
// The zero value is an empty fixed vector with no capacity.
type DeviceVector[T any] struct {
	slots   Slots[T]
	counter *uint32 // nil for fixed views
	size    vecmem.SizeType
}

// NewDeviceVector wraps v. For a resizable view the size is the view's
// counter, shared with every other vector over the same view.
func NewDeviceVector[T any](v data.View[T]) (DeviceVector[T], error) {
	elems, err := v.Elements()
	if err != nil {
		return DeviceVector[T]{}, err
	}
	dv := DeviceVector[T]{slots: NewSlots(elems)}
	if !v.Resizable() {
		dv.size, _ = v.Size()
		return dv, nil
	}
	b, err := v.Memory().Read(v.SizePtr(), 4)
	if err != nil {
		return DeviceVector[T]{}, err
	}
	if dv.counter, err = memory.Word(b); err != nil {
		return DeviceVector[T]{}, err
	}
	return dv, nil
}

// Size returns the number of elements.
func (v DeviceVector[T]) Size() vecmem.SizeType {
	if v.counter != nil {
		return atomic.LoadUint32(v.counter)
	}
	return v.size
}

// Capacity returns the number of elements the vector can hold.
func (v DeviceVector[T]) Capacity() vecmem.SizeType { return vecmem.SizeType(v.slots.Len()) }

// MaxSize returns the largest size the vector can reach, which is its capacity.
func (v DeviceVector[T]) MaxSize() vecmem.SizeType { return v.Capacity() }

// Empty reports whether the vector has no elements.
func (v DeviceVector[T]) Empty() bool { return v.Size() == 0 }

// Resizable reports whether the size can change.
func (v DeviceVector[T]) Resizable() bool { return v.counter != nil }

// At returns element i, checking bounds.
func (v DeviceVector[T]) At(i vecmem.SizeType) (*T, error) {
	if err := checkIndex(int(i), int(v.Size())); err != nil {
		return nil, err
	}
	return v.slots.At(int(i)), nil
}

// Index returns element i without checking it against the size.
func (v DeviceVector[T]) Index(i vecmem.SizeType) *T { return v.slots.At(int(i)) }

// Front returns the first element.
func (v DeviceVector[T]) Front() (*T, error) { return v.At(0) }

// Back returns the last element.
func (v DeviceVector[T]) Back() (*T, error) {
	n := v.Size()
	if n == 0 {
		return nil, errors.OutOfBounds(errors.PhaseAccess, []string{"back"}, 0, 0)
	}
	return v.slots.At(int(n - 1)), nil
}

// All iterates over the elements in order.
func (v DeviceVector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		n := int(v.Size())
		for i := 0; i < n; i++ {
			if !yield(i, *v.slots.At(i)) {
				return
			}
		}
	}
}

// PushBack appends value and returns its index. It is safe to call from many
// goroutines at once; order between concurrent callers is unspecified.
func (v DeviceVector[T]) PushBack(value T) (vecmem.SizeType, error) {
	i, err := v.reserve()
	if err != nil {
		return 0, err
	}
	v.slots.Construct(int(i), value)
	return i, nil
}

// EmplaceBack appends a zero element, lets init fill it in place and returns its index.
// It is safe for concurrent use like PushBack.
func (v DeviceVector[T]) EmplaceBack(init func(*T)) (vecmem.SizeType, error) {
	i, err := v.reserve()
	if err != nil {
		return 0, err
	}
	v.slots.Destruct(int(i))
	if init != nil {
		init(v.slots.At(int(i)))
	}
	return i, nil
}

func (v DeviceVector[T]) reserve() (vecmem.SizeType, error) {
	if v.counter == nil {
		return 0, errors.Unsupported(errors.PhaseAccess, "append to a fixed-size vector")
	}
	capacity := v.Capacity()
	for {
		n := atomic.LoadUint32(v.counter)
		if n >= capacity {
			return 0, errors.CapacityExceeded(errors.PhaseAccess, nil, uint64(n)+1, uint64(capacity))
		}
		if atomic.CompareAndSwapUint32(v.counter, n, n+1) {
			return n, nil
		}
	}
}

// checkSize reports whether the vector may take size n.
func (v DeviceVector[T]) checkSize(n int) error {
	if err := checkCapacity(n, v.slots.Len()); err != nil {
		return err
	}
	if v.counter == nil && n != int(v.size) {
		return errors.Unsupported(errors.PhaseAccess, "size of a fixed-size vector cannot change")
	}
	return nil
}

func (v DeviceVector[T]) setSize(n int) {
	if v.counter != nil {
		atomic.StoreUint32(v.counter, uint32(n))
	}
}

// Assign replaces the contents with n copies of value.
func (v DeviceVector[T]) Assign(n vecmem.SizeType, value T) error {
	if err := v.checkSize(int(n)); err != nil {
		return err
	}
	v.slots.DestructRange(0, int(v.Size()))
	resizeSlots(v.slots, 0, int(n), value)
	v.setSize(int(n))
	return nil
}

// Resize changes the size to n, zero-filling new elements.
func (v DeviceVector[T]) Resize(n vecmem.SizeType) error {
	var zero T
	return v.ResizeWith(n, zero)
}

// ResizeWith changes the size to n. Elements [0, min(n, Size())) are kept;
// new elements are copies of fill.
func (v DeviceVector[T]) ResizeWith(n vecmem.SizeType, fill T) error {
	if err := v.checkSize(int(n)); err != nil {
		return err
	}
	resizeSlots(v.slots, int(v.Size()), int(n), fill)
	v.setSize(int(n))
	return nil
}

// Insert inserts value before position pos.
func (v DeviceVector[T]) Insert(pos vecmem.SizeType, value T) error {
	return v.InsertN(pos, 1, value)
}

// InsertN inserts count copies of value before position pos.
func (v DeviceVector[T]) InsertN(pos, count vecmem.SizeType, value T) error {
	size := int(v.Size())
	if err := checkInsert(size, int(pos), int(count), v.slots.Len()); err != nil {
		return err
	}
	if err := v.checkSize(size + int(count)); err != nil {
		return err
	}
	insertSlots(v.slots, size, int(pos), int(count), value)
	v.setSize(size + int(count))
	return nil
}

// Erase removes the element at pos.
func (v DeviceVector[T]) Erase(pos vecmem.SizeType) error {
	if size := v.Size(); pos >= size {
		return errors.OutOfBounds(errors.PhaseAccess, []string{"erase"}, uint64(pos), uint64(size))
	}
	return v.EraseRange(pos, pos+1)
}

// EraseRange removes elements [first, last) and shifts later elements down.
func (v DeviceVector[T]) EraseRange(first, last vecmem.SizeType) error {
	size := int(v.Size())
	if err := checkErase(size, int(first), int(last)); err != nil {
		return err
	}
	if err := v.checkSize(size - int(last-first)); err != nil {
		return err
	}
	eraseSlots(v.slots, size, int(first), int(last))
	v.setSize(size - int(last-first))
	return nil
}

// Clear destroys every element and sets the size to 0.
func (v DeviceVector[T]) Clear() error {
	if err := v.checkSize(0); err != nil {
		return err
	}
	v.slots.DestructRange(0, int(v.Size()))
	v.setSize(0)
	return nil
}

// PopBack removes the last element.
func (v DeviceVector[T]) PopBack() error {
	size := int(v.Size())
	if size == 0 {
		return errors.OutOfBounds(errors.PhaseAccess, []string{"pop_back"}, 0, 0)
	}
	if err := v.checkSize(size - 1); err != nil {
		return err
	}
	v.slots.Destruct(size - 1)
	v.setSize(size - 1)
	return nil
}
