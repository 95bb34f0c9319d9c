package containers

import (
	"iter"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
)

// StaticVector is a fixed-capacity vector over caller-provided storage.
// It never allocates. Unlike DeviceVector it accepts any element type:
// types holding Go pointers are relocated element by element.
// It is not safe for concurrent use.
type StaticVector[T any] struct {
	slots Slots[T]
	size  int
}

// NewStaticVector wraps storage. The capacity is len(storage) and the size starts at 0.
// Existing storage contents are discarded.
func NewStaticVector[T any](storage []T) *StaticVector[T] {
	clear(storage)
	return &StaticVector[T]{slots: NewSlots(storage)}
}

// Size returns the number of elements.
func (v *StaticVector[T]) Size() vecmem.SizeType { return vecmem.SizeType(v.size) }

// Capacity returns the number of elements the vector can hold.
func (v *StaticVector[T]) Capacity() vecmem.SizeType { return vecmem.SizeType(v.slots.Len()) }

// Empty reports whether the vector has no elements.
func (v *StaticVector[T]) Empty() bool { return v.size == 0 }

// At returns element i, checking bounds.
func (v *StaticVector[T]) At(i vecmem.SizeType) (*T, error) {
	if err := checkIndex(int(i), v.size); err != nil {
		return nil, err
	}
	return v.slots.At(int(i)), nil
}

// Index returns element i without checking it against the size.
func (v *StaticVector[T]) Index(i vecmem.SizeType) *T { return v.slots.At(int(i)) }

// Front returns the first element.
func (v *StaticVector[T]) Front() (*T, error) { return v.At(0) }

// Back returns the last element.
func (v *StaticVector[T]) Back() (*T, error) {
	if v.size == 0 {
		return nil, errors.OutOfBounds(errors.PhaseAccess, []string{"back"}, 0, 0)
	}
	return v.slots.At(v.size - 1), nil
}

// Slice returns the elements as a slice aliasing the storage.
func (v *StaticVector[T]) Slice() []T { return v.slots.elems[:v.size] }

// All iterates over the elements in order.
func (v *StaticVector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.size; i++ {
			if !yield(i, *v.slots.At(i)) {
				return
			}
		}
	}
}

// PushBack appends value and returns its index.
func (v *StaticVector[T]) PushBack(value T) (vecmem.SizeType, error) {
	if err := checkCapacity(v.size+1, v.slots.Len()); err != nil {
		return 0, err
	}
	v.slots.Construct(v.size, value)
	v.size++
	return vecmem.SizeType(v.size - 1), nil
}

// EmplaceBack appends a zero element and lets init fill it in place.
func (v *StaticVector[T]) EmplaceBack(init func(*T)) (vecmem.SizeType, error) {
	var zero T
	i, err := v.PushBack(zero)
	if err == nil && init != nil {
		init(v.slots.At(int(i)))
	}
	return i, err
}

// Assign replaces the contents with n copies of value.
func (v *StaticVector[T]) Assign(n vecmem.SizeType, value T) error {
	if err := checkCapacity(int(n), v.slots.Len()); err != nil {
		return err
	}
	v.slots.DestructRange(0, v.size)
	resizeSlots(v.slots, 0, int(n), value)
	v.size = int(n)
	return nil
}

// Resize changes the size to n, zero-filling new elements.
func (v *StaticVector[T]) Resize(n vecmem.SizeType) error {
	var zero T
	return v.ResizeWith(n, zero)
}

// ResizeWith changes the size to n, filling new elements with fill.
func (v *StaticVector[T]) ResizeWith(n vecmem.SizeType, fill T) error {
	if err := checkCapacity(int(n), v.slots.Len()); err != nil {
		return err
	}
	resizeSlots(v.slots, v.size, int(n), fill)
	v.size = int(n)
	return nil
}

// Insert inserts value before position pos.
func (v *StaticVector[T]) Insert(pos vecmem.SizeType, value T) error {
	return v.InsertN(pos, 1, value)
}

// InsertN inserts count copies of value before position pos.
func (v *StaticVector[T]) InsertN(pos, count vecmem.SizeType, value T) error {
	if err := checkInsert(v.size, int(pos), int(count), v.slots.Len()); err != nil {
		return err
	}
	insertSlots(v.slots, v.size, int(pos), int(count), value)
	v.size += int(count)
	return nil
}

// Erase removes the element at pos.
func (v *StaticVector[T]) Erase(pos vecmem.SizeType) error {
	if int(pos) >= v.size {
		return errors.OutOfBounds(errors.PhaseAccess, []string{"erase"}, uint64(pos), uint64(v.size))
	}
	return v.EraseRange(pos, pos+1)
}

// EraseRange removes elements [first, last) and shifts later elements down.
func (v *StaticVector[T]) EraseRange(first, last vecmem.SizeType) error {
	if err := checkErase(v.size, int(first), int(last)); err != nil {
		return err
	}
	eraseSlots(v.slots, v.size, int(first), int(last))
	v.size -= int(last - first)
	return nil
}

// Clear destroys every element.
func (v *StaticVector[T]) Clear() {
	v.slots.DestructRange(0, v.size)
	v.size = 0
}

// PopBack removes the last element.
func (v *StaticVector[T]) PopBack() error {
	if v.size == 0 {
		return errors.OutOfBounds(errors.PhaseAccess, []string{"pop_back"}, 0, 0)
	}
	v.size--
	v.slots.Destruct(v.size)
	return nil
}
