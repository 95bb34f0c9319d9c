package containers

import (
	"github.com/wippyai/vecmem/errors"
)

// Sequential element algorithms shared by DeviceVector and StaticVector.
// Callers validate positions and capacity first.

func resizeSlots[T any](s Slots[T], size, n int, v T) {
	if n < size {
		s.DestructRange(n, size)
		return
	}
	for i := size; i < n; i++ {
		s.Construct(i, v)
	}
}

func insertSlots[T any](s Slots[T], size, pos, count int, v T) {
	s.Relocate(pos+count, pos, size-pos)
	for i := pos; i < pos+count; i++ {
		s.Construct(i, v)
	}
}

func eraseSlots[T any](s Slots[T], size, first, last int) {
	s.Relocate(first, last, size-last)
	s.DestructRange(size-(last-first), size)
}

func checkCapacity(n, capacity int) error {
	if n > capacity {
		return errors.CapacityExceeded(errors.PhaseAccess, nil, uint64(n), uint64(capacity))
	}
	return nil
}

func checkInsert(size, pos, count, capacity int) error {
	if pos > size {
		return errors.OutOfBounds(errors.PhaseAccess, []string{"insert"}, uint64(pos), uint64(size))
	}
	return checkCapacity(size+count, capacity)
}

func checkErase(size, first, last int) error {
	if first > last {
		return errors.InvalidInput(errors.PhaseAccess, "erase range ends before it starts")
	}
	if last > size {
		return errors.OutOfBounds(errors.PhaseAccess, []string{"erase"}, uint64(last), uint64(size))
	}
	return nil
}

func checkIndex(i, size int) error {
	if i < 0 || i >= size {
		return errors.OutOfBounds(errors.PhaseAccess, nil, uint64(max(i, 0)), uint64(size))
	}
	return nil
}
