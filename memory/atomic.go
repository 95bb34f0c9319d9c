package memory

import (
	"sync/atomic"
	"unsafe"

	"github.com/wippyai/vecmem/errors"
)

// Word returns the 4-byte counter stored at the start of b.
// b must hold at least 4 bytes and start on a 4-byte boundary.
func Word(b []byte) (*uint32, error) {
	if len(b) < 4 {
		return nil, errors.InvalidInput(errors.PhaseAccess, "counter needs 4 bytes")
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(p)%4 != 0 {
		return nil, errors.InvalidInput(errors.PhaseAccess, "counter is not 4-byte aligned")
	}
	return (*uint32)(p), nil
}

// LoadWord atomically loads the counter at the start of b.
func LoadWord(b []byte) (uint32, error) {
	w, err := Word(b)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(w), nil
}

// StoreWord atomically stores value into the counter at the start of b.
func StoreWord(b []byte, value uint32) error {
	w, err := Word(b)
	if err != nil {
		return err
	}
	atomic.StoreUint32(w, value)
	return nil
}

// CompareAndSwapWord atomically replaces the counter at the start of b.
func CompareAndSwapWord(b []byte, old, value uint32) (bool, error) {
	w, err := Word(b)
	if err != nil {
		return false, err
	}
	return atomic.CompareAndSwapUint32(w, old, value), nil
}
