package containers

import (
	"strconv"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/data"
	"github.com/wippyai/vecmem/errors"
)

// JaggedDeviceVector gives row-by-row vector access to a jagged view.
// Rows are decoded from the kernel-side row-View array once, at construction.
type JaggedDeviceVector[T any] struct {
	rows []DeviceVector[T]
}

// NewJaggedDeviceVector wraps every row of j.
func NewJaggedDeviceVector[T any](j data.JaggedView[T]) (JaggedDeviceVector[T], error) {
	raws, err := j.Raw().Rows()
	if err != nil {
		return JaggedDeviceVector[T]{}, err
	}
	rows := make([]DeviceVector[T], len(raws))
	for i, r := range raws {
		v, err := data.ViewOf[T](r)
		if err != nil {
			return JaggedDeviceVector[T]{}, err
		}
		if rows[i], err = NewDeviceVector(v); err != nil {
			return JaggedDeviceVector[T]{}, err
		}
	}
	return JaggedDeviceVector[T]{rows: rows}, nil
}

// Size returns the number of rows.
func (j JaggedDeviceVector[T]) Size() vecmem.SizeType { return vecmem.SizeType(len(j.rows)) }

// At returns row i, checking bounds.
func (j JaggedDeviceVector[T]) At(i vecmem.SizeType) (DeviceVector[T], error) {
	if err := checkIndex(int(i), len(j.rows)); err != nil {
		return DeviceVector[T]{}, err
	}
	return j.rows[i], nil
}

// Row returns row i without a bounds check.
func (j JaggedDeviceVector[T]) Row(i vecmem.SizeType) DeviceVector[T] { return j.rows[i] }

// Get returns element col of row row, checking both bounds.
func (j JaggedDeviceVector[T]) Get(row, col vecmem.SizeType) (*T, error) {
	r, err := j.At(row)
	if err != nil {
		return nil, err
	}
	if size := r.Size(); col >= size {
		return nil, errors.OutOfBounds(errors.PhaseAccess,
			[]string{"row", strconv.FormatUint(uint64(row), 10)}, uint64(col), uint64(size))
	}
	return r.Index(col), nil
}
