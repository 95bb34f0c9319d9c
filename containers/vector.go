package containers

import (
	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/data"
)

// Vector is a growable host vector whose storage comes from a memory resource.
// Growing reallocates through the resource. It is not safe for concurrent use.
type Vector[T any] struct {
	res  vecmem.Resource
	buf  *data.Buffer[T]
	size int
}

// NewVector creates a vector holding values, with capacity len(values).
func NewVector[T any](res vecmem.Resource, values ...T) (*Vector[T], error) {
	v := &Vector[T]{res: res}
	if err := v.Reserve(vecmem.SizeType(len(values))); err != nil {
		return nil, err
	}
	if err := v.Append(values...); err != nil {
		_ = v.Close()
		return nil, err
	}
	return v, nil
}

// Size returns the number of elements.
func (v *Vector[T]) Size() vecmem.SizeType { return vecmem.SizeType(v.size) }

// Capacity returns the number of elements that fit without reallocating.
func (v *Vector[T]) Capacity() vecmem.SizeType {
	if v.buf == nil {
		return 0
	}
	return v.buf.Capacity()
}

// Reserve makes room for at least n elements.
func (v *Vector[T]) Reserve(n vecmem.SizeType) error {
	if n <= v.Capacity() {
		return nil
	}
	buf, err := data.NewBuffer[T](n, v.res, data.Fixed)
	if err != nil {
		return err
	}
	if v.buf != nil {
		dst, err := buf.Elements()
		if err != nil {
			_ = buf.Close()
			return err
		}
		copy(dst, v.Slice())
		_ = v.buf.Close()
	}
	v.buf = buf
	return nil
}

// Append adds values at the end, growing the storage when needed.
func (v *Vector[T]) Append(values ...T) error {
	if len(values) == 0 {
		return nil
	}
	need := vecmem.SizeType(v.size + len(values))
	if need > v.Capacity() {
		if err := v.Reserve(max(need, 2*v.Capacity())); err != nil {
			return err
		}
	}
	elems, err := v.buf.Elements()
	if err != nil {
		return err
	}
	copy(elems[v.size:], values)
	v.size += len(values)
	return nil
}

// At returns element i, checking bounds.
func (v *Vector[T]) At(i vecmem.SizeType) (*T, error) {
	if err := checkIndex(int(i), v.size); err != nil {
		return nil, err
	}
	return &v.Slice()[i], nil
}

// Slice returns the elements as a slice aliasing the storage. It is
// invalidated by the next reallocation.
func (v *Vector[T]) Slice() []T {
	if v.buf == nil {
		return nil
	}
	elems, err := v.buf.Elements()
	if err != nil {
		return nil
	}
	return elems[:v.size]
}

// View returns a fixed-size view of the current elements.
func (v *Vector[T]) View() data.View[T] {
	if v.buf == nil {
		return data.NewView[T](v.res.Memory(), 0, 0)
	}
	return data.NewView[T](v.res.Memory(), vecmem.SizeType(v.size), v.buf.View().Ptr())
}

// Close releases the storage.
func (v *Vector[T]) Close() error {
	if v.buf != nil {
		_ = v.buf.Close()
		v.buf = nil
	}
	v.size = 0
	return nil
}

// JaggedVector is a host collection of variable-length rows.
type JaggedVector[T any] struct {
	res  vecmem.Resource
	rows []*Vector[T]
}

// NewJaggedVector creates an empty jagged vector allocating rows from res.
func NewJaggedVector[T any](res vecmem.Resource) *JaggedVector[T] {
	return &JaggedVector[T]{res: res}
}

// AppendRow adds a row holding values, sized exactly to them.
func (j *JaggedVector[T]) AppendRow(values ...T) error {
	row, err := NewVector(j.res, values...)
	if err != nil {
		return err
	}
	j.rows = append(j.rows, row)
	return nil
}

// Size returns the number of rows.
func (j *JaggedVector[T]) Size() vecmem.SizeType { return vecmem.SizeType(len(j.rows)) }

// Row returns row i.
func (j *JaggedVector[T]) Row(i vecmem.SizeType) (*Vector[T], error) {
	if err := checkIndex(int(i), len(j.rows)); err != nil {
		return nil, err
	}
	return j.rows[i], nil
}

// Data builds a row-View array in res over the current rows. The result is
// invalidated when a row reallocates.
func (j *JaggedVector[T]) Data(res vecmem.Resource) (*data.JaggedData[T], error) {
	views := make([]data.View[T], len(j.rows))
	for i, r := range j.rows {
		views[i] = r.View()
	}
	return data.NewJaggedData(views, res)
}

// Close releases every row.
func (j *JaggedVector[T]) Close() error {
	for _, r := range j.rows {
		_ = r.Close()
	}
	j.rows = nil
	return nil
}

// Array is a fixed-length, bounds-checked host array over a memory resource.
type Array[T any] struct {
	buf   *data.Buffer[T]
	elems []T
}

// NewArray allocates n zeroed elements in res.
func NewArray[T any](n vecmem.SizeType, res vecmem.Resource) (*Array[T], error) {
	buf, err := data.NewBuffer[T](n, res, data.Fixed)
	if err != nil {
		return nil, err
	}
	elems, err := buf.Elements()
	if err != nil {
		_ = buf.Close()
		return nil, err
	}
	clear(elems)
	return &Array[T]{buf: buf, elems: elems}, nil
}

// Len returns the number of elements.
func (a *Array[T]) Len() vecmem.SizeType { return vecmem.SizeType(len(a.elems)) }

// At returns element i, checking bounds.
func (a *Array[T]) At(i vecmem.SizeType) (*T, error) {
	if err := checkIndex(int(i), len(a.elems)); err != nil {
		return nil, err
	}
	return &a.elems[i], nil
}

// Set stores value at i, checking bounds.
func (a *Array[T]) Set(i vecmem.SizeType, value T) error {
	p, err := a.At(i)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

// Slice returns the elements as a slice aliasing the storage.
func (a *Array[T]) Slice() []T { return a.elems }

// View returns a fixed-size view of the array.
func (a *Array[T]) View() data.View[T] { return a.buf.View() }

// Close releases the storage.
func (a *Array[T]) Close() error {
	a.elems = nil
	return a.buf.Close()
}
