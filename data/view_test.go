package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/memory"
)

func TestView_Fixed(t *testing.T) {
	mem := memory.NewHostMemory()
	ptr := mem.Map(5*4, 4)

	v := NewView[int32](mem, 5, ptr)
	size, err := v.Size()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), size)
	assert.Equal(t, uint32(5), v.Capacity())
	assert.False(t, v.Resizable())
	assert.Equal(t, ptr, v.Ptr())

	elems, err := v.Elements()
	require.NoError(t, err)
	require.Len(t, elems, 5)
	elems[2] = 42

	b, err := mem.Read(ptr.Add(8), 4)
	require.NoError(t, err)
	assert.Equal(t, byte(42), b[0])
}

func TestView_Resizable(t *testing.T) {
	mem := memory.NewHostMemory()
	base := mem.Map(4+10*8, 8)

	v := NewResizableView[float64](mem, 10, base, base.Add(8))
	require.NoError(t, mem.StoreU32(base, 3))

	size, err := v.Size()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), size)
	assert.Equal(t, uint32(10), v.Capacity())
	assert.True(t, v.Resizable())

	require.NoError(t, v.Raw().StoreSize(7))
	size, _ = v.Size()
	assert.Equal(t, uint32(7), size)

	err = v.Raw().StoreSize(11)
	assert.ErrorIs(t, err, errors.ErrCapacityExceeded)
}

func TestView_Equality(t *testing.T) {
	mem := memory.NewHostMemory()
	ptr := mem.Map(64, 8)

	a := NewView[int32](mem, 4, ptr)
	b := NewView[int32](mem, 4, ptr)
	c := NewView[int32](mem, 3, ptr)
	d := NewView[int32](mem, 4, ptr.Add(4))
	other := NewView[int32](memory.NewHostMemory(), 4, ptr)

	assert.True(t, a.Equal(a))
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(other))
	assert.True(t, a.Const().Equal(b.Const()))
}

func TestView_ConstSharesGeometry(t *testing.T) {
	mem := memory.NewHostMemory()
	ptr := mem.Map(16, 8)
	v := NewView[uint16](mem, 8, ptr)
	cv := v.Const()

	assert.Equal(t, v.Ptr(), cv.Ptr())
	assert.Equal(t, v.Capacity(), cv.Capacity())
	assert.Equal(t, v.Raw(), cv.Raw())

	var _ Viewer[uint16] = v
	var _ Viewer[uint16] = cv
}

func TestViewOf(t *testing.T) {
	mem := memory.NewHostMemory()
	v := NewView[int32](mem, 2, mem.Map(8, 8))

	typed, err := ViewOf[uint32](v.Raw())
	require.NoError(t, err)
	assert.Equal(t, v.Ptr(), typed.Ptr())

	_, err = ViewOf[int64](v.Raw())
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNewView_PanicsOnPointerTypes(t *testing.T) {
	mem := memory.NewHostMemory()
	assert.Panics(t, func() {
		NewView[*int](mem, 1, mem.Map(8, 8))
	})
}

func TestPin(t *testing.T) {
	mem := memory.NewHostMemory()
	values := []int32{1, 2, 3, 4, 5}

	v, release, err := Pin(mem, values)
	require.NoError(t, err)
	defer release()

	elems, err := v.Elements()
	require.NoError(t, err)
	assert.Equal(t, values, elems)

	elems[0] = 10
	assert.Equal(t, int32(10), values[0])
}
