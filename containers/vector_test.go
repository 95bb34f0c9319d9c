package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/memory"
)

func TestVector_Growth(t *testing.T) {
	res := memory.NewTrackingResource(memory.NewHostResource())
	v, err := NewVector[float32](res, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v.Capacity())

	require.NoError(t, v.Append(3))
	assert.Equal(t, uint32(4), v.Capacity())
	require.NoError(t, v.Append(4, 5, 6, 7, 8, 9))
	assert.Equal(t, uint32(9), v.Capacity())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, v.Slice())
	assert.Equal(t, 1, res.Live(), "old storage is released on growth")

	p, err := v.At(8)
	require.NoError(t, err)
	assert.Equal(t, float32(9), *p)
	_, err = v.At(9)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	view := v.View()
	size, err := view.Size()
	require.NoError(t, err)
	assert.Equal(t, uint32(9), size)
	elems, err := view.Elements()
	require.NoError(t, err)
	assert.Equal(t, v.Slice(), elems)

	require.NoError(t, v.Close())
	assert.Equal(t, 0, res.Live())
}

func TestVector_Empty(t *testing.T) {
	v, err := NewVector[int32](memory.NewHostResource())
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v.Capacity())
	assert.Nil(t, v.Slice())
	assert.True(t, v.View().Ptr().IsNull())
}

func TestJaggedVector_Data(t *testing.T) {
	host := memory.NewHostResource()
	cont, err := memory.NewContiguousResource(host, 4096)
	require.NoError(t, err)
	defer cont.Close()

	jv := NewJaggedVector[int32](cont)
	defer jv.Close()
	rows := [][]int32{{1, 2, 3, 4, 5}, {6, 7}, {8, 9, 10, 11}, {12, 13, 14, 15, 16, 17, 18}, {}, {19, 20}}
	for _, r := range rows {
		require.NoError(t, jv.AppendRow(r...))
	}
	assert.Equal(t, uint32(6), jv.Size())

	d, err := jv.Data(host)
	require.NoError(t, err)
	defer d.Close()

	contiguous, err := d.View().Contiguous()
	require.NoError(t, err)
	assert.True(t, contiguous)

	views, err := d.View().Rows()
	require.NoError(t, err)
	require.Len(t, views, len(rows))
	for i, r := range rows {
		elems, err := views[i].Elements()
		require.NoError(t, err)
		assert.Equal(t, len(r), len(elems), "row %d", i)
		for j := range r {
			assert.Equal(t, r[j], elems[j])
		}
	}

	row, err := jv.Row(3)
	require.NoError(t, err)
	require.NoError(t, row.Append(19))
	_, err = jv.Row(6)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)
}

func TestArray(t *testing.T) {
	a, err := NewArray[uint16](4, memory.NewHostResource())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, uint32(4), a.Len())
	require.NoError(t, a.Set(3, 7))
	assert.Equal(t, []uint16{0, 0, 0, 7}, a.Slice())
	assert.ErrorIs(t, a.Set(4, 1), errors.ErrOutOfBounds)
	_, err = a.At(10)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	size, err := a.View().Size()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), size)
}
