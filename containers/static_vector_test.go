package containers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/vecmem/errors"
)

func TestStaticVector_Basic(t *testing.T) {
	storage := []int64{9, 9, 9, 9, 9}
	v := NewStaticVector(storage)
	assert.True(t, v.Empty())
	assert.Equal(t, uint32(5), v.Capacity())
	assert.Equal(t, []int64{0, 0, 0, 0, 0}, storage, "storage is cleared")

	for _, x := range []int64{1, 2, 3} {
		_, err := v.PushBack(x)
		require.NoError(t, err)
	}
	require.NoError(t, v.Insert(0, 0))
	assert.Equal(t, []int64{0, 1, 2, 3}, v.Slice())

	i, err := v.EmplaceBack(func(x *int64) { *x = 4 })
	require.NoError(t, err)
	assert.Equal(t, uint32(4), i)

	_, err = v.PushBack(5)
	assert.ErrorIs(t, err, errors.ErrCapacityExceeded)

	require.NoError(t, v.EraseRange(1, 3))
	assert.Equal(t, []int64{0, 3, 4}, v.Slice())
	assert.Equal(t, []int64{0, 3, 4, 0, 0}, storage)

	front, err := v.Front()
	require.NoError(t, err)
	assert.Equal(t, int64(0), *front)

	require.NoError(t, v.ResizeWith(5, 7))
	assert.Equal(t, []int64{0, 3, 4, 7, 7}, v.Slice())
	require.NoError(t, v.PopBack())
	assert.Equal(t, uint32(4), v.Size())

	v.Clear()
	assert.True(t, v.Empty())
	assert.ErrorIs(t, v.PopBack(), errors.ErrOutOfBounds)
	_, err = v.Back()
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)
	assert.ErrorIs(t, v.Erase(math.MaxUint32), errors.ErrOutOfBounds)
}

func TestStaticVector_PointerElements(t *testing.T) {
	storage := make([]*string, 4)
	v := NewStaticVector(storage)
	words := []string{"a", "b", "c"}
	for i := range words {
		_, err := v.PushBack(&words[i])
		require.NoError(t, err)
	}

	require.NoError(t, v.Erase(0))
	require.Len(t, v.Slice(), 2)
	assert.Equal(t, "b", *v.Slice()[0])
	assert.Equal(t, "c", *v.Slice()[1])
	assert.Nil(t, storage[2], "vacated slot must not hold a reference")

	require.NoError(t, v.InsertN(1, 2, &words[0]))
	got := make([]string, 0, 4)
	for _, p := range v.All() {
		got = append(got, *p)
	}
	assert.Equal(t, []string{"b", "a", "a", "c"}, got)
}

func TestSlots_Relocate(t *testing.T) {
	tests := []struct {
		name        string
		dst, src, n int
		want        []int32
	}{
		{"forward overlap", 1, 0, 3, []int32{1, 1, 2, 3, 5}},
		{"backward overlap", 0, 1, 3, []int32{2, 3, 4, 4, 5}},
		{"same position", 2, 2, 2, []int32{1, 2, 3, 4, 5}},
		{"empty", 0, 3, 0, []int32{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elems := []int32{1, 2, 3, 4, 5}
			NewSlots(elems).Relocate(tt.dst, tt.src, tt.n)
			assert.Equal(t, tt.want, elems)
		})
	}

	t.Run("element-wise destructs vacated slots", func(t *testing.T) {
		elems := []string{"a", "b", "c", "d", ""}
		s := NewSlots(elems)
		assert.False(t, s.raw)
		s.Relocate(2, 0, 3)
		assert.Equal(t, []string{"", "", "a", "b", "c"}, elems)
	})
}
