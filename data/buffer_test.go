package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/device"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/memory"
)

func TestBuffer_Fixed(t *testing.T) {
	res := memory.NewHostResource()

	buf, err := NewBuffer[int32](10, res, Fixed)
	require.NoError(t, err)
	defer buf.Close()

	size, err := buf.Size()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), size)
	assert.Equal(t, uint32(10), buf.Capacity())
	assert.False(t, buf.View().Resizable())
	assert.Equal(t, Fixed, buf.Type())
	assert.Equal(t, uint64(40), res.Host().Mapped())
}

func TestBuffer_Resizable(t *testing.T) {
	res := memory.NewHostResource()

	buf, err := NewBuffer[float64](100, res, Resizable)
	require.NoError(t, err)
	defer buf.Close()

	v := buf.View()
	assert.True(t, v.Resizable())
	assert.Equal(t, uint32(100), buf.Capacity())
	assert.Equal(t, uint64(0), uint64(v.Ptr())%8, "payload must keep element alignment")
	assert.Equal(t, uint64(8), uint64(v.Ptr())-uint64(v.SizePtr()))
	assert.Equal(t, uint64(8+800), res.Host().Mapped())
}

func TestBuffer_ResizableSmallElements(t *testing.T) {
	res := memory.NewHostResource()

	buf, err := NewBuffer[uint8](3, res, Resizable)
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, uint64(4), uint64(buf.View().Ptr())-uint64(buf.View().SizePtr()))
}

func TestBuffer_ZeroCapacity(t *testing.T) {
	res := memory.NewHostResource()

	buf, err := NewBuffer[int32](0, res, Fixed)
	require.NoError(t, err)
	assert.True(t, buf.View().Ptr().IsNull())
	assert.Equal(t, 0, res.Host().Regions())
	require.NoError(t, buf.Close())
}

func TestBuffer_MoveAndClose(t *testing.T) {
	res := memory.NewTrackingResource(memory.NewHostResource())

	buf, err := NewBuffer[int64](4, res, Fixed)
	require.NoError(t, err)
	before := buf.View()

	moved := buf.Move()
	assert.True(t, moved.View().Equal(before), "move keeps the geometry")
	assert.True(t, buf.View().Ptr().IsNull(), "source is empty after move")

	require.NoError(t, buf.Close())
	assert.Equal(t, 1, res.Live(), "closing the moved-from buffer frees nothing")

	require.NoError(t, moved.Close())
	require.NoError(t, moved.Close())
	assert.Equal(t, 0, res.Live())
	assert.Equal(t, 0, res.Stats().InvalidFrees)
}

func TestBuffer_ViewsStayEqual(t *testing.T) {
	res := memory.NewHostResource()
	buf, err := NewBuffer[int32](8, res, Resizable)
	require.NoError(t, err)
	defer buf.Close()

	a := buf.View()
	require.NoError(t, res.Memory().StoreU32(a.SizePtr(), 5))
	b := buf.View()
	assert.True(t, a.Equal(b))
}

func TestBuffer_Errors(t *testing.T) {
	t.Run("pointer element", func(t *testing.T) {
		_, err := NewBuffer[string](4, memory.NewHostResource(), Fixed)
		assert.ErrorIs(t, err, errors.ErrNotRelocatable)
	})

	t.Run("allocation failure", func(t *testing.T) {
		res := memory.NewHostResource(memory.WithLimit(16))
		_, err := NewBuffer[int64](4, res, Fixed)
		assert.ErrorIs(t, err, errors.ErrAllocation)
	})

	t.Run("oversized host buffer", func(t *testing.T) {
		res := memory.NewHostResource()
		_, err := NewBuffer[[1 << 20]byte](1<<30, res, Fixed)
		assert.ErrorIs(t, err, errors.ErrAllocation)
		assert.Zero(t, res.Host().Regions())
	})

	t.Run("device exhausted", func(t *testing.T) {
		ctx := context.Background()
		dev, err := device.Open(ctx, &device.Config{Pages: 1})
		require.NoError(t, err)
		defer dev.Close(ctx)

		_, err = NewBuffer[int64](vecmem.SizeType(device.PageSize), dev.Resource(), Resizable)
		assert.ErrorIs(t, err, errors.ErrAllocation)
	})
}

func TestBuffer_DeviceMemory(t *testing.T) {
	ctx := context.Background()
	dev, err := device.Open(ctx, &device.Config{Pages: 1})
	require.NoError(t, err)
	defer dev.Close(ctx)

	buf, err := NewBuffer[int32](16, dev.Resource(), Fixed)
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, vecmem.SpaceDevice, buf.View().Memory().Space())
	elems, err := buf.Elements()
	require.NoError(t, err)
	assert.Len(t, elems, 16)
}
