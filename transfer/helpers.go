package transfer

import (
	"context"
	"unsafe"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/data"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/layout"
)

// To allocates a buffer in res and copies src into it.
// A resizable buffer is set up before the copy, so its size ends up equal to src's.
// A fixed buffer is sized from src's logical size; when src is resizable and the
// copier is asynchronous, To waits for the queue first so the size reflects every
// earlier submission, and reports their errors.
func To[T any](ctx context.Context, c *Copier, src data.Viewer[T], res vecmem.Resource, typ data.Type) (*data.Buffer[T], error) {
	capacity := src.Capacity()
	if typ == data.Fixed {
		if c.Async() && src.Raw().Resizable() {
			if err := c.Synchronize(ctx); err != nil {
				return nil, err
			}
		}
		size, err := src.Size()
		if err != nil {
			return nil, err
		}
		capacity = size
	}
	buf, err := data.NewBuffer[T](capacity, res, typ)
	if err != nil {
		return nil, err
	}
	if err := c.Setup(ctx, buf.Raw()); err != nil {
		_ = buf.Close()
		return nil, err
	}
	if err := c.Copy(ctx, src.Raw(), buf.Raw()); err != nil {
		_ = buf.Close()
		return nil, err
	}
	return buf, nil
}

// ToJagged allocates a jagged buffer shaped like src, sets it up and copies src into it.
// hostRes may be nil to keep the row-View array only in res.
// A fixed buffer is packed to src's row sizes; on an asynchronous copier
// ToJagged waits for the queue before reading them, and reports the errors of
// earlier submissions.
func ToJagged[T any](ctx context.Context, c *Copier, src data.JaggedView[T], res, hostRes vecmem.Resource, typ data.Type) (*data.JaggedBuffer[T], error) {
	if typ == data.Fixed && c.Async() {
		if err := c.Synchronize(ctx); err != nil {
			return nil, err
		}
	}
	buf, err := data.NewJaggedBufferLike(src, res, hostRes, typ)
	if err != nil {
		return nil, err
	}
	if err := c.SetupJagged(ctx, buf.Raw()); err != nil {
		_ = buf.Close()
		return nil, err
	}
	if err := c.CopyJagged(ctx, src.Raw(), buf.Raw()); err != nil {
		_ = buf.Close()
		return nil, err
	}
	return buf, nil
}

// FromSlice copies the elements of s into dst. The slice is captured when the
// call is made, so it may be reused immediately even on an asynchronous copier.
func FromSlice[T any](ctx context.Context, c *Copier, s []T, dst data.View[T], opts ...CopyOption) error {
	info, err := layout.Of[T]()
	if err != nil {
		return err
	}
	n := vecmem.SizeType(len(s))
	if n > dst.Capacity() {
		return errors.CapacityExceeded(errors.PhaseCopy, nil, uint64(n), uint64(dst.Capacity()))
	}
	payload := make([]byte, uint64(n)*info.Size)
	if n > 0 {
		copy(payload, unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(payload)))
	}

	o := resolve(opts)
	raw := dst.Raw()
	return c.submit(ctx, "from slice", func(context.Context) error {
		if err := raw.Mem.Write(raw.Ptr, payload); err != nil {
			return err
		}
		if raw.Resizable() && !o.payloadOnly {
			return raw.Mem.StoreU32(raw.SizePtr, n)
		}
		return nil
	})
}

// ToSlice fetches the logical size of src and copies exactly that many
// elements into a new slice. On an asynchronous copier it waits for the
// queue, and therefore also reports errors of earlier queued operations.
func ToSlice[T any](ctx context.Context, c *Copier, src data.Viewer[T]) ([]T, error) {
	if _, err := layout.Of[T](); err != nil {
		return nil, err
	}
	raw := src.Raw()
	var out []T
	err := c.submit(ctx, "to slice", func(context.Context) error {
		size, err := raw.LoadSize()
		if err != nil {
			return err
		}
		b, err := raw.Bytes(size)
		if err != nil {
			return err
		}
		out = make([]T, size)
		if size > 0 {
			copy(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(out))), len(b)), b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := c.Synchronize(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ToSlices copies every row of a jagged view into nested slices.
func ToSlices[T any](ctx context.Context, c *Copier, src data.JaggedView[T]) ([][]T, error) {
	rows, err := src.Rows()
	if err != nil {
		return nil, err
	}
	out := make([][]T, len(rows))
	for i, r := range rows {
		if out[i], err = ToSlice[T](ctx, c, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}
