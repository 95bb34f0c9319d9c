package transfer

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/vecmem/data"
	"github.com/wippyai/vecmem/errors"
)

// SetupJagged makes a jagged buffer usable by kernels: the host mirror of the
// row-View array is copied to the kernel-side array when they differ, and every
// resizable row counter is zeroed.
func (c *Copier) SetupJagged(ctx context.Context, dst data.RawJagged) error {
	return c.submit(ctx, "setup jagged", func(ctx context.Context) error {
		if dst.Size == 0 {
			return nil
		}
		if dst.Split() {
			n := uint64(dst.Size) * data.RecordSize
			if err := c.move(ctx, dst.HostMem, dst.HostPtr, dst.Mem, dst.Ptr, n, 0); err != nil {
				return err
			}
		}
		rows, err := dst.HostRows()
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.Resizable() {
				if err := r.Mem.StoreU32(r.SizePtr, 0); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CopyJagged copies every row of src into the matching row of dst.
//
// Both sides must have the same number of rows, and each destination row must
// already have room for its source row. Fixed destination rows must have
// exactly the source row's size.
func (c *Copier) CopyJagged(ctx context.Context, src, dst data.RawJagged, opts ...CopyOption) error {
	if src.ElemSize != dst.ElemSize {
		return errors.New(errors.PhaseCopy, errors.KindInvalidInput).
			ElemType(dst.ElemType).
			Detail("cannot copy %s rows of %d-byte elements into %d-byte elements", src.ElemType, src.ElemSize, dst.ElemSize).
			Build()
	}
	if src.Size != dst.Size {
		return errors.ShapeMismatch(errors.PhaseCopy, nil,
			fmt.Sprintf("%d source rows, %d destination rows", src.Size, dst.Size))
	}
	o := resolve(opts)
	return c.submit(ctx, "copy jagged", func(ctx context.Context) error {
		return c.copyJagged(ctx, src, dst, o)
	})
}

func (c *Copier) copyJagged(ctx context.Context, src, dst data.RawJagged, o copyOptions) error {
	srcRows, err := src.HostRows()
	if err != nil {
		return err
	}
	dstRows, err := dst.HostRows()
	if err != nil {
		return err
	}

	sizes := make([]uint32, len(srcRows))
	flat := len(srcRows) > 0
	for i, s := range srcRows {
		d := dstRows[i]
		path := []string{"row", strconv.Itoa(i)}
		if sizes[i], err = s.LoadSize(); err != nil {
			return err
		}
		if sizes[i] > d.Capacity {
			return errors.CapacityExceeded(errors.PhaseCopy, path, uint64(sizes[i]), uint64(d.Capacity))
		}
		if !d.Resizable() && d.Size != sizes[i] {
			return errors.ShapeMismatch(errors.PhaseCopy, path,
				fmt.Sprintf("source row has %d elements, fixed destination row has %d", sizes[i], d.Size))
		}
		if sizes[i] != s.Capacity || s.Capacity != d.Capacity {
			flat = false
		}
	}

	if flat && data.RowsContiguous(srcRows) && data.RowsContiguous(dstRows) {
		var total uint64
		for _, s := range sizes {
			total += uint64(s)
		}
		c.log.Debug("jagged copy flattened", zap.Int("rows", len(srcRows)), zap.Uint64("elements", total))
		first := firstNonEmpty(srcRows)
		if err := c.move(ctx, src.RowMem, srcRows[first].Ptr, dst.RowMem, dstRows[first].Ptr, total*src.ElemSize, o.dir); err != nil {
			return err
		}
	} else {
		c.log.Debug("jagged copy by row", zap.Int("rows", len(srcRows)))
		for i, s := range srcRows {
			if err := c.move(ctx, src.RowMem, s.Ptr, dst.RowMem, dstRows[i].Ptr, uint64(sizes[i])*src.ElemSize, o.dir); err != nil {
				return err
			}
		}
	}

	if o.payloadOnly {
		return nil
	}
	for i, d := range dstRows {
		if d.Resizable() {
			if err := d.Mem.StoreU32(d.SizePtr, sizes[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstNonEmpty(rows []data.Raw) int {
	for i, r := range rows {
		if r.Capacity > 0 {
			return i
		}
	}
	return 0
}
