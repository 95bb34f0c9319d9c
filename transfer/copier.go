package transfer

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/data"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/memory"
	"github.com/wippyai/vecmem/queue"
)

// Option configures a Copier.
type Option func(*Copier)

// WithQueue makes the copier asynchronous: operations are submitted to q.
func WithQueue(q *queue.Queue) Option {
	return func(c *Copier) { c.queue = q }
}

// WithStaging sets the host resource used for staged transfers.
func WithStaging(res vecmem.Resource) Option {
	return func(c *Copier) { c.staging = res }
}

// WithLogger overrides the package logger for one copier.
func WithLogger(l *zap.Logger) Option {
	return func(c *Copier) { c.log = l }
}

// CopyOption adjusts a single copy.
type CopyOption func(*copyOptions)

type copyOptions struct {
	dir         vecmem.Direction
	payloadOnly bool
}

// WithDirection hints the transfer direction instead of inferring it.
func WithDirection(d vecmem.Direction) CopyOption {
	return func(o *copyOptions) { o.dir = d }
}

// PayloadOnly leaves a resizable destination's counter untouched.
func PayloadOnly() CopyOption {
	return func(o *copyOptions) { o.payloadOnly = true }
}

func resolve(opts []CopyOption) copyOptions {
	var o copyOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Copier is the copy engine.
type Copier struct {
	queue   *queue.Queue
	staging vecmem.Resource
	log     *zap.Logger
}

// New creates a copier. Without WithQueue every operation completes before
// it returns.
func New(opts ...Option) *Copier {
	c := &Copier{}
	for _, opt := range opts {
		opt(c)
	}
	if c.staging == nil {
		c.staging = memory.NewHostResource()
	}
	if c.log == nil {
		c.log = Logger()
	}
	return c
}

// Async reports whether operations are queued.
func (c *Copier) Async() bool {
	return c.queue != nil
}

// Synchronize waits for every queued operation and returns their errors.
// It returns nil immediately for a synchronous copier.
func (c *Copier) Synchronize(ctx context.Context) error {
	if c.queue == nil {
		return nil
	}
	return c.queue.Synchronize(ctx)
}

func (c *Copier) submit(ctx context.Context, name string, op queue.Op) error {
	if c.queue == nil {
		return op(ctx)
	}
	return c.queue.Submit(ctx, name, op)
}

// Setup zeroes the counter of a resizable view. Fixed views are left alone.
// Payload bytes are never touched.
func (c *Copier) Setup(ctx context.Context, dst data.Raw) error {
	if !dst.Resizable() {
		return nil
	}
	return c.submit(ctx, "setup", func(context.Context) error {
		return dst.Mem.StoreU32(dst.SizePtr, 0)
	})
}

// Copy copies the logical contents of src into dst.
func (c *Copier) Copy(ctx context.Context, src, dst data.Raw, opts ...CopyOption) error {
	if err := checkElements(src, dst); err != nil {
		return err
	}
	if !src.Resizable() && src.Size > dst.Capacity {
		return errors.CapacityExceeded(errors.PhaseCopy, nil, uint64(src.Size), uint64(dst.Capacity))
	}
	o := resolve(opts)
	return c.submit(ctx, "copy", func(ctx context.Context) error {
		return c.copyRaw(ctx, src, dst, o)
	})
}

func (c *Copier) copyRaw(ctx context.Context, src, dst data.Raw, o copyOptions) error {
	size, err := src.LoadSize()
	if err != nil {
		return err
	}
	if size > dst.Capacity {
		return errors.CapacityExceeded(errors.PhaseCopy, nil, uint64(size), uint64(dst.Capacity))
	}
	if err := c.move(ctx, src.Mem, src.Ptr, dst.Mem, dst.Ptr, uint64(size)*src.ElemSize, o.dir); err != nil {
		return err
	}
	if dst.Resizable() && !o.payloadOnly {
		return dst.Mem.StoreU32(dst.SizePtr, size)
	}
	return nil
}

// CopySize copies only the logical size of src into the counter of dst.
func (c *Copier) CopySize(ctx context.Context, src, dst data.Raw) error {
	if !dst.Resizable() {
		return errors.Unsupported(errors.PhaseCopy, "size-only copy into a fixed-size view")
	}
	return c.submit(ctx, "copy size", func(context.Context) error {
		size, err := src.LoadSize()
		if err != nil {
			return err
		}
		if size > dst.Capacity {
			return errors.CapacityExceeded(errors.PhaseCopy, nil, uint64(size), uint64(dst.Capacity))
		}
		return dst.Mem.StoreU32(dst.SizePtr, size)
	})
}

func checkElements(src, dst data.Raw) error {
	if src.ElemSize != dst.ElemSize {
		return errors.New(errors.PhaseCopy, errors.KindInvalidInput).
			ElemType(dst.ElemType).
			Detail("cannot copy %s elements of %d bytes into %d-byte elements", src.ElemType, src.ElemSize, dst.ElemSize).
			Build()
	}
	return nil
}

// move copies n bytes between memories, staging through host memory when
// neither side is host accessible.
func (c *Copier) move(ctx context.Context, src vecmem.Memory, sp vecmem.Ptr, dst vecmem.Memory, dp vecmem.Ptr, n uint64, dir vecmem.Direction) error {
	if n == 0 {
		return nil
	}
	if dir == vecmem.DirectionUnknown {
		dir = vecmem.InferDirection(src.Space(), dst.Space())
	}

	switch {
	case src == dst:
		c.log.Debug("copy in place", zap.Stringer("direction", dir), zap.Uint64("bytes", n))
		from, err := src.Read(sp, n)
		if err != nil {
			return err
		}
		to, err := dst.Read(dp, n)
		if err != nil {
			return err
		}
		copy(to, from)
		return nil

	case direct(src.Space()) || direct(dst.Space()):
		c.log.Debug("copy direct", zap.Stringer("direction", dir), zap.Uint64("bytes", n))
		from, err := src.Read(sp, n)
		if err != nil {
			return err
		}
		return dst.Write(dp, from)

	default:
		return c.staged(ctx, src, sp, dst, dp, n, dir)
	}
}

func direct(s vecmem.Space) bool {
	return s.HostAccessible() || s == vecmem.SpaceUnknown
}

func (c *Copier) staged(_ context.Context, src vecmem.Memory, sp vecmem.Ptr, dst vecmem.Memory, dp vecmem.Ptr, n uint64, dir vecmem.Direction) error {
	stage, err := c.staging.Allocate(n, 8)
	if err != nil {
		return errors.Wrap(errors.PhaseCopy, errors.KindAllocation, err, "staging buffer")
	}
	defer c.staging.Deallocate(stage, n, 8)

	c.log.Debug("copy staged",
		zap.Stringer("direction", dir),
		zap.Uint64("bytes", n),
		zap.Stringer("from", src.Space()),
		zap.Stringer("to", dst.Space()))

	hostMem := c.staging.Memory()
	from, err := src.Read(sp, n)
	if err != nil {
		return err
	}
	if err := hostMem.Write(stage, from); err != nil {
		return err
	}
	buf, err := hostMem.Read(stage, n)
	if err != nil {
		return err
	}
	return dst.Write(dp, buf)
}
