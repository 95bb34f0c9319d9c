package data

import (
	"encoding/binary"
	"strconv"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/layout"
	"github.com/wippyai/vecmem/memory"
)

// RowPlan places one row inside a jagged payload allocation.
type RowPlan struct {
	Offset     uint64 // payload offset of the first element
	SizeOffset uint64 // offset of the row counter, resizable layouts only
	Size       vecmem.SizeType
	Capacity   vecmem.SizeType
}

// Plan is the flat layout of a jagged collection.
type Plan struct {
	Rows         []RowPlan
	Bytes        uint64 // total payload allocation, counters included
	CounterBytes uint64 // leading counter block, 0 for fixed layouts
	Align        uint64
}

// PlanJagged lays out rows back to back: row i starts after the counter block
// plus the capacities of rows [0, i).
//
// A nil sizes means every row is full; a nil capacities means capacities equal
// sizes. Fixed rows get capacity == size, but still reserve their capacity.
func PlanJagged(sizes, capacities []vecmem.SizeType, elemSize, elemAlign uint64, typ Type) (Plan, error) {
	switch {
	case sizes == nil:
		sizes = capacities
	case capacities == nil:
		capacities = sizes
	}
	if len(sizes) != len(capacities) {
		return Plan{}, errors.ShapeMismatch(errors.PhaseLayout, nil,
			strconv.Itoa(len(sizes))+" row sizes for "+strconv.Itoa(len(capacities))+" row capacities")
	}
	if elemSize == 0 {
		return Plan{}, errors.InvalidInput(errors.PhaseLayout, "zero element size")
	}

	n := uint64(len(sizes))
	p := Plan{Rows: make([]RowPlan, n), Align: max(elemAlign, 4)}
	if typ == Resizable {
		p.CounterBytes = n * 4
	}
	offset := layout.AlignTo(p.CounterBytes, p.Align)

	for i := range sizes {
		if sizes[i] > capacities[i] {
			return Plan{}, errors.CapacityExceeded(errors.PhaseLayout,
				[]string{"row", strconv.Itoa(i)}, uint64(sizes[i]), uint64(capacities[i]))
		}
		row := RowPlan{Offset: offset, Size: sizes[i], Capacity: capacities[i]}
		if typ == Resizable {
			row.SizeOffset = uint64(i) * 4
		} else {
			row.Capacity = sizes[i]
		}
		p.Rows[i] = row

		stride, ok := layout.Bytes(uint64(capacities[i]), elemSize)
		if !ok || offset+stride < offset {
			return Plan{}, errors.AllocationFailed(errors.PhaseLayout, offset, p.Align, nil)
		}
		offset += stride
	}
	p.Bytes = offset
	return p, nil
}

// JaggedView is a non-owning view of variable-length rows.
type JaggedView[T any] struct {
	raw RawJagged
}

// JaggedViewOf types an untyped jagged geometry. The element size must match T.
func JaggedViewOf[T any](r RawJagged) (JaggedView[T], error) {
	info, err := layout.Of[T]()
	if err != nil {
		return JaggedView[T]{}, err
	}
	if r.ElemSize != info.Size {
		return JaggedView[T]{}, elemMismatch(info, r.ElemType, r.ElemSize)
	}
	r.ElemType = info.Name
	r.Align = info.Align
	return JaggedView[T]{raw: r}, nil
}

// Size returns the number of rows.
func (j JaggedView[T]) Size() vecmem.SizeType { return j.raw.Size }

// Ptr returns the address of the row-View array used by kernels.
func (j JaggedView[T]) Ptr() vecmem.Ptr { return j.raw.Ptr }

// HostPtr returns the address of the host mirror of the row-View array.
func (j JaggedView[T]) HostPtr() vecmem.Ptr { return j.raw.HostPtr }

// Memory returns the memory holding the row-View array.
func (j JaggedView[T]) Memory() vecmem.Memory { return j.raw.Mem }

// HostMemory returns the memory holding the host mirror.
func (j JaggedView[T]) HostMemory() vecmem.Memory { return j.raw.HostMem }

// RowMemory returns the memory holding row payloads.
func (j JaggedView[T]) RowMemory() vecmem.Memory { return j.raw.RowMem }

// Raw returns the untyped geometry.
func (j JaggedView[T]) Raw() RawJagged { return j.raw }

// Row decodes row i from the row-View array.
func (j JaggedView[T]) Row(i vecmem.SizeType) (View[T], error) {
	r, err := j.raw.Row(i)
	return View[T]{raw: r}, err
}

// HostRow decodes row i from the host mirror.
func (j JaggedView[T]) HostRow(i vecmem.SizeType) (View[T], error) {
	r, err := j.raw.HostRow(i)
	return View[T]{raw: r}, err
}

// Rows decodes every row from the host mirror.
func (j JaggedView[T]) Rows() ([]View[T], error) {
	raws, err := j.raw.HostRows()
	if err != nil {
		return nil, err
	}
	rows := make([]View[T], len(raws))
	for i, r := range raws {
		rows[i] = View[T]{raw: r}
	}
	return rows, nil
}

// Contiguous reports whether row payloads are back to back.
func (j JaggedView[T]) Contiguous() (bool, error) { return j.raw.Contiguous() }

// Equal reports whether both views describe the same arrays.
func (j JaggedView[T]) Equal(o JaggedView[T]) bool {
	return j.raw.Mem == o.raw.Mem && j.raw.Ptr == o.raw.Ptr &&
		j.raw.HostMem == o.raw.HostMem && j.raw.HostPtr == o.raw.HostPtr &&
		j.raw.RowMem == o.raw.RowMem && j.raw.Size == o.raw.Size
}

// JaggedBuffer owns a flat payload allocation and the row-View arrays that partition it.
// JaggedBuffers must not be copied; use Move to transfer ownership.
type JaggedBuffer[T any] struct {
	noCopy  noCopy
	res     vecmem.Resource
	hostRes vecmem.Resource
	view    JaggedView[T]
	plan    Plan
	payload vecmem.Ptr
	typ     Type
}

// NewJaggedBuffer allocates rows of the given sizes and capacities.
//
// The payload and the kernel-side row-View array are allocated in res. When
// hostRes is non-nil a host mirror of the array is allocated there and written
// immediately; the array in res is written by the copy engine's SetupJagged.
// Without hostRes the single array in res is written immediately.
// Resizable row counters start at sizes[i].
func NewJaggedBuffer[T any](sizes, capacities []vecmem.SizeType, res, hostRes vecmem.Resource, typ Type) (*JaggedBuffer[T], error) {
	info, err := layout.Of[T]()
	if err != nil {
		return nil, err
	}
	plan, err := PlanJagged(sizes, capacities, info.Size, info.Align, typ)
	if err != nil {
		return nil, err
	}

	b := &JaggedBuffer[T]{res: res, hostRes: hostRes, plan: plan, typ: typ}
	n := vecmem.SizeType(len(plan.Rows))
	b.view.raw = RawJagged{
		Mem:      res.Memory(),
		HostMem:  res.Memory(),
		RowMem:   res.Memory(),
		ElemType: info.Name,
		ElemSize: info.Size,
		Align:    info.Align,
		Size:     n,
	}
	if hostRes != nil {
		b.view.raw.HostMem = hostRes.Memory()
	}

	if plan.Bytes > 0 {
		if b.payload, err = res.Allocate(plan.Bytes, plan.Align); err != nil {
			return nil, err
		}
	}
	arrayBytes := uint64(n) * RecordSize
	if arrayBytes > 0 {
		if b.view.raw.Ptr, err = res.Allocate(arrayBytes, recordAlign); err != nil {
			_ = b.Close()
			return nil, err
		}
		b.view.raw.HostPtr = b.view.raw.Ptr
		if hostRes != nil {
			if b.view.raw.HostPtr, err = hostRes.Allocate(arrayBytes, recordAlign); err != nil {
				b.view.raw.HostPtr = 0
				_ = b.Close()
				return nil, err
			}
		}
	}

	if err := b.writeLayout(); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *JaggedBuffer[T]) writeLayout() error {
	rows := b.plannedRows()
	if err := WriteRows(b.view.raw.HostMem, b.view.raw.HostPtr, rows); err != nil {
		return err
	}
	if b.typ != Resizable || len(rows) == 0 {
		return nil
	}
	counters := make([]byte, b.plan.CounterBytes)
	for _, r := range b.plan.Rows {
		binary.LittleEndian.PutUint32(counters[r.SizeOffset:], r.Size)
	}
	return b.view.raw.RowMem.Write(b.payload, counters)
}

func (b *JaggedBuffer[T]) plannedRows() []Raw {
	rows := make([]Raw, len(b.plan.Rows))
	proto := b.view.raw.row()
	for i, p := range b.plan.Rows {
		r := proto
		r.Capacity = p.Capacity
		if !b.payload.IsNull() {
			r.Ptr = b.payload.Add(p.Offset)
		}
		if b.typ == Resizable {
			r.SizePtr = b.payload.Add(p.SizeOffset)
		} else {
			r.Size = p.Size
		}
		rows[i] = r
	}
	return rows
}

// NewJaggedBufferLike allocates a buffer with the row sizes of src. Resizable
// buffers also take src's row capacities; fixed buffers are packed to the sizes.
func NewJaggedBufferLike[T any](src JaggedView[T], res, hostRes vecmem.Resource, typ Type) (*JaggedBuffer[T], error) {
	rows, err := src.raw.HostRows()
	if err != nil {
		return nil, err
	}
	sizes := make([]vecmem.SizeType, len(rows))
	capacities := make([]vecmem.SizeType, len(rows))
	for i, r := range rows {
		if sizes[i], err = r.LoadSize(); err != nil {
			return nil, err
		}
		capacities[i] = sizes[i]
		if typ == Resizable {
			capacities[i] = r.Capacity
		}
	}
	return NewJaggedBuffer[T](sizes, capacities, res, hostRes, typ)
}

// View returns the jagged view of the buffer.
func (b *JaggedBuffer[T]) View() JaggedView[T] { return b.view }

// Raw returns the untyped jagged geometry.
func (b *JaggedBuffer[T]) Raw() RawJagged { return b.view.raw }

// Size returns the number of rows.
func (b *JaggedBuffer[T]) Size() vecmem.SizeType { return b.view.raw.Size }

// Plan returns the payload layout.
func (b *JaggedBuffer[T]) Plan() Plan { return b.plan }

// Type returns the buffer type.
func (b *JaggedBuffer[T]) Type() Type { return b.typ }

// Resource returns the payload resource.
func (b *JaggedBuffer[T]) Resource() vecmem.Resource { return b.res }

// HostResource returns the resource of the host mirror, or nil.
func (b *JaggedBuffer[T]) HostResource() vecmem.Resource { return b.hostRes }

// Move transfers ownership to a new JaggedBuffer and leaves b empty.
func (b *JaggedBuffer[T]) Move() *JaggedBuffer[T] {
	m := &JaggedBuffer[T]{
		res:     b.res,
		hostRes: b.hostRes,
		view:    b.view,
		plan:    b.plan,
		payload: b.payload,
		typ:     b.typ,
	}
	b.payload = 0
	b.plan = Plan{}
	b.view.raw.Ptr, b.view.raw.HostPtr, b.view.raw.Size = 0, 0, 0
	return m
}

// Close releases the payload and both row-View arrays. It is safe to call twice.
func (b *JaggedBuffer[T]) Close() error {
	arrayBytes := uint64(b.view.raw.Size) * RecordSize
	if !b.payload.IsNull() {
		b.res.Deallocate(b.payload, b.plan.Bytes, b.plan.Align)
	}
	if b.hostRes != nil && !b.view.raw.HostPtr.IsNull() && b.view.raw.HostPtr != b.view.raw.Ptr {
		b.hostRes.Deallocate(b.view.raw.HostPtr, arrayBytes, recordAlign)
	}
	if !b.view.raw.Ptr.IsNull() {
		b.res.Deallocate(b.view.raw.Ptr, arrayBytes, recordAlign)
	}
	b.payload = 0
	b.plan = Plan{}
	b.view.raw.Ptr, b.view.raw.HostPtr, b.view.raw.Size = 0, 0, 0
	return nil
}

// JaggedData describes rows that already live in memory. It owns only the
// row-View array, plus any pins it created.
type JaggedData[T any] struct {
	noCopy  noCopy
	res     vecmem.Resource
	view    JaggedView[T]
	release []func()
}

// NewJaggedData writes a row-View array for rows into res. All rows must
// live in the same memory.
func NewJaggedData[T any](rows []View[T], res vecmem.Resource) (*JaggedData[T], error) {
	info, err := layout.Of[T]()
	if err != nil {
		return nil, err
	}
	rowMem := res.Memory()
	raws := make([]Raw, len(rows))
	for i, r := range rows {
		if i == 0 {
			rowMem = r.Memory()
		} else if r.Memory() != rowMem {
			return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
				Path("row", strconv.Itoa(i)).
				Detail("rows of one jagged collection must share a memory").
				Build()
		}
		raws[i] = r.raw
	}

	d := &JaggedData[T]{res: res}
	d.view.raw = RawJagged{
		Mem:      res.Memory(),
		HostMem:  res.Memory(),
		RowMem:   rowMem,
		ElemType: info.Name,
		ElemSize: info.Size,
		Align:    info.Align,
		Size:     vecmem.SizeType(len(rows)),
	}
	if len(rows) > 0 {
		ptr, err := res.Allocate(uint64(len(rows))*RecordSize, recordAlign)
		if err != nil {
			return nil, err
		}
		d.view.raw.Ptr, d.view.raw.HostPtr = ptr, ptr
		if err := WriteRows(res.Memory(), ptr, raws); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	return d, nil
}

// PinJagged exposes nested Go slices as a jagged host collection without
// copying row payloads. Close unpins the rows.
func PinJagged[T any](res *memory.HostResource, rows [][]T) (*JaggedData[T], error) {
	views := make([]View[T], len(rows))
	var release []func()
	unpin := func() {
		for _, r := range release {
			r()
		}
	}
	for i, row := range rows {
		v, r, err := Pin(res.Host(), row)
		if err != nil {
			unpin()
			return nil, err
		}
		views[i] = v
		release = append(release, r)
	}
	d, err := NewJaggedData(views, res)
	if err != nil {
		unpin()
		return nil, err
	}
	d.release = release
	return d, nil
}

// View returns the jagged view.
func (d *JaggedData[T]) View() JaggedView[T] { return d.view }

// Raw returns the untyped jagged geometry.
func (d *JaggedData[T]) Raw() RawJagged { return d.view.raw }

// Size returns the number of rows.
func (d *JaggedData[T]) Size() vecmem.SizeType { return d.view.raw.Size }

// Close releases the row-View array and unpins pinned rows.
func (d *JaggedData[T]) Close() error {
	if !d.view.raw.Ptr.IsNull() {
		d.res.Deallocate(d.view.raw.Ptr, uint64(d.view.raw.Size)*RecordSize, recordAlign)
	}
	for _, r := range d.release {
		r()
	}
	d.release = nil
	d.view.raw.Ptr, d.view.raw.HostPtr, d.view.raw.Size = 0, 0, 0
	return nil
}
