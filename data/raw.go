package data

import (
	"encoding/binary"
	"strconv"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/layout"
)

// RecordSize is the encoded size of one row-View record.
// Layout (little endian): ptr u64 | sizePtr u64 | size u32 | capacity u32.
const RecordSize = 24

// recordAlign is the alignment of row-View arrays.
const recordAlign = 8

// Raw is the untyped geometry of a View. The copy engine operates on Raw values.
type Raw struct {
	Mem      vecmem.Memory
	ElemType string
	Ptr      vecmem.Ptr
	SizePtr  vecmem.Ptr // null for fixed-size views
	ElemSize uint64
	Align    uint64
	Size     vecmem.SizeType // meaningful only when SizePtr is null
	Capacity vecmem.SizeType
}

func rawOf(mem vecmem.Memory, info layout.Info) Raw {
	return Raw{Mem: mem, ElemType: info.Name, ElemSize: info.Size, Align: info.Align}
}

// Resizable reports whether the logical size lives in a counter.
func (r Raw) Resizable() bool {
	return !r.SizePtr.IsNull()
}

// LoadSize returns the logical size, atomically loading the counter of a resizable view.
func (r Raw) LoadSize() (vecmem.SizeType, error) {
	if !r.Resizable() {
		return r.Size, nil
	}
	return r.Mem.LoadU32(r.SizePtr)
}

// StoreSize writes the counter of a resizable view.
func (r Raw) StoreSize(n vecmem.SizeType) error {
	if !r.Resizable() {
		return errors.Unsupported(errors.PhaseAccess, "size of a fixed-size view cannot change")
	}
	if n > r.Capacity {
		return errors.CapacityExceeded(errors.PhaseAccess, nil, uint64(n), uint64(r.Capacity))
	}
	return r.Mem.StoreU32(r.SizePtr, n)
}

// Bytes returns a view of the first n elements' bytes.
func (r Raw) Bytes(n vecmem.SizeType) ([]byte, error) {
	if n > r.Capacity {
		return nil, errors.OutOfBounds(errors.PhaseAccess, nil, uint64(n), uint64(r.Capacity))
	}
	return r.Mem.Read(r.Ptr, uint64(n)*r.ElemSize)
}

// Equal reports whether both describe the same geometry in the same memory.
func (r Raw) Equal(o Raw) bool {
	return r.Mem == o.Mem &&
		r.Ptr == o.Ptr &&
		r.SizePtr == o.SizePtr &&
		r.Size == o.Size &&
		r.Capacity == o.Capacity &&
		r.ElemSize == o.ElemSize
}

func (r Raw) encode(b []byte) {
	binary.LittleEndian.PutUint64(b[0:], uint64(r.Ptr))
	binary.LittleEndian.PutUint64(b[8:], uint64(r.SizePtr))
	binary.LittleEndian.PutUint32(b[16:], r.Size)
	binary.LittleEndian.PutUint32(b[20:], r.Capacity)
}

// decode fills the geometry fields of r from an encoded record.
func (r Raw) decode(b []byte) Raw {
	r.Ptr = vecmem.Ptr(binary.LittleEndian.Uint64(b[0:]))
	r.SizePtr = vecmem.Ptr(binary.LittleEndian.Uint64(b[8:]))
	r.Size = binary.LittleEndian.Uint32(b[16:])
	r.Capacity = binary.LittleEndian.Uint32(b[20:])
	return r
}

// RawJagged is the untyped geometry of a JaggedView.
//
// The row-View array exists at Ptr in Mem and, when the bookkeeping is split,
// as a host mirror at HostPtr in HostMem. Row payloads live in RowMem.
type RawJagged struct {
	Mem      vecmem.Memory
	HostMem  vecmem.Memory
	RowMem   vecmem.Memory
	ElemType string
	Ptr      vecmem.Ptr
	HostPtr  vecmem.Ptr
	ElemSize uint64
	Align    uint64
	Size     vecmem.SizeType
}

// Split reports whether the row-View array has a separate host mirror.
func (j RawJagged) Split() bool {
	return j.Mem != j.HostMem || j.Ptr != j.HostPtr
}

func (j RawJagged) row() Raw {
	return Raw{Mem: j.RowMem, ElemType: j.ElemType, ElemSize: j.ElemSize, Align: j.Align}
}

// Row decodes row i from the array at Ptr.
func (j RawJagged) Row(i vecmem.SizeType) (Raw, error) {
	return j.readRow(j.Mem, j.Ptr, i)
}

// HostRow decodes row i from the host mirror.
func (j RawJagged) HostRow(i vecmem.SizeType) (Raw, error) {
	return j.readRow(j.HostMem, j.HostPtr, i)
}

func (j RawJagged) readRow(mem vecmem.Memory, base vecmem.Ptr, i vecmem.SizeType) (Raw, error) {
	if i >= j.Size {
		return Raw{}, errors.OutOfBounds(errors.PhaseAccess, []string{"row"}, uint64(i), uint64(j.Size))
	}
	b, err := mem.Read(base.Add(uint64(i)*RecordSize), RecordSize)
	if err != nil {
		return Raw{}, err
	}
	return j.row().decode(b), nil
}

// HostRows decodes every row from the host mirror.
func (j RawJagged) HostRows() ([]Raw, error) {
	return j.readRows(j.HostMem, j.HostPtr)
}

// Rows decodes every row from the array at Ptr.
func (j RawJagged) Rows() ([]Raw, error) {
	return j.readRows(j.Mem, j.Ptr)
}

func (j RawJagged) readRows(mem vecmem.Memory, base vecmem.Ptr) ([]Raw, error) {
	if j.Size == 0 {
		return nil, nil
	}
	b, err := mem.Read(base, uint64(j.Size)*RecordSize)
	if err != nil {
		return nil, err
	}
	rows := make([]Raw, j.Size)
	proto := j.row()
	for i := range rows {
		rows[i] = proto.decode(b[i*RecordSize:])
	}
	return rows, nil
}

// Contiguous reports whether the rows' payloads are back to back in RowMem.
func (j RawJagged) Contiguous() (bool, error) {
	rows, err := j.HostRows()
	if err != nil {
		return false, err
	}
	return RowsContiguous(rows), nil
}

// RowsContiguous reports whether each row starts where the previous row's
// capacity ends. Rows without capacity occupy no bytes and are skipped.
func RowsContiguous(rows []Raw) bool {
	var end vecmem.Ptr
	started := false
	for _, r := range rows {
		if r.Capacity == 0 {
			continue
		}
		if started && r.Ptr != end {
			return false
		}
		started = true
		end = r.Ptr.Add(uint64(r.Capacity) * r.ElemSize)
	}
	return true
}

// WriteRows encodes rows into the array at base in mem.
func WriteRows(mem vecmem.Memory, base vecmem.Ptr, rows []Raw) error {
	if len(rows) == 0 {
		return nil
	}
	b := make([]byte, len(rows)*RecordSize)
	for i, r := range rows {
		r.encode(b[i*RecordSize:])
	}
	if err := mem.Write(base, b); err != nil {
		return errors.Wrap(errors.PhaseLayout, errors.KindMemoryRange, err,
			"write "+strconv.Itoa(len(rows))+" row records")
	}
	return nil
}

func elemMismatch(info layout.Info, name string, size uint64) *errors.Error {
	return errors.New(errors.PhaseLayout, errors.KindInvalidInput).
		ElemType(info.Name).
		Detail("element size %d does not match %s of size %d", info.Size, name, size).
		Build()
}
