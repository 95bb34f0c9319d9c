package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/wippyai/vecmem"
	vmerrors "github.com/wippyai/vecmem/errors"
)

func TestHostMemory_ReadWrite(t *testing.T) {
	mem := NewHostMemory()
	ptr := mem.Map(16, 8)

	if ptr.IsNull() {
		t.Fatal("expected non-null address")
	}
	if mem.Space() != vecmem.SpaceHost {
		t.Errorf("space = %v, want host", mem.Space())
	}

	data := []byte{1, 2, 3, 4}
	if err := mem.Write(ptr.Add(4), data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	read, err := mem.Read(ptr, 8)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := []byte{0, 0, 0, 0, 1, 2, 3, 4}
	for i, b := range read {
		if b != want[i] {
			t.Errorf("byte %d: expected %d, got %d", i, want[i], b)
		}
	}

	// Read aliases the region
	read[0] = 9
	again, _ := mem.Read(ptr, 1)
	if again[0] != 9 {
		t.Error("Read should return a view, not a copy")
	}
}

func TestHostMemory_OutOfRange(t *testing.T) {
	mem := NewHostMemory()
	ptr := mem.Map(16, 8)

	tests := []struct {
		name   string
		ptr    vecmem.Ptr
		length uint64
	}{
		{"before first region", 1, 4},
		{"past the end", ptr.Add(12), 8},
		{"in the gap", ptr.Add(64), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mem.Read(tt.ptr, tt.length)
			if !errors.Is(err, vmerrors.ErrMemoryRange) {
				t.Errorf("expected out_of_memory_range, got %v", err)
			}
		})
	}

	if _, err := mem.Read(0, 0); err != nil {
		t.Errorf("zero-length read should succeed, got %v", err)
	}
}

func TestHostMemory_RegionsNeverAdjacent(t *testing.T) {
	mem := NewHostMemory()
	a := mem.Map(100, 8)
	b := mem.Map(100, 8)
	if uint64(b) <= uint64(a)+100 {
		t.Errorf("regions overlap or touch: a=%#x b=%#x", a, b)
	}
	if !mem.Unmap(a) {
		t.Fatal("unmap failed")
	}
	if mem.Unmap(a) {
		t.Error("second unmap should fail")
	}
	if _, err := mem.Read(a, 1); err == nil {
		t.Error("read of unmapped region should fail")
	}
	if mem.Regions() != 1 {
		t.Errorf("regions = %d, want 1", mem.Regions())
	}
}

func TestHostMemory_Atomics(t *testing.T) {
	mem := NewSharedMemory()
	ptr := mem.Map(8, 8)

	if err := mem.StoreU32(ptr, 41); err != nil {
		t.Fatalf("StoreU32 failed: %v", err)
	}
	swapped, err := mem.CompareAndSwapU32(ptr, 41, 42)
	if err != nil || !swapped {
		t.Fatalf("CompareAndSwapU32 = %v, %v", swapped, err)
	}
	swapped, _ = mem.CompareAndSwapU32(ptr, 41, 43)
	if swapped {
		t.Error("CAS with stale value should fail")
	}
	v, err := mem.LoadU32(ptr)
	if err != nil || v != 42 {
		t.Errorf("LoadU32 = %d, %v; want 42", v, err)
	}

	if _, err := mem.LoadU32(ptr.Add(2)); err == nil {
		t.Error("misaligned counter should fail")
	}
}

func TestHostMemory_ConcurrentCAS(t *testing.T) {
	mem := NewSharedMemory()
	ptr := mem.Map(4, 4)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				for {
					v, _ := mem.LoadU32(ptr)
					if ok, _ := mem.CompareAndSwapU32(ptr, v, v+1); ok {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	v, _ := mem.LoadU32(ptr)
	if v != 8000 {
		t.Errorf("counter = %d, want 8000", v)
	}
}

func TestPinSlice(t *testing.T) {
	mem := NewHostMemory()
	values := []int32{10, 20, 30}

	ptr, release, err := PinSlice(mem, values)
	if err != nil {
		t.Fatalf("PinSlice failed: %v", err)
	}
	b, err := mem.Read(ptr.Add(4), 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if b[0] != 20 {
		t.Errorf("pinned byte = %d, want 20", b[0])
	}

	b[0] = 21
	if values[1] != 21 {
		t.Error("pinned memory should alias the slice")
	}
	if mem.Mapped() != 0 {
		t.Errorf("pinned slices should not count as mapped, got %d", mem.Mapped())
	}

	release()
	release()
	if mem.Regions() != 0 {
		t.Errorf("regions = %d after release, want 0", mem.Regions())
	}

	if _, _, err := PinSlice(mem, []string{"x"}); !errors.Is(err, vmerrors.ErrNotRelocatable) {
		t.Errorf("expected not_relocatable, got %v", err)
	}
}

func TestHostResource_Limit(t *testing.T) {
	res := NewHostResource(WithLimit(64))

	p, err := res.Allocate(48, 8)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if _, err := res.Allocate(32, 8); !errors.Is(err, vmerrors.ErrAllocation) {
		t.Fatalf("expected allocation failure, got %v", err)
	}
	res.Deallocate(p, 48, 8)
	if _, err := res.Allocate(32, 8); err != nil {
		t.Fatalf("Allocate after release failed: %v", err)
	}
}

func TestContiguousResource(t *testing.T) {
	host := NewHostResource()
	cont, err := NewContiguousResource(host, 256)
	if err != nil {
		t.Fatalf("NewContiguousResource failed: %v", err)
	}

	a, _ := cont.Allocate(12, 4)
	b, _ := cont.Allocate(8, 4)
	if uint64(b) != uint64(a)+12 {
		t.Errorf("allocations are not back to back: a=%#x b=%#x", a, b)
	}
	c, _ := cont.Allocate(8, 16)
	if uint64(c)%16 != 0 {
		t.Errorf("allocation %#x is not 16-aligned", c)
	}

	if _, err := cont.Allocate(1024, 8); !errors.Is(err, vmerrors.ErrAllocation) {
		t.Errorf("expected allocation failure, got %v", err)
	}

	if err := cont.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if host.Host().Regions() != 0 {
		t.Error("Close should return the block upstream")
	}
	if _, err := cont.Allocate(4, 4); !errors.Is(err, vmerrors.ErrClosed) {
		t.Errorf("expected closed, got %v", err)
	}
}

type recorder struct {
	events []Event
}

func (r *recorder) OnMemoryEvent(e Event) { r.events = append(r.events, e) }

func TestTrackingResource(t *testing.T) {
	tr := NewTrackingResource(NewHostResource(WithLimit(100)))
	rec := &recorder{}
	tr.Subscribe(rec)

	p, err := tr.Allocate(64, 8)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if _, err := tr.Allocate(64, 8); err == nil {
		t.Fatal("expected failure over limit")
	}
	tr.Deallocate(p, 32, 8) // wrong size
	tr.Deallocate(p, 64, 8)
	tr.Deallocate(p, 64, 8) // double free

	st := tr.Stats()
	if st.Allocations != 1 || st.Deallocations != 1 || st.Failures != 1 || st.InvalidFrees != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.PeakBytes != 64 || st.LiveBytes != 0 {
		t.Errorf("bytes: peak=%d live=%d", st.PeakBytes, st.LiveBytes)
	}
	if tr.Live() != 0 {
		t.Errorf("live = %d, want 0", tr.Live())
	}

	want := []EventType{EventAllocated, EventAllocationFailed, EventInvalidFree, EventDeallocated, EventInvalidFree}
	if len(rec.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(rec.events), len(want))
	}
	for i, e := range rec.events {
		if e.Type != want[i] {
			t.Errorf("event %d = %v, want %v", i, e.Type, want[i])
		}
	}

	tr.Unsubscribe(rec)
	_, _ = tr.Allocate(8, 8)
	if len(rec.events) != len(want) {
		t.Error("unsubscribed observer received events")
	}
}

func TestHostResource_TooLarge(t *testing.T) {
	res := NewHostResource()
	if _, err := res.Allocate(MaxRegion+1, 8); !errors.Is(err, vmerrors.ErrAllocation) {
		t.Fatalf("expected allocation failure, got %v", err)
	}
	if _, err := res.Allocate(1<<62, 8); !errors.Is(err, vmerrors.ErrAllocation) {
		t.Fatalf("expected allocation failure, got %v", err)
	}
	if res.Host().Regions() != 0 {
		t.Errorf("regions = %d, want 0", res.Host().Regions())
	}
}
