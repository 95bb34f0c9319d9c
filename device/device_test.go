package device

import (
	"context"
	"errors"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/vecmem"
	vmerrors "github.com/wippyai/vecmem/errors"
)

func openTestDevice(t *testing.T, cfg *Config) *Device {
	t.Helper()
	ctx := context.Background()
	dev, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close(ctx) })
	return dev
}

func TestMemoryModule_Compiles(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryModule(2))
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	mem := mod.ExportedMemory("memory")
	if mem == nil {
		t.Fatal("expected exported memory")
	}
	if mem.Size() != 2*PageSize {
		t.Errorf("size = %d, want %d", mem.Size(), 2*PageSize)
	}
	if _, ok := mem.Grow(1); ok {
		t.Error("memory should not grow past its maximum")
	}
}

func TestMemoryModule_LargePageCount(t *testing.T) {
	// 300 pages needs a two-byte LEB128 encoding
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryModule(300))
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	if got := mod.ExportedMemory("memory").Size(); got != 300*PageSize {
		t.Errorf("size = %d, want %d", got, 300*PageSize)
	}
}

func TestWrapMemory_Nil(t *testing.T) {
	if WrapMemory(nil) != nil {
		t.Error("expected nil for nil memory")
	}
}

func TestOpen_Defaults(t *testing.T) {
	dev := openTestDevice(t, nil)

	if dev.Memory().Size() != DefaultPages*PageSize {
		t.Errorf("size = %d, want %d", dev.Memory().Size(), DefaultPages*PageSize)
	}
	if dev.Memory().Space() != vecmem.SpaceDevice {
		t.Errorf("space = %v, want device", dev.Memory().Space())
	}
	if dev.Name() == "" {
		t.Error("expected generated name")
	}
}

func TestOpen_Named(t *testing.T) {
	a := openTestDevice(t, &Config{Name: "sim", Pages: 1})
	b := openTestDevice(t, &Config{Pages: 1})

	if a.Name() != "sim" {
		t.Errorf("name = %q, want sim", a.Name())
	}
	if a.ID() == b.ID() {
		t.Error("devices should have distinct ids")
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"too many pages", &Config{Pages: MaxPages + 1}},
		{"reserve covers memory", &Config{Pages: 1, Reserve: PageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.cfg)
			if !errors.Is(err, vmerrors.ErrInvalidInput) {
				t.Errorf("expected invalid_input, got %v", err)
			}
		})
	}
}

func TestMemory_ReadWrite(t *testing.T) {
	dev := openTestDevice(t, &Config{Pages: 1})
	mem := dev.Memory()

	data := []byte{1, 2, 3, 4}
	if err := mem.Write(128, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	read, err := mem.Read(128, 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	for i, b := range read {
		if b != data[i] {
			t.Errorf("byte %d: expected %d, got %d", i, data[i], b)
		}
	}

	if _, err := mem.Read(PageSize-2, 4); !errors.Is(err, vmerrors.ErrMemoryRange) {
		t.Errorf("expected out_of_memory_range, got %v", err)
	}
	if err := mem.Write(1<<40, data); !errors.Is(err, vmerrors.ErrMemoryRange) {
		t.Errorf("expected out_of_memory_range, got %v", err)
	}
}

func TestMemory_Atomics(t *testing.T) {
	dev := openTestDevice(t, &Config{Pages: 1})
	mem := dev.Memory()

	if err := mem.StoreU32(64, 7); err != nil {
		t.Fatalf("StoreU32 failed: %v", err)
	}
	ok, err := mem.CompareAndSwapU32(64, 7, 8)
	if err != nil || !ok {
		t.Fatalf("CompareAndSwapU32 = %v, %v", ok, err)
	}
	v, _ := mem.LoadU32(64)
	if v != 8 {
		t.Errorf("counter = %d, want 8", v)
	}

	// counters are little endian in memory
	b, _ := mem.Read(64, 4)
	if b[0] != 8 || b[1] != 0 {
		t.Errorf("unexpected counter bytes %v", b)
	}
}

func TestResource_AllocateDeallocate(t *testing.T) {
	dev := openTestDevice(t, &Config{Pages: 1})
	res := dev.Resource()

	a, err := res.Allocate(100, 16)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if a.IsNull() {
		t.Fatal("allocation returned null")
	}
	if uint64(a) < DefaultReserve {
		t.Errorf("allocation %#x inside reserved range", a)
	}
	if uint64(a)%16 != 0 {
		t.Errorf("allocation %#x not 16-aligned", a)
	}

	b, err := res.Allocate(100, 8)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if uint64(b) < uint64(a)+100 {
		t.Errorf("allocations overlap: a=%#x b=%#x", a, b)
	}
	if res.Live() != 2 {
		t.Errorf("live = %d, want 2", res.Live())
	}

	res.Deallocate(a, 100, 16)
	res.Deallocate(b, 100, 8)
	if res.InUse() != 0 {
		t.Errorf("in use = %d, want 0", res.InUse())
	}
	// unknown pointer is logged, not fatal
	res.Deallocate(b, 100, 8)
}

func TestResource_Exhausted(t *testing.T) {
	dev := openTestDevice(t, &Config{Name: "small", Pages: 1})
	res := dev.Resource()

	_, err := res.Allocate(PageSize, 8)
	if !errors.Is(err, vmerrors.ErrAllocation) {
		t.Fatalf("expected allocation failure, got %v", err)
	}
	var vmErr *vmerrors.Error
	if !errors.As(err, &vmErr) || len(vmErr.Path) != 1 || vmErr.Path[0] != "small" {
		t.Errorf("expected device name in error path, got %v", err)
	}

	if _, err := res.Allocate(PageSize-DefaultReserve, 8); err != nil {
		t.Errorf("whole remaining memory should fit: %v", err)
	}
}

func TestDevice_CloseIdempotent(t *testing.T) {
	ctx := context.Background()
	dev, err := Open(ctx, &Config{Pages: 1})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := dev.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := dev.Close(ctx); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
