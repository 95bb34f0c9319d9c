package device

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/internal/freelist"
)

var nextID atomic.Int32

// Device is one accelerator memory space.
type Device struct {
	runtime wazero.Runtime
	module  api.Module
	mem     *Memory
	res     *Resource
	name    string
	id      int
	closed  bool
	mu      sync.Mutex
}

// Open creates a device with its own wazero runtime and fixed-size linear memory.
func Open(ctx context.Context, cfg *Config) (*Device, error) {
	pages := cfg.pages()
	if pages > MaxPages {
		return nil, errors.InvalidInput(errors.PhaseDevice,
			fmt.Sprintf("device memory of %d pages exceeds the maximum of %d", pages, MaxPages))
	}
	size := uint64(pages) * PageSize
	reserve := cfg.reserve()
	if reserve >= size {
		return nil, errors.InvalidInput(errors.PhaseDevice,
			fmt.Sprintf("reserve of %d bytes leaves no device memory", reserve))
	}

	id := int(nextID.Add(1)) - 1
	name := cfg.name()
	if name == "" {
		name = fmt.Sprintf("device%d", id)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(pages))
	compiled, err := rt.CompileModule(ctx, memoryModule(pages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseDevice, errors.KindAllocation, err, "compile device memory")
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseDevice, errors.KindAllocation, err, "instantiate device memory")
	}

	mem := WrapMemory(mod.ExportedMemory("memory"))
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.New(errors.PhaseDevice, errors.KindAllocation).
			Detail("device module exports no memory").
			Build()
	}

	Logger().Debug("device opened",
		zap.String("device", name),
		zap.Int("id", id),
		zap.Uint32("pages", pages),
		zap.Uint64("reserve", reserve))

	return &Device{
		runtime: rt,
		module:  mod,
		mem:     mem,
		res: &Resource{
			mem:  mem,
			list: freelist.New(reserve, size-reserve),
			name: name,
		},
		name: name,
		id:   id,
	}, nil
}

// Name returns the configured or generated device name.
func (d *Device) Name() string {
	return d.name
}

// ID returns the process-unique device number.
func (d *Device) ID() int {
	return d.id
}

// Memory returns the device memory space.
func (d *Device) Memory() *Memory {
	return d.mem
}

// Resource returns the device memory resource.
func (d *Device) Resource() *Resource {
	return d.res
}

// String describes the device for logs and the CLI.
func (d *Device) String() string {
	return fmt.Sprintf("%s (id %d, %d bytes)", d.name, d.id, d.mem.Size())
}

// Close releases the wazero runtime. Memory views obtained from the device
// must not be used afterwards.
func (d *Device) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if live := d.res.Live(); live > 0 {
		Logger().Warn("device closed with live allocations",
			zap.String("device", d.name),
			zap.Int("live", live))
	}
	return d.runtime.Close(ctx)
}
