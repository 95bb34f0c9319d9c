package device

import (
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/vecmem"
	"github.com/wippyai/vecmem/errors"
	"github.com/wippyai/vecmem/memory"
)

// Memory adapts a wazero api.Memory to vecmem.Memory.
type Memory struct {
	mem api.Memory
}

var _ vecmem.Memory = (*Memory)(nil)

// WrapMemory wraps a wazero memory. It returns nil for a nil memory.
func WrapMemory(mem api.Memory) *Memory {
	if mem == nil {
		return nil
	}
	return &Memory{mem: mem}
}

// Space reports vecmem.SpaceDevice.
func (m *Memory) Space() vecmem.Space {
	return vecmem.SpaceDevice
}

// Size returns the size of the linear memory in bytes.
func (m *Memory) Size() uint64 {
	return uint64(m.mem.Size())
}

// Read returns a view of length bytes at ptr.
func (m *Memory) Read(ptr vecmem.Ptr, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if uint64(ptr) > math.MaxUint32 || length > math.MaxUint32 {
		return nil, errors.MemoryRange(errors.PhaseAccess, uint64(ptr), length)
	}
	data, ok := m.mem.Read(uint32(ptr), uint32(length))
	if !ok {
		return nil, errors.MemoryRange(errors.PhaseAccess, uint64(ptr), length)
	}
	return data, nil
}

// Write copies data into memory at ptr.
func (m *Memory) Write(ptr vecmem.Ptr, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if uint64(ptr) > math.MaxUint32 || !m.mem.Write(uint32(ptr), data) {
		return errors.MemoryRange(errors.PhaseAccess, uint64(ptr), uint64(len(data)))
	}
	return nil
}

// LoadU32 atomically loads the counter at ptr.
func (m *Memory) LoadU32(ptr vecmem.Ptr) (uint32, error) {
	b, err := m.Read(ptr, 4)
	if err != nil {
		return 0, err
	}
	return memory.LoadWord(b)
}

// StoreU32 atomically stores value at ptr.
func (m *Memory) StoreU32(ptr vecmem.Ptr, value uint32) error {
	b, err := m.Read(ptr, 4)
	if err != nil {
		return err
	}
	return memory.StoreWord(b, value)
}

// CompareAndSwapU32 atomically swaps the counter at ptr from old to value.
func (m *Memory) CompareAndSwapU32(ptr vecmem.Ptr, old, value uint32) (bool, error) {
	b, err := m.Read(ptr, 4)
	if err != nil {
		return false, err
	}
	return memory.CompareAndSwapWord(b, old, value)
}
