package vecmem

// Ptr is an address inside one memory space. Zero is the null address.
type Ptr uint64

// IsNull reports whether p is the null address.
func (p Ptr) IsNull() bool { return p == 0 }

// Add returns p advanced by n bytes.
func (p Ptr) Add(n uint64) Ptr { return p + Ptr(n) }

// SizeType is the element count type used by views, buffers and containers.
type SizeType = uint32

// Space identifies the kind of memory a Memory exposes.
type Space uint8

const (
	SpaceUnknown Space = iota
	SpaceHost
	SpaceDevice
	SpaceShared // host-accessible and kernel-accessible
)

func (s Space) String() string {
	switch s {
	case SpaceHost:
		return "host"
	case SpaceDevice:
		return "device"
	case SpaceShared:
		return "shared"
	default:
		return "unknown"
	}
}

// HostAccessible reports whether host code may address memory of this space directly.
func (s Space) HostAccessible() bool {
	return s == SpaceHost || s == SpaceShared
}

// Direction is a hint describing which memory spaces a transfer connects.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	HostToDevice
	DeviceToHost
	DeviceToDevice
	HostToHost
)

func (d Direction) String() string {
	switch d {
	case HostToDevice:
		return "host_to_device"
	case DeviceToHost:
		return "device_to_host"
	case DeviceToDevice:
		return "device_to_device"
	case HostToHost:
		return "host_to_host"
	default:
		return "unknown"
	}
}

// InferDirection derives a transfer direction from the spaces of both endpoints.
// Shared memory counts as host memory.
func InferDirection(src, dst Space) Direction {
	if src == SpaceUnknown || dst == SpaceUnknown {
		return DirectionUnknown
	}
	srcHost, dstHost := src.HostAccessible(), dst.HostAccessible()
	switch {
	case srcHost && dstHost:
		return HostToHost
	case srcHost:
		return HostToDevice
	case dstHost:
		return DeviceToHost
	default:
		return DeviceToDevice
	}
}

// Memory is one addressable memory space.
//
// Read returns a view aliasing the underlying storage, not a copy; it stays valid
// until the region is deallocated. The U32 accessors are atomic and require a
// 4-byte aligned address.
type Memory interface {
	Space() Space
	Read(ptr Ptr, length uint64) ([]byte, error)
	Write(ptr Ptr, data []byte) error
	LoadU32(ptr Ptr) (uint32, error)
	StoreU32(ptr Ptr, value uint32) error
	CompareAndSwapU32(ptr Ptr, old, value uint32) (bool, error)
}

// Resource allocates memory in one memory space.
type Resource interface {
	Allocate(size, align uint64) (Ptr, error)
	Deallocate(ptr Ptr, size, align uint64)
	Memory() Memory
}
