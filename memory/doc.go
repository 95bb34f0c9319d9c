// Package memory provides host-side memory spaces and memory resources.
//
// # Host Memory
//
// HostMemory is an address space over Go-owned storage. Each mapped region gets a
// synthetic, never-reused base address, so a vecmem.Ptr into host memory is a plain
// integer that can be stored inside other memory (for example in an array of row
// views) and resolved later:
//
//	mem := memory.NewHostMemory()
//	res := memory.NewHostResource(memory.WithMemory(mem))
//	ptr, err := res.Allocate(64, 8)
//	b, err := mem.Read(ptr, 64) // aliases the region
//
// Shared memory is a HostMemory tagged SpaceShared: host code and kernels address it
// directly, like managed memory on an accelerator.
//
// # Resources
//
//   - HostResource maps one region per allocation
//   - ContiguousResource bump-allocates inside one upstream block
//   - TrackingResource records live allocations and reports lifecycle events
//
// Existing Go byte slices can be pinned into a HostMemory to obtain addresses for
// them without copying.
package memory
