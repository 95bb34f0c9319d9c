// Package data describes collections in raw memory.
//
// A View is a plain value holding an address, a size or the address of a size
// counter, and a capacity. Because addresses are integers inside one memory
// space, a View means the same thing to host code and to kernels, and an array
// of row Views is ordinary data that the copy engine can move between spaces.
//
// # Types
//
//	View[T]          fixed or resizable geometry, non-owning
//	ConstView[T]     read-only View
//	Buffer[T]        owns one allocation, Fixed or Resizable
//	JaggedView[T]    variable-length rows plus their row-View array
//	JaggedBuffer[T]  owns a flat payload and the row-View array(s)
//	JaggedData[T]    row-View array over rows that already exist
//
// A resizable Buffer is one allocation: a 4-byte counter, padding up to the
// element alignment, then the payload. A resizable JaggedBuffer keeps one
// counter per row at the start of its payload allocation.
//
// Element types must be free of Go pointers. Views and Buffers check this
// once, when they are created.
//
// Buffers and JaggedBuffers have exactly one owner. Move transfers ownership;
// Close releases the memory and may be called more than once. A View must not
// be used after its Buffer is closed; this is not checked.
package data
