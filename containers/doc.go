// Package containers provides vector-like access to memory described by views.
//
// DeviceVector wraps a data.View and never allocates. Its PushBack and
// EmplaceBack reserve an index with a compare-and-swap on the view's size
// counter, so any number of kernel work items may append concurrently; each
// gets a unique index and appends beyond capacity fail without writing.
// The remaining mutators (Assign, Resize, Insert, Erase, Clear, PopBack)
// are sequential and must not run alongside other mutators.
//
// StaticVector offers the same interface over caller-provided storage.
//
// Vector, JaggedVector and Array are host-side helpers backed by a memory
// resource; Vector may reallocate, the others never do.
package containers
