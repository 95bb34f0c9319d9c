// Package layout computes how Go element types are laid out in raw memory.
//
// Views, buffers and containers store elements in byte-addressed memory that the
// garbage collector does not scan, so only relocatable element types are allowed:
// types whose values can be moved with a plain byte copy and that hold no Go
// pointers.
//
// # Layout Rules
//
//   - Size and alignment follow unsafe.Sizeof and unsafe.Alignof of the type
//   - Booleans, integers, floats and complex numbers are relocatable
//   - Arrays and structs are relocatable when all elements/fields are
//   - Pointers, strings, slices, maps, channels, funcs and interfaces are not
//
// # Usage
//
//	info, err := layout.Of[float32]()
//	// info.Size, info.Align, info.Name available
//
// This package is internal to vecmem.
package layout
