package layout

import (
	"math"
	"reflect"
	"sync"

	"github.com/wippyai/vecmem/errors"
)

// Info describes the raw-memory layout of an element type.
type Info struct {
	Name  string
	Size  uint64
	Align uint64
}

type entry struct {
	info        Info
	relocatable bool
}

var cache sync.Map // reflect.Type -> entry

func lookup(t reflect.Type) entry {
	if cached, ok := cache.Load(t); ok {
		return cached.(entry)
	}
	e := entry{
		info: Info{
			Name:  t.String(),
			Size:  uint64(t.Size()),
			Align: uint64(t.Align()),
		},
		relocatable: !hasPointers(t),
	}
	if e.info.Align == 0 {
		e.info.Align = 1
	}
	cache.Store(t, e)
	return e
}

// Of returns the layout of T, or an error when T cannot live in raw memory.
func Of[T any]() (Info, error) {
	e := lookup(reflect.TypeFor[T]())
	if !e.relocatable {
		return Info{}, errors.NotRelocatable(errors.PhaseLayout, e.info.Name)
	}
	if e.info.Size == 0 {
		return Info{}, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			ElemType(e.info.Name).
			Detail("zero-sized element types are not supported").
			Build()
	}
	return e.info, nil
}

// MustOf is like Of but panics on error.
func MustOf[T any]() Info {
	info, err := Of[T]()
	if err != nil {
		panic(err)
	}
	return info
}

// Relocatable reports whether values of T may be moved with a raw byte copy.
func Relocatable[T any]() bool {
	return lookup(reflect.TypeFor[T]()).relocatable
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// AlignTo rounds offset up to a multiple of align. align must be a power of two.
func AlignTo(offset, align uint64) uint64 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Bytes returns n*size, reporting false on overflow.
func Bytes(n, size uint64) (uint64, bool) {
	if size != 0 && n > math.MaxUint64/size {
		return 0, false
	}
	return n * size, true
}
