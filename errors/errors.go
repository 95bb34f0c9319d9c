package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAlloc  Phase = "alloc"  // resource allocation
	PhaseLayout Phase = "layout" // buffer and jagged layout construction
	PhaseCopy   Phase = "copy"   // copy engine transfers
	PhaseAccess Phase = "access" // container element access and mutation
	PhaseQueue  Phase = "queue"  // work queue submission
	PhaseDevice Phase = "device" // device memory space setup
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation       Kind = "allocation"
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindShapeMismatch    Kind = "shape_mismatch"
	KindInvalidInput     Kind = "invalid_input"
	KindUnsupported      Kind = "unsupported"
	KindNotRelocatable   Kind = "not_relocatable"
	KindClosed           Kind = "closed"
	KindMemoryRange      Kind = "out_of_memory_range"
)

// Sentinels for phase-agnostic matching with errors.Is.
var (
	ErrAllocation       = &Error{Kind: KindAllocation}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded}
	ErrOutOfBounds      = &Error{Kind: KindOutOfBounds}
	ErrShapeMismatch    = &Error{Kind: KindShapeMismatch}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrUnsupported      = &Error{Kind: KindUnsupported}
	ErrNotRelocatable   = &Error{Kind: KindNotRelocatable}
	ErrClosed           = &Error{Kind: KindClosed}
	ErrMemoryRange      = &Error{Kind: KindMemoryRange}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	ElemType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.ElemType != "" {
		b.WriteString(": element type ")
		b.WriteString(e.ElemType)
	}

	if e.Detail != "" {
		if e.ElemType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Kinds must be equal; the phase only has to match when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Phase == "" || e.Phase == t.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path, e.g. "row", "3"
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// ElemType sets the element type name
func (b *Builder) ElemType(t string) *Builder {
	b.err.ElemType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the error taxonomy

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint64, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// CapacityExceeded creates an error for a destination smaller than required
func CapacityExceeded(phase Phase, path []string, required, capacity uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCapacityExceeded,
		Path:   path,
		Detail: fmt.Sprintf("need %d elements, capacity is %d", required, capacity),
		Value:  required,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// ShapeMismatch creates an error for jagged geometries that do not line up
func ShapeMismatch(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindShapeMismatch,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotRelocatable creates an error for element types that cannot live in raw memory
func NotRelocatable(phase Phase, elemType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotRelocatable,
		ElemType: elemType,
		Detail:   "type contains pointers and cannot be stored in raw memory",
	}
}

// MemoryRange creates an error for an address range outside any live region
func MemoryRange(phase Phase, ptr, length uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMemoryRange,
		Detail: fmt.Sprintf("range [%#x, %#x) is not mapped", ptr, ptr+length),
		Value:  ptr,
	}
}

// Closed creates an error for use of a released object
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
