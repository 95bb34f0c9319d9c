// Package errors provides structured error types for the vecmem module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a location path, the element type name and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCopy, errors.KindShapeMismatch).
//		Path("row", "3").
//		ElemType("int32").
//		Detail("destination row holds %d elements, source has %d", 4, 5).
//		Build()
//
// Or use convenience constructors for the taxonomy:
//
//	err := errors.CapacityExceeded(errors.PhaseCopy, nil, 11, 10)
//	err := errors.OutOfBounds(errors.PhaseAccess, nil, 10, 5)
//
// Matching ignores the phase when the target does not set one, so the package
// sentinels work across phases:
//
//	if errors.Is(err, vmerrors.ErrCapacityExceeded) { ... }
package errors
