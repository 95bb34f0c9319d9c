// Package transfer moves collections between memory spaces.
//
// A Copier copies plain, resizable and jagged geometries described by
// data.Raw and data.RawJagged values, keeping logical sizes consistent:
//
//	c := transfer.New()
//	if err := c.Setup(ctx, dst.Raw()); err != nil { ... }     // size counter = 0
//	if err := c.Copy(ctx, src.Raw(), dst.Raw()); err != nil { ... }
//
// # Routing
//
// Within one memory, bytes are moved in place. When either side is host or
// shared memory the transfer is direct. Between two distinct non-host memories
// the bytes are staged through a host buffer taken from the staging resource.
// The direction is inferred from the two memory spaces unless WithDirection
// gives a hint, and is only used for logging and routing checks.
//
// # Sizes
//
// A copy from a resizable source first loads the source counter and then moves
// exactly that many elements; it never moves a full capacity blindly. The
// destination must be able to hold the source size, otherwise the copy fails
// with a capacity_exceeded error and nothing is written. A resizable
// destination's counter is set to the copied size unless PayloadOnly is given.
//
// # Asynchronous mode
//
// With WithQueue every operation is validated and its geometry captured at
// submission, then executed on the queue in submission order. Errors found
// while executing surface from Synchronize. The counter read and payload copy
// of one resizable copy run inside a single queued operation.
package transfer
