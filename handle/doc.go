// Package handle implements the type-erased stream handle and its
// ownership machinery.
//
// A *FileHandle is a single pointer that behaves like an io.WriteCloser
// reference with a boundary-stable shape. The handle itself is a dispatch
// table: per-concrete-type destroy, write, and flush entries plus a type
// identity token and the layout of the full allocation. It is never a
// standalone allocation; every handle is the leading field of a concrete
// representation that carries the payload.
//
// # Construction Paths
//
// ForWriter builds the representation around a payload the caller already
// has:
//
//	h := handle.ForWriter(os.Stdout)
//	n, err := handle.Write(h, data)
//	handle.Destroy(h)
//
// NewBuilder reserves zeroed, correctly aligned memory for a payload that
// foreign code will construct itself, with three foreign callbacks taking
// the payload's place pointer:
//
//	b, err := handle.NewBuilder(size, align, destroyFn, writeFn, flushFn)
//	// caller initializes b.Place before the first dispatch
//
// The caller who requested the builder must fully initialize the placement
// memory before any write, flush, or destroy reaches the handle. The core
// cannot verify this; it is a contractual obligation.
//
// # Ownership
//
// Owned is the single-owner lifetime manager: exactly one Owned per live
// handle, destroy runs exactly once, Release/TakeOwnership transfer the
// raw pointer across a boundary. Downcast recovers the concrete payload.
//
// # Poisoning
//
// A panic inside a dispatched operation marks the handle poisoned and is
// converted into an ordinary error. Poisoned handles refuse further
// writes and flushes, and destruction skips the payload destructor,
// releasing only memory. The payload's other resources are deliberately
// leaked: its internal state is unknown after an abnormal failure.
package handle
