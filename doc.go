// Package streamhandle provides single-pointer, boundary-stable handles for
// writable streams.
//
// A handle is the moral equivalent of an io.WriteCloser reference with a
// fixed, type-erased representation: one pointer, a per-type dispatch table,
// and a lifecycle that is safe to drive from either side of a language or
// library boundary. The concrete payload can be built by Go code or by a
// foreign caller into memory this library allocates.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	streamhandle/        Root package with capability interfaces
//	├── handle/          Dispatch table, owned wrapper, external builder
//	├── registry/        Token registry for foreign-held handles
//	├── capi/            Boundary entry points (negative status convention)
//	├── wasi/            wazero host module exposing handles to WASM guests
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Wrap any writer in an owned handle:
//
//	owned := handle.NewOwned(bufio.NewWriter(f))
//	defer owned.Close()
//
//	n, err := owned.Write([]byte("hello"))
//
// Hand a handle to foreign code and take it back later:
//
//	raw := owned.Release()
//	// ... raw crosses the boundary ...
//	owned = handle.TakeOwnership(raw)
//
// # Thread Safety
//
// Dispatch through a single handle is serialized by the handle itself.
// Payloads that are shared between goroutines must provide their own
// synchronization; the handle only guarantees that a failing operation
// cannot race the poison transition.
//
// # Failure Containment
//
// A panic inside a dispatched operation poisons the handle. Subsequent
// writes and flushes fail fast, and destruction releases only memory,
// deliberately leaking whatever the payload still holds. Leaking beats a
// second crash during cleanup.
package streamhandle
