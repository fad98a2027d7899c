package handle

import (
	"io"
	"os"
)

// Owned is the single-owner lifetime manager for a handle: the size of
// one pointer, destroy-on-Close exactly once. It is the boundary-safe
// equivalent of holding an io.WriteCloser by value.
//
// At most one Owned may exist per live handle. Close, Release, and a
// successful Downcast all consume the wrapper; the raw pointer they leave
// behind (or hand back) must not be wrapped again afterward.
//
// The zero Owned is released; its operations fail with os.ErrClosed and
// Close is a no-op. Holding an optional handle therefore costs no extra
// storage over the handle pointer itself.
type Owned struct {
	h *FileHandle
}

var _ io.WriteCloser = (*Owned)(nil)

// NewOwned wraps w in a freshly constructed handle and takes ownership
// of it.
func NewOwned[W io.Writer](w W) Owned {
	return Owned{h: ForWriter(w)}
}

// TakeOwnership wraps a raw handle, taking ownership of it. The pointer
// must be a live handle that no other Owned wraps; the original pointer
// may no longer be used directly.
func TakeOwnership(h *FileHandle) Owned {
	return Owned{h: h}
}

// Release consumes the wrapper and returns the raw handle for use by
// foreign code. The caller becomes responsible for destroying it.
func (o *Owned) Release() *FileHandle {
	h := o.h
	o.h = nil
	return h
}

// Raw returns the wrapped handle without transferring ownership. The
// caller must not destroy it. Returns nil if the wrapper was consumed.
func (o *Owned) Raw() *FileHandle {
	return o.h
}

// Write dispatches through the owned handle.
func (o *Owned) Write(p []byte) (int, error) {
	if o.h == nil {
		return 0, os.ErrClosed
	}
	return Write(o.h, p)
}

// Flush dispatches through the owned handle.
func (o *Owned) Flush() error {
	if o.h == nil {
		return os.ErrClosed
	}
	return Flush(o.h)
}

// Close destroys the handle. It is idempotent on the wrapper and never
// returns an error; destruction is infallible by contract.
func (o *Owned) Close() error {
	if o.h != nil {
		Destroy(o.h)
		o.h = nil
	}
	return nil
}

// Downcast extracts the payload by value if it has exact type W,
// consuming the wrapper. The payload is moved out, not destroyed, and
// only the representation memory is released. On a type mismatch the
// wrapper is untouched so the caller may try another type.
func Downcast[W io.Writer](o *Owned) (W, bool) {
	var zero W
	if o == nil || !Is[W](o.h) {
		return zero, false
	}

	r := reprOf[W](o.h)
	w := r.writer
	r.writer = zero
	o.h = nil

	return w, true
}
