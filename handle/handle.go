package handle

import (
	"io"
	"reflect"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	streamhandle "github.com/wippyai/stream-handle"
	"github.com/wippyai/stream-handle/errors"
)

// FileHandle is the abstract, boundary-visible header of every concrete
// representation. It is exactly the dispatch table for one concrete
// payload type: three operation entries, a type identity token, and the
// layout of the full allocation. A *FileHandle is always a pointer to the
// start of some concrete representation; invoking its entries with
// anything else is undefined behavior by contract.
//
// The type token is stable only within one program build. It exists for
// the same-process downcast check and nothing more.
type FileHandle struct {
	destroy func(*FileHandle)
	write   func(*FileHandle, []byte) (int, error)
	flush   func(*FileHandle) error

	layout  Layout
	typeTok reflect.Type

	mu       sync.Mutex
	poisoned bool
}

// Layout returns the size and alignment of the handle's full concrete
// representation.
func (h *FileHandle) Layout() Layout {
	return h.layout
}

// repr is the concrete representation for internally constructed handles.
type repr[W io.Writer] struct {
	// base must be the first field so a *repr[W] and the *FileHandle of
	// its header are the same address.
	base   FileHandle
	writer W
}

// reprOf reinterprets a handle as its concrete representation. Callers
// must have checked the type token first.
func reprOf[W io.Writer](h *FileHandle) *repr[W] {
	return (*repr[W])(unsafe.Pointer(h))
}

// ForWriter allocates a concrete representation around w and returns its
// handle. The dispatch entries are specialized to W once per type, not
// per instance. Payloads may cross goroutine boundaries; a payload that
// is written to concurrently must synchronize internally.
//
// If w implements io.Closer, destroying the handle closes it. If w
// implements streamhandle.Flusher, flushing the handle flushes it;
// otherwise flush is a no-op.
func ForWriter[W io.Writer](w W) *FileHandle {
	r := &repr[W]{
		base: FileHandle{
			destroy: destroyRepr[W],
			write:   writeRepr[W],
			flush:   flushRepr[W],
			layout:  LayoutFor[repr[W]](),
			typeTok: reflect.TypeFor[W](),
		},
		writer: w,
	}
	return &r.base
}

func destroyRepr[W io.Writer](h *FileHandle) {
	r := reprOf[W](h)
	if c, ok := any(r.writer).(io.Closer); ok {
		_ = c.Close()
	}
	var zero W
	r.writer = zero
}

func writeRepr[W io.Writer](h *FileHandle, p []byte) (int, error) {
	return reprOf[W](h).writer.Write(p)
}

func flushRepr[W io.Writer](h *FileHandle) error {
	if f, ok := any(reprOf[W](h).writer).(streamhandle.Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Write dispatches p through the handle's write entry and returns the
// number of bytes written. Payload errors are propagated verbatim. A
// panic in the payload poisons the handle and is reported as an
// errors.KindPoisoned error; once poisoned, every call fails with
// errors.KindAlreadyPoisoned without touching the payload.
func Write(h *FileHandle, p []byte) (n int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.poisoned {
		return 0, errors.AlreadyPoisoned()
	}

	defer func() {
		if r := recover(); r != nil {
			h.poisoned = true
			Logger().Warn("write panicked, handle poisoned", zap.Any("panic", r))
			n, err = 0, errors.Poisoned(r)
		}
	}()

	return h.write(h, p)
}

// Flush dispatches through the handle's flush entry. Error and poison
// semantics match Write.
func Flush(h *FileHandle) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.poisoned {
		return errors.AlreadyPoisoned()
	}

	defer func() {
		if r := recover(); r != nil {
			h.poisoned = true
			Logger().Warn("flush panicked, handle poisoned", zap.Any("panic", r))
			err = errors.Poisoned(r)
		}
	}()

	return h.flush(h)
}

// Destroy runs the handle's destroy entry exactly once. A nil handle is a
// no-op. Destroy never fails: a poisoned handle's payload destructor is
// skipped (its state is unknown), and a destructor panic is contained the
// same way. In both cases only the representation memory is released and
// the payload's resources leak.
//
// The pointer is invalid after Destroy returns and must not be used again.
func Destroy(h *FileHandle) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.poisoned {
		Logger().Warn("destroying poisoned handle, payload leaked")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.poisoned = true
			Logger().Warn("destructor panicked, payload leaked", zap.Any("panic", r))
		}
	}()

	h.destroy(h)
}

// Is reports whether the handle's payload has exact type W. There is no
// type hierarchy: a handle built from a *bufio.Writer is not an
// io.Writer handle, it is a *bufio.Writer handle.
func Is[W io.Writer](h *FileHandle) bool {
	return h != nil && h.typeTok == reflect.TypeFor[W]()
}

// DowncastRef returns a pointer to the payload if it has exact type W.
// The returned pointer aliases the live representation; it is valid only
// until the handle is destroyed. The type check and the reinterpretation
// are safe together because a handle's type never changes.
func DowncastRef[W io.Writer](h *FileHandle) (*W, bool) {
	if !Is[W](h) {
		return nil, false
	}
	return &reprOf[W](h).writer, true
}
