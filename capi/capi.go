package capi

import (
	"os"
	"unsafe"

	streamhandle "github.com/wippyai/stream-handle"
	"github.com/wippyai/stream-handle/errors"
	"github.com/wippyai/stream-handle/handle"
	"github.com/wippyai/stream-handle/registry"
)

// handles is the process-wide table behind the boundary tokens.
var handles = registry.New()

// Handles exposes the boundary registry for observation and teardown.
func Handles() *registry.Registry {
	return handles
}

// console wraps a process stream. It has no destructor on purpose:
// destroying a stdout handle must not close the process's stdout.
type console struct {
	f *os.File
}

func (c console) Write(p []byte) (int, error) { return c.f.Write(p) }

// NewNullHandle creates a handle which throws away all data written to it.
func NewNullHandle() registry.Token {
	return handles.Register(handle.ForWriter(streamhandle.Sink{}))
}

// NewStdoutHandle creates a handle which writes directly to stdout.
func NewStdoutHandle() registry.Token {
	return handles.Register(handle.ForWriter(console{f: os.Stdout}))
}

// NewPathHandle creates a handle which will write to a file on disk,
// truncating it if it exists. Returns token 0 on failure.
func NewPathHandle(path string) registry.Token {
	f, err := os.Create(path)
	if err != nil {
		return 0
	}
	return handles.Register(handle.ForWriter(f))
}

// NewBuilderHandle allocates placement memory for a payload the caller
// will construct itself and returns the handle token together with the
// place pointer. Returns (0, nil) on failure.
func NewBuilderHandle(size, align uintptr, destroy handle.ForeignDestroy, write handle.ForeignWrite, flush handle.ForeignFlush) (registry.Token, unsafe.Pointer) {
	b, err := handle.NewBuilder(size, align, destroy, write, flush)
	if err != nil {
		return 0, nil
	}

	tok := handles.Register(b.Handle)
	if tok == 0 {
		handle.Destroy(b.Handle)
		return 0, nil
	}
	return tok, b.Place
}

// HandleWrite writes data through the handle, returning the number of
// bytes written or a negative status.
func HandleWrite(tok registry.Token, data []byte) int32 {
	h, ok := handles.Lookup(tok)
	if !ok {
		return errors.StatusInvalidHandle
	}

	n, err := handle.Write(h, data)
	if err != nil {
		return errors.ErrnoOf(err)
	}
	return int32(n)
}

// HandleFlush flushes the handle's output, ensuring buffered contents
// reach their destination. Returns 0 on success or a negative status.
func HandleFlush(tok registry.Token) int32 {
	h, ok := handles.Lookup(tok)
	if !ok {
		return errors.StatusInvalidHandle
	}

	if err := handle.Flush(h); err != nil {
		return errors.ErrnoOf(err)
	}
	return 0
}

// HandleDestroy destroys the handle, running destructors and releasing
// resources. Token 0 and unknown tokens are no-ops.
func HandleDestroy(tok registry.Token) {
	handles.Destroy(tok)
}
