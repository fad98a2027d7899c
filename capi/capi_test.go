package capi

import (
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"unsafe"

	"github.com/wippyai/stream-handle/errors"
	"github.com/wippyai/stream-handle/handle"
	"github.com/wippyai/stream-handle/registry"
)

// sharedBuffer is a lockable byte sink shared with the test.
type sharedBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *sharedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *sharedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func TestNullHandle_CreateWriteDestroy(t *testing.T) {
	tok := NewNullHandle()
	if tok == 0 {
		t.Fatal("Expected a live token")
	}

	if ret := HandleWrite(tok, []byte("Hello, World!")); ret != 13 {
		t.Fatalf("Expected 13, got %d", ret)
	}
	if ret := HandleFlush(tok); ret != 0 {
		t.Fatalf("Expected 0, got %d", ret)
	}

	HandleDestroy(tok)

	if ret := HandleWrite(tok, []byte("x")); ret != errors.StatusInvalidHandle {
		t.Fatalf("Expected %d after destroy, got %d", errors.StatusInvalidHandle, ret)
	}
}

func TestHandleDestroy_ToleratesZeroAndUnknown(t *testing.T) {
	HandleDestroy(0)
	HandleDestroy(registry.Token(1 << 40))
}

func TestWriteThroughRegisteredBuffer(t *testing.T) {
	msg := "Hello, World!"
	buf := &sharedBuffer{}

	tok := Handles().Register(handle.ForWriter(buf))
	defer HandleDestroy(tok)

	if ret := HandleWrite(tok, []byte(msg)); int(ret) != len(msg) {
		t.Fatalf("Expected %d, got %d", len(msg), ret)
	}
	if ret := HandleFlush(tok); ret != 0 {
		t.Fatalf("Expected 0, got %d", ret)
	}

	if got := buf.String(); got != msg {
		t.Fatalf("Expected %q, got %q", msg, got)
	}
}

type dodgyWriter struct{}

func (dodgyWriter) Write(p []byte) (int, error) { return 0, syscall.Errno(42) }

func TestDetectFailedWrite(t *testing.T) {
	tok := Handles().Register(handle.ForWriter(dodgyWriter{}))
	defer HandleDestroy(tok)

	if ret := HandleWrite(tok, []byte("Hello, World!")); ret != -42 {
		t.Fatalf("Expected -42, got %d", ret)
	}
}

func TestPathHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	tok := NewPathHandle(path)
	if tok == 0 {
		t.Fatal("Expected a live token")
	}

	if ret := HandleWrite(tok, []byte("to disk")); ret != 7 {
		t.Fatalf("Expected 7, got %d", ret)
	}
	HandleDestroy(tok)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "to disk" {
		t.Fatalf("Expected %q on disk, got %q", "to disk", got)
	}
}

func TestPathHandle_FailureYieldsZeroToken(t *testing.T) {
	if tok := NewPathHandle(filepath.Join(t.TempDir(), "no", "such", "dir", "f")); tok != 0 {
		t.Fatalf("Expected token 0, got %d", tok)
	}
}

func TestBuilderHandle(t *testing.T) {
	var writes int

	tok, place := NewBuilderHandle(16, 8,
		func(unsafe.Pointer) {},
		func(obj unsafe.Pointer, p []byte) int32 {
			writes++
			*(*byte)(obj) = p[0]
			return int32(len(p))
		},
		func(unsafe.Pointer) int32 { return 0 })
	if tok == 0 || place == nil {
		t.Fatal("Expected a live builder handle")
	}

	// Initialize the placement memory as the foreign caller would.
	*(*byte)(place) = 0

	if ret := HandleWrite(tok, []byte("Z")); ret != 1 {
		t.Fatalf("Expected 1, got %d", ret)
	}
	if writes != 1 {
		t.Fatalf("Expected one foreign write, got %d", writes)
	}
	if *(*byte)(place) != 'Z' {
		t.Fatal("Foreign write did not reach the placement memory")
	}

	HandleDestroy(tok)
}

func TestBuilderHandle_BadAlignment(t *testing.T) {
	tok, place := NewBuilderHandle(16, 3, nil,
		func(unsafe.Pointer, []byte) int32 { return 0 },
		func(unsafe.Pointer) int32 { return 0 })
	if tok != 0 || place != nil {
		t.Fatal("Expected construction to fail for non-power-of-two alignment")
	}
}

func TestPoisonedStatusAtBoundary(t *testing.T) {
	tok := Handles().Register(handle.ForWriter(&bomb{}))
	defer HandleDestroy(tok)

	if ret := HandleWrite(tok, []byte("x")); ret != errors.StatusPoisoned {
		t.Fatalf("Expected %d, got %d", errors.StatusPoisoned, ret)
	}
	if ret := HandleFlush(tok); ret != errors.StatusPoisoned {
		t.Fatalf("Expected %d for already-poisoned, got %d", errors.StatusPoisoned, ret)
	}
}

type bomb struct{}

func (*bomb) Write(p []byte) (int, error) { panic("boundary bomb") }
