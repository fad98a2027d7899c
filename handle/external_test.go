package handle

import (
	stderrors "errors"
	"syscall"
	"testing"
	"unsafe"

	"github.com/wippyai/stream-handle/errors"
)

// foreignBuffer is the "object" a foreign caller constructs into the
// placement memory: a length-prefixed byte buffer written through raw
// pointer arithmetic, the way a C caller would use the region.
const foreignBufferSize = 256

func foreignLen(obj unsafe.Pointer) *uint32 {
	return (*uint32)(obj)
}

func foreignData(obj unsafe.Pointer) []byte {
	return unsafe.Slice((*byte)(unsafe.Add(obj, 4)), foreignBufferSize-4)
}

func foreignWrite(obj unsafe.Pointer, p []byte) int32 {
	n := copy(foreignData(obj)[*foreignLen(obj):], p)
	*foreignLen(obj) += uint32(n)
	return int32(n)
}

func foreignFlush(obj unsafe.Pointer) int32 { return 0 }

func TestNewBuilder_PlacementAlignment(t *testing.T) {
	for _, align := range []uintptr{1, 4, 8, 64, 512} {
		b, err := NewBuilder(foreignBufferSize, align,
			func(unsafe.Pointer) {}, foreignWrite, foreignFlush)
		if err != nil {
			t.Fatalf("NewBuilder(align=%d) failed: %v", align, err)
		}
		if b.Handle == nil || b.Place == nil {
			t.Fatalf("NewBuilder(align=%d) returned nil parts", align)
		}
		if uintptr(b.Place)%align != 0 {
			t.Fatalf("Place %p not aligned to %d", b.Place, align)
		}
		Destroy(b.Handle)
	}
}

func TestNewBuilder_RegionIsZeroed(t *testing.T) {
	b, err := NewBuilder(64, 8, nil, foreignWrite, foreignFlush)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	defer Destroy(b.Handle)

	region := unsafe.Slice((*byte)(b.Place), 64)
	for i, v := range region {
		if v != 0 {
			t.Fatalf("Byte %d of placement region is %d, want 0", i, v)
		}
	}
}

func TestNewBuilder_RejectsBadAlignment(t *testing.T) {
	for _, align := range []uintptr{0, 3, 12, 100} {
		_, err := NewBuilder(16, align, nil, foreignWrite, foreignFlush)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConstruct, Kind: errors.KindInvalidInput}) {
			t.Fatalf("NewBuilder(align=%d) = %v, want invalid_input", align, err)
		}
	}
}

func TestExternal_CallbacksSeePlacePointer(t *testing.T) {
	var (
		destroyed int
		seenWrite unsafe.Pointer
		seenFlush unsafe.Pointer
		seenDeath unsafe.Pointer
	)

	b, err := NewBuilder(foreignBufferSize, 8,
		func(obj unsafe.Pointer) {
			destroyed++
			seenDeath = obj
		},
		func(obj unsafe.Pointer, p []byte) int32 {
			seenWrite = obj
			return foreignWrite(obj, p)
		},
		func(obj unsafe.Pointer) int32 {
			seenFlush = obj
			return 0
		})
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	// "Initialize" the object the way a foreign caller would.
	*foreignLen(b.Place) = 0

	msg := "Hello, World!"
	n, err := Write(b.Handle, []byte(msg))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(msg) {
		t.Fatalf("Expected %d bytes, got %d", len(msg), n)
	}
	if err := Flush(b.Handle); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	Destroy(b.Handle)

	if destroyed != 1 {
		t.Fatalf("Expected one foreign destroy, got %d", destroyed)
	}
	if seenWrite != b.Place || seenFlush != b.Place || seenDeath != b.Place {
		t.Fatalf("Callbacks saw %p/%p/%p, want the place pointer %p",
			seenWrite, seenFlush, seenDeath, b.Place)
	}

	got := string(foreignData(b.Place)[:len(msg)])
	if got != msg {
		t.Fatalf("Expected %q in foreign object, got %q", msg, got)
	}
}

func TestExternal_NegativeStatusBecomesErrno(t *testing.T) {
	b, err := NewBuilder(8, 8, nil,
		func(unsafe.Pointer, []byte) int32 { return -42 },
		func(unsafe.Pointer) int32 { return -9 })
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	defer Destroy(b.Handle)

	_, werr := Write(b.Handle, []byte("x"))
	var errno syscall.Errno
	if !stderrors.As(werr, &errno) || errno != 42 {
		t.Fatalf("Expected errno 42, got %v", werr)
	}

	ferr := Flush(b.Handle)
	if !stderrors.As(ferr, &errno) || errno != 9 {
		t.Fatalf("Expected errno 9, got %v", ferr)
	}
}

func TestExternal_CombinedLayoutRecordsOffset(t *testing.T) {
	b, err := NewBuilder(32, 512, nil, foreignWrite, foreignFlush)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	defer Destroy(b.Handle)

	l := b.Handle.Layout()
	header := LayoutFor[externalRepr]()
	if l.Align != 512 {
		t.Fatalf("Combined alignment %d, want 512", l.Align)
	}
	if l.Size < header.Size+32 {
		t.Fatalf("Combined size %d cannot hold header (%d) plus payload", l.Size, header.Size)
	}
}

func TestExternal_PanickingCallbackPoisons(t *testing.T) {
	destroyed := 0
	b, err := NewBuilder(8, 8,
		func(unsafe.Pointer) { destroyed++ },
		func(unsafe.Pointer, []byte) int32 { panic("foreign write exploded") },
		func(unsafe.Pointer) int32 { return 0 })
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	_, werr := Write(b.Handle, []byte("x"))
	if !stderrors.Is(werr, &errors.Error{Phase: errors.PhaseDispatch, Kind: errors.KindPoisoned}) {
		t.Fatalf("Expected poisoned error, got %v", werr)
	}

	Destroy(b.Handle)
	if destroyed != 0 {
		t.Fatal("Foreign destroy ran on a poisoned handle")
	}
}
