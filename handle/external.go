package handle

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/stream-handle/errors"
)

// Foreign callback signatures for externally constructed payloads. Each
// receives the payload's place pointer. Write and flush follow the
// negative status convention: a non-negative result is a byte count or
// success, a negative result is a negated platform error code.
type (
	ForeignDestroy func(obj unsafe.Pointer)
	ForeignWrite   func(obj unsafe.Pointer, p []byte) int32
	ForeignFlush   func(obj unsafe.Pointer) int32
)

// Builder is the result of external construction: the handle and the
// still-uninitialized placement pointer for the foreign payload.
type Builder struct {
	Handle *FileHandle
	Place  unsafe.Pointer
}

// externalRepr is the concrete representation for externally constructed
// handles. The payload lives in region, sized and aligned as requested,
// and is only ever touched through the foreign callbacks.
type externalRepr struct {
	// base must be the first field, same invariant as repr.
	base FileHandle

	objectOffset uintptr
	destroyObj   ForeignDestroy
	writeObj     ForeignWrite
	flushObj     ForeignFlush

	region []byte
}

// NewBuilder reserves zeroed memory for a payload of the given size and
// alignment that foreign code will construct in place, and returns a
// handle whose dispatch entries forward to the three callbacks.
//
// The caller must construct a valid object of the declared size and
// alignment at Builder.Place before any write, flush, or destroy reaches
// the handle. The core cannot check this; violating it is undefined
// behavior by contract, not a recoverable error.
func NewBuilder(size, align uintptr, destroy ForeignDestroy, write ForeignWrite, flush ForeignFlush) (Builder, error) {
	if align == 0 || align&(align-1) != 0 {
		return Builder{}, errors.InvalidInput("alignment must be a nonzero power of two")
	}
	if write == nil || flush == nil {
		return Builder{}, errors.InvalidInput("write and flush callbacks are required")
	}

	// The combined layout is header extended by the payload, exactly as a
	// single-allocation representation would be laid out. The header
	// carries function values the garbage collector must see, so it gets
	// its own allocation; the payload region is over-allocated and the
	// place pointer rounded up to honor the requested alignment.
	overall, offset := LayoutFor[externalRepr]().Extend(Layout{Size: size, Align: align})

	raw := make([]byte, size+align)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	pad := alignTo(base, align) - base

	r := &externalRepr{
		base: FileHandle{
			destroy: destroyExternal,
			write:   writeExternal,
			flush:   flushExternal,
			layout:  overall,
			typeTok: reflect.TypeFor[externalRepr](),
		},
		objectOffset: offset,
		destroyObj:   destroy,
		writeObj:     write,
		flushObj:     flush,
		region:       raw[pad : pad+size : pad+size],
	}

	return Builder{Handle: &r.base, Place: r.object()}, nil
}

func externalOf(h *FileHandle) *externalRepr {
	return (*externalRepr)(unsafe.Pointer(h))
}

// object returns the payload's place pointer. It is stable for the
// representation's lifetime and always equals the Place the builder
// returned.
func (r *externalRepr) object() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(r.region))
}

func destroyExternal(h *FileHandle) {
	r := externalOf(h)

	// Destroy the foreign object in place first, then release the
	// representation's own resources.
	if r.destroyObj != nil {
		r.destroyObj(r.object())
	}
	r.region = nil
	r.destroyObj, r.writeObj, r.flushObj = nil, nil, nil
}

func writeExternal(h *FileHandle, p []byte) (int, error) {
	r := externalOf(h)
	ret := r.writeObj(r.object(), p)
	if ret < 0 {
		return 0, errors.FromErrno(-ret)
	}
	return int(ret), nil
}

func flushExternal(h *FileHandle) error {
	r := externalOf(h)
	if ret := r.flushObj(r.object()); ret < 0 {
		return errors.FromErrno(-ret)
	}
	return nil
}
