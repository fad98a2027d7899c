package errors

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Phase indicates where in the handle lifecycle the error occurred
type Phase string

const (
	PhaseConstruct Phase = "construct" // handle construction
	PhaseDispatch  Phase = "dispatch"  // write/flush through the table
	PhaseDestroy   Phase = "destroy"   // handle destruction
	PhaseBoundary  Phase = "boundary"  // token translation at the edge
)

// Kind categorizes the error
type Kind string

const (
	KindIO              Kind = "io"               // payload write/flush failure
	KindPoisoned        Kind = "poisoned"         // operation panicked, handle now poisoned
	KindAlreadyPoisoned Kind = "already_poisoned" // handle was poisoned by an earlier call
	KindAllocation      Kind = "allocation"       // representation allocation failure
	KindInvalidHandle   Kind = "invalid_handle"   // unknown or released token
	KindInvalidInput    Kind = "invalid_input"    // malformed caller input
)

// Boundary status sentinels. Non-negative values are byte counts or
// success; platform error codes are returned negated; these reserved
// values are used where no platform code is recoverable.
const (
	StatusFailed        int32 = -1 // failure with no recoverable errno
	StatusPoisoned      int32 = -2 // handle is poisoned
	StatusInvalidHandle int32 = -3 // token does not name a live handle
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Errno  int32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Errno != 0 {
		fmt.Fprintf(&b, " (errno %d)", e.Errno)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// Poisoned reports the call that poisoned the handle. The recovered panic
// value is carried in the detail for debugging.
func Poisoned(panicValue any) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindPoisoned,
		Detail: fmt.Sprintf("operation panicked: %v", panicValue),
	}
}

// AlreadyPoisoned reports an operation rejected because an earlier call
// poisoned the handle.
func AlreadyPoisoned() *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindAlreadyPoisoned,
		Detail: "handle was poisoned by an earlier failure",
	}
}

// IO wraps a payload write/flush failure.
func IO(cause error) *Error {
	return &Error{
		Phase: PhaseDispatch,
		Kind:  KindIO,
		Errno: errnoFrom(cause),
		Cause: cause,
	}
}

// FromErrno builds a dispatch error from a foreign callback's negated
// status code.
func FromErrno(code int32) *Error {
	return &Error{
		Phase: PhaseDispatch,
		Kind:  KindIO,
		Errno: code,
		Cause: syscall.Errno(code),
	}
}

// InvalidHandle reports a token that does not name a live handle.
func InvalidHandle(token uint64) *Error {
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("token %d is not a live handle", token),
	}
}

// InvalidInput reports malformed caller input.
func InvalidInput(detail string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// AllocationFailed reports a representation allocation failure.
func AllocationFailed(size, align uintptr) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// ErrnoOf translates an error into the boundary status convention:
// a platform error code negated, or a reserved sentinel when no code is
// recoverable from the chain.
func ErrnoOf(err error) int32 {
	if err == nil {
		return 0
	}

	var se *Error
	if errors.As(err, &se) {
		switch se.Kind {
		case KindPoisoned, KindAlreadyPoisoned:
			return StatusPoisoned
		case KindInvalidHandle:
			return StatusInvalidHandle
		}
		if se.Errno != 0 {
			return -se.Errno
		}
	}

	if code := errnoFrom(err); code != 0 {
		return -code
	}
	return StatusFailed
}

// errnoFrom digs a raw platform error code out of an error chain.
func errnoFrom(err error) int32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int32(errno)
	}
	return 0
}
