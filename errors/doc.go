// Package errors provides structured error types for stream handles.
//
// Every error carries a Phase (where in the handle lifecycle it occurred)
// and a Kind (what went wrong), so callers can match with errors.Is
// without string comparison:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseDispatch, Kind: errors.KindPoisoned}) {
//	    // the call that poisoned the handle
//	}
//
// ErrnoOf collapses any error chain into the boundary status convention:
// zero or positive for success, a negated platform error code, or one of
// the reserved Status sentinels when no platform code is available.
package errors
