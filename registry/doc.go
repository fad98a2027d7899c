// Package registry maps integer tokens to live stream handles.
//
// Foreign code cannot hold Go pointers, so the boundary hands out opaque
// uint64 tokens instead and resolves them through a Registry on every
// call. Token 0 is reserved and always invalid.
//
//	reg := registry.New()
//
//	tok := reg.Register(handle.ForWriter(w))
//	h, ok := reg.Lookup(tok)
//
//	// ownership transfer back out of the registry
//	h, ok = reg.Unregister(tok)
//
// A registered handle has exactly one owner: the registry. Unregister
// moves ownership to the caller; Destroy releases the handle in place.
// Close destroys everything still live, for tearing down a boundary
// session wholesale.
//
// Observers receive lifecycle notifications and are the feed behind
// live-handle displays and leak accounting.
package registry
