// Package wasi exposes registered stream handles to WebAssembly guests.
//
// The host module wippy:stream-handle/sink gives a guest four imports:
//
//	stream-write(token: i64, ptr: i32, len: i32) -> i32
//	stream-flush(token: i64) -> i32
//	stream-drop(token: i64)
//	stream-discard() -> i64
//
// Tokens are registry tokens handed to the guest by the embedder (or
// minted by stream-discard). Status codes follow the same negative-value
// convention as the capi package, so a guest linked against either
// boundary sees identical semantics.
//
//	host := wasi.NewStreamHost(reg)
//	if _, err := host.Instantiate(ctx, runtime); err != nil {
//	    return err
//	}
package wasi
