package wasi

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	streamhandle "github.com/wippyai/stream-handle"
	"github.com/wippyai/stream-handle/errors"
	"github.com/wippyai/stream-handle/handle"
	"github.com/wippyai/stream-handle/registry"
)

// StreamHost serves a registry of stream handles to WASM guests.
type StreamHost struct {
	reg *registry.Registry
}

// NewStreamHost creates a host backed by the given registry.
func NewStreamHost(reg *registry.Registry) *StreamHost {
	return &StreamHost{reg: reg}
}

// Namespace returns the host module name guests import from.
func (h *StreamHost) Namespace() string {
	return "wippy:stream-handle/sink"
}

// Write dispatches guest data through a token, returning the byte count
// or a negative status.
func (h *StreamHost) Write(tok registry.Token, data []byte) int32 {
	fh, ok := h.reg.Lookup(tok)
	if !ok {
		return errors.StatusInvalidHandle
	}

	n, err := handle.Write(fh, data)
	if err != nil {
		return errors.ErrnoOf(err)
	}
	return int32(n)
}

// Flush flushes a token's stream. Returns 0 on success or a negative
// status.
func (h *StreamHost) Flush(tok registry.Token) int32 {
	fh, ok := h.reg.Lookup(tok)
	if !ok {
		return errors.StatusInvalidHandle
	}

	if err := handle.Flush(fh); err != nil {
		return errors.ErrnoOf(err)
	}
	return 0
}

// Drop destroys a token's handle. Unknown tokens are tolerated.
func (h *StreamHost) Drop(tok registry.Token) {
	h.reg.Destroy(tok)
}

// Discard mints a fresh handle that throws away everything written to
// it, for guests that need a sink of their own.
func (h *StreamHost) Discard() registry.Token {
	return h.reg.Register(handle.ForWriter(streamhandle.Sink{}))
}

// Instantiate registers the host module with a wazero runtime.
func (h *StreamHost) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(h.Namespace())

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, mod api.Module, stack []uint64) {
			tok := registry.Token(stack[0])
			ptr := uint32(stack[1])
			length := uint32(stack[2])

			mem := mod.Memory()
			if mem == nil {
				stack[0] = status(errors.StatusFailed)
				return
			}
			data, ok := mem.Read(ptr, length)
			if !ok {
				stack[0] = status(errors.StatusFailed)
				return
			}
			stack[0] = status(h.Write(tok, data))
		}),
			[]api.ValueType{api.ValueTypeI64, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		Export("stream-write")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = status(h.Flush(registry.Token(stack[0])))
		}),
			[]api.ValueType{api.ValueTypeI64},
			[]api.ValueType{api.ValueTypeI32}).
		Export("stream-flush")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			h.Drop(registry.Token(stack[0]))
		}),
			[]api.ValueType{api.ValueTypeI64},
			nil).
		Export("stream-drop")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = uint64(h.Discard())
		}),
			nil,
			[]api.ValueType{api.ValueTypeI64}).
		Export("stream-discard")

	return builder.Instantiate(ctx)
}

// status narrows an i32 status onto the wazero stack.
func status(code int32) uint64 {
	return uint64(uint32(code))
}
