package streamhandle

// Flusher is implemented by writers that buffer output. Payloads that do
// not implement it treat flush as a no-op.
type Flusher interface {
	Flush() error
}

// Sink discards everything written to it. It is the payload behind the
// null handle constructor and a convenient generic target for downcast
// tests.
type Sink struct{}

// Write discards p and reports its full length as written.
func (Sink) Write(p []byte) (int, error) { return len(p), nil }
