package registry

import (
	"sync"

	"github.com/wippyai/stream-handle/handle"
)

// Token is an opaque reference to a registered handle.
// Token 0 is reserved and always invalid.
type Token uint64

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventReleased
	EventDestroyed
)

// Event represents a handle lifecycle event.
type Event struct {
	Token Token
	Type  EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// Registry is a token table for stream handles with slot reuse.
type Registry struct {
	entries   []entry
	freeList  []Token
	mu        sync.RWMutex
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	h     *handle.FileHandle
	valid bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries:  make([]entry, 0, 64),
		freeList: make([]Token, 0, 16),
	}
}

// Register stores a handle and returns its token. The registry takes
// ownership: the handle is destroyed by Destroy or Close unless
// Unregister moves it back out. Returns 0 for a nil handle or a closed
// registry.
func (r *Registry) Register(h *handle.FileHandle) Token {
	if h == nil {
		return 0
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}

	e := entry{h: h, valid: true}

	var tok Token
	if n := len(r.freeList); n > 0 {
		tok = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		r.entries[tok-1] = e
	} else {
		r.entries = append(r.entries, e)
		tok = Token(len(r.entries))
	}
	r.mu.Unlock()

	r.notify(Event{Token: tok, Type: EventRegistered})
	return tok
}

// Lookup resolves a token to its handle without affecting ownership.
func (r *Registry) Lookup(tok Token) (*handle.FileHandle, bool) {
	if tok == 0 {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := tok - 1
	if int(idx) >= len(r.entries) {
		return nil, false
	}

	e := r.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e.h, true
}

// Unregister removes a token and transfers ownership of its handle to
// the caller. The token is invalid afterward and its slot may be reused.
func (r *Registry) Unregister(tok Token) (*handle.FileHandle, bool) {
	h, ok := r.take(tok)
	if !ok {
		return nil, false
	}

	r.notify(Event{Token: tok, Type: EventReleased})
	return h, true
}

// Destroy removes a token and destroys its handle in place. Unknown
// tokens are tolerated, matching the infallible destroy contract.
func (r *Registry) Destroy(tok Token) bool {
	h, ok := r.take(tok)
	if !ok {
		return false
	}

	handle.Destroy(h)
	r.notify(Event{Token: tok, Type: EventDestroyed})
	return true
}

func (r *Registry) take(tok Token) (*handle.FileHandle, bool) {
	if tok == 0 {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := tok - 1
	if int(idx) >= len(r.entries) {
		return nil, false
	}

	e := &r.entries[idx]
	if !e.valid {
		return nil, false
	}

	h := e.h
	e.h = nil
	e.valid = false
	r.freeList = append(r.freeList, tok)
	return h, true
}

// Len returns the number of live tokens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live tokens.
func (r *Registry) Each(fn func(Token, *handle.FileHandle) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, e := range r.entries {
		if e.valid {
			if !fn(Token(i+1), e.h) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close destroys every live handle and stops accepting registrations.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	var live []*handle.FileHandle
	for i := range r.entries {
		if r.entries[i].valid {
			live = append(live, r.entries[i].h)
			r.entries[i].h = nil
			r.entries[i].valid = false
		}
	}
	r.entries = nil
	r.freeList = nil
	r.mu.Unlock()

	for _, h := range live {
		handle.Destroy(h)
	}
	return nil
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnHandleEvent(e)
	}
}
