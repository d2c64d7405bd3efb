package signal

import (
	"context"
	"sync"
)

// Waiter is a single-shot completion handle returned by Registry.Await.
type Waiter struct {
	id   string
	done chan struct{}
	once sync.Once
}

// ID returns the id the waiter is registered under.
func (w *Waiter) ID() string {
	return w.id
}

// Done returns a channel that is closed when the waiter fires.
func (w *Waiter) Done() <-chan struct{} {
	return w.done
}

// Fired reports whether the waiter has already fired.
func (w *Waiter) Fired() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the waiter fires or ctx is done.
func (w *Waiter) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Waiter) fire() {
	w.once.Do(func() { close(w.done) })
}

// Registry maps element ids to pending one-shot waiters.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	waiters map[string]*Waiter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{waiters: make(map[string]*Waiter)}
}

// Await registers a waiter for id. If one is already pending it is returned
// instead of a new one.
func (r *Registry) Await(id string) *Waiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.waiters[id]; ok {
		return w
	}
	w := &Waiter{id: id, done: make(chan struct{})}
	r.waiters[id] = w
	return w
}

// Resolve fires and removes the waiter registered for id.
// Returns false when nothing was registered.
func (r *Registry) Resolve(id string) bool {
	r.mu.Lock()
	w, ok := r.waiters[id]
	if ok {
		delete(r.waiters, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	w.fire()
	return true
}

// Cancel removes the registration for w without firing it.
// A registration that was replaced or already resolved is left alone.
func (r *Registry) Cancel(w *Waiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.waiters[w.id]; ok && cur == w {
		delete(r.waiters, w.id)
	}
}

// Pending reports whether id has a waiter registered.
func (r *Registry) Pending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.waiters[id]
	return ok
}

// Len returns the number of pending waiters.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
