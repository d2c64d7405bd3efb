package nav

import (
	"context"
	"sync"
)

// Serializer runs restorations one at a time in the order they were
// scheduled. A restoration starts only after the previous one finished,
// successfully or not.
type Serializer struct {
	e *Engine

	mu      sync.Mutex
	tail    chan struct{}
	started bool
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Schedule queues ev behind the restoration in flight. The returned channel
// yields the restoration's error, nil on success, and is then closed.
// The first restoration ever scheduled also reconciles the tabs once it
// settled, to correct a location that drifted from what is on screen.
func (s *Serializer) Schedule(ctx context.Context, ev Event) <-chan error {
	s.mu.Lock()
	prev := s.tail
	done := make(chan struct{})
	s.tail = done
	first := !s.started
	s.started = true
	s.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		defer close(result)
		defer close(done)

		if prev != nil {
			<-prev
		}
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}

		s.e.restoring.Add(1)
		err := s.e.dispatcher.Restore(ctx, ev)
		if first {
			s.e.tabs.ReconcileActiveTabs(false)
		}
		s.e.restoring.Add(-1)

		result <- err
	}()
	return result
}

// Idle returns a channel closed once every restoration scheduled so far
// has finished.
func (s *Serializer) Idle() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tail == nil {
		return closedChan
	}
	return s.tail
}
