package room

import (
	"context"
	"sync"
)

// serializer runs operations addressed to one room code strictly one at a
// time on that room's own goroutine. Different codes never contend. A
// room's goroutine exits once no caller holds a reference to it.
type serializer struct {
	mu     sync.Mutex
	actors map[string]*actor
}

type actor struct {
	ops  chan func()
	refs int
}

func newSerializer() *serializer {
	return &serializer{actors: make(map[string]*actor)}
}

func (s *serializer) acquire(code string) *actor {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[code]
	if !ok {
		a = &actor{ops: make(chan func())}
		s.actors[code] = a
		go a.run()
	}
	a.refs++
	return a
}

func (s *serializer) release(code string, a *actor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.refs--
	if a.refs == 0 {
		close(a.ops)
		delete(s.actors, code)
	}
}

func (a *actor) run() {
	for op := range a.ops {
		op()
	}
}

// do runs fn on code's goroutine and waits for it. If ctx ends before fn
// is scheduled, fn never runs and ctx.Err() is returned. Once scheduled, fn
// always runs to completion; it receives ctx for its own blocking calls.
func (s *serializer) do(ctx context.Context, code string, fn func()) error {
	a := s.acquire(code)
	defer s.release(code, a)

	done := make(chan struct{})
	var panicked interface{}
	op := func() {
		defer close(done)
		defer func() { panicked = recover() }()
		fn()
	}

	select {
	case a.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done

	if panicked != nil {
		panic(panicked)
	}
	return nil
}

// active reports how many room goroutines are running.
func (s *serializer) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}
