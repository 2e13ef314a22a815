// Package tasks tracks cancellable background work tied to an owner's
// lifetime, such as game timers that must not outlive their session.
package tasks

import (
	"context"
	"sync"
)

// Supervisor runs background tasks on goroutines bound to one shared
// context. Cancelling the supervisor cancels every task it spawned;
// tasks that finish naturally remove themselves from the tracked count.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	active int
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor whose tasks are additionally bound
// to the parent context, so process shutdown reaches them too.
func NewSupervisor(parent context.Context) *Supervisor {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{ctx: ctx, cancel: cancel}
}

// Spawn schedules fn on its own goroutine. fn must return promptly once
// its context is cancelled. Spawning after CancelAll is a no-op.
func (s *Supervisor) Spawn(fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.active++
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.active--
			s.mu.Unlock()
			s.wg.Done()
		}()
		fn(s.ctx)
	}()
}

// CancelAll cancels every outstanding task. Safe to call repeatedly.
func (s *Supervisor) CancelAll() {
	s.cancel()
}

// Cancelled reports whether CancelAll has been called.
func (s *Supervisor) Cancelled() bool {
	return s.ctx.Err() != nil
}

// Active returns the number of tasks still running.
func (s *Supervisor) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Wait blocks until every spawned task has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
