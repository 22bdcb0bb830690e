// SPDX-License-Identifier: MIT

// Package dispatch provides the main-thread task queue. Worker goroutines
// enqueue host-touching operations and block on per-request completion; the
// host's update tick drains the queue on the single privileged goroutine.
package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentworld/simbridge/internal/log"
)

// ErrShutdown is delivered to waiters still queued when the queue shuts down.
var ErrShutdown = errors.New("dispatcher shut down")

// TimeoutError is returned when the main thread does not complete a task
// within the caller's deadline. The task itself is not cancelled.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %gs", e.Timeout.Seconds())
}

// Fn is a unit of work executed on the main thread.
type Fn func() (any, error)

// Result carries a task outcome back to the enqueuing worker.
type Result struct {
	Value any
	Err   error
}

type task struct {
	fn    Fn
	reply chan Result // buffered(1): drain never blocks on a departed waiter
}

// Queue is the FIFO main-thread task queue.
type Queue struct {
	mu      sync.Mutex
	pending []task
	closed  bool

	attached     atomic.Bool
	fallbackOnce sync.Once
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Attach marks the queue as driven by a host update loop. Until attached,
// RunOnMain falls back to direct in-goroutine invocation.
func (q *Queue) Attach() {
	q.attached.Store(true)
}

// RunOnMain enqueues fn for the next update tick and blocks until the main
// thread has executed it, or the timeout elapses. The completion channel is
// always signalled, success or failure; a late-completing task still runs and
// its result is discarded.
func (q *Queue) RunOnMain(fn Fn, timeout time.Duration) (any, error) {
	if !q.attached.Load() {
		q.fallbackOnce.Do(func() {
			logger := log.WithComponent("dispatch")
			logger.Warn().
				Str(log.FieldEvent, "dispatch.fallback").
				Msg("no host update loop attached; executing tasks in-thread")
		})
		return invoke(fn)
	}

	t := task{fn: fn, reply: make(chan Result, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrShutdown
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()

	select {
	case res := <-t.reply:
		return res.Value, res.Err
	case <-time.After(timeout):
		return nil, &TimeoutError{Timeout: timeout}
	}
}

// Drain executes every task pending at the start of the tick, in enqueue
// order. Tasks enqueued while draining run on the next tick, which prevents
// starvation under sustained load. Must be called from the main thread only.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, t := range batch {
		value, err := invoke(t.fn)
		t.reply <- Result{Value: value, Err: err}
	}
	return len(batch)
}

// Len reports the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Shutdown rejects new tasks and signals every queued waiter with ErrShutdown.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.closed = true
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, t := range batch {
		t.reply <- Result{Err: ErrShutdown}
	}
}

// invoke runs fn, converting a panic into an error so the completion signal
// always fires.
func invoke(fn Fn) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value = nil
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return fn()
}
