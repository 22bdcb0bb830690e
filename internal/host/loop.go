// SPDX-License-Identifier: MIT

// Package host drives the single privileged update goroutine. Each tick
// drains the main-thread task queue first, then advances every subscriber
// (the cinematic engine among them).
package host

import (
	"context"
	"sync"
	"time"

	"github.com/agentworld/simbridge/internal/dispatch"
	"github.com/agentworld/simbridge/internal/log"
)

// DefaultTickInterval approximates a 60 Hz host update stream.
const DefaultTickInterval = time.Second / 60

// Subscriber receives update ticks on the main goroutine.
// OnTick must not block on network or worker-domain events.
type Subscriber interface {
	OnTick(now time.Time, dt time.Duration)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(now time.Time, dt time.Duration)

// OnTick implements Subscriber.
func (f SubscriberFunc) OnTick(now time.Time, dt time.Duration) { f(now, dt) }

// Loop is the host update loop.
type Loop struct {
	interval time.Duration
	queue    *dispatch.Queue

	mu   sync.Mutex
	subs []Subscriber
}

// New creates a loop draining q every interval. A non-positive interval takes
// DefaultTickInterval.
func New(interval time.Duration, q *dispatch.Queue) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Loop{interval: interval, queue: q}
}

// Subscribe registers a tick subscriber. Subscribers run in registration
// order after the task queue drain.
func (l *Loop) Subscribe(s Subscriber) {
	l.mu.Lock()
	l.subs = append(l.subs, s)
	l.mu.Unlock()
}

// Run drives ticks until ctx is cancelled, then shuts the queue down so no
// worker is left waiting. Run is the main thread; nothing else may call
// Drain or subscriber OnTick.
func (l *Loop) Run(ctx context.Context) error {
	logger := log.WithComponent("host")
	l.queue.Attach()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	logger.Info().Dur("interval", l.interval).Str(log.FieldEvent, "host.started").
		Msg("update loop running")

	for {
		select {
		case <-ctx.Done():
			l.queue.Shutdown()
			logger.Info().Str(log.FieldEvent, "host.stopped").Msg("update loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			l.queue.Drain()

			l.mu.Lock()
			subs := append([]Subscriber(nil), l.subs...)
			l.mu.Unlock()
			for _, s := range subs {
				s.OnTick(now, dt)
			}
		}
	}
}
