// SPDX-License-Identifier: MIT

package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworld/simbridge/internal/dispatch"
)

func TestLoopDrainsQueueBeforeSubscribers(t *testing.T) {
	q := dispatch.New()
	q.Attach()
	l := New(time.Millisecond, q)

	var mu sync.Mutex
	var order []string
	l.Subscribe(SubscriberFunc(func(time.Time, time.Duration) {
		mu.Lock()
		order = append(order, "tick")
		mu.Unlock()
	}))

	// Queue the task before the loop starts so the first tick sees it.
	taskDone := make(chan error, 1)
	go func() {
		_, err := q.RunOnMain(func() (any, error) {
			mu.Lock()
			order = append(order, "task")
			mu.Unlock()
			return nil, nil
		}, time.Second)
		taskDone <- err
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.NoError(t, <-taskDone)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) >= 2
	}, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "task", order[0], "queued task runs before the same tick's subscribers")
}

func TestLoopSubscriberOrder(t *testing.T) {
	q := dispatch.New()
	l := New(time.Millisecond, q)

	var mu sync.Mutex
	var seen []int
	for i := 0; i < 3; i++ {
		i := i
		l.Subscribe(SubscriberFunc(func(time.Time, time.Duration) {
			mu.Lock()
			seen = append(seen, i)
			mu.Unlock()
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 3
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, seen[:3], "registration order")
}

func TestLoopShutsQueueDownOnCancel(t *testing.T) {
	q := dispatch.New()
	l := New(time.Millisecond, q)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := q.RunOnMain(func() (any, error) { return nil, nil }, time.Second)
		return err == nil
	}, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	_, err := q.RunOnMain(func() (any, error) { return nil, nil }, 50*time.Millisecond)
	assert.ErrorIs(t, err, dispatch.ErrShutdown)
}

func TestLoopDefaultInterval(t *testing.T) {
	l := New(0, dispatch.New())
	assert.Equal(t, DefaultTickInterval, l.interval)
}
