// SPDX-License-Identifier: MIT

// Package tracker records fire-and-forget requests whose results arrive
// asynchronously from the main thread.
package tracker

import (
	"errors"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a record survives after creation.
	DefaultTTL = 300 * time.Second
	// DefaultCapacity bounds the number of live records.
	DefaultCapacity = 500
)

// ErrNotFound is returned by Get for unknown or evicted request IDs.
var ErrNotFound = errors.New("request not found")

// Record is one tracked request.
type Record struct {
	RequestID   string         `json:"request_id"`
	Operation   string         `json:"operation"`
	Params      map[string]any `json:"params,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Completed   bool           `json:"completed"`
	CompletedAt time.Time      `json:"completed_at,omitzero"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Tracker maps request IDs to records with TTL and capacity eviction.
type Tracker struct {
	mu       sync.Mutex
	records  map[string]*Record
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithTTL overrides the record TTL.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) { t.ttl = ttl }
}

// WithCapacity overrides the record capacity.
func WithCapacity(n int) Option {
	return func(t *Tracker) { t.capacity = n }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a Tracker with the documented defaults (TTL 300s, capacity 500).
func New(opts ...Option) *Tracker {
	t := &Tracker{
		records:  make(map[string]*Record),
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add registers a new pending record. Pruning runs on every add.
func (t *Tracker) Add(requestID, operation string, params map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked()
	if len(t.records) >= t.capacity {
		t.evictLocked()
	}
	t.records[requestID] = &Record{
		RequestID: requestID,
		Operation: operation,
		Params:    params,
		CreatedAt: t.now(),
	}
}

// MarkCompleted records the outcome of a tracked request. Unknown IDs are a
// no-op: the record may have been evicted while the task ran.
func (t *Tracker) MarkCompleted(requestID string, result map[string]any, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[requestID]
	if !ok {
		return
	}
	rec.Completed = true
	rec.CompletedAt = t.now()
	rec.Result = result
	if err != nil {
		rec.Error = err.Error()
	}
}

// Get returns a copy of the record, or ErrNotFound after eviction.
func (t *Tracker) Get(requestID string) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked()
	rec, ok := t.records[requestID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *rec, nil
}

// Len reports the number of live records.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Prune drops records older than the TTL. Called periodically by the host
// loop in addition to the lazy pruning on Add/Get.
func (t *Tracker) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
}

func (t *Tracker) pruneLocked() {
	cutoff := t.now().Add(-t.ttl)
	for id, rec := range t.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(t.records, id)
		}
	}
}

// evictLocked removes one record to make room: oldest-completed first, then
// oldest outright.
func (t *Tracker) evictLocked() {
	all := make([]*Record, 0, len(t.records))
	for _, rec := range t.records {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Completed != all[j].Completed {
			return all[i].Completed
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	for len(t.records) >= t.capacity && len(all) > 0 {
		delete(t.records, all[0].RequestID)
		all = all[1:]
	}
}
