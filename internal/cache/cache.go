// SPDX-License-Identifier: MIT

// Package cache holds short-lived lookup results, primarily asset transforms
// resolved for camera framing and orbit shots.
package cache

import (
	"sync"
	"time"
)

// Cache is a TTL key/value store safe for concurrent use.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	Clear()
	Stats() Stats
	Close()
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Entries int   `json:"entries"`
}

type record struct {
	value    any
	deadline time.Time
}

// Memory is the in-process backend with periodic expiry sweeps.
type Memory struct {
	mu      sync.Mutex
	records map[string]record
	stats   Stats
	stop    chan struct{}
	once    sync.Once
}

// NewMemory starts a memory cache. sweepInterval <= 0 disables the sweeper;
// expired entries are then dropped lazily on Get.
func NewMemory(sweepInterval time.Duration) *Memory {
	c := &Memory{
		records: make(map[string]record),
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

func (c *Memory) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[key]
	if !ok || time.Now().After(r.deadline) {
		if ok {
			delete(c.records, key)
		}
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return r.value, true
}

func (c *Memory) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[key] = record{value: value, deadline: time.Now().Add(ttl)}
	c.stats.Sets++
}

func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, key)
}

func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]record)
}

func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.records)
	return s
}

func (c *Memory) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for k, r := range c.records {
				if now.After(r.deadline) {
					delete(c.records, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
