// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory(0)
	defer c.Close()

	c.Set("key1", "value1", 5*time.Minute)
	v, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", v)

	_, ok = c.Get("nonexistent")
	assert.False(t, ok)
}

func TestMemoryLazyExpiry(t *testing.T) {
	c := NewMemory(0)
	defer c.Close()

	c.Set("shortlived", "value", 20*time.Millisecond)
	_, ok := c.Get("shortlived")
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok = c.Get("shortlived")
	assert.False(t, ok, "expired entry must be dropped on access")
	assert.Zero(t, c.Stats().Entries)
}

func TestMemorySweeper(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)
	defer c.Close()

	c.Set("a", 1, 20*time.Millisecond)
	c.Set("b", 2, 5*time.Minute)

	assert.Eventually(t, func() bool {
		return c.Stats().Entries == 1
	}, time.Second, 5*time.Millisecond, "sweeper must remove the expired entry")

	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemoryDeleteAndClear(t *testing.T) {
	c := NewMemory(0)
	defer c.Close()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Zero(t, c.Stats().Entries)
}

func TestMemoryStats(t *testing.T) {
	c := NewMemory(0)
	defer c.Close()

	c.Set("a", 1, time.Minute)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Sets)
	assert.Equal(t, 1, s.Entries)
}

func TestMemoryCloseIdempotent(t *testing.T) {
	c := NewMemory(time.Minute)
	c.Close()
	assert.NotPanics(t, func() { c.Close() })
}
