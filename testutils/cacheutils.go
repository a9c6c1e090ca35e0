// Package testutils holds behavioural checks shared by the tests of every
// cache policy.
package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Cache is the subset of the cache contract exercised here, fixed to int
// keys and values.
type Cache interface {
	Len() int
	Contains(key int) bool
	Put(key, value int) bool
	PutIfAbsent(key, value int) (int, bool)
	Get(key int) (int, bool)
	Remove(key int) bool
	Purge()
}

// CapacityTest puts twice the capacity and checks the bound after every put.
func CapacityTest(t *testing.T, c Cache, capacity int) {
	t.Helper()
	for i := 0; i < 2*capacity; i++ {
		evicted := c.Put(i, i)
		require.LessOrEqual(t, c.Len(), capacity, "put %d", i)
		assert.Equal(t, i >= capacity, evicted, "put %d", i)
	}
	require.Equal(t, capacity, c.Len())

	// the newest capacity keys survive under any policy when nothing was read
	for i := 0; i < capacity; i++ {
		assert.False(t, c.Contains(i), "%d should be evicted", i)
	}
	for i := capacity; i < 2*capacity; i++ {
		v, ok := c.Get(i)
		assert.True(t, ok, "%d should not be evicted", i)
		assert.Equal(t, i, v)
	}
}

// ContainsTest checks that Contains never protects a key from eviction.
func ContainsTest(t *testing.T, c Cache, capacity int) {
	t.Helper()
	for i := 0; i < capacity; i++ {
		c.Put(i, i)
	}

	// contains should not update the order so this item will remain the oldest
	require.True(t, c.Contains(0))

	c.Put(capacity, capacity)
	assert.False(t, c.Contains(0), "Contains should not have updated the order of 0")
}

// PutIfAbsentTest checks that a second PutIfAbsent keeps the first value
// and leaves the eviction order alone.
func PutIfAbsentTest(t *testing.T, c Cache, capacity int) {
	t.Helper()
	v, loaded := c.PutIfAbsent(0, 100)
	require.False(t, loaded)
	require.Equal(t, 100, v)
	for i := 1; i < capacity; i++ {
		c.Put(i, i)
	}

	v, loaded = c.PutIfAbsent(0, 200)
	assert.True(t, loaded)
	assert.Equal(t, 100, v)

	got, ok := c.Get(0)
	require.True(t, ok)
	assert.Equal(t, 100, got)
	require.Equal(t, capacity, c.Len())
}

// ClearTest checks Remove of a single key and Purge of everything.
func ClearTest(t *testing.T, c Cache, capacity int) {
	t.Helper()
	for i := 0; i < capacity; i++ {
		c.Put(i, i)
	}

	assert.True(t, c.Remove(0))
	assert.False(t, c.Remove(0), "second remove should report absent")
	_, ok := c.Get(0)
	assert.False(t, ok)
	require.Equal(t, capacity-1, c.Len())
	for i := 1; i < capacity; i++ {
		assert.True(t, c.Contains(i), "%d should survive Remove(0)", i)
	}

	c.Purge()
	require.Equal(t, 0, c.Len())
	for i := 0; i < capacity; i++ {
		_, ok := c.Get(i)
		assert.False(t, ok, "%d should be purged", i)
	}
}

// ConcurrentTest fills the cache from many goroutines with distinct keys
// while reading, then overfills it, checking the bound throughout.
func ConcurrentTest(t *testing.T, c Cache, capacity, workers int) {
	t.Helper()
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for k := w; k < capacity; k += workers {
				c.Put(k, k)
				if n := c.Len(); n > capacity {
					return fmt.Errorf("len %d exceeds capacity %d", n, capacity)
				}
				if v, ok := c.Get(k); ok && v != k {
					return fmt.Errorf("key %d has value %d", k, v)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// exactly capacity distinct keys: nothing may have been evicted
	require.Equal(t, capacity, c.Len())
	for k := 0; k < capacity; k++ {
		v, ok := c.Get(k)
		require.True(t, ok, "key %d lost", k)
		require.Equal(t, k, v)
	}

	var g2 errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g2.Go(func() error {
			for k := capacity + w; k < 4*capacity; k += workers {
				c.Put(k, k)
				c.PutIfAbsent(k, -k)
				c.Contains(k - capacity)
				if n := c.Len(); n > capacity {
					return fmt.Errorf("len %d exceeds capacity %d", n, capacity)
				}
			}
			return nil
		})
	}
	g2.Go(func() error {
		for i := 0; i < capacity; i++ {
			c.Remove(i)
		}
		return nil
	})
	require.NoError(t, g2.Wait())
	require.LessOrEqual(t, c.Len(), capacity)
}
