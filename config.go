package cache

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/venkatsvpr/golang-cache/store"
)

const (
	// DefaultCapacity is the capacity used by DefaultConfig.
	DefaultCapacity = 128

	// DefaultEvictedBufferSize defines the default buffer size to store evicted key/val
	DefaultEvictedBufferSize = 16

	// MaxFlushCycle is the longest flush cycle in seconds that still fits
	// in a time.Duration.
	MaxFlushCycle = math.MaxInt64 / int64(time.Second)
)

// flushCycleDuration converts a flush cycle in seconds to a period.
func flushCycleDuration(seconds int) (time.Duration, error) {
	if seconds < 0 || int64(seconds) > MaxFlushCycle {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFlushCycle, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// Policy selects how a cache orders entries for eviction.
type Policy = store.Policy

var (
	// LRU evicts the least recently read or written entry.
	LRU = store.LRU

	// FIFO evicts the oldest inserted entry, regardless of access.
	FIFO = store.FIFO
)

// Config is the construction-time configuration of a cache.
type Config struct {
	// Capacity is the maximum number of live entries. Must be positive.
	Capacity int `mapstructure:"capacity"`
	// Policy is the eviction policy name, "lru" or "fifo".
	Policy string `mapstructure:"policy"`
	// FlushCycle is the whole-cache flush period in seconds; 0 disables it.
	FlushCycle int `mapstructure:"flush_cycle"`
}

// DefaultConfig returns an LRU configuration of DefaultCapacity without
// periodic flushing.
func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		Policy:   LRU.Name(),
	}
}

// Validate checks the configuration without building a cache.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.Capacity)
	}
	if _, err := store.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := flushCycleDuration(c.FlushCycle); err != nil {
		return err
	}
	return nil
}

// Option customizes a cache at construction.
type Option[K comparable, V any] func(c *BoundedCache[K, V]) error

// WithEvictCallback registers a callback that receives every entry leaving
// the cache through eviction, Remove, Purge or a scheduled flush. It runs
// outside the cache lock. If it panics, the rest of the batch is still
// delivered and the panic is then raised from the triggering call, or
// logged when that call is a scheduled flush.
func WithEvictCallback[K comparable, V any](cb func(key K, value V)) Option[K, V] {
	return func(c *BoundedCache[K, V]) error {
		c.onEvictedCB = cb
		return nil
	}
}

// WithLogger sets the logger used by the flush scheduler.
func WithLogger[K comparable, V any](logger zerolog.Logger) Option[K, V] {
	return func(c *BoundedCache[K, V]) error {
		c.logger = logger
		return nil
	}
}

// WithFlushCycle arms the periodic flush with a period in seconds.
func WithFlushCycle[K comparable, V any](seconds int) Option[K, V] {
	return func(c *BoundedCache[K, V]) error {
		d, err := flushCycleDuration(seconds)
		if err != nil {
			return err
		}
		c.flushEvery = d
		return nil
	}
}

// WithFlushInterval arms the periodic flush with an arbitrary period.
func WithFlushInterval[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *BoundedCache[K, V]) error {
		if d < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidFlushCycle, d)
		}
		c.flushEvery = d
		return nil
	}
}
