package cache

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/rs/zerolog"

	"github.com/venkatsvpr/golang-cache/store"
)

// BoundedCache is a thread-safe fixed size cache. The eviction policy is
// fixed at construction; capacity and flush cycle may change at any time.
type BoundedCache[K comparable, V any] struct {
	store       *store.Store[K, V]
	flusher     *flusher
	flushEvery  time.Duration
	logger      zerolog.Logger
	evictedKeys []K
	evictedVals []V
	onEvictedCB func(k K, v V)
	lock        sync.Mutex
}

var _ Cache[string, any] = (*BoundedCache[string, any])(nil)

// New creates a cache from cfg.
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*BoundedCache[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := store.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	opts = append([]Option[K, V]{WithFlushCycle[K, V](cfg.FlushCycle)}, opts...)
	return newBounded(cfg.Capacity, policy, opts)
}

// NewLRU creates a least-recently-used cache of the given capacity.
func NewLRU[K comparable, V any](capacity int, opts ...Option[K, V]) (*BoundedCache[K, V], error) {
	return newBounded(capacity, LRU, opts)
}

// NewFIFO creates a first-in-first-out cache of the given capacity.
func NewFIFO[K comparable, V any](capacity int, opts ...Option[K, V]) (*BoundedCache[K, V], error) {
	return newBounded(capacity, FIFO, opts)
}

func newBounded[K comparable, V any](capacity int, policy Policy, opts []Option[K, V]) (c *BoundedCache[K, V], err error) {
	// create a cache with default settings
	c = &BoundedCache[K, V]{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		if err = opt(c); err != nil {
			return nil, err
		}
	}

	var onEvicted store.EvictCallback[K, V]
	if c.onEvictedCB != nil {
		c.initEvictBuffers()
		onEvicted = c.onEvicted
	}
	if c.store, err = store.New(capacity, policy, onEvicted); err != nil {
		return nil, fmt.Errorf("%w: %d", err, capacity)
	}

	c.logger = c.logger.With().
		Str("component", "cache").
		Str("policy", policy.Name()).
		Logger()
	wp := weak.Make(c)
	c.flusher = newFlusher(func() flushTarget {
		if target := wp.Value(); target != nil {
			return target
		}
		return nil
	}, c.logger)
	// stop the flush loop of a cache dropped without Close
	runtime.AddCleanup(c, (*flusher).close, c.flusher)
	if c.flushEvery > 0 {
		c.flusher.arm(c.flushEvery)
	}
	return c, nil
}

func (c *BoundedCache[K, V]) initEvictBuffers() {
	c.evictedKeys = make([]K, 0, DefaultEvictedBufferSize)
	c.evictedVals = make([]V, 0, DefaultEvictedBufferSize)
}

// onEvicted save evicted key/val and sent in externally registered callback
// outside critical section
func (c *BoundedCache[K, V]) onEvicted(k K, v V) {
	c.evictedKeys = append(c.evictedKeys, k)
	c.evictedVals = append(c.evictedVals, v)
}

// takeEvicted hands over the buffered evictions. Has to be called with lock!
func (c *BoundedCache[K, V]) takeEvicted() (ks []K, vs []V) {
	if c.onEvictedCB == nil || len(c.evictedKeys) == 0 {
		return nil, nil
	}
	ks, vs = c.evictedKeys, c.evictedVals
	c.initEvictBuffers()
	return ks, vs
}

// notifyEvicted invokes the eviction callback. Must be called without lock.
// Every entry is delivered even if the callback panics; the first panic is
// raised again once the batch is done.
func (c *BoundedCache[K, V]) notifyEvicted(ks []K, vs []V) {
	var panicked any
	for i := 0; i < len(ks); i++ {
		func() {
			defer func() {
				if r := recover(); r != nil && panicked == nil {
					panicked = r
				}
			}()
			c.onEvictedCB(ks[i], vs[i])
		}()
	}
	if panicked != nil {
		panic(panicked)
	}
}

// Purge is used to completely clear the cache.
func (c *BoundedCache[K, V]) Purge() {
	c.lock.Lock()
	c.store.Purge()
	ks, vs := c.takeEvicted()
	c.lock.Unlock()
	c.notifyEvicted(ks, vs)
}

// Put adds a value to the cache. Returns true if an eviction occurred.
func (c *BoundedCache[K, V]) Put(key K, value V) (evicted bool) {
	c.lock.Lock()
	evicted = c.store.Add(key, value)
	ks, vs := c.takeEvicted()
	c.lock.Unlock()
	c.notifyEvicted(ks, vs)
	return evicted
}

// PutIfAbsent adds the value only if the key is not cached. A cached key
// keeps its value and its eviction order. Returns the value now cached and
// whether it was already present.
func (c *BoundedCache[K, V]) PutIfAbsent(key K, value V) (actual V, loaded bool) {
	c.lock.Lock()
	actual, loaded, _ = c.store.AddIfAbsent(key, value)
	ks, vs := c.takeEvicted()
	c.lock.Unlock()
	c.notifyEvicted(ks, vs)
	return actual, loaded
}

// Get looks up a key's value from the cache. Under LRU a hit makes the key
// the most recently used.
func (c *BoundedCache[K, V]) Get(key K) (value V, ok bool) {
	c.lock.Lock()
	value, ok = c.store.Get(key)
	c.lock.Unlock()
	return value, ok
}

// Contains checks if a key is in the cache, without updating the
// eviction order.
func (c *BoundedCache[K, V]) Contains(key K) bool {
	c.lock.Lock()
	containKey := c.store.Contains(key)
	c.lock.Unlock()
	return containKey
}

// Peek returns the key value (or undefined if not found) without updating
// the eviction order.
func (c *BoundedCache[K, V]) Peek(key K) (value V, ok bool) {
	c.lock.Lock()
	value, ok = c.store.Peek(key)
	c.lock.Unlock()
	return value, ok
}

// Remove removes the provided key from the cache.
func (c *BoundedCache[K, V]) Remove(key K) (present bool) {
	c.lock.Lock()
	present = c.store.Remove(key)
	ks, vs := c.takeEvicted()
	c.lock.Unlock()
	c.notifyEvicted(ks, vs)
	return present
}

// SetCapacity changes the cache size, evicting the entries the policy
// would evict first until the cache fits.
func (c *BoundedCache[K, V]) SetCapacity(capacity int) error {
	c.lock.Lock()
	_, err := c.store.Resize(capacity)
	ks, vs := c.takeEvicted()
	c.lock.Unlock()
	c.notifyEvicted(ks, vs)
	if err != nil {
		return fmt.Errorf("%w: %d", err, capacity)
	}
	return nil
}

// SetFlushCycle sets the whole-cache flush period in seconds. 0 disables
// flushing; any other value up to MaxFlushCycle restarts the cycle from now.
func (c *BoundedCache[K, V]) SetFlushCycle(seconds int) error {
	d, err := flushCycleDuration(seconds)
	if err != nil {
		return err
	}
	c.flusher.arm(d)
	return nil
}

// SetFlushInterval is SetFlushCycle with sub-second resolution.
func (c *BoundedCache[K, V]) SetFlushInterval(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFlushCycle, d)
	}
	c.flusher.arm(d)
	return nil
}

// FlushInterval returns the current flush period, 0 when flushing is off.
func (c *BoundedCache[K, V]) FlushInterval() time.Duration {
	return c.flusher.period()
}

// Close stops the flush cycle and waits for its goroutine to exit. The
// cache stays usable and the cycle may be armed again.
func (c *BoundedCache[K, V]) Close() {
	c.flusher.close()
}

// Policy returns the eviction policy of the cache.
func (c *BoundedCache[K, V]) Policy() Policy {
	return c.store.Policy()
}

// Keys returns a slice of the keys in the cache, from next-to-evict to
// last-to-evict.
func (c *BoundedCache[K, V]) Keys() []K {
	c.lock.Lock()
	keys := c.store.Keys()
	c.lock.Unlock()
	return keys
}

// Values returns a slice of the values in the cache, in the same order
// as Keys.
func (c *BoundedCache[K, V]) Values() []V {
	c.lock.Lock()
	values := c.store.Values()
	c.lock.Unlock()
	return values
}

// Len returns the number of items in the cache.
func (c *BoundedCache[K, V]) Len() int {
	c.lock.Lock()
	length := c.store.Len()
	c.lock.Unlock()
	return length
}

// Cap returns the capacity of the cache.
func (c *BoundedCache[K, V]) Cap() int {
	c.lock.Lock()
	capacity := c.store.Cap()
	c.lock.Unlock()
	return capacity
}
