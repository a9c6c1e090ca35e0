package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// LoadFunc computes the value for a key missing from the cache.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Loader fills a cache on demand. Concurrent misses for the same key wait
// on a single call to the load function; failed loads are not cached.
type Loader[K comparable, V any] struct {
	cache Cache[K, V]
	load  LoadFunc[K, V]
	keyOf func(key K) string
	group singleflight.Group
}

// LoaderOption customizes a Loader.
type LoaderOption[K comparable, V any] func(l *Loader[K, V])

// WithKeyFunc sets how keys are identified when deduplicating loads.
// Two keys that map to the same string share a load, so the function must
// be injective over the keys in use. The default formats keys with %#v.
func WithKeyFunc[K comparable, V any](fn func(key K) string) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		l.keyOf = fn
	}
}

// NewLoader returns a Loader that fills c with load.
func NewLoader[K comparable, V any](c Cache[K, V], load LoadFunc[K, V], opts ...LoaderOption[K, V]) *Loader[K, V] {
	l := &Loader[K, V]{
		cache: c,
		load:  load,
		keyOf: func(key K) string {
			return fmt.Sprintf("%#v", key)
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the cached value for key, loading it on a miss. The load is
// detached from ctx cancellation so that other waiters still get a result;
// a cancelled ctx only stops this caller from waiting.
func (l *Loader[K, V]) Get(ctx context.Context, key K) (value V, err error) {
	if value, ok := l.cache.Get(key); ok {
		return value, nil
	}

	ch := l.group.DoChan(l.keyOf(key), func() (any, error) {
		// filled by a load that finished while we were getting here
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := l.load(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		actual, _ := l.cache.PutIfAbsent(key, v)
		return actual, nil
	})

	select {
	case <-ctx.Done():
		return value, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return value, res.Err
		}
		value, _ = res.Val.(V)
		return value, nil
	}
}

// Forget drops key from the cache so the next Get loads it again.
func (l *Loader[K, V]) Forget(key K) {
	l.group.Forget(l.keyOf(key))
	l.cache.Remove(key)
}
