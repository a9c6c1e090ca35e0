package cache

// Cache is the contract shared by every bounded cache in this package.
// All methods are safe for concurrent use.
type Cache[K comparable, V any] interface {
	// Returns the number of live entries.
	Len() int

	// Changes the maximum number of entries, evicting the excess before
	// returning. Non-positive capacities are rejected.
	SetCapacity(capacity int) error

	// Sets the whole-cache flush period in seconds; 0 disables flushing.
	SetFlushCycle(seconds int) error

	// Checks if a key exists in cache without updating its eviction order.
	Contains(key K) bool

	// Adds or replaces a value, returns true if an eviction occurred.
	Put(key K, value V) (evicted bool)

	// Adds a value only if the key is absent. Returns the stored value and
	// whether it was already present; a present key keeps its order.
	PutIfAbsent(key K, value V) (actual V, loaded bool)

	// Returns key's value and whether it was found.
	Get(key K) (value V, ok bool)

	// Removes a key from the cache, returns whether it was present.
	Remove(key K) (present bool)

	// Clears all cache entries.
	Purge()
}
