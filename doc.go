// Package cache provides bounded in-process caches for memoizing
// expensive lookups.
//
// Two eviction policies share one implementation. LRU moves an entry to
// the most recently used position whenever it is read or overwritten.
// FIFO keeps the order in which keys were first inserted, so access never
// protects an entry from eviction. Both are backed by the table in the
// store package and differ only in the policy bound at construction.
//
// A cache may also be armed with a flush cycle, after which a goroutine
// owned by that cache purges it once per period until the cycle is set
// back to 0 or the cache is closed. A cache dropped without Close stops
// its cycle once it is garbage collected.
//
// Loader wraps any Cache with a load function so that concurrent misses
// for the same key share a single load.
//
// All caches in this package take locks while operating, and are therefore
// thread-safe for consumers.
package cache
