// Package store provides the bounded, ordered key/value table that backs
// the caches in the parent package. It is not safe for concurrent use.
package store

import (
	"container/list"
	"errors"
)

var (
	// ErrInvalidCapacity is returned when a capacity is not strictly positive.
	ErrInvalidCapacity = errors.New("must provide a positive size")

	// ErrUnknownPolicy is returned for a missing or unrecognised eviction policy.
	ErrUnknownPolicy = errors.New("unknown eviction policy")
)

// EvictCallback is used to get a callback when a cache entry is evicted
type EvictCallback[K comparable, V any] func(key K, value V)

// entry is used to hold a value in the order list
type entry[K comparable, V any] struct {
	key   K
	value V
}

// Store is a fixed size key/value table. Entries are kept in eviction
// order and the oldest entry is dropped whenever an insert pushes the
// table over capacity.
type Store[K comparable, V any] struct {
	size    int
	policy  Policy
	order   *list.List // front is newest, back is the next victim
	items   map[K]*list.Element
	onEvict EvictCallback[K, V]
}

// New constructs a Store of the given size that orders entries by policy.
func New[K comparable, V any](size int, policy Policy, onEvict EvictCallback[K, V]) (*Store[K, V], error) {
	if size <= 0 {
		return nil, ErrInvalidCapacity
	}
	if policy == nil {
		return nil, ErrUnknownPolicy
	}
	return &Store[K, V]{
		size:    size,
		policy:  policy,
		order:   list.New(),
		items:   make(map[K]*list.Element),
		onEvict: onEvict,
	}, nil
}

// Policy returns the eviction policy bound at construction.
func (s *Store[K, V]) Policy() Policy {
	return s.policy
}

// Purge is used to completely clear the store.
func (s *Store[K, V]) Purge() {
	if s.onEvict != nil {
		for ent := s.order.Back(); ent != nil; ent = ent.Prev() {
			kv := ent.Value.(*entry[K, V])
			s.onEvict(kv.key, kv.value)
		}
	}
	s.items = make(map[K]*list.Element)
	s.order.Init()
}

// Add adds a value to the store. Returns true if an eviction occurred.
func (s *Store[K, V]) Add(key K, value V) (evicted bool) {
	// Check for existing item
	if ent, ok := s.items[key]; ok {
		ent.Value.(*entry[K, V]).value = value
		if s.policy.PromoteOnUpdate() {
			s.order.MoveToFront(ent)
		}
		return false
	}

	s.items[key] = s.order.PushFront(&entry[K, V]{key: key, value: value})

	// Verify size not exceeded
	for s.order.Len() > s.size {
		s.removeOldest()
		evicted = true
	}
	return evicted
}

// AddIfAbsent adds a value only if the key is not present. A present key
// keeps both its value and its position. Returns the value now stored,
// whether it was already present and whether an eviction occurred.
func (s *Store[K, V]) AddIfAbsent(key K, value V) (actual V, loaded, evicted bool) {
	if ent, ok := s.items[key]; ok {
		return ent.Value.(*entry[K, V]).value, true, false
	}
	return value, false, s.Add(key, value)
}

// Get looks up a key's value from the store.
func (s *Store[K, V]) Get(key K) (value V, ok bool) {
	ent, ok := s.items[key]
	if !ok {
		return value, false
	}
	if s.policy.PromoteOnGet() {
		s.order.MoveToFront(ent)
	}
	return ent.Value.(*entry[K, V]).value, true
}

// Contains checks if a key is in the store, without updating its position.
func (s *Store[K, V]) Contains(key K) (ok bool) {
	_, ok = s.items[key]
	return ok
}

// Peek returns the key value (or undefined if not found) without updating
// the position of the key.
func (s *Store[K, V]) Peek(key K) (value V, ok bool) {
	if ent, ok := s.items[key]; ok {
		return ent.Value.(*entry[K, V]).value, true
	}
	return value, false
}

// Remove removes the provided key from the store, returning if the
// key was contained.
func (s *Store[K, V]) Remove(key K) (present bool) {
	if ent, ok := s.items[key]; ok {
		s.removeElement(ent)
		return true
	}
	return false
}

// RemoveOldest removes the next eviction victim from the store.
func (s *Store[K, V]) RemoveOldest() (key K, value V, ok bool) {
	if ent := s.order.Back(); ent != nil {
		s.removeElement(ent)
		kv := ent.Value.(*entry[K, V])
		return kv.key, kv.value, true
	}
	return key, value, false
}

// GetOldest returns the next eviction victim without removing it.
func (s *Store[K, V]) GetOldest() (key K, value V, ok bool) {
	if ent := s.order.Back(); ent != nil {
		kv := ent.Value.(*entry[K, V])
		return kv.key, kv.value, true
	}
	return key, value, false
}

// Keys returns a slice of the keys in the store, in eviction order.
func (s *Store[K, V]) Keys() []K {
	keys := make([]K, 0, len(s.items))
	for ent := s.order.Back(); ent != nil; ent = ent.Prev() {
		keys = append(keys, ent.Value.(*entry[K, V]).key)
	}
	return keys
}

// Values returns a slice of the values in the store, in eviction order.
func (s *Store[K, V]) Values() []V {
	values := make([]V, 0, len(s.items))
	for ent := s.order.Back(); ent != nil; ent = ent.Prev() {
		values = append(values, ent.Value.(*entry[K, V]).value)
	}
	return values
}

// Len returns the number of items in the store.
func (s *Store[K, V]) Len() int {
	return s.order.Len()
}

// Cap returns the capacity of the store.
func (s *Store[K, V]) Cap() int {
	return s.size
}

// Resize changes the store size, evicting the oldest entries if the
// store no longer fits.
func (s *Store[K, V]) Resize(size int) (evicted int, err error) {
	if size <= 0 {
		return 0, ErrInvalidCapacity
	}
	for s.order.Len() > size {
		s.removeOldest()
		evicted++
	}
	s.size = size
	return evicted, nil
}

// removeOldest removes the oldest item from the store.
func (s *Store[K, V]) removeOldest() {
	if ent := s.order.Back(); ent != nil {
		s.removeElement(ent)
	}
}

// removeElement is used to remove a given list element from the store
func (s *Store[K, V]) removeElement(e *list.Element) {
	s.order.Remove(e)
	kv := e.Value.(*entry[K, V])
	delete(s.items, kv.key)
	if s.onEvict != nil {
		s.onEvict(kv.key, kv.value)
	}
}
