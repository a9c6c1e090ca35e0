// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"reflect"
	"testing"
)

func TestStore_LRU(t *testing.T) {
	evictCounter := 0
	onEvicted := func(k int, v int) {
		if k != v {
			t.Fatalf("Evict values not equal (%v!=%v)", k, v)
		}
		evictCounter++
	}
	s, err := New(128, LRU, onEvicted)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	for i := 0; i < 256; i++ {
		s.Add(i, i)
	}
	if s.Len() != 128 {
		t.Fatalf("bad len: %v", s.Len())
	}
	if s.Cap() != 128 {
		t.Fatalf("expect %d, but %d", 128, s.Cap())
	}
	if evictCounter != 128 {
		t.Fatalf("bad evict count: %v", evictCounter)
	}

	for i, k := range s.Keys() {
		if v, ok := s.Peek(k); !ok || v != k || v != i+128 {
			t.Fatalf("bad key: %v", k)
		}
	}
	for i, v := range s.Values() {
		if v != i+128 {
			t.Fatalf("bad value: %v", v)
		}
	}
	for i := 0; i < 128; i++ {
		if _, ok := s.Get(i); ok {
			t.Fatalf("should be evicted")
		}
	}
	for i := 128; i < 192; i++ {
		if ok := s.Remove(i); !ok {
			t.Fatalf("should be contained")
		}
		if ok := s.Remove(i); ok {
			t.Fatalf("should not be contained")
		}
		if _, ok := s.Get(i); ok {
			t.Fatalf("should be deleted")
		}
	}

	s.Get(192) // expect 192 to be last key in s.Keys()

	for i, k := range s.Keys() {
		if (i < 63 && k != i+193) || (i == 63 && k != 192) {
			t.Fatalf("out of order key: %v", k)
		}
	}

	s.Purge()
	if s.Len() != 0 {
		t.Fatalf("bad len: %v", s.Len())
	}
	if _, ok := s.Get(200); ok {
		t.Fatalf("should contain nothing")
	}
}

func TestStore_FIFO(t *testing.T) {
	s, err := New[int, int](128, FIFO, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	for i := 0; i < 128; i++ {
		s.Add(i, i)
	}
	// reads and overwrites must not protect the oldest entries
	for i := 0; i < 64; i++ {
		s.Get(i)
		s.Add(i, i*10)
	}
	for i := 128; i < 192; i++ {
		s.Add(i, i)
	}

	for i := 0; i < 64; i++ {
		if s.Contains(i) {
			t.Fatalf("%d should be evicted", i)
		}
	}
	for i, k := range s.Keys() {
		if k != i+64 {
			t.Fatalf("out of order key: %v", k)
		}
	}
}

func TestStore_EvictionOrder(t *testing.T) {
	cases := []struct {
		policy    Policy
		wantKeys  []string
		evictedTo string
	}{
		{LRU, []string{"a", "c"}, "b"},
		{FIFO, []string{"b", "c"}, "a"},
	}
	for _, tc := range cases {
		t.Run(tc.policy.Name(), func(t *testing.T) {
			var evicted []string
			s, err := New(2, tc.policy, func(k string, _ int) {
				evicted = append(evicted, k)
			})
			if err != nil {
				t.Fatalf("err: %v", err)
			}
			s.Add("a", 1)
			s.Add("b", 2)
			s.Get("a")
			if !s.Add("c", 3) {
				t.Fatalf("c: did not get expected eviction")
			}
			s.wantKeys(t, tc.wantKeys)
			if !reflect.DeepEqual(evicted, []string{tc.evictedTo}) {
				t.Errorf("evicted got: %v want: %v", evicted, []string{tc.evictedTo})
			}
		})
	}
}

func TestStore_EvictionSameKey(t *testing.T) {
	cases := []struct {
		policy      Policy
		afterUpdate []int
		afterInsert []int
		evicted     int
	}{
		{LRU, []int{2, 1}, []int{1, 3}, 2},
		{FIFO, []int{1, 2}, []int{2, 3}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.policy.Name(), func(t *testing.T) {
			var evictedKeys []int
			s, _ := New(2, tc.policy, func(key int, _ struct{}) {
				evictedKeys = append(evictedKeys, key)
			})

			if evicted := s.Add(1, struct{}{}); evicted {
				t.Error("First 1: got unexpected eviction")
			}
			if evicted := s.Add(2, struct{}{}); evicted {
				t.Error("2: got unexpected eviction")
			}
			if evicted := s.Add(1, struct{}{}); evicted {
				t.Error("Second 1: got unexpected eviction")
			}
			s.wantKeys(t, tc.afterUpdate)
			if s.Len() != 2 {
				t.Fatalf("bad len: %v", s.Len())
			}

			if evicted := s.Add(3, struct{}{}); !evicted {
				t.Error("3: did not get expected eviction")
			}
			s.wantKeys(t, tc.afterInsert)

			if !reflect.DeepEqual(evictedKeys, []int{tc.evicted}) {
				t.Errorf("evictedKeys got: %v want: %v", evictedKeys, []int{tc.evicted})
			}
		})
	}
}

// Test that AddIfAbsent keeps the first value and its position
func TestStore_AddIfAbsent(t *testing.T) {
	for _, p := range []Policy{LRU, FIFO} {
		t.Run(p.Name(), func(t *testing.T) {
			s, _ := New[string, int](2, p, nil)

			if v, loaded, evicted := s.AddIfAbsent("k", 1); loaded || evicted || v != 1 {
				t.Fatalf("first insert: %v %v %v", v, loaded, evicted)
			}
			s.Add("j", 2)
			if v, loaded, evicted := s.AddIfAbsent("k", 2); !loaded || evicted || v != 1 {
				t.Fatalf("second insert: %v %v %v", v, loaded, evicted)
			}
			s.wantKeys(t, []string{"k", "j"})

			if v, _ := s.Peek("k"); v != 1 {
				t.Fatalf("value overwritten: %v", v)
			}
			if _, _, evicted := s.AddIfAbsent("l", 3); !evicted {
				t.Fatalf("expected eviction")
			}
			if s.Contains("k") {
				t.Fatalf("k should be the eviction victim")
			}
		})
	}
}

// Test that Contains and Peek don't update the position
func TestStore_ContainsPeek(t *testing.T) {
	s, err := New[int, int](2, LRU, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	s.Add(1, 1)
	s.Add(2, 2)
	if !s.Contains(1) {
		t.Errorf("1 should be contained")
	}
	if v, ok := s.Peek(1); !ok || v != 1 {
		t.Errorf("1 should be set to 1: %v, %v", v, ok)
	}

	s.Add(3, 3)
	if s.Contains(1) {
		t.Errorf("Contains should not have updated recent-ness of 1")
	}
}

func TestStore_ZeroValues(t *testing.T) {
	s, _ := New[string, *int](2, LRU, nil)

	s.Add("nil", nil)
	v, ok := s.Get("nil")
	if !ok {
		t.Fatalf("nil value should be stored")
	}
	if v != nil {
		t.Fatalf("bad value: %v", v)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("missing key should be absent")
	}
}

func TestStore_GetOldest_RemoveOldest(t *testing.T) {
	s, err := New[int, int](128, LRU, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, _, ok := s.GetOldest(); ok {
		t.Fatalf("empty store has no oldest entry")
	}
	for i := 0; i < 256; i++ {
		s.Add(i, i)
	}
	k, _, ok := s.GetOldest()
	if !ok {
		t.Fatalf("missing")
	}
	if k != 128 {
		t.Fatalf("bad: %v", k)
	}

	k, _, ok = s.RemoveOldest()
	if !ok {
		t.Fatalf("missing")
	}
	if k != 128 {
		t.Fatalf("bad: %v", k)
	}

	k, _, ok = s.RemoveOldest()
	if !ok {
		t.Fatalf("missing")
	}
	if k != 129 {
		t.Fatalf("bad: %v", k)
	}
}

// Test that Resize can upsize and downsize
func TestStore_Resize(t *testing.T) {
	onEvictCounter := 0
	onEvicted := func(k int, v int) {
		onEvictCounter++
	}
	s, err := New(2, LRU, onEvicted)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	// Downsize
	s.Add(1, 1)
	s.Add(2, 2)
	evicted, err := s.Resize(1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if evicted != 1 {
		t.Errorf("1 element should have been evicted: %v", evicted)
	}
	if onEvictCounter != 1 {
		t.Errorf("onEvicted should have been called 1 time: %v", onEvictCounter)
	}

	s.Add(3, 3)
	if s.Contains(1) || s.Contains(2) {
		t.Errorf("Elements 1 and 2 should have been evicted")
	}

	// Upsize
	evicted, err = s.Resize(2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if evicted != 0 {
		t.Errorf("0 elements should have been evicted: %v", evicted)
	}

	s.Add(4, 4)
	if !s.Contains(3) || !s.Contains(4) {
		t.Errorf("Store should have contained 2 elements")
	}

	if _, err := s.Resize(0); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("expected ErrInvalidCapacity, got %v", err)
	}
	if s.Cap() != 2 {
		t.Errorf("failed resize must keep the old size: %v", s.Cap())
	}
}

func TestStore_PurgeCallsEvict(t *testing.T) {
	var evicted []int
	s, _ := New(4, FIFO, func(k, _ int) {
		evicted = append(evicted, k)
	})
	for i := 0; i < 3; i++ {
		s.Add(i, i)
	}
	s.Purge()
	if !reflect.DeepEqual(evicted, []int{0, 1, 2}) {
		t.Fatalf("bad purge order: %v", evicted)
	}
	if s.Len() != 0 || len(s.Keys()) != 0 {
		t.Fatalf("store should be empty")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New[int, int](0, LRU, nil); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := New[int, int](-1, FIFO, nil); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := New[int, int](1, nil, nil); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"lru": LRU, "LRU": LRU, " fifo ": FIFO, "Fifo": FIFO} {
		got, err := ParsePolicy(in)
		if err != nil {
			t.Fatalf("%q: err: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: got %v want %v", in, got.Name(), want.Name())
		}
	}
	if _, err := ParsePolicy("sieve"); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func (s *Store[K, V]) wantKeys(t *testing.T, want []K) {
	t.Helper()
	got := s.Keys()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wrong keys got: %v, want: %v ", got, want)
	}
}
