package store

import (
	"fmt"
	"strings"
)

// Policy decides how hits on an existing entry affect eviction order.
// The store always evicts from the oldest end; a policy only tells it
// whether a hit moves an entry to the newest end.
type Policy interface {
	// Name returns the lower-case policy name, e.g. "lru".
	Name() string
	// PromoteOnGet reports whether a successful Get refreshes the entry.
	PromoteOnGet() bool
	// PromoteOnUpdate reports whether an Add of an existing key refreshes the entry.
	PromoteOnUpdate() bool
}

type lruPolicy struct{}

func (lruPolicy) Name() string          { return "lru" }
func (lruPolicy) PromoteOnGet() bool    { return true }
func (lruPolicy) PromoteOnUpdate() bool { return true }

type fifoPolicy struct{}

func (fifoPolicy) Name() string          { return "fifo" }
func (fifoPolicy) PromoteOnGet() bool    { return false }
func (fifoPolicy) PromoteOnUpdate() bool { return false }

var (
	// LRU evicts the entry least recently read or written.
	LRU Policy = lruPolicy{}

	// FIFO evicts the entry inserted first, regardless of access.
	FIFO Policy = fifoPolicy{}
)

// ParsePolicy returns the policy with the given name (case-insensitive).
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case LRU.Name():
		return LRU, nil
	case FIFO.Name():
		return FIFO, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}
