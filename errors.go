package cache

import (
	"errors"

	"github.com/venkatsvpr/golang-cache/store"
)

// Configuration errors. They are returned wrapped with the offending value,
// so match them with errors.Is.
var (
	ErrInvalidCapacity   = store.ErrInvalidCapacity
	ErrUnknownPolicy     = store.ErrUnknownPolicy
	ErrInvalidFlushCycle = errors.New("flush cycle out of range")
)
