// Package sim replays synthetic key traces against a cache and counts how
// many lookups the cache could answer.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	cache "github.com/venkatsvpr/golang-cache"
)

// progressEvery is how many operations pass between context checks and
// progress log lines.
const progressEvery = 1 << 16

var errBadTrace = errors.New("invalid trace options")

// TraceOptions describe a Zipf-distributed key trace.
type TraceOptions struct {
	Keys uint64  // number of distinct keys
	Ops  int     // trace length
	Seed int64   // random seed, equal seeds give equal traces
	Skew float64 // Zipf s parameter, must be > 1
}

// ZipfTrace generates a trace in which a few keys are far more popular
// than the rest, like lookups of hot reflective metadata.
func ZipfTrace(opts TraceOptions) ([]uint64, error) {
	if opts.Keys == 0 {
		return nil, fmt.Errorf("%w: keys must be positive", errBadTrace)
	}
	if opts.Ops < 0 {
		return nil, fmt.Errorf("%w: ops must not be negative", errBadTrace)
	}
	z := rand.NewZipf(rand.New(rand.NewSource(opts.Seed)), opts.Skew, 1, opts.Keys-1)
	if z == nil {
		return nil, fmt.Errorf("%w: skew must be greater than 1, got %v", errBadTrace, opts.Skew)
	}

	trace := make([]uint64, opts.Ops)
	for i := range trace {
		trace[i] = z.Uint64()
	}
	return trace, nil
}

// Result is the outcome of one replay.
type Result struct {
	Policy string
	Hits   int
	Misses int
	Len    int
	Cap    int
}

// HitRatio returns hits over lookups, 0 for an empty replay.
func (r Result) HitRatio() float64 {
	total := r.Hits + r.Misses
	if total == 0 {
		return 0
	}
	return float64(r.Hits) / float64(total)
}

// Replay looks up every key of trace in c, filling misses, and stops
// early with ctx.Err() if ctx is cancelled.
func Replay(ctx context.Context, c cache.Cache[uint64, uint64], trace []uint64) (Result, error) {
	logger := zerolog.Ctx(ctx)
	var res Result
	for i, key := range trace {
		if i%progressEvery == 0 && i > 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			logger.Debug().Int("op", i).Int("hits", res.Hits).Msg("replay progress")
		}
		if _, ok := c.Get(key); ok {
			res.Hits++
			continue
		}
		res.Misses++
		c.Put(key, key)
	}
	res.Len = c.Len()
	return res, nil
}
