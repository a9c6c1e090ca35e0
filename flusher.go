package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// flushTarget is the part of the cache contract the flusher needs.
type flushTarget interface {
	Len() int
	Purge()
}

// flusher periodically purges a single cache. Each cache owns its own
// flusher; there is no shared timer. The target is resolved on every tick
// so the flusher does not keep a discarded cache alive.
type flusher struct {
	target func() flushTarget
	logger zerolog.Logger

	mu       sync.Mutex
	interval time.Duration
	run      *flushRun // nil when disarmed
}

// flushRun is the state of one loop goroutine.
type flushRun struct {
	done     chan struct{} // closed to stop the loop
	stopped  chan struct{} // closed by the loop when it returns
	flushing atomic.Bool   // set while the loop is inside flush
}

func newFlusher(target func() flushTarget, logger zerolog.Logger) *flusher {
	return &flusher{
		target: target,
		logger: logger,
	}
}

// arm (re)starts the flush loop with period d; d == 0 disarms it. The
// previous loop is told to stop but not waited for, so a flush that is
// already running may still complete.
func (f *flusher) arm(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.run != nil {
		close(f.run.done)
		f.run = nil
	}
	f.interval = d
	if d <= 0 {
		f.logger.Debug().Msg("flush cycle disarmed")
		return
	}

	f.run = &flushRun{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go f.loop(d, f.run)
	f.logger.Debug().Dur("interval", d).Msg("flush cycle armed")
}

// period returns the current flush period, 0 when disarmed.
func (f *flusher) period() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

// close disarms the flusher and waits for the running loop to return.
// Called while that loop is flushing, for instance from an evict callback,
// it only signals the loop, which returns once the flush completes.
func (f *flusher) close() {
	f.mu.Lock()
	run := f.run
	f.run = nil
	f.interval = 0
	f.mu.Unlock()

	if run == nil {
		return
	}
	close(run.done)
	if !run.flushing.Load() {
		<-run.stopped
	}
	f.logger.Debug().Msg("flush cycle closed")
}

func (f *flusher) loop(d time.Duration, run *flushRun) {
	defer close(run.stopped)
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-run.done:
			return
		case <-ticker.C:
			// a stop may race with the tick
			select {
			case <-run.done:
				return
			default:
			}
			target := f.target()
			if target == nil {
				// the cache was garbage collected
				return
			}
			run.flushing.Store(true)
			f.flush(target)
			run.flushing.Store(false)
		}
	}
}

// flush purges the target once. A panic is logged and swallowed so the
// next tick still fires.
func (f *flusher) flush(target flushTarget) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Interface("panic", r).Msg("cache flush failed")
		}
	}()

	n := target.Len()
	target.Purge()
	f.logger.Debug().Int("entries", n).Msg("cache flushed")
}
