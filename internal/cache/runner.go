package cache

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// ComputeFunc performs the expensive external call on a cache miss.
type ComputeFunc func(ctx context.Context) (any, error)

// FallbackFunc converts an upstream failure into a degraded-but-usable
// payload. It is the caller's choice of shape (an apology string, a
// use-browser-TTS clip, a canned problem).
type FallbackFunc func(err error) any

// Runner wraps slow, paid upstream calls with the TTL cache and a bounded
// worker pool. The pool keeps one slow call from delaying unrelated
// requests and bounds how many upstream calls are in flight at once;
// submissions beyond the pool size queue.
type Runner struct {
	cache   *TTL[any]
	tasks   chan task
	timeout time.Duration
}

type task struct {
	ctx     context.Context
	compute ComputeFunc
	out     chan<- result
}

type result struct {
	val any
	err error
}

const DefaultWorkers = 4

// NewRunner starts `workers` pool goroutines over the shared cache. The
// upstream timeout is applied to every compute invocation so a hung call
// becomes an error-category result instead of blocking a worker forever.
// The pool lives for the life of the process; there is no Close.
func NewRunner(c *TTL[any], workers int, upstreamTimeout time.Duration) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	r := &Runner{cache: c, tasks: make(chan task), timeout: upstreamTimeout}
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

func (r *Runner) worker() {
	for t := range r.tasks {
		val, err := runContained(t.ctx, t.compute, r.timeout)
		t.out <- result{val: val, err: err}
	}
}

// runContained applies the upstream timeout and converts a panicking compute
// into an error so a bad upstream client can never take down a worker.
func runContained(ctx context.Context, compute ComputeFunc, timeout time.Duration) (val any, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("compute panic: %v", rec)
		}
	}()
	return compute(ctx)
}

// GetOrCompute returns the cached value for key when fresh; compute is not
// invoked on a hit. On a miss, compute runs on the worker pool; a successful
// value is stored with the success TTL and a failure is converted by
// fallback and stored with the short error TTL, then returned. Upstream
// failures never propagate out of this method.
//
// Concurrent misses on the same key are not coalesced: each caller computes
// independently and the last writer wins. Known race, kept as-is.
func (r *Runner) GetOrCompute(ctx context.Context, key string, compute ComputeFunc, fallback FallbackFunc) any {
	if v, ok := r.cache.Get(key); ok {
		return v
	}
	v, err := r.Do(ctx, compute)
	if err != nil {
		log.WithError(err).WithField("key", short(key)).Warn("compute failed, caching fallback")
		fb := fallback(err)
		r.cache.Put(key, fb, Error)
		return fb
	}
	r.cache.Put(key, v, Success)
	return v
}

// Do runs compute on the worker pool without touching the cache. It is for
// calls whose results must not be reused (randomized problems, graded
// answers) but that still need the pool bound and the timeout.
func (r *Runner) Do(ctx context.Context, compute ComputeFunc) (any, error) {
	out := make(chan result, 1)
	select {
	case r.tasks <- task{ctx: ctx, compute: compute, out: out}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-out:
		return res.val, res.err
	case <-ctx.Done():
		// The worker still delivers into the buffered channel; nothing leaks.
		return nil, ctx.Err()
	}
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
