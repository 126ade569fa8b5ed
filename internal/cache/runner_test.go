package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

func (s *UnitTestSuite) newRunner() (*Runner, *TTL[any]) {
	c := NewTTL[any](300*time.Second, 30*time.Second)
	return NewRunner(c, 4, 5*time.Second), c
}

func (s *UnitTestSuite) TestHitSkipsCompute() {
	r, _ := s.newRunner()
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "AUDIO1", nil
	}
	fallback := func(err error) any { return "FALLBACK" }

	key := Key("tts", "hello", "voiceA")
	s.Equal("AUDIO1", r.GetOrCompute(ctx, key, compute, fallback))
	s.Equal("AUDIO1", r.GetOrCompute(ctx, key, compute, fallback))
	s.Equal(int32(1), calls.Load())
}

func (s *UnitTestSuite) TestExpiryTriggersRecompute() {
	r, _ := s.newRunner()
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "AUDIO1", nil
	}
	fallback := func(err error) any { return "FALLBACK" }

	key := Key("tts", "hello", "voiceA")
	s.Equal("AUDIO1", r.GetOrCompute(ctx, key, compute, fallback))
	s.Equal("AUDIO1", r.GetOrCompute(ctx, key, compute, fallback))
	s.Equal(int32(1), calls.Load())

	s.clock.Advance(301 * time.Second)
	s.Equal("AUDIO1", r.GetOrCompute(ctx, key, compute, fallback))
	s.Equal(int32(2), calls.Load())
}

func (s *UnitTestSuite) TestFallbackOnFailureIsCachedBriefly() {
	r, _ := s.newRunner()
	ctx := context.Background()

	var failCalls, okCalls atomic.Int32
	computeFail := func(ctx context.Context) (any, error) {
		failCalls.Add(1)
		return nil, errors.New("upstream down")
	}
	computeOK := func(ctx context.Context) (any, error) {
		okCalls.Add(1)
		return "real value", nil
	}
	fallback := func(err error) any { return "degraded" }

	key := Key("k")
	s.Equal("degraded", r.GetOrCompute(ctx, key, computeFail, fallback))
	s.Equal(int32(1), failCalls.Load())

	// Within the error TTL the cached fallback is served, no new call.
	s.clock.Advance(10 * time.Second)
	s.Equal("degraded", r.GetOrCompute(ctx, key, computeFail, fallback))
	s.Equal(int32(1), failCalls.Load())

	// After the error TTL the upstream is retried and recovery sticks.
	s.clock.Advance(21 * time.Second)
	s.Equal("real value", r.GetOrCompute(ctx, key, computeOK, fallback))
	s.Equal(int32(1), okCalls.Load())
	s.Equal("real value", r.GetOrCompute(ctx, key, computeOK, fallback))
	s.Equal(int32(1), okCalls.Load())
}

func (s *UnitTestSuite) TestComputePanicBecomesFallback() {
	r, _ := s.newRunner()
	compute := func(ctx context.Context) (any, error) { panic("boom") }
	fallback := func(err error) any {
		s.Require().Error(err)
		return "contained"
	}
	s.Equal("contained", r.GetOrCompute(context.Background(), Key("p"), compute, fallback))
}

func (s *UnitTestSuite) TestComputeTimeoutBecomesError() {
	c := NewTTL[any](300*time.Second, 30*time.Second)
	r := NewRunner(c, 1, 20*time.Millisecond)

	compute := func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return "too late", nil
		}
	}
	fallback := func(err error) any { return "timed out" }
	s.Equal("timed out", r.GetOrCompute(context.Background(), Key("slow"), compute, fallback))
}

func (s *UnitTestSuite) TestDoBypassesCache() {
	r, c := s.newRunner()
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "fresh", nil
	}
	v, err := r.Do(ctx, compute)
	s.NoError(err)
	s.Equal("fresh", v)
	_, err = r.Do(ctx, compute)
	s.NoError(err)
	s.Equal(int32(2), calls.Load())
	s.Equal(0, c.Len())
}

func (s *UnitTestSuite) TestDoRespectsCanceledContext() {
	c := NewTTL[any](300*time.Second, 30*time.Second)
	r := NewRunner(c, 1, time.Second)

	// Occupy the single worker so the second submission has to queue.
	release := make(chan struct{})
	go r.Do(context.Background(), func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Do(ctx, func(ctx context.Context) (any, error) { return "unreached", nil })
	s.ErrorIs(err, context.Canceled)
	close(release)
}

func (s *UnitTestSuite) TestPoolBoundsConcurrentComputes() {
	c := NewTTL[any](300*time.Second, 30*time.Second)
	r := NewRunner(c, 4, time.Second)

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Do(context.Background(), func(ctx context.Context) (any, error) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return nil, nil
			})
		}()
	}
	wg.Wait()
	s.LessOrEqual(peak.Load(), int32(4))
}

func (s *UnitTestSuite) TestConcurrentMissesLastWriterWins() {
	// Misses on the same key are deliberately not coalesced: every caller
	// computes, and whichever finishes last owns the cached value.
	r, _ := s.newRunner()
	key := Key("shared")

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.GetOrCompute(context.Background(), key, func(ctx context.Context) (any, error) {
				calls.Add(1)
				time.Sleep(5 * time.Millisecond)
				return "v", nil
			}, func(err error) any { return "fb" })
		}()
	}
	wg.Wait()
	s.GreaterOrEqual(calls.Load(), int32(1))
	v, ok := r.cache.Get(key)
	s.True(ok)
	s.Equal("v", v)
}
