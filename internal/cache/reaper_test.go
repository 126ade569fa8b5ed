package cache

import (
	"context"
	"time"
)

func (s *UnitTestSuite) TestReaperSweepsUntilCanceled() {
	// Real clock: the reaper runs off a real ticker.
	RestoreTimeNow()
	c := NewTTL[any](20*time.Millisecond, 5*time.Millisecond)
	c.Put("a", 1, Success)
	c.Put("b", 2, Error)

	ctx, cancel := context.WithCancel(context.Background())
	reaper := NewReaper(c, 10*time.Millisecond)
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	s.Eventually(func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.FailNow("reaper did not stop on context cancel")
	}
}

type panickySweeper struct{ calls chan struct{} }

func (p *panickySweeper) Sweep(now time.Time) int {
	p.calls <- struct{}{}
	panic("mutation during iteration")
}

func (s *UnitTestSuite) TestReaperSurvivesPanickingSweep() {
	sw := &panickySweeper{calls: make(chan struct{}, 16)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewReaper(sw, 5*time.Millisecond).Run(ctx)

	// Two deliveries prove the loop outlived the first panic.
	for i := 0; i < 2; i++ {
		select {
		case <-sw.calls:
		case <-time.After(time.Second):
			s.FailNow("reaper loop died after a panicking sweep")
		}
	}
}
