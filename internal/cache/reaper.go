package cache

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type sweeper interface {
	Sweep(now time.Time) int
}

// Reaper periodically sweeps a cache so stale entries that are never
// overwritten do not accumulate forever. An interval around the success TTL
// gives each entry roughly one pass per TTL window.
type Reaper struct {
	target   sweeper
	interval time.Duration
}

func NewReaper(target sweeper, interval time.Duration) *Reaper {
	return &Reaper{target: target, interval: interval}
}

// Run blocks until ctx is canceled; callers start it with `go`. A panic in
// one pass is logged and the loop continues — a silently dead reaper means
// unbounded memory growth with no crash to surface it.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.sweepOnce(now)
		}
	}
}

func (r *Reaper) sweepOnce(now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("cache sweep panicked: %v", rec)
		}
	}()
	removed := r.target.Sweep(now)
	log.WithField("removed", removed).Debug("cache sweep")
}
