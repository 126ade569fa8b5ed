package cache

import (
	"sync"
	"time"
)

// Category classifies a cached value so reads and sweeps apply the matching
// TTL. Error results expire sooner, so an upstream outage is retried quickly
// once it clears while still absorbing retry storms in the meantime.
type Category int

const (
	Success Category = iota
	Error
)

// TTL is a thread-safe in-process cache with per-category time-based expiry.
// Expiration is lazy on Get: a stale entry reads as a miss but stays in
// memory until Sweep removes it or a Put overwrites it. There is no size
// bound and no LRU; the reaper is the only thing that shrinks it.
type TTL[V any] struct {
	mu         sync.RWMutex
	data       map[string]entry[V]
	successTTL time.Duration
	errorTTL   time.Duration
}

type entry[V any] struct {
	val V
	cat Category
	at  time.Time
}

func NewTTL[V any](successTTL, errorTTL time.Duration) *TTL[V] {
	return &TTL[V]{
		data:       make(map[string]entry[V]),
		successTTL: successTTL,
		errorTTL:   errorTTL,
	}
}

func (t *TTL[V]) ttlFor(cat Category) time.Duration {
	if cat == Error {
		return t.errorTTL
	}
	return t.successTTL
}

// Get returns the value and true if the key is present and fresh; otherwise
// the zero value and false. Stale entries are left in place for the sweep.
func (t *TTL[V]) Get(key string) (V, bool) {
	t.mu.RLock()
	e, ok := t.data[key]
	t.mu.RUnlock()
	if !ok || timeNow().Sub(e.at) >= t.ttlFor(e.cat) {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Put inserts or overwrites the entry for key, stamping the current time.
// Last writer wins; there are no merge semantics.
func (t *TTL[V]) Put(key string, v V, cat Category) {
	t.mu.Lock()
	t.data[key] = entry[V]{val: v, cat: cat, at: timeNow()}
	t.mu.Unlock()
}

// Sweep deletes every entry whose age at now meets or exceeds its category
// TTL and returns how many were removed.
func (t *TTL[V]) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for k, e := range t.data {
		if now.Sub(e.at) >= t.ttlFor(e.cat) {
			delete(t.data, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries physically present, fresh or not.
func (t *TTL[V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}
