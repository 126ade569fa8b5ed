package cache

import (
	"fmt"
	"sync"
	"time"
)

func (s *UnitTestSuite) TestGetFreshWithinTTL() {
	c := NewTTL[string](300*time.Second, 30*time.Second)
	c.Put("k", "v", Success)

	s.clock.Advance(299 * time.Second)
	v, ok := c.Get("k")
	s.True(ok)
	s.Equal("v", v)
}

func (s *UnitTestSuite) TestGetStaleAfterTTL() {
	c := NewTTL[string](300*time.Second, 30*time.Second)
	c.Put("k", "v", Success)

	s.clock.Advance(300 * time.Second)
	v, ok := c.Get("k")
	s.False(ok)
	s.Equal("", v)
	// Lazy invalidation: the entry is invisible but still occupies memory.
	s.Equal(1, c.Len())
}

func (s *UnitTestSuite) TestMissingKey() {
	c := NewTTL[string](300*time.Second, 30*time.Second)
	_, ok := c.Get("never-set")
	s.False(ok)
}

func (s *UnitTestSuite) TestErrorCategoryExpiresSooner() {
	c := NewTTL[string](300*time.Second, 30*time.Second)
	c.Put("good", "value", Success)
	c.Put("bad", "fallback", Error)

	s.clock.Advance(30 * time.Second)
	_, ok := c.Get("bad")
	s.False(ok)
	v, ok := c.Get("good")
	s.True(ok)
	s.Equal("value", v)
}

func (s *UnitTestSuite) TestOverwriteRestampsEntry() {
	c := NewTTL[string](300*time.Second, 30*time.Second)
	c.Put("k", "old", Success)
	s.clock.Advance(299 * time.Second)
	c.Put("k", "new", Success)
	s.clock.Advance(299 * time.Second)

	v, ok := c.Get("k")
	s.True(ok)
	s.Equal("new", v)
	s.Equal(1, c.Len())
}

func (s *UnitTestSuite) TestSweepRemovesExactlyStaleEntries() {
	c := NewTTL[string](300*time.Second, 30*time.Second)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("old-%d", i), "v", Success)
	}
	c.Put("old-error", "fb", Error)
	s.clock.Advance(31 * time.Second) // error entry stale, successes not

	for i := 0; i < 4; i++ {
		c.Put(fmt.Sprintf("fresh-%d", i), "v", Success)
	}
	s.Equal(8, c.Len())

	removed := c.Sweep(s.clock.Now())
	s.Equal(1, removed)
	s.Equal(7, c.Len())

	s.clock.Advance(270 * time.Second) // the first 3 successes now past 300s
	removed = c.Sweep(s.clock.Now())
	s.Equal(3, removed)
	s.Equal(4, c.Len())
}

func (s *UnitTestSuite) TestSweepEmptyCache() {
	c := NewTTL[string](300*time.Second, 30*time.Second)
	s.Equal(0, c.Sweep(s.clock.Now()))
}

func (s *UnitTestSuite) TestConcurrentAccess() {
	// Real clock here; this is a race smoke test, not a timing test.
	RestoreTimeNow()
	c := NewTTL[int](time.Minute, time.Second)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%17)
				c.Put(key, i, Success)
				c.Get(key)
				if i%50 == 0 {
					c.Sweep(time.Now())
				}
			}
		}(g)
	}
	wg.Wait()
}
