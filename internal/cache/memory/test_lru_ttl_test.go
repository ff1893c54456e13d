package memory

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLRUTTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUTTL[string, int](8, 0, time.Minute).WithClock(clock.Now)

	c.Set("a", 1, 0)
	c.SetTTL("b", 2, 0, 6*time.Hour)

	clock.Advance(59 * time.Second)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should still be live: %v %v", v, ok)
	}
	clock.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should expire at its ttl")
	}
	clock.Advance(5*time.Hour + 58*time.Minute)
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("b should outlive the default ttl: %v %v", v, ok)
	}
	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should expire after 6h")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entries should be collected on access, len=%d", c.Len())
	}
}

func TestLRUTTLResetOnOverwrite(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUTTL[string, string](8, 0, time.Minute).WithClock(clock.Now)

	c.Set("k", "old", 0)
	clock.Advance(50 * time.Second)
	c.Set("k", "new", 0)
	clock.Advance(50 * time.Second)
	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("overwrite should reset ttl: %q %v", v, ok)
	}
}

func TestLRUTTLEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUTTL[string, int](2, 0, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Get("a")
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b was least recently used and should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should survive")
	}
}

func TestLRUTTLByteBudget(t *testing.T) {
	c := NewLRUTTL[string, []byte](10, 8, time.Minute)
	c.Set("a", []byte("1234"), 4)
	c.Set("b", []byte("5678"), 4)
	c.Set("c", []byte("9"), 1)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be evicted once the byte budget is exceeded")
	}
	c.Delete("b")
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("clear should empty the cache")
	}
}

func TestLRUTTLNilSafe(t *testing.T) {
	var c *LRUTTL[string, int]
	c.Set("a", 1, 0)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("nil cache must miss")
	}
}
