package testutil

import (
	"sync"
	"time"
)

// FrozenClock is a settable wall clock for tests. It satisfies engine.Clock
// and holds still until advanced, so time-decay and expiry paths can be
// exercised deterministically.
//
// All methods are safe for concurrent use.
type FrozenClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFrozenClock creates a clock frozen at the given instant.
func NewFrozenClock(at time.Time) *FrozenClock {
	return &FrozenClock{now: at.UTC()}
}

func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *FrozenClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps the clock to an absolute instant.
func (c *FrozenClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at.UTC()
}
