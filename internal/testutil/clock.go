// Package testutil provides deterministic helpers for engine tests:
// a pinned wall clock and a scripted backend client.
package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe, manually advanced time source for tests.
// Inject its Now method via engine.WithClock to pin timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock pinned to the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the pinned instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
