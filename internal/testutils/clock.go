package testutils

import (
	"sync"
	"time"
)

// TestClock hands out strictly increasing timestamps so that catalog
// generation times and signing-check times are deterministic in tests.
type TestClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func NewTestClock(start time.Time, step time.Duration) *TestClock {
	return &TestClock{next: start, step: step}
}

// Now returns the current tick and advances the clock by one step.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}
