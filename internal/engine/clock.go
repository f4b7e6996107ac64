package engine

import "sync/atomic"

// Clock hands out batch sequence numbers.
//
// Sequence numbers start at 0 and never repeat within a run. Persisted table
// names embed them, so ordering is logical, never wall-clock.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// Run draws every number from its own goroutine before fanning out.
type Clock struct {
	next atomic.Int64
}

// NewClock creates a clock whose first Next returns 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next returns start.
// Used to append batches to a study that already has tables.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.next.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.next.Add(1) - 1
}

// Current returns the number the next call to Next will return.
func (c *Clock) Current() int64 {
	return c.next.Load()
}
