package engine

import "sync/atomic"

// Clock is the monotonic logical clock stamping process states.
//
// Every derived state takes the next value, so sequence numbers order states
// without wall-clock time and two runs of the same report produce the same
// numbers. A sub-report shares its parent's clock.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although a traversal only ever advances it from one goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
