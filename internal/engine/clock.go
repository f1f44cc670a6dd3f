package engine

import "sync/atomic"

// Clock is a monotonic logical clock for ordering a run's results.
//
// Every committed result (patch report, binding, dataflow summary) is
// stamped with a strictly increasing seq from this clock. The store orders
// by seq, never by wall-clock time, so identical runs produce identical
// records.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
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
