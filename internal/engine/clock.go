package engine

import "time"

// Clock supplies "now" to callers that drive evaluation.
//
// The engine itself never reads a clock - Evaluate takes an explicit
// timestamp - but the orchestration layer needs one to stamp evaluations
// and to support per-organization simulated time. Passing the clock as a
// capability keeps simulated offsets out of global state.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// OffsetClock shifts a base clock by a fixed duration. Used to realize a
// persisted per-organization simulated time offset.
type OffsetClock struct {
	Base   Clock
	Offset time.Duration
}

func (c OffsetClock) Now() time.Time { return c.Base.Now().Add(c.Offset) }
