package rhythm

import (
	"time"

	"k8s.io/utils/clock"
)

// Tick is a wrapping millisecond counter. Only differences between ticks are meaningful.
type Tick uint32

// Diff returns a - b treating both ticks as values modulo 2^32, so it stays correct across the wrap.
func Diff(a, b Tick) int32 {
	return int32(a - b)
}

// TickSource provides the current tick.
type TickSource interface {
	Now() Tick
}

// ClockTicks derives ticks from a PassiveClock, counting milliseconds since the source was created.
type ClockTicks struct {
	clock clock.PassiveClock
	epoch time.Time
}

// NewClockTicks starts counting ticks from c's current time.
func NewClockTicks(c clock.PassiveClock) *ClockTicks {
	return &ClockTicks{
		clock: c,
		epoch: c.Now(),
	}
}

// Now returns the milliseconds elapsed since the epoch, truncated to 32 bits.
func (t *ClockTicks) Now() Tick {
	return Tick(t.clock.Since(t.epoch).Milliseconds())
}
