// Package tick turns a periodic timer interrupt into independent elapsed-tick
// counters. Each counter is incremented by the interrupt and read/reset by
// exactly one consumer in the foreground loop.
package tick

import (
	"context"
	"sync/atomic"
	"time"
)

// Default interrupt period: 8 MHz clock, compare match at 105 (period 106).
// The same compare output toggles the 38 kHz IR carrier.
const DefaultPeriod = 13250 * time.Nanosecond

// Thresholds for DefaultPeriod.
const (
	Ticks1ms  = 76
	Ticks10ms = 762
	Ticks50ms = 3810
)

// Counter is a wrapping tick counter with a single writer (the interrupt)
// and a single reader that decides when to reset it.
type Counter struct {
	v atomic.Uint32
}

// Inc adds one tick. Overflow wraps to zero.
func (c *Counter) Inc() { c.v.Add(1) }

// Load returns the ticks counted since the last reset.
func (c *Counter) Load() uint32 { return c.v.Load() }

// Reset zeroes the counter.
func (c *Counter) Reset() { c.v.Store(0) }

// Take returns the current count and zeroes it in one step, so a tick that
// fires between the read and the reset is not lost.
func (c *Counter) Take() uint32 { return c.v.Swap(0) }

// Elapsed reports whether at least threshold ticks were counted, resetting
// the counter when they were.
func (c *Counter) Elapsed(threshold uint32) bool {
	if c.v.Load() < threshold {
		return false
	}
	c.v.Store(0)
	return true
}

// Clock holds every counter advanced by the tick interrupt.
type Clock struct {
	Signal  Counter // IR protocol timing
	Radio   Counter // radio ack window and tx watchdog
	Display Counter // display bit shifting (1 ms)
	Phase10 Counter // 10 ms phase
	Phase50 Counter // 50 ms phase

	disabled atomic.Bool
}

// Fire is the interrupt body: every counter advances by exactly one.
func (c *Clock) Fire() {
	if c.disabled.Load() {
		return
	}
	c.Signal.Inc()
	c.Radio.Inc()
	c.Display.Inc()
	c.Phase10.Inc()
	c.Phase50.Inc()
}

// Disable stops all counters; later Fire calls are ignored.
func (c *Clock) Disable() { c.disabled.Store(true) }

// Enable re-enables counting after Disable.
func (c *Clock) Enable() { c.disabled.Store(false) }

// Enabled reports whether Fire advances the counters.
func (c *Clock) Enabled() bool { return !c.disabled.Load() }

// Run fires the clock every period until ctx is done. On hosts (and TinyGo
// targets without a dedicated timer hook) this goroutine stands in for the
// compare-match interrupt.
func (c *Clock) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultPeriod
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Fire()
		}
	}
}

// FireN fires the clock n times. Used for virtual-time stepping.
func (c *Clock) FireN(n int) {
	for i := 0; i < n; i++ {
		c.Fire()
	}
}
