package sched

import "time"

// TickFunc returns a monotonic millisecond counter. It may wrap at 2^32;
// the scheduler only ever subtracts consecutive readings.
type TickFunc func() uint32

// VirtualClock is a manually advanced tick source for tests and simulations.
type VirtualClock struct {
	now uint32
}

// Now returns the current virtual tick.
func (c *VirtualClock) Now() uint32 {
	if c == nil {
		return 0
	}
	return c.now
}

// Advance moves the clock forward by ms ticks.
func (c *VirtualClock) Advance(ms uint32) {
	if c == nil {
		return
	}
	c.now += ms
}

// Set moves the clock to an absolute tick.
func (c *VirtualClock) Set(ms uint32) {
	if c == nil {
		return
	}
	c.now = ms
}

// Tick returns the clock as a TickFunc.
func (c *VirtualClock) Tick() TickFunc {
	return c.Now
}

// RealClock reports milliseconds elapsed since it was created.
type RealClock struct {
	start time.Time
}

// NewRealClock starts a wall-clock tick source at zero.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

// Now returns elapsed milliseconds, truncated to 32 bits like a hardware tick counter.
func (c *RealClock) Now() uint32 {
	if c == nil {
		return 0
	}
	ms := time.Since(c.start).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return uint32(uint64(ms) & 0xffffffff) //nolint:gosec // deliberate wrap, tick counters roll over
}

// Tick returns the clock as a TickFunc.
func (c *RealClock) Tick() TickFunc {
	return c.Now
}

// SleepIdle returns an idle task that blocks the OS thread for ms milliseconds.
// It keeps a real-clock scheduler from spinning when every task sleeps.
func SleepIdle(ms uint32) TaskFunc {
	if ms == 0 {
		return defaultIdle
	}
	d := time.Duration(ms) * time.Millisecond
	return func(c *Ctx, _ any) {
		c.s.traceIdle()
		time.Sleep(d)
	}
}
