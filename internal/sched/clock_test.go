package sched

import (
	"testing"
	"time"
)

func TestVirtualClock(t *testing.T) {
	var clk VirtualClock
	tick := clk.Tick()
	clk.Advance(5)
	clk.Advance(7)
	if got := tick(); got != 12 {
		t.Fatalf("tick() = %d, want 12", got)
	}
	clk.Set(3)
	if got := tick(); got != 3 {
		t.Fatalf("tick() after Set = %d, want 3", got)
	}
	var nilClock *VirtualClock
	nilClock.Advance(1)
	if nilClock.Now() != 0 {
		t.Fatalf("nil clock should read zero")
	}
}

func TestRealClockMonotonic(t *testing.T) {
	clk := NewRealClock()
	a := clk.Now()
	b := clk.Now()
	if b < a {
		t.Fatalf("real clock went backwards: %d then %d", a, b)
	}
}

func TestSleepIdleRunsAsIdleTask(t *testing.T) {
	s, _ := newTestScheduler(t, 1, WithIdle(SleepIdle(1)))
	if got, err := s.Step(); err != nil || got != IdleHandle {
		t.Fatalf("Step() = %d, %v; want idle", got, err)
	}
}

func TestSleepIdleBlocksForDuration(t *testing.T) {
	s, _ := newTestScheduler(t, 1, WithIdle(SleepIdle(5)))
	began := time.Now()
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if elapsed := time.Since(began); elapsed < 5*time.Millisecond {
		t.Fatalf("idle step took %v, want at least 5ms", elapsed)
	}
}
