package sched

import "testing"

// sleepOnce sleeps ms at marker 0, counts the wakeup and then pauses for good.
func sleepOnce(ms uint32, woke *int) TaskFunc {
	return func(c *Ctx, _ any) {
		switch c.Enter() {
		case 0:
			if c.Sleep(1, ms) {
				return
			}
			fallthrough
		case 1:
			*woke++
			c.Pause(2)
		}
	}
}

func TestSleepTicksQuirk(t *testing.T) {
	cases := []struct {
		in, want uint32
	}{
		{1, 1},
		{50, 50},
		{99, 99},
		{100, 99},
		{250, 249},
	}
	for _, tc := range cases {
		if got := sleepTicks(tc.in); got != tc.want {
			t.Fatalf("sleepTicks(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSleep100WakesAfter99Ticks(t *testing.T) {
	s, clk := newTestScheduler(t, 1)
	var woke int
	h, err := s.CreateTask(sleepOnce(100, &woke), nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got, _ := s.Step(); got != h || s.State(h) != StateWaiting {
		t.Fatalf("first step: ran %d state %v", got, s.State(h))
	}
	clk.Advance(98)
	if got, _ := s.Step(); got != IdleHandle || woke != 0 {
		t.Fatalf("after 98 ticks ran %d (woke=%d), want idle", got, woke)
	}
	clk.Advance(1)
	if got, _ := s.Step(); got != h || woke != 1 {
		t.Fatalf("after 99 ticks ran %d (woke=%d), want %d", got, woke, h)
	}
}

func TestFrozenTickRunsOnlyIdle(t *testing.T) {
	s, clk := newTestScheduler(t, 1)
	var woke int
	h, err := s.CreateTask(sleepOnce(50, &woke), nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	for i := range 20 {
		if got, _ := s.Step(); got != IdleHandle {
			t.Fatalf("frozen step %d ran %d, want idle", i, got)
		}
	}
	clk.Advance(49)
	if got, _ := s.Step(); got != IdleHandle {
		t.Fatalf("after 49 ticks ran %d, want idle", got)
	}
	clk.Advance(1)
	if got, _ := s.Step(); got != h || woke != 1 {
		t.Fatalf("after 50 ticks ran %d (woke=%d), want %d", got, woke, h)
	}
}

func TestSleepZeroDoesNotSuspend(t *testing.T) {
	s, _ := newTestScheduler(t, 1)
	var passed bool
	h, err := s.CreateTask(func(c *Ctx, _ any) {
		if c.Sleep(1, 0) {
			return
		}
		passed = true
	}, nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !passed || s.State(h) != StateReady {
		t.Fatalf("zero sleep suspended the task (passed=%v state=%v)", passed, s.State(h))
	}
}

func TestTimeoutSurvivesTickWrap(t *testing.T) {
	s, clk := newTestScheduler(t, 1)
	clk.Set(0xFFFFFFF0)
	var woke int
	h, err := s.CreateTask(sleepOnce(50, &woke), nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	clk.Advance(40) // wraps past zero
	if got, _ := s.Step(); got != IdleHandle {
		t.Fatalf("ran %d before timeout, want idle", got)
	}
	if info := s.Snapshot()[h]; info.Timeout != 10 {
		t.Fatalf("remaining timeout = %d, want 10", info.Timeout)
	}
	clk.Advance(10)
	if got, _ := s.Step(); got != h {
		t.Fatalf("ran %d after wrap, want %d", got, h)
	}
}

func TestSuspendDiscardsSleep(t *testing.T) {
	s, clk := newTestScheduler(t, 1)
	var woke int
	h, err := s.CreateTask(sleepOnce(20, &woke), nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	s.Suspend(h)
	clk.Advance(100)
	if got, _ := s.Step(); got != IdleHandle {
		t.Fatalf("suspended task ran")
	}
	s.Resume(h)
	if got, _ := s.Step(); got != h || woke != 1 {
		t.Fatalf("resume ran %d (woke=%d), want %d", got, woke, h)
	}
}
