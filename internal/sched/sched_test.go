package sched

import (
	"errors"
	"testing"
)

func newTestScheduler(t *testing.T, capacity int, opts ...Option) (*Scheduler, *VirtualClock) {
	t.Helper()
	clk := &VirtualClock{}
	s, err := New(capacity, clk.Tick(), opts...)
	if err != nil {
		t.Fatalf("New(%d): %v", capacity, err)
	}
	return s, clk
}

func noop(*Ctx, any) {}

func TestInitValidCapacities(t *testing.T) {
	clk := &VirtualClock{}
	for c := 1; c <= MaxCapacity; c++ {
		var s Scheduler
		if err := s.Init(c, clk.Tick()); err != nil {
			t.Fatalf("Init(%d) error: %v", c, err)
		}
		if s.Slots() != c+1 {
			t.Fatalf("Init(%d): Slots() = %d, want %d", c, s.Slots(), c+1)
		}
		if s.Len() != 1 || s.State(IdleHandle) != StateCreated {
			t.Fatalf("Init(%d): idle task not registered", c)
		}
	}
}

func TestInitRejectsBadArguments(t *testing.T) {
	clk := &VirtualClock{}
	cases := []struct {
		name     string
		capacity int
		tick     TickFunc
		want     error
	}{
		{"zero capacity", 0, clk.Tick(), ErrInvalidCapacity},
		{"over limit", MaxCapacity + 1, clk.Tick(), ErrInvalidCapacity},
		{"negative", -3, clk.Tick(), ErrInvalidCapacity},
		{"nil tick", 4, nil, ErrNoTickSource},
	}
	for _, tc := range cases {
		var s Scheduler
		err := s.Init(tc.capacity, tc.tick)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: Init error = %v, want %v", tc.name, err, tc.want)
		}
		if s.Initialized() {
			t.Fatalf("%s: scheduler initialized after failed Init", tc.name)
		}
	}
}

func TestInitTwiceFails(t *testing.T) {
	s, clk := newTestScheduler(t, 2)
	if err := s.Init(2, clk.Tick()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Init error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestCreateTaskBeyondCapacity(t *testing.T) {
	s, _ := newTestScheduler(t, 2)
	for i := 1; i <= 2; i++ {
		h, err := s.CreateTask(noop, i)
		if err != nil {
			t.Fatalf("CreateTask #%d: %v", i, err)
		}
		if int(h) != i {
			t.Fatalf("CreateTask #%d handle = %d, want %d", i, h, i)
		}
	}
	before := s.Snapshot()

	if _, err := s.CreateTask(noop, nil); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("CreateTask over capacity error = %v, want ErrCapacityExceeded", err)
	}
	after := s.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("registry size changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("slot %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestCreateTaskErrors(t *testing.T) {
	var s Scheduler
	if _, err := s.CreateTask(noop, nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("CreateTask before Init error = %v, want ErrNotInitialized", err)
	}
	s2, _ := newTestScheduler(t, 1)
	if _, err := s2.CreateTask(nil, nil); !errors.Is(err, ErrNilTask) {
		t.Fatalf("CreateTask(nil) error = %v, want ErrNilTask", err)
	}
	if s2.Len() != 1 {
		t.Fatalf("Len() = %d after failed create, want 1", s2.Len())
	}
}

func TestDeinitIdempotent(t *testing.T) {
	s, clk := newTestScheduler(t, 3)
	if _, err := s.CreateTask(noop, nil); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	s.Deinit()
	s.Deinit()
	if s.Initialized() || s.Len() != 0 {
		t.Fatalf("scheduler still initialized after Deinit")
	}
	if _, err := s.CreateTask(noop, nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("CreateTask after Deinit error = %v", err)
	}
	if err := s.Init(1, clk.Tick()); err != nil {
		t.Fatalf("Init after Deinit: %v", err)
	}
}

func TestCreateAfterStartIsReady(t *testing.T) {
	s, _ := newTestScheduler(t, 2)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h, err := s.CreateTask(noop, nil, WithName("late"))
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got := s.State(h); got != StateReady {
		t.Fatalf("State(late) = %v, want ready", got)
	}
	if s.Snapshot()[h].Name != "late" {
		t.Fatalf("task name not recorded")
	}
}

func TestIdleHandleControlIgnored(t *testing.T) {
	s, _ := newTestScheduler(t, 1)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Suspend(IdleHandle)
	s.Yield(IdleHandle, 3, StateWaiting, 10)
	s.Restart(IdleHandle)
	if got := s.State(IdleHandle); got != StateReady {
		t.Fatalf("idle state = %v, want ready", got)
	}
	// unused slot
	s.Resume(1)
	if got := s.State(1); got != StateNone {
		t.Fatalf("unused slot state = %v, want none", got)
	}
}

func TestCreateTaskFillsEveryHandle(t *testing.T) {
	s, _ := newTestScheduler(t, MaxCapacity)
	for want := 1; want <= MaxCapacity; want++ {
		h, err := s.CreateTask(noop, nil)
		if err != nil {
			t.Fatalf("CreateTask #%d: %v", want, err)
		}
		if int(h) != want {
			t.Fatalf("CreateTask #%d handle = %d", want, h)
		}
	}
	if _, err := s.CreateTask(noop, nil); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("CreateTask past MaxCapacity error = %v, want ErrCapacityExceeded", err)
	}
}
