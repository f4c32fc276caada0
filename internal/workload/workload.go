// Package workload provides the task bodies cosched runs from a manifest.
// Each kind exercises a different part of the scheduler: timed sleeps,
// mutex contention, child continuations and plain yields.
package workload

import (
	"fmt"

	"cosched/internal/config"
	"cosched/internal/sched"
)

// Board is the state shared by every task of one scheduler.
type Board struct {
	Writer   string // locker currently inside the critical section
	Writes   int
	Overlaps int // writers that found someone else inside; stays 0 while the mutex works
}

// Task is the per-task state kept between activations.
type Task struct {
	Name   string
	Kind   string
	Handle sched.Handle

	period uint32
	hold   uint32
	stages int

	// Count is the number of completed cycles of the body.
	Count int
	// LED is the blinker output.
	LED bool
	// Samples holds the stepper readings of the current cycle.
	Samples []byte

	child sched.Child
	stage int
}

// Install registers one task per manifest entry on s. The scheduler must
// have been created with WithShared(board).
func Install(s *sched.Scheduler, entries []config.TaskConfig) ([]*Task, error) {
	tasks := make([]*Task, 0, len(entries))
	for _, tc := range entries {
		t, err := newTask(tc)
		if err != nil {
			return nil, err
		}
		opts := []sched.TaskOption{sched.WithName(tc.Name)}
		if t.Kind == config.KindStepper {
			opts = append(opts, sched.WithArena(make([]byte, t.stages)))
		}
		h, err := s.CreateTask(t.body(), t, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to register task %q: %w", tc.Name, err)
		}
		t.Handle = h
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func newTask(tc config.TaskConfig) (*Task, error) {
	period, err := config.Ticks(tc.PeriodMS)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", tc.Name, err)
	}
	hold, err := config.Ticks(tc.HoldMS)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", tc.Name, err)
	}
	t := &Task{Name: tc.Name, Kind: tc.Kind, period: period, hold: hold, stages: tc.Stages}
	if t.Kind == config.KindStepper && t.stages <= 0 {
		t.stages = 1
	}
	return t, nil
}

func (t *Task) body() sched.TaskFunc {
	switch t.Kind {
	case config.KindBlinker:
		return blinker
	case config.KindLocker:
		return locker
	case config.KindStepper:
		return stepper
	default:
		return ticker
	}
}

// blinker toggles its LED every period.
func blinker(c *sched.Ctx, arg any) {
	t := arg.(*Task)
	switch c.Enter() {
	case 0:
		t.LED = true
		if c.Sleep(1, t.period) {
			return
		}
		fallthrough
	case 1:
		t.LED = false
		if c.Sleep(2, t.period) {
			return
		}
		fallthrough
	case 2:
		t.Count++
	}
}

// locker holds the scheduler mutex across a sleep, then rests for a period.
func locker(c *sched.Ctx, arg any) {
	t := arg.(*Task)
	board, _ := c.Shared().(*Board)
	switch c.Enter() {
	case 0:
		if !c.Lock(0) {
			return
		}
		if board != nil {
			if board.Writer != "" {
				board.Overlaps++
			}
			board.Writer = t.Name
		}
		if c.Sleep(1, t.hold) {
			return
		}
		fallthrough
	case 1:
		if board != nil {
			board.Writes++
			board.Writer = ""
		}
		c.Unlock()
		t.Count++
		if c.Sleep(2, t.period) {
			return
		}
		fallthrough
	case 2:
	}
}

// stepper collects one sample per stage through a child continuation and
// yields between cycles.
func stepper(c *sched.Ctx, arg any) {
	t := arg.(*Task)
	switch c.Enter() {
	case 0:
		c.Release()
		t.Samples = c.Alloc(t.stages)
		t.stage = 0
		fallthrough
	case 1:
		if c.Await(1, &t.child, t.sample(c.Now)) {
			return
		}
		t.Count++
		if c.Yield(2) {
			return
		}
		fallthrough
	case 2:
	}
}

// sample returns the child body: record a reading, wait a period, repeat
// until every stage has a sample.
func (t *Task) sample(now func() uint32) sched.ChildFunc {
	return func(ch *sched.Child) uint32 {
		switch ch.Enter() {
		case 0:
			if t.stage < len(t.Samples) {
				t.Samples[t.stage] = byte(now())
			}
			t.stage++
			if t.stage >= t.stages {
				return 0
			}
			return ch.Sleep(0, max(t.period, 1))
		default:
			return 0
		}
	}
}

// ticker counts every activation and yields.
func ticker(c *sched.Ctx, arg any) {
	t := arg.(*Task)
	c.Enter()
	t.Count++
	c.Yield(0)
}
