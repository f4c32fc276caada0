package sched

import (
	"context"
	"strconv"
	"time"

	"cosched/internal/observ"
	"cosched/internal/trace"
)

// Run starts the scheduler and drives it until ctx is cancelled. With a
// context that is never cancelled it does not return. A tracer attached to
// ctx is used when none was given at Init.
func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil || s.tasks == nil {
		return ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.traced {
		s.trace = s.trace.Rebind(trace.FromContext(ctx))
	}
	if err := s.Start(); err != nil {
		return err
	}
	done := ctx.Done()
	for {
		if done != nil {
			select {
			case <-done:
				s.trace.Point(trace.ScopeScheduler, "stop", ctx.Err().Error(), nil)
				return ctx.Err()
			default:
			}
		}
		if _, err := s.Step(); err != nil {
			return err
		}
	}
}

// RunFor starts the scheduler when needed and performs n scheduling cycles.
func (s *Scheduler) RunFor(n int) error {
	if s == nil || s.tasks == nil {
		return ErrNotInitialized
	}
	if !s.started {
		if err := s.Start(); err != nil {
			return err
		}
	}
	for range n {
		if _, err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Start makes every registered task ready and captures the starting tick.
// Pending sleeps are dropped, so a restarted scheduler holds no stale
// timeouts.
func (s *Scheduler) Start() error {
	if s == nil || s.tasks == nil {
		return ErrNotInitialized
	}
	for i := 0; i < s.size; i++ {
		if t := &s.tasks[i]; t.state != StateNone {
			t.state = StateReady
			t.timeout = 0
		}
	}
	s.last = s.tick()
	s.current = IdleHandle
	s.started = true
	s.trace.Point(trace.ScopeScheduler, "start", "", map[string]string{
		"tasks": strconv.Itoa(s.size - 1),
		"tick":  strconv.FormatUint(uint64(s.last), 10),
	})
	return nil
}

// Step runs one scheduling cycle: timeout update, dispatch, one activation.
// It returns the handle that was activated.
func (s *Scheduler) Step() (Handle, error) {
	if s == nil || s.tasks == nil {
		return IdleHandle, ErrNotInitialized
	}
	if s.inStep {
		return IdleHandle, ErrReentrantStep
	}
	if !s.started {
		if err := s.Start(); err != nil {
			return IdleHandle, err
		}
	}
	s.inStep = true
	defer func() { s.inStep = false }()

	s.updateTimeouts()
	h := s.dispatch()
	s.exec(h)
	s.stats.Cycle()
	return h, nil
}

// dispatch scans forward from the slot after the current one for a
// runnable task, skipping idle. When a full pass finds none it falls back
// to idle.
func (s *Scheduler) dispatch() Handle {
	n := len(s.tasks)
	for i := 1; i <= n; i++ {
		idx := (int(s.current) + i) % n
		if idx == int(IdleHandle) {
			continue
		}
		if s.tasks[idx].runnable() {
			s.current = Handle(idx) //nolint:gosec // idx < len(tasks) <= MaxCapacity+1
			return s.current
		}
	}
	s.current = IdleHandle
	return s.current
}

// exec runs one activation of h. A body that returns without passing a
// suspension point has completed: its marker rewinds and, if nothing
// else changed its state, it goes back to ready.
func (s *Scheduler) exec(h Handle) {
	t := &s.tasks[h]
	if !t.runnable() {
		return
	}
	t.state = StateRunning
	t.activations++

	span := s.trace.Begin(trace.ScopeActivation, s.label(h))
	if span != nil {
		span.WithExtra("marker", strconv.Itoa(int(t.marker)))
	}
	var began time.Time
	if s.stats != nil {
		began = time.Now()
	}

	t.fn(&t.ctx, t.arg)

	outcome := observ.OutcomeDone
	switch {
	case t.sw == SwitchNormal:
		t.marker = 0
	case t.state == StateWaiting:
		outcome = observ.OutcomeSleep
	case t.state == StateSuspend:
		outcome = observ.OutcomePause
	case t.state == StateBlocked:
		outcome = observ.OutcomeBlock
	default:
		outcome = observ.OutcomeYield
	}
	if t.state == StateRunning {
		t.state = StateReady
	}

	span.End(outcome.String())
	if s.stats != nil {
		s.stats.Activation(uint8(h), s.label(h), outcome, time.Since(began))
	}
}
