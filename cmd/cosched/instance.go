package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"cosched/internal/config"
	"cosched/internal/observ"
	"cosched/internal/sched"
	"cosched/internal/trace"
	"cosched/internal/workload"
)

// instance is one scheduler built from a manifest. Instances share nothing
// but the tracer.
type instance struct {
	id    int
	sched *sched.Scheduler
	clock *sched.VirtualClock // nil with the real clock
	tick  sched.TickFunc
	step  uint32
	board *workload.Board
	tasks []*workload.Task
	stats *observ.Stats

	cycles atomic.Uint64
	idles  atomic.Uint64
}

func newInstance(id int, cfg config.Config, tracer trace.Tracer) (*instance, error) {
	in := &instance{
		id:    id,
		board: &workload.Board{},
		stats: observ.NewStats(),
	}

	var tick sched.TickFunc
	idle := sched.TaskFunc(nil)
	switch cfg.Scheduler.Clock {
	case "virtual":
		step, err := config.Ticks(cfg.Scheduler.StepMS)
		if err != nil {
			return nil, err
		}
		in.clock = &sched.VirtualClock{}
		in.step = step
		tick = in.clock.Tick()
	default:
		tick = sched.NewRealClock().Tick()
		backoff, err := config.Ticks(cfg.Scheduler.IdleSleepMS)
		if err != nil {
			return nil, err
		}
		idle = sched.SleepIdle(backoff)
	}

	opts := []sched.Option{
		sched.WithShared(in.board),
		sched.WithStats(in.stats),
		sched.WithIdle(in.countIdle(idle)),
	}
	if tracer != nil {
		opts = append(opts, sched.WithTracer(tracer))
	}
	s, err := sched.New(cfg.Scheduler.Capacity, tick, opts...)
	if err != nil {
		return nil, fmt.Errorf("instance %d: %w", id, err)
	}
	tasks, err := workload.Install(s, cfg.Tasks)
	if err != nil {
		s.Deinit()
		return nil, fmt.Errorf("instance %d: %w", id, err)
	}
	in.sched = s
	in.tick = tick
	in.tasks = tasks
	return in, nil
}

// countIdle wraps the idle body so the heartbeat can see idle passes.
func (in *instance) countIdle(next sched.TaskFunc) sched.TaskFunc {
	return func(c *sched.Ctx, arg any) {
		in.idles.Add(1)
		if next != nil {
			next(c, arg)
		}
	}
}

// run performs steps cycles, or runs until ctx is cancelled when steps is 0.
// A cancelled context is a normal way to stop and is not reported.
func (in *instance) run(ctx context.Context, steps int) error {
	if steps == 0 && in.clock == nil {
		err := in.sched.Run(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
	for i := 0; steps == 0 || i < steps; i++ {
		if ctx.Err() != nil {
			return nil
		}
		if err := in.advance(); err != nil {
			return err
		}
	}
	return nil
}

// advance performs one scheduling cycle and moves the virtual clock.
func (in *instance) advance() error {
	if _, err := in.sched.Step(); err != nil {
		return fmt.Errorf("instance %d: %w", in.id, err)
	}
	in.cycles.Add(1)
	if in.clock != nil {
		in.clock.Advance(in.step)
	}
	return nil
}

func (in *instance) now() uint32 {
	return in.tick()
}

func (in *instance) close() {
	in.sched.Deinit()
}
