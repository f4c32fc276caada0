package sched

import (
	"fmt"
	"strconv"

	"cosched/internal/observ"
	"cosched/internal/trace"
)

// TaskFunc is the entry function of a task. It is invoked once per
// activation with the task's context and the argument given at creation.
type TaskFunc func(c *Ctx, arg any)

// Scheduler runs a fixed set of cooperative tasks round robin on the
// calling goroutine.
type Scheduler struct {
	tasks   []tcb
	size    int // slots in use, idle included
	tick    TickFunc
	current Handle
	last    uint32
	started bool
	inStep  bool
	mu      Mutex

	trace  trace.Source
	traced bool // tracer set by option, not picked from Run's context
	idle   TaskFunc
	shared any
	stats  *observ.Stats
}

// tcb is the per-slot task control block.
type tcb struct {
	fn          TaskFunc
	arg         any
	name        string
	state       State
	marker      Marker
	timeout     uint32
	sw          SwitchState
	arena       arena
	ctx         Ctx
	activations uint64
}

func (t *tcb) runnable() bool {
	return t.state == StateReady || t.state == StateBlocked
}

// Option configures a Scheduler at Init.
type Option func(*Scheduler)

// WithTracer routes scheduler events to t.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		s.trace = s.trace.Rebind(t)
		s.traced = true
	}
}

// WithIdle replaces the default idle task.
func WithIdle(fn TaskFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.idle = fn
		}
	}
}

// WithShared sets the value every task sees through Ctx.Shared.
func WithShared(v any) Option {
	return func(s *Scheduler) { s.shared = v }
}

// WithStats records per-activation counters into st.
func WithStats(st *observ.Stats) Option {
	return func(s *Scheduler) { s.stats = st }
}

// TaskOption configures a single task at CreateTask.
type TaskOption func(*tcb)

// WithName labels the task in traces, stats and snapshots.
func WithName(name string) TaskOption {
	return func(t *tcb) { t.name = name }
}

// WithArena gives the task a scratch buffer served by Ctx.Alloc. The
// contents survive suspensions, which makes it the place for values a
// body needs after resuming.
func WithArena(buf []byte) TaskOption {
	return func(t *tcb) { t.arena = arena{buf: buf} }
}

// New allocates a scheduler and initializes it.
func New(capacity int, tick TickFunc, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{}
	if err := s.Init(capacity, tick, opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// Init allocates capacity user slots plus the idle slot and registers the
// idle task at IdleHandle.
func (s *Scheduler) Init(capacity int, tick TickFunc, opts ...Option) error {
	if s == nil {
		return ErrNotInitialized
	}
	if s.tasks != nil {
		return ErrAlreadyInitialized
	}
	if capacity < 1 || capacity > MaxCapacity {
		return fmt.Errorf("%w: %d (expected 1..%d)", ErrInvalidCapacity, capacity, MaxCapacity)
	}
	if tick == nil {
		return ErrNoTickSource
	}

	*s = Scheduler{tick: tick, trace: trace.NewSource(nil), idle: defaultIdle}
	for _, opt := range opts {
		opt(s)
	}

	s.tasks = make([]tcb, capacity+1)
	for i := range s.tasks {
		s.tasks[i].ctx = Ctx{s: s, h: Handle(i)}
	}
	idle := &s.tasks[IdleHandle]
	idle.fn = s.idle
	idle.name = "idle"
	idle.state = StateCreated
	s.size = 1

	s.trace.Point(trace.ScopeScheduler, "init", "", map[string]string{
		"capacity": strconv.Itoa(capacity),
	})
	return nil
}

// Deinit releases the registry. Calling it again is a no-op.
func (s *Scheduler) Deinit() {
	if s == nil || s.tasks == nil {
		return
	}
	s.trace.Point(trace.ScopeScheduler, "deinit", "", nil)
	s.tasks = nil
	s.size = 0
	s.current = IdleHandle
	s.started = false
	s.mu = Mutex{}
}

// CreateTask registers fn in the next free slot. The registry is left
// untouched on error.
func (s *Scheduler) CreateTask(fn TaskFunc, arg any, opts ...TaskOption) (Handle, error) {
	if s == nil || s.tasks == nil {
		return 0, ErrNotInitialized
	}
	if fn == nil {
		return 0, ErrNilTask
	}
	if s.size >= len(s.tasks) {
		return 0, fmt.Errorf("%w: %d slots in use", ErrCapacityExceeded, s.size-1)
	}
	h := Handle(s.size) //nolint:gosec // size < len(tasks) <= MaxCapacity+1

	t := &s.tasks[h]
	t.fn = fn
	t.arg = arg
	t.state = StateCreated
	for _, opt := range opts {
		opt(t)
	}
	// Tasks created after Start join the rotation right away.
	if s.started {
		t.state = StateReady
	}
	s.size++

	s.noteTask("create", h, t.state.String())
	return h, nil
}

// Restart rewinds a task to the top of its body and makes it ready.
func (s *Scheduler) Restart(h Handle) {
	t := s.user(h)
	if t == nil {
		return
	}
	t.state = StateReady
	t.timeout = 0
	t.marker = 0
	t.sw = SwitchNormal
	t.arena.release()
	s.noteTask("restart", h, "")
}

// Initialized reports whether the registry is allocated.
func (s *Scheduler) Initialized() bool {
	return s != nil && s.tasks != nil
}

// Capacity returns the number of user slots.
func (s *Scheduler) Capacity() int {
	if s == nil || s.tasks == nil {
		return 0
	}
	return len(s.tasks) - 1
}

// Slots returns the total slot count, idle included.
func (s *Scheduler) Slots() int {
	if s == nil {
		return 0
	}
	return len(s.tasks)
}

// Len returns the number of registered tasks, idle included.
func (s *Scheduler) Len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Current returns the handle last chosen by dispatch.
func (s *Scheduler) Current() Handle {
	if s == nil {
		return IdleHandle
	}
	return s.current
}

// TraceID returns the instance ID stamped on this scheduler's trace events.
func (s *Scheduler) TraceID() uint32 {
	if s == nil {
		return 0
	}
	return s.trace.ID()
}

// State returns the state of a slot; out-of-range handles report StateNone.
func (s *Scheduler) State(h Handle) State {
	if s == nil || int(h) >= len(s.tasks) {
		return StateNone
	}
	return s.tasks[h].state
}

// Snapshot copies the visible state of every registered slot.
func (s *Scheduler) Snapshot() []TaskInfo {
	if s == nil || s.tasks == nil {
		return nil
	}
	out := make([]TaskInfo, s.size)
	for i := range out {
		t := &s.tasks[i]
		h := Handle(i)
		out[i] = TaskInfo{
			Handle:      h,
			Name:        s.label(h),
			State:       t.state,
			Marker:      t.marker,
			Timeout:     t.timeout,
			Switch:      t.sw,
			HoldsLock:   s.mu.HeldBy(h),
			Activations: t.activations,
		}
	}
	return out
}

// slot returns the TCB for h when it names a live slot.
func (s *Scheduler) slot(h Handle) *tcb {
	if s == nil || int(h) >= s.size {
		return nil
	}
	t := &s.tasks[h]
	if t.state == StateNone || t.state == StateTerminated {
		return nil
	}
	return t
}

// user is slot restricted to non-idle handles.
func (s *Scheduler) user(h Handle) *tcb {
	if h == IdleHandle {
		return nil
	}
	return s.slot(h)
}

func (s *Scheduler) label(h Handle) string {
	if name := s.tasks[h].name; name != "" {
		return name
	}
	return "task:" + strconv.Itoa(int(h))
}

func (s *Scheduler) noteTask(name string, h Handle, detail string) {
	if !s.trace.Wants(trace.ScopeTask) {
		return
	}
	s.trace.Point(trace.ScopeTask, name, detail, map[string]string{
		"handle": strconv.Itoa(int(h)),
		"task":   s.label(h),
	})
}

func (s *Scheduler) traceIdle() {
	if !s.trace.Wants(trace.ScopeTick) {
		return
	}
	s.trace.Point(trace.ScopeTick, "idle", "", nil)
}

// defaultIdle only leaves a debug trace point.
func defaultIdle(c *Ctx, _ any) {
	c.s.traceIdle()
}
