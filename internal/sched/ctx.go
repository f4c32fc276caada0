package sched

// Ctx is handed to a task body on every activation. It names the running
// task explicitly, so suspension helpers never consult ambient state.
//
// Every suspension helper returns true when the body must return right
// away; the saved marker is where the next activation resumes.
type Ctx struct {
	s *Scheduler
	h Handle
}

// Handle returns the handle of the task this context belongs to.
func (c *Ctx) Handle() Handle { return c.h }

// Scheduler returns the owning scheduler, for handle-based control of other tasks.
func (c *Ctx) Scheduler() *Scheduler { return c.s }

// Now reads the scheduler's tick source.
func (c *Ctx) Now() uint32 { return c.s.tick() }

// Shared returns the value given to WithShared.
func (c *Ctx) Shared() any { return c.s.shared }

func (c *Ctx) tcb() *tcb { return &c.s.tasks[c.h] }

// Enter opens a task body. It returns the marker to dispatch on: zero on a
// fresh start, the saved resume point after a suspension. Consulting the
// marker clears the aborted flag, so it is only honored once.
func (c *Ctx) Enter() Marker {
	t := c.tcb()
	if t.sw == SwitchAborted {
		t.sw = SwitchNormal
	}
	return t.marker
}

// Marker returns the saved resume point without consuming it.
func (c *Ctx) Marker() Marker { return c.tcb().marker }

// Yield gives up the rest of this activation. The task stays ready and
// resumes at next.
func (c *Ctx) Yield(next Marker) bool {
	c.s.Yield(c.h, next, StateReady, 0)
	return true
}

// Sleep waits ms ticks and resumes at next. A zero duration does not
// suspend and returns false.
func (c *Ctx) Sleep(next Marker, ms uint32) bool {
	if ms == 0 {
		return false
	}
	c.s.Yield(c.h, next, StateWaiting, sleepTicks(ms))
	return true
}

// Pause suspends the task until another task calls Resume on it, then
// resumes at next.
func (c *Ctx) Pause(next Marker) bool {
	c.s.Yield(c.h, next, StateSuspend, 0)
	return true
}

// Lock takes the scheduler mutex. It returns false when the lock is held
// elsewhere; the body must then return, and the next activation re-enters
// at here, which should be the marker of the case containing this call.
func (c *Ctx) Lock(here Marker) bool {
	return c.LockMutex(&c.s.mu, here)
}

// Unlock releases the scheduler mutex.
func (c *Ctx) Unlock() {
	c.s.mu.Unlock(c.h)
}

// LockMutex is Lock against a caller-owned mutex.
func (c *Ctx) LockMutex(m *Mutex, here Marker) bool {
	if c.s.lock(m, c.h) {
		return true
	}
	if c.h != IdleHandle {
		c.tcb().marker = here
	}
	return false
}

// UnlockMutex releases a caller-owned mutex.
func (c *Ctx) UnlockMutex(m *Mutex) {
	m.Unlock(c.h)
}

// Alloc hands out n bytes of the task's arena, or nil when it is exhausted
// or the task has none.
func (c *Ctx) Alloc(n int) []byte {
	return c.tcb().arena.alloc(n)
}

// Release zeroes the arena and makes all of it available again.
func (c *Ctx) Release() {
	c.tcb().arena.release()
}
