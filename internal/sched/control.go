package sched

import "strconv"

// Yield is the primitive behind every suspension point. It stores the
// marker the task resumes at, moves the task to state with the given
// timeout and flags the activation as aborted. The idle task and unused
// slots are ignored.
func (s *Scheduler) Yield(h Handle, marker Marker, state State, timeout uint32) {
	t := s.user(h)
	if t == nil {
		return
	}
	t.marker = marker
	t.state = state
	t.timeout = timeout
	t.sw = SwitchAborted
	if state != StateReady {
		s.noteTask(state.String(), h, "marker "+strconv.Itoa(int(marker)))
	}
}

// Suspend takes a task out of rotation until Resume. A pending sleep is discarded.
func (s *Scheduler) Suspend(h Handle) {
	t := s.user(h)
	if t == nil {
		return
	}
	t.state = StateSuspend
	t.timeout = 0
	s.noteTask("suspend", h, "")
}

// Resume makes a task ready and clears any pending timeout.
func (s *Scheduler) Resume(h Handle) {
	t := s.user(h)
	if t == nil {
		return
	}
	t.state = StateReady
	t.timeout = 0
	s.noteTask("resume", h, "")
}

// SetSwitchState overrides the switch-state flag of a task.
func (s *Scheduler) SetSwitchState(h Handle, sw SwitchState) {
	t := s.user(h)
	if t == nil {
		return
	}
	t.sw = sw
}

// MutexLock takes the scheduler mutex for h. On contention h becomes
// blocked, its activation is flagged aborted and false is returned; the
// caller must persist its marker and return.
func (s *Scheduler) MutexLock(h Handle) bool {
	if s == nil || s.tasks == nil {
		return false
	}
	return s.lock(&s.mu, h)
}

// MutexUnlock clears h's ownership of the scheduler mutex. Ownership is
// not checked: unlocking a mutex held by another task leaves it held.
func (s *Scheduler) MutexUnlock(h Handle) {
	if s == nil || s.tasks == nil {
		return
	}
	s.mu.Unlock(h)
}

// Mutex returns the scheduler's built-in lock.
func (s *Scheduler) Mutex() *Mutex {
	if s == nil {
		return nil
	}
	return &s.mu
}

func (s *Scheduler) lock(m *Mutex, h Handle) bool {
	if m.TryLock(h) {
		return true
	}
	if t := s.user(h); t != nil {
		t.state = StateBlocked
		t.sw = SwitchAborted
		s.noteTask("block", h, "")
	}
	return false
}
