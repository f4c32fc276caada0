package sched

import (
	"strconv"

	"cosched/internal/trace"
)

// sleepThreshold is the duration from which a sleep is shortened by one
// tick, on the assumption that part of the current tick already elapsed.
const sleepThreshold = 100

// sleepTicks converts a requested sleep into the stored countdown.
func sleepTicks(ms uint32) uint32 {
	if ms >= sleepThreshold {
		return ms - 1
	}
	return ms
}

// updateTimeouts charges the ticks elapsed since the previous cycle to
// every waiting task and readies the ones that reach zero.
func (s *Scheduler) updateTimeouts() {
	now := s.tick()
	elapsed := now - s.last // modular, survives counter wrap
	s.last = now

	for i := 0; i < s.size; i++ {
		t := &s.tasks[i]
		if t.state != StateWaiting {
			continue
		}
		if elapsed >= t.timeout {
			t.timeout = 0
		} else {
			t.timeout -= elapsed
		}
		if t.timeout == 0 {
			t.state = StateReady
			s.noteExpire(Handle(i), now) //nolint:gosec // i < size <= MaxCapacity+1
		}
	}
}

func (s *Scheduler) noteExpire(h Handle, now uint32) {
	if !s.trace.Wants(trace.ScopeTick) {
		return
	}
	s.trace.Point(trace.ScopeTick, "expire", s.label(h), map[string]string{
		"handle": strconv.Itoa(int(h)),
		"tick":   strconv.FormatUint(uint64(now), 10),
	})
}
