// Package testkit holds checks shared by tests that drive a scheduler.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"cosched/internal/sched"
)

// CheckSnapshot runs the structural invariants on a snapshot taken between
// scheduling cycles:
// 1) slot 0 is the idle task and handles are dense
// 2) nothing is left running
// 3) a pending timeout only exists on a waiting task
// 4) at most one task holds the mutex
func CheckSnapshot(infos []sched.TaskInfo) error {
	if len(infos) == 0 {
		return fmt.Errorf("empty snapshot")
	}
	holders := 0
	for i, info := range infos {
		want, err := safecast.Conv[uint8](i)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		if info.Handle != sched.Handle(want) {
			return fmt.Errorf("slot %d reports handle %d", i, info.Handle)
		}
		if info.State == sched.StateNone {
			return fmt.Errorf("registered slot %d is unused", i)
		}
		if info.State == sched.StateRunning {
			return fmt.Errorf("task %q still running between cycles", info.Name)
		}
		if info.Timeout != 0 && info.State != sched.StateWaiting {
			return fmt.Errorf("task %q has timeout %d in state %s", info.Name, info.Timeout, info.State)
		}
		if info.HoldsLock {
			holders++
		}
	}
	if infos[0].Handle != sched.IdleHandle {
		return fmt.Errorf("slot 0 is not the idle task")
	}
	if holders > 1 {
		return fmt.Errorf("%d tasks hold the mutex", holders)
	}
	return nil
}
