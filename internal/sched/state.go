package sched

import "fmt"

// Handle identifies a task slot. IdleHandle is always the idle task.
type Handle uint8

// IdleHandle is the reserved slot of the idle task.
const IdleHandle Handle = 0

// MaxCapacity is the largest number of user tasks a scheduler can hold.
// Together with the idle task it fills the 32-bit mutex ownership word.
const MaxCapacity = 31

// Marker is a saved resume point inside a task body. Zero is the start of the body.
type Marker uint16

// State is the scheduling state of a task slot.
type State uint8

const (
	StateNone    State = iota // unused slot
	StateCreated              // registered, scheduler not started
	StateReady                // eligible for dispatch
	StateRunning              // executing now
	StateWaiting              // timed sleep
	StateBlocked              // waiting on a mutex, retried every pass
	StateSuspend              // paused until Resume
	// StateTerminated is reserved. No transition enters it.
	StateTerminated
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateBlocked:
		return "blocked"
	case StateSuspend:
		return "suspend"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// SwitchState tells an activation whether its marker still has to be consulted.
type SwitchState uint8

const (
	// SwitchNormal means the body runs its top-level flow.
	SwitchNormal SwitchState = iota
	// SwitchAborted means the previous activation left at a suspension
	// point and the next one must jump to the saved marker.
	SwitchAborted
)

// String returns the string representation of SwitchState.
func (s SwitchState) String() string {
	switch s {
	case SwitchNormal:
		return "normal"
	case SwitchAborted:
		return "aborted"
	default:
		return fmt.Sprintf("switch(%d)", uint8(s))
	}
}

// TaskInfo is a read-only view of one slot.
type TaskInfo struct {
	Handle      Handle
	Name        string
	State       State
	Marker      Marker
	Timeout     uint32
	Switch      SwitchState
	HoldsLock   bool
	Activations uint64
}
