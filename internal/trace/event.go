package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1 // span start
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd // span end
	// KindPoint represents an instant event.
	KindPoint     // instant event
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeScheduler covers scheduler init, start and teardown.
	ScopeScheduler Scope = iota + 1
	// ScopeTask covers task creation and state transitions.
	ScopeTask
	// ScopeActivation covers single activations of a task body.
	ScopeActivation
	ScopeTick // timeout bookkeeping, the noisiest scope
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeScheduler:
		return "scheduler"
	case ScopeTask:
		return "task"
	case ScopeActivation:
		return "activation"
	case ScopeTick:
		return "tick"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time   time.Time         // wall-clock timestamp
	Seq    uint64            // global sequence number (monotonic)
	Kind   Kind              // event kind
	Scope  Scope             // granularity level
	SpanID uint64            // activation span, 0 for points
	Sched  uint32            // emitting scheduler instance, 0 for process-wide events
	Name   string            // e.g., "create", "sleep", "task:3"
	Detail string            // optional detail message
	Extra  map[string]string // extensible key-value pairs
}
