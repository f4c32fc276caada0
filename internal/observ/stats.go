package observ

import (
	"fmt"
	"sort"
	"time"
)

// Outcome classifies how a task activation ended.
type Outcome uint8

const (
	OutcomeDone  Outcome = iota // body returned without suspending
	OutcomeYield                // plain yield, still runnable
	OutcomeSleep                // timed wait
	OutcomePause                // explicit suspend
	OutcomeBlock                // mutex contention
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeYield:
		return "yield"
	case OutcomeSleep:
		return "sleep"
	case OutcomePause:
		return "pause"
	case OutcomeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// TaskStats accumulates activation counts for one task slot.
type TaskStats struct {
	Handle      uint8
	Name        string
	Activations uint64
	Outcomes    [OutcomeBlock + 1]uint64
	Busy        time.Duration
}

// Stats tracks activations per task slot for a single scheduler.
// It is not safe for concurrent use; each scheduler owns its own Stats.
type Stats struct {
	tasks  map[uint8]*TaskStats
	cycles uint64
	start  time.Time
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{tasks: make(map[uint8]*TaskStats, 8), start: time.Now()}
}

// Cycle counts one scheduling pass.
func (s *Stats) Cycle() {
	if s == nil {
		return
	}
	s.cycles++
}

// Activation records one finished activation of a task.
func (s *Stats) Activation(handle uint8, name string, outcome Outcome, dur time.Duration) {
	if s == nil {
		return
	}
	ts := s.tasks[handle]
	if ts == nil {
		ts = &TaskStats{Handle: handle}
		s.tasks[handle] = ts
	}
	ts.Name = name
	ts.Activations++
	if int(outcome) < len(ts.Outcomes) {
		ts.Outcomes[outcome]++
	}
	ts.Busy += dur
}

// Task returns the stats for a handle, or nil.
func (s *Stats) Task(handle uint8) *TaskStats {
	if s == nil {
		return nil
	}
	return s.tasks[handle]
}

// Summary returns a human-readable table of all tracked tasks.
func (s *Stats) Summary() string {
	report := s.Report()
	out := fmt.Sprintf("cycles: %d  elapsed: %.2f ms\n", report.Cycles, report.ElapsedMS)
	for _, t := range report.Tasks {
		out += fmt.Sprintf("  %3d %-16s %8d act  %7.2f ms", t.Handle, t.Name, t.Activations, t.BusyMS)
		for _, k := range outcomeKeys {
			if n := t.Outcomes[k]; n > 0 {
				out += fmt.Sprintf("  %s=%d", k, n)
			}
		}
		out += "\n"
	}
	return out
}

var outcomeKeys = []string{"done", "yield", "sleep", "pause", "block"}

// TaskReport is the serializable view of TaskStats.
type TaskReport struct {
	Handle      uint8             `json:"handle"`
	Name        string            `json:"name"`
	Activations uint64            `json:"activations"`
	Outcomes    map[string]uint64 `json:"outcomes"`
	BusyMS      float64           `json:"busy_ms"`
}

// Report aggregates all stats for serialization.
type Report struct {
	Cycles    uint64       `json:"cycles"`
	ElapsedMS float64      `json:"elapsed_ms"`
	Tasks     []TaskReport `json:"tasks"`
}

// Report builds a snapshot sorted by handle.
func (s *Stats) Report() Report {
	if s == nil {
		return Report{}
	}
	report := Report{
		Cycles:    s.cycles,
		ElapsedMS: durationToMillis(time.Since(s.start)),
		Tasks:     make([]TaskReport, 0, len(s.tasks)),
	}
	for _, ts := range s.tasks {
		outcomes := make(map[string]uint64, len(ts.Outcomes))
		for i, n := range ts.Outcomes {
			outcomes[Outcome(i).String()] = n
		}
		report.Tasks = append(report.Tasks, TaskReport{
			Handle:      ts.Handle,
			Name:        ts.Name,
			Activations: ts.Activations,
			Outcomes:    outcomes,
			BusyMS:      durationToMillis(ts.Busy),
		})
	}
	sort.Slice(report.Tasks, func(i, j int) bool { return report.Tasks[i].Handle < report.Tasks[j].Handle })
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
