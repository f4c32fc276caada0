package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events in memory until they are dumped.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Event
	total uint64 // events recorded since creation
	level Level
}

// NewRingTracer keeps up to size events; a non-positive size means 4096.
func NewRingTracer(size int, level Level) *RingTracer {
	if size <= 0 {
		size = 4096
	}
	return &RingTracer{buf: make([]Event, size), level: level}
}

// Emit stores a copy of ev, overwriting the oldest event when full.
func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	slot := &t.buf[t.total%uint64(len(t.buf))]
	*slot = *ev
	slot.Seq = NextSeq()
	t.total++
	t.mu.Unlock()
}

// Snapshot returns the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	n := min(t.total, size)
	out := make([]Event, 0, n)
	for i := t.total - n; i < t.total; i++ {
		out = append(out, t.buf[i%size])
	}
	return out
}

// Dropped returns how many events were overwritten before a dump.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size := uint64(len(t.buf)); t.total > size {
		return t.total - size
	}
	return 0
}

// Dump encodes the retained events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

// Flush has nothing to write; the ring lives in memory.
func (t *RingTracer) Flush() error { return nil }

// Close keeps the events so they can still be dumped.
func (t *RingTracer) Close() error { return nil }

// Level returns the recording level.
func (t *RingTracer) Level() Level { return t.level }

// Enabled reports whether the level records anything.
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
