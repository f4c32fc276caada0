package trace

import "errors"

// MultiTracer fans events out to several sinks, typically a stream and a ring.
type MultiTracer struct {
	sinks []Tracer
	level Level
}

// NewMultiTracer records at level into every sink.
func NewMultiTracer(level Level, sinks ...Tracer) *MultiTracer {
	return &MultiTracer{sinks: sinks, level: level}
}

// Emit hands each sink its own copy, since sinks stamp sequence numbers.
func (t *MultiTracer) Emit(ev *Event) {
	for _, sink := range t.sinks {
		cp := *ev
		sink.Emit(&cp)
	}
}

// Flush flushes every sink and joins their errors.
func (t *MultiTracer) Flush() error {
	errs := make([]error, 0, len(t.sinks))
	for _, sink := range t.sinks {
		errs = append(errs, sink.Flush())
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (t *MultiTracer) Close() error {
	errs := make([]error, 0, len(t.sinks))
	for _, sink := range t.sinks {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}

// Level returns the recording level.
func (t *MultiTracer) Level() Level { return t.level }

// Enabled reports whether the level records anything.
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }

// Ring returns the first in-memory sink, or nil.
func (t *MultiTracer) Ring() *RingTracer {
	for _, sink := range t.sinks {
		if r, ok := sink.(*RingTracer); ok {
			return r
		}
	}
	return nil
}
