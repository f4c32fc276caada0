package trace

import (
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
	nextSrc atomic.Uint32
)

// NextSeq returns the next global sequence number. Sinks stamp events with
// it as they record them.
func NextSeq() uint64 {
	return seq.Add(1)
}

// Source emits events on behalf of one scheduler. Every event carries the
// source ID, so schedulers sharing a sink can be told apart.
type Source struct {
	tracer Tracer
	id     uint32
}

// NewSource binds t to a fresh source ID. A nil tracer is Nop.
func NewSource(t Tracer) Source {
	if t == nil {
		t = Nop
	}
	return Source{tracer: t, id: nextSrc.Add(1)}
}

// Rebind returns s writing to t under the same ID.
func (s Source) Rebind(t Tracer) Source {
	if t == nil {
		t = Nop
	}
	s.tracer = t
	return s
}

// ID returns the source ID; the zero Source has ID 0.
func (s Source) ID() uint32 { return s.id }

// Tracer returns the bound tracer, Nop for the zero Source.
func (s Source) Tracer() Tracer {
	if s.tracer == nil {
		return Nop
	}
	return s.tracer
}

// Wants reports whether an event of the given scope would be recorded.
// Callers check it before building extra maps.
func (s Source) Wants(scope Scope) bool {
	return s.tracer != nil && s.tracer.Enabled() && s.tracer.Level().ShouldEmit(scope)
}

// Point records an instant event.
func (s Source) Point(scope Scope, name, detail string, extra map[string]string) {
	if !s.Wants(scope) {
		return
	}
	s.tracer.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindPoint,
		Scope:  scope,
		Sched:  s.id,
		Name:   name,
		Detail: detail,
		Extra:  extra,
	})
}

// Begin opens a span. It returns nil when the scope is filtered out; all
// Span methods accept a nil receiver.
func (s Source) Begin(scope Scope, name string) *Span {
	if !s.Wants(scope) {
		return nil
	}
	sp := &Span{
		src:     s,
		id:      spanIDs.Add(1),
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	s.tracer.Emit(&Event{
		Time:   sp.started,
		Kind:   KindSpanBegin,
		Scope:  scope,
		SpanID: sp.id,
		Sched:  s.id,
		Name:   name,
	})
	return sp
}

// Span is one traced activation.
type Span struct {
	src     Source
	id      uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// WithExtra attaches a key-value pair to the end event.
func (sp *Span) WithExtra(key, value string) *Span {
	if sp == nil {
		return nil
	}
	if sp.extra == nil {
		sp.extra = make(map[string]string, 2)
	}
	sp.extra[key] = value
	return sp
}

// End records the end event with detail and returns the span duration.
func (sp *Span) End(detail string) time.Duration {
	if sp == nil {
		return 0
	}
	now := time.Now()
	sp.src.tracer.Emit(&Event{
		Time:   now,
		Kind:   KindSpanEnd,
		Scope:  sp.scope,
		SpanID: sp.id,
		Sched:  sp.src.id,
		Name:   sp.name,
		Detail: detail,
		Extra:  sp.extra,
	})
	return now.Sub(sp.started)
}

// ID returns the span ID, 0 for a nil span.
func (sp *Span) ID() uint64 {
	if sp == nil {
		return 0
	}
	return sp.id
}
