package trace

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  Level
	}{
		{"off", LevelOff},
		{"ERROR", LevelError},
		{"lifecycle", LevelLifecycle},
		{"task", LevelTask},
		{"Debug", LevelDebug},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.input)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelShouldEmit(t *testing.T) {
	if LevelLifecycle.ShouldEmit(ScopeTask) {
		t.Fatalf("lifecycle level must not emit task scope")
	}
	if !LevelTask.ShouldEmit(ScopeScheduler) || !LevelTask.ShouldEmit(ScopeTask) {
		t.Fatalf("task level must emit scheduler and task scopes")
	}
	if LevelTask.ShouldEmit(ScopeActivation) {
		t.Fatalf("task level must not emit activation scope")
	}
	if !LevelDebug.ShouldEmit(ScopeTick) {
		t.Fatalf("debug level must emit tick scope")
	}
}

func TestRingTracerWrapsInOrder(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeTask, Name: name})
	}
	got := ring.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len(snapshot) = %d, want 3", len(got))
	}
	for i, want := range []string{"c", "d", "e"} {
		if got[i].Name != want {
			t.Fatalf("snapshot[%d] = %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelTask, FormatText)
	src := NewSource(tr)
	src.Point(ScopeTask, "create", "handle 1", map[string]string{"b": "2", "a": "1"})
	src.Point(ScopeTick, "expire", "", nil)
	out := buf.String()
	if !strings.Contains(out, "task create (handle 1) {a=1, b=2}") {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.Contains(out, "expire") {
		t.Fatalf("tick scope leaked at task level: %q", out)
	}
}

func TestRingDumpMsgpack(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	src := NewSource(ring)
	span := src.Begin(ScopeActivation, "task:2")
	span.WithExtra("marker", "1").End("yield")

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatMsgpack); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	events, err := DecodeMsgpack(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("decoded %d events, want 2", len(events))
	}
	if events[0].Kind != KindSpanBegin || events[1].Kind != KindSpanEnd {
		t.Fatalf("kinds = %v,%v, want begin,end", events[0].Kind, events[1].Kind)
	}
	if events[1].Detail != "yield" || events[1].Extra["marker"] != "1" {
		t.Fatalf("end event = %+v", events[1])
	}
	if events[0].SpanID != span.ID() || events[1].SpanID != span.ID() {
		t.Fatalf("span ids = %d,%d, want %d", events[0].SpanID, events[1].SpanID, span.ID())
	}
	if events[0].Sched != src.ID() {
		t.Fatalf("sched = %d, want %d", events[0].Sched, src.ID())
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	a := NewRingTracer(4, LevelDebug)
	b := NewRingTracer(4, LevelDebug)
	m := NewMultiTracer(LevelDebug, a, b)
	NewSource(m).Point(ScopeScheduler, "start", "", nil)
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 1 {
		t.Fatalf("expected one event in each child tracer")
	}
	if m.Ring() != a {
		t.Fatalf("Ring() should return the first ring child")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should yield Nop")
	}
	ring := NewRingTracer(1, LevelTask)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatalf("tracer not propagated")
	}
}

func TestNewDisabledIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff, Mode: ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("off level must produce a disabled tracer")
	}
	if FormatFromPath("trace.ndjson") != FormatNDJSON || FormatFromPath("t.msgpack") != FormatMsgpack {
		t.Fatalf("format detection from extension failed")
	}
}

func TestSourcesStampTheirOwnID(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamTracer(&buf, LevelDebug, FormatText)
	a, b := NewSource(sink), NewSource(sink)
	if a.ID() == 0 || a.ID() == b.ID() {
		t.Fatalf("source ids = %d, %d, want distinct non-zero", a.ID(), b.ID())
	}
	a.Point(ScopeScheduler, "start", "", nil)
	b.Point(ScopeScheduler, "start", "", nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	for i, src := range []Source{a, b} {
		want := fmt.Sprintf("#%d ", src.ID())
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
	if rebound := a.Rebind(nil); rebound.ID() != a.ID() || rebound.Tracer() != Nop {
		t.Fatalf("Rebind(nil) = id %d tracer %v", rebound.ID(), rebound.Tracer())
	}
}

func TestFilteredSpanIsNil(t *testing.T) {
	ring := NewRingTracer(4, LevelTask)
	span := NewSource(ring).Begin(ScopeActivation, "task:1")
	if span != nil {
		t.Fatalf("Begin below the level returned a span")
	}
	if d := span.WithExtra("k", "v").End("done"); d != 0 {
		t.Fatalf("nil span End = %v, want 0", d)
	}
	if len(ring.Snapshot()) != 0 {
		t.Fatalf("filtered span recorded events")
	}
	var zero Source
	zero.Point(ScopeScheduler, "start", "", nil)
	if zero.Tracer() != Nop || zero.Wants(ScopeScheduler) {
		t.Fatalf("zero Source must behave as Nop")
	}
}

func TestRingCountsDropped(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	src := NewSource(ring)
	for range 5 {
		src.Point(ScopeTask, "tick", "", nil)
	}
	if got := ring.Dropped(); got != 3 {
		t.Fatalf("Dropped() = %d, want 3", got)
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Seq >= events[1].Seq {
		t.Fatalf("snapshot = %+v, want two events oldest first", events)
	}
}
