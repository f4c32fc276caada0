package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto    Format = iota // pick from the output path
	FormatText                  // human-readable text
	FormatNDJSON                // newline-delimited JSON
	FormatMsgpack               // length-free msgpack stream
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|msgpack)", s)
	}
}

// wireEvent is the serialized shape shared by the JSON and msgpack encodings.
type wireEvent struct {
	Time   string            `json:"time" msgpack:"time"`
	Seq    uint64            `json:"seq" msgpack:"seq"`
	Kind   string            `json:"kind" msgpack:"kind"`
	Scope  string            `json:"scope" msgpack:"scope"`
	SpanID uint64            `json:"span_id,omitempty" msgpack:"span_id,omitempty"`
	Sched  uint32            `json:"sched,omitempty" msgpack:"sched,omitempty"`
	Name   string            `json:"name" msgpack:"name"`
	Detail string            `json:"detail,omitempty" msgpack:"detail,omitempty"`
	Extra  map[string]string `json:"extra,omitempty" msgpack:"extra,omitempty"`
}

func toWire(ev *Event) wireEvent {
	return wireEvent{
		Time:   ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		SpanID: ev.SpanID,
		Sched:  ev.Sched,
		Name:   ev.Name,
		Detail: ev.Detail,
		Extra:  ev.Extra,
	}
}

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	case FormatMsgpack:
		return formatMsgpack(ev)
	default:
		return formatText(ev)
	}
}

// formatNDJSON formats an event as newline-delimited JSON.
func formatNDJSON(ev *Event) []byte {
	data, _ := json.Marshal(toWire(ev))
	data = append(data, '\n')
	return data
}

// formatMsgpack encodes one event as a self-delimiting msgpack map.
func formatMsgpack(ev *Event) []byte {
	data, err := msgpack.Marshal(toWire(ev))
	if err != nil {
		return nil
	}
	return data
}

// DecodeMsgpack reads every event from a msgpack stream written with FormatMsgpack.
// Only the fields that survive the wire shape are restored.
func DecodeMsgpack(data []byte) ([]Event, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	var out []Event
	for {
		var w wireEvent
		if err := dec.Decode(&w); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("failed to decode trace event %d: %w", len(out), err)
		}
		out = append(out, Event{
			Seq:    w.Seq,
			Kind:   parseKind(w.Kind),
			Scope:  parseScope(w.Scope),
			SpanID: w.SpanID,
			Sched:  w.Sched,
			Name:   w.Name,
			Detail: w.Detail,
			Extra:  w.Extra,
		})
	}
}

func parseKind(s string) Kind {
	for k := KindSpanBegin; k <= KindHeartbeat; k++ {
		if k.String() == s {
			return k
		}
	}
	return 0
}

func parseScope(s string) Scope {
	for sc := ScopeScheduler; sc <= ScopeTick; sc++ {
		if sc.String() == s {
			return sc
		}
	}
	return 0
}

// formatText formats an event as human-readable text.
// Format: [seq] [#sched] →/← scope name (detail) {k=v}
func formatText(ev *Event) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%6d] ", ev.Seq)

	if ev.Sched > 0 {
		fmt.Fprintf(&sb, "#%d ", ev.Sched)
	}

	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ") // →
	case KindSpanEnd:
		sb.WriteString("← ") // ←
	case KindPoint:
		sb.WriteString("• ") // •
	case KindHeartbeat:
		sb.WriteString("♡ ") // ♡
	}

	sb.WriteString(ev.Scope.String())
	sb.WriteString(" ")
	sb.WriteString(ev.Name)

	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}

	// Extra fields, sorted so output is stable across runs
	if len(ev.Extra) > 0 {
		keys := make([]string, 0, len(ev.Extra))
		for k := range ev.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}
