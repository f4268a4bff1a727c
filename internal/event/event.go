// Package event holds the trace event model shared by sources, filters and
// sinks. Events are transient: a source may reuse the backing storage after
// the dispatch call returns, so consumers must copy anything they keep.
package event

import (
	"fmt"
	"strings"
	"time"
)

// TimeFormat renders event timestamps in table columns.
const TimeFormat = "15:04:05.000000"

// describeTimeFormat renders the full timestamp in event descriptions.
const describeTimeFormat = "2006-01-02 15:04:05.000000"

// Event is a single structured trace event. The payload keeps producer
// order: a name can be listed without a value, which models a payload
// field whose value could not be read from the source.
type Event struct {
	Name        string
	ProcessID   int
	ThreadID    int
	ProcessName string
	Time        time.Time

	fieldOrder []string
	fields     map[string]any
}

func New(name string, pid, tid int, processName string, ts time.Time) *Event {
	return &Event{
		Name:        name,
		ProcessID:   pid,
		ThreadID:    tid,
		ProcessName: processName,
		Time:        ts,
	}
}

// AddField appends a payload field. A repeated name keeps its original
// position and takes the new value.
func (e *Event) AddField(name string, value any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	if _, seen := e.fields[name]; !seen && !e.hasName(name) {
		e.fieldOrder = append(e.fieldOrder, name)
	}
	e.fields[name] = value
}

// AddFieldName records a payload field whose value is unreadable. The name
// shows up in FieldNames but Field reports it as absent.
func (e *Event) AddFieldName(name string) {
	if e.hasName(name) {
		return
	}
	e.fieldOrder = append(e.fieldOrder, name)
}

func (e *Event) hasName(name string) bool {
	for _, n := range e.fieldOrder {
		if n == name {
			return true
		}
	}
	return false
}

// FieldNames returns payload field names in producer order, including
// names without a readable value.
func (e *Event) FieldNames() []string {
	return e.fieldOrder
}

// Field looks up a payload field by exact name.
func (e *Event) Field(name string) (any, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// FieldText looks up a payload field and stringifies it.
func (e *Event) FieldText(name string) (string, bool) {
	v, ok := e.fields[name]
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// Builtin resolves the always-available display fields: Event, PID, TID
// and Time.
func (e *Event) Builtin(name string) (string, bool) {
	switch name {
	case "Event":
		return e.Name, true
	case "PID":
		return fmt.Sprintf("%d", e.ProcessID), true
	case "TID":
		return fmt.Sprintf("%d", e.ThreadID), true
	case "Time":
		return e.Time.Format(TimeFormat), true
	}
	return "", false
}

// Describe renders the full textual form of the event: a header line with
// identity fields followed by one indented line per payload field. Fields
// without a readable value are skipped.
func (e *Event) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s (%d/%d)  %s",
		e.Name, e.ProcessName, e.ProcessID, e.ThreadID,
		e.Time.Format(describeTimeFormat))
	for _, name := range e.fieldOrder {
		v, ok := e.fields[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n\t%s = %s", name, Stringify(v))
	}
	return b.String()
}

// Stringify renders a payload value the way all sinks and filters see it.
func Stringify(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}
