// Package sink holds the consumers that receive events selected by the
// dispatch pipeline: a raw printer, a column table printer and a stats
// aggregator. Exactly one sink is active per session.
package sink

import (
	"github.com/goldshtn/etrace/internal/event"
)

// Sink consumes forwarded events. All Accept calls come from the single
// dispatch goroutine; Close may come from another goroutine and must be
// safe to call more than once.
type Sink interface {
	// Accept consumes one event.
	Accept(ev *event.Event)

	// AcceptRendered consumes one event together with its already
	// rendered description, so sinks that print the full text do not
	// render it twice.
	AcceptRendered(ev *event.Event, description string)

	// Close finalizes the sink. Only the first call has an effect.
	Close() error
}

// FieldSpec names a display column, with an optional explicit width.
// Width 0 selects the default width for the field.
type FieldSpec struct {
	Name  string
	Width int
}
