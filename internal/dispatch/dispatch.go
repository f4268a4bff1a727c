// Package dispatch implements the per-event decision pipeline: every
// observed event passes the scalar filters, the event-name allow-list and
// the filter expressions in a fixed order, and is either forwarded to the
// active sink or discarded.
package dispatch

import (
	"regexp"
	"strings"

	"github.com/goldshtn/etrace/internal/event"
	"github.com/goldshtn/etrace/internal/filter"
	"github.com/goldshtn/etrace/internal/metrics"
	"github.com/goldshtn/etrace/internal/sink"
)

// MatchAllPIDs disables the process and thread id filters.
const MatchAllPIDs = -1

// Config selects which events the pipeline forwards. The raw filter and
// the structured filters are mutually exclusive; config validation
// enforces that before a pipeline is built.
type Config struct {
	// PID and TID discard events from other processes or threads.
	// MatchAllPIDs disables the check.
	PID int
	TID int

	// Events is the event-name allow-list. Empty admits every name.
	Events []string

	// RawFilter is tested against the full rendered event text.
	RawFilter *regexp.Regexp

	// Filters are the structured expressions; an event is forwarded
	// when any one of them matches.
	Filters []filter.Expr
}

// Counters tracks the pipeline totals. The dispatch goroutine is the only
// writer; readers take a snapshot through Counters() after the loop has
// stopped.
type Counters struct {
	Observed  uint64
	Forwarded uint64
	Lost      uint64
}

// Pipeline forwards matching events to a sink.
type Pipeline struct {
	cfg      Config
	sink     sink.Sink
	counters Counters
}

// New creates a pipeline forwarding to s.
func New(cfg Config, s sink.Sink) *Pipeline {
	return &Pipeline{cfg: cfg, sink: s}
}

// Dispatch runs one event through the pipeline. It must not be called
// concurrently for the same pipeline; sources deliver events from a
// single goroutine.
func (p *Pipeline) Dispatch(ev *event.Event) {
	p.counters.Observed++
	metrics.EventsObserved.Inc()

	if p.cfg.PID != MatchAllPIDs && ev.ProcessID != p.cfg.PID {
		return
	}
	if p.cfg.TID != MatchAllPIDs && ev.ThreadID != p.cfg.TID {
		return
	}
	if len(p.cfg.Events) > 0 && !nameAllowed(p.cfg.Events, ev.Name) {
		return
	}

	if p.cfg.RawFilter != nil {
		description := ev.Describe()
		if !p.cfg.RawFilter.MatchString(description) {
			return
		}
		p.counters.Forwarded++
		metrics.EventsForwarded.Inc()
		p.sink.AcceptRendered(ev, description)
		return
	}

	if len(p.cfg.Filters) > 0 {
		for _, f := range p.cfg.Filters {
			if f.Match(ev) {
				p.forward(ev)
				return
			}
		}
		return
	}

	p.forward(ev)
}

func (p *Pipeline) forward(ev *event.Event) {
	p.counters.Forwarded++
	metrics.EventsForwarded.Inc()
	p.sink.Accept(ev)
}

// Counters returns a snapshot of the totals. Only meaningful once the
// dispatch loop has stopped.
func (p *Pipeline) Counters() Counters {
	return p.counters
}

func nameAllowed(allowed []string, name string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}
