package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch metrics
	EventsObserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etrace_events_observed_total",
			Help: "Total number of events observed by the dispatch pipeline",
		},
	)

	EventsForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etrace_events_forwarded_total",
			Help: "Total number of events forwarded to the sink",
		},
	)

	// Source metrics
	EventsLost = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etrace_events_lost_total",
			Help: "Total number of events the producer dropped before delivery",
		},
	)

	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etrace_decode_errors_total",
			Help: "Total number of raw records or file lines that failed to decode",
		},
	)
)
