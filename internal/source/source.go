// Package source provides the event sources a session can attach to: a
// trace file replay and a live kernel session. Acquisition details stay
// behind the Source interface; the dispatch loop only ranges over the
// event channel.
package source

import (
	"context"

	"github.com/goldshtn/etrace/internal/event"
)

// Source delivers trace events to the dispatch loop.
type Source interface {
	// Events starts delivery and returns the event channel. The channel
	// is closed when the source is exhausted or stopped.
	Events(ctx context.Context) (<-chan *event.Event, error)

	// Stop forces a live session to end. A replay source ignores it and
	// finishes on its own.
	Stop() error

	// Lost reports how many events the producer dropped before they
	// reached the session. Only meaningful after the event channel has
	// closed.
	Lost() uint64
}
