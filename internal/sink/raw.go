package sink

import (
	"fmt"
	"io"

	"github.com/goldshtn/etrace/internal/event"
)

// RawPrinter prints the full textual form of every event.
type RawPrinter struct {
	w io.Writer
}

func NewRawPrinter(w io.Writer) *RawPrinter {
	return &RawPrinter{w: w}
}

func (p *RawPrinter) Accept(ev *event.Event) {
	fmt.Fprintln(p.w, ev.Describe())
}

func (p *RawPrinter) AcceptRendered(_ *event.Event, description string) {
	fmt.Fprintln(p.w, description)
}

func (p *RawPrinter) Close() error { return nil }
