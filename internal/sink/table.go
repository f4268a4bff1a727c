package sink

import (
	"fmt"
	"io"

	"github.com/goldshtn/etrace/internal/event"
	"github.com/goldshtn/etrace/pkg/output"
)

// Default column widths. The built-in fields have known shapes and get
// narrow columns; payload fields get a wider one.
const (
	widthEvent   = 24
	widthPidTid  = 8
	widthTime    = 16
	widthPayload = 40
)

// TablePrinter prints one fixed-width row per event, one column per
// requested field. The header row is printed once when the printer is
// built.
type TablePrinter struct {
	w          io.Writer
	layout     *output.Layout
	fields     []string
	nullMarker string
}

func NewTablePrinter(w io.Writer, fields []FieldSpec, maxWidth int, nullMarker string) *TablePrinter {
	columns := make([]output.Column, len(fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		width := f.Width
		if width <= 0 {
			width = defaultWidth(f.Name)
		}
		columns[i] = output.Column{Title: f.Name, Width: width}
		names[i] = f.Name
	}

	p := &TablePrinter{
		w:          w,
		layout:     output.NewLayout(maxWidth, columns),
		fields:     names,
		nullMarker: nullMarker,
	}
	output.Fheader(w, p.layout.HeaderRow())
	return p
}

func defaultWidth(name string) int {
	switch name {
	case "Event":
		return widthEvent
	case "PID", "TID":
		return widthPidTid
	case "Time":
		return widthTime
	}
	return widthPayload
}

// Accept resolves every requested field, built-ins through their
// accessors and anything else from the payload, substituting the null
// marker for absent fields. Values for columns the layout did not admit
// are dropped when the row is formatted.
func (p *TablePrinter) Accept(ev *event.Event) {
	values := make([]string, len(p.fields))
	for i, name := range p.fields {
		if v, ok := ev.Builtin(name); ok {
			values[i] = v
			continue
		}
		if v, ok := ev.FieldText(name); ok {
			values[i] = v
			continue
		}
		values[i] = p.nullMarker
	}
	fmt.Fprintln(p.w, p.layout.Row(values))
}

func (p *TablePrinter) AcceptRendered(ev *event.Event, _ string) {
	p.Accept(ev)
}

func (p *TablePrinter) Close() error { return nil }
