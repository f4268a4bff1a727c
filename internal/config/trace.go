package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goldshtn/etrace/internal/dispatch"
	"github.com/goldshtn/etrace/internal/filter"
	"github.com/goldshtn/etrace/internal/sink"
	"github.com/goldshtn/etrace/internal/source"
)

// Trace carries the raw flag values for a single trace run. Compile
// validates them and turns the textual pieces into their runtime
// representations; anything wrong here is reported before any event is
// read.
type Trace struct {
	File       string
	Object     string
	ProbeSpecs []string

	PID    int
	TID    int
	Events []string

	RawPattern string
	Where      []string

	FieldSpecs []string
	Stats      bool

	DurationSec int
	MaxWidth    int
	NullMarker  string

	MetricsAddr string
	BufferPages int
}

// Compiled is the validated form of a Trace, ready to assemble a
// session from.
type Compiled struct {
	Filters []filter.Expr
	Raw     *regexp.Regexp
	Fields  []sink.FieldSpec
	Probes  []source.Probe
}

// Compile checks the trace configuration and compiles filters, field
// specs, and probe specs. It returns the first problem it finds.
func (t *Trace) Compile() (*Compiled, error) {
	if t.File == "" && t.Object == "" {
		return nil, errors.New("no event source: provide --file or --obj")
	}
	if t.File != "" && t.Object != "" {
		return nil, errors.New("--file and --obj are mutually exclusive")
	}
	if t.Object != "" && len(t.ProbeSpecs) == 0 {
		return nil, errors.New("--obj requires at least one --probe")
	}
	if t.RawPattern != "" && len(t.Where) > 0 {
		return nil, errors.New("--raw-filter and --where are mutually exclusive")
	}
	if t.PID < dispatch.MatchAllPIDs {
		return nil, fmt.Errorf("invalid pid %d", t.PID)
	}
	if t.TID < dispatch.MatchAllPIDs {
		return nil, fmt.Errorf("invalid tid %d", t.TID)
	}
	if t.DurationSec < 0 {
		return nil, fmt.Errorf("invalid duration %ds", t.DurationSec)
	}
	if t.MaxWidth <= 0 {
		return nil, fmt.Errorf("invalid table width %d", t.MaxWidth)
	}
	if t.BufferPages <= 0 {
		return nil, fmt.Errorf("invalid buffer size %d pages", t.BufferPages)
	}

	c := &Compiled{}

	if t.RawPattern != "" {
		re, err := regexp.Compile("(?i)" + t.RawPattern)
		if err != nil {
			return nil, fmt.Errorf("compile raw filter %q: %w", t.RawPattern, err)
		}
		c.Raw = re
	}

	for _, expr := range t.Where {
		fs, err := filter.ParseList(expr)
		if err != nil {
			return nil, err
		}
		c.Filters = append(c.Filters, fs...)
	}

	for _, spec := range t.FieldSpecs {
		fs, err := ParseFieldSpec(spec)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, fs)
	}

	for _, spec := range t.ProbeSpecs {
		p, err := source.ParseProbe(spec)
		if err != nil {
			return nil, err
		}
		c.Probes = append(c.Probes, p)
	}

	return c, nil
}

// ParseFieldSpec parses a column spec of the form NAME or NAME[WIDTH],
// e.g. "PID" or "Reason[12]".
func ParseFieldSpec(spec string) (sink.FieldSpec, error) {
	open := strings.IndexByte(spec, '[')
	if open < 0 {
		if spec == "" {
			return sink.FieldSpec{}, errors.New("empty field spec")
		}
		return sink.FieldSpec{Name: spec}, nil
	}
	if open == 0 || !strings.HasSuffix(spec, "]") {
		return sink.FieldSpec{}, fmt.Errorf("malformed field spec %q", spec)
	}
	width, err := strconv.Atoi(spec[open+1 : len(spec)-1])
	if err != nil || width <= 0 {
		return sink.FieldSpec{}, fmt.Errorf("malformed field spec %q: width must be a positive integer", spec)
	}
	return sink.FieldSpec{Name: spec[:open], Width: width}, nil
}
