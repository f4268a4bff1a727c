package seeder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goldshtn/etrace/pkg/logging"
	"github.com/goldshtn/etrace/pkg/output"
)

// Options configures one seeding run.
type Options struct {
	Out          string
	Count        int
	PIDSetSize   int
	TemplatePath string
	Seed         int64
}

// Runner writes a synthetic trace file in the JSON Lines format the
// file source replays.
type Runner struct {
	opts Options
	log  *logging.Logger
}

func NewRunner(opts Options, log *logging.Logger) *Runner {
	return &Runner{opts: opts, log: log}
}

// Run generates the events and writes them out. Out may be "-" for
// stdout.
func (r *Runner) Run() error {
	if r.opts.Count <= 0 {
		return fmt.Errorf("invalid event count %d", r.opts.Count)
	}
	if r.opts.PIDSetSize <= 0 {
		return fmt.Errorf("invalid process set size %d", r.opts.PIDSetSize)
	}
	if r.opts.Out == "" {
		return fmt.Errorf("no output path")
	}

	tpl := DefaultTemplate()
	if r.opts.TemplatePath != "" {
		loaded, err := LoadTemplate(r.opts.TemplatePath)
		if err != nil {
			return err
		}
		tpl = loaded
	}

	var w io.Writer = os.Stdout
	if r.opts.Out != "-" {
		f, err := os.Create(r.opts.Out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	buf := bufio.NewWriter(w)

	r.log.Info("seeding trace file",
		"out", r.opts.Out,
		"count", r.opts.Count,
		"processes", r.opts.PIDSetSize,
		"events", len(tpl.Events))

	gen := NewGenerator(tpl, r.opts.Seed, r.opts.PIDSetSize, r.opts.Count)
	for i := 0; i < r.opts.Count; i++ {
		line, err := json.Marshal(gen.Next())
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if _, err := buf.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := buf.WriteByte('\n'); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if r.opts.Out != "-" {
		output.Success("Wrote %d events to %s", r.opts.Count, r.opts.Out)
	}
	return nil
}
