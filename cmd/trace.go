package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goldshtn/etrace/internal/config"
	"github.com/goldshtn/etrace/internal/dispatch"
	"github.com/goldshtn/etrace/internal/metrics"
	"github.com/goldshtn/etrace/internal/session"
	"github.com/goldshtn/etrace/internal/sink"
	"github.com/goldshtn/etrace/internal/source"
	"github.com/goldshtn/etrace/pkg/logging"
)

var (
	traceFile        string
	traceObject      string
	traceProbes      []string
	tracePID         int
	traceTID         int
	traceEvents      []string
	traceRawFilter   string
	traceWhere       []string
	traceFields      []string
	traceStats       bool
	traceDuration    int
	traceMaxWidth    int
	traceMetricsAddr string
	traceBufferPages int
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Stream events from a live session or a recorded trace file",
	Long: `Stream trace events and print the ones that pass the filters.

Without --field or --stats every forwarded event is printed in full.
--field switches to a fixed-width table; --stats counts events per name
and prints the totals when the session ends.

Filters combine as follows: events must match --pid and --tid, carry a
name on the --event list, and satisfy either the --raw-filter regex or
any one of the --where expressions.

Examples:
  # Replay a recorded trace, table of large file reads
  etrace trace --file events.jsonl --event FileIo/Read --where "Bytes>4096" \
      --field PID --field "FileName[40]" --field Bytes

  # Live session from a compiled probe object
  etrace trace --obj probes/fileio.o --probe syscalls:sys_enter_openat --pid 4088

  # Count event names seen in 30 seconds
  etrace trace --file events.jsonl --stats --duration 30`,
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().StringVarP(&traceFile, "file", "f", "", "replay events from a recorded trace file")
	traceCmd.Flags().StringVar(&traceObject, "obj", "", "compiled probe object for a live session")
	traceCmd.Flags().StringArrayVar(&traceProbes, "probe", nil, "tracepoint to attach, group:name[:program] (repeatable)")
	traceCmd.Flags().IntVarP(&tracePID, "pid", "p", dispatch.MatchAllPIDs, "only events from this process id")
	traceCmd.Flags().IntVarP(&traceTID, "tid", "t", dispatch.MatchAllPIDs, "only events from this thread id")
	traceCmd.Flags().StringSliceVar(&traceEvents, "event", nil, "only events with these names")
	traceCmd.Flags().StringVarP(&traceRawFilter, "raw-filter", "r", "", "regex matched against the rendered event text")
	traceCmd.Flags().StringArrayVarP(&traceWhere, "where", "w", nil, "structured filter, e.g. \"PID=4 && Bytes>4096\" (repeatable, comma-separated alternatives)")
	traceCmd.Flags().StringArrayVar(&traceFields, "field", nil, "table column NAME[WIDTH] (repeatable)")
	traceCmd.Flags().BoolVar(&traceStats, "stats", false, "count events per name instead of printing them")
	traceCmd.Flags().IntVarP(&traceDuration, "duration", "d", 0, "stop after this many seconds")
	traceCmd.Flags().IntVar(&traceMaxWidth, "max-width", 0, "table width budget in characters")
	traceCmd.Flags().StringVar(&traceMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	traceCmd.Flags().IntVar(&traceBufferPages, "buffer-pages", 0, "per-cpu perf buffer size in pages")
}

func runTrace(cmd *cobra.Command, args []string) error {
	tr := &config.Trace{
		File:        traceFile,
		Object:      traceObject,
		ProbeSpecs:  traceProbes,
		PID:         tracePID,
		TID:         traceTID,
		Events:      traceEvents,
		RawPattern:  traceRawFilter,
		Where:       traceWhere,
		FieldSpecs:  traceFields,
		Stats:       traceStats,
		DurationSec: traceDuration,
		MaxWidth:    traceMaxWidth,
		NullMarker:  defaults.NullMarker,
		MetricsAddr: traceMetricsAddr,
		BufferPages: traceBufferPages,
	}
	if tr.MaxWidth == 0 {
		tr.MaxWidth = defaults.MaxWidth
	}
	if tr.MetricsAddr == "" {
		tr.MetricsAddr = defaults.MetricsAddr
	}
	if tr.BufferPages == 0 {
		tr.BufferPages = defaults.BufferPages
	}

	compiled, err := tr.Compile()
	if err != nil {
		return err
	}

	logger := logging.Default().With("component", "trace")

	var src source.Source
	if tr.File != "" {
		src = source.NewReplay(tr.File, logger.Logger)
	} else {
		src = source.NewLive(source.LiveConfig{
			ObjectPath:  tr.Object,
			Probes:      compiled.Probes,
			BufferPages: tr.BufferPages,
		}, logger.Logger)
	}

	var snk sink.Sink
	switch {
	case tr.Stats:
		snk = sink.NewStatsAggregator(os.Stdout)
	case len(compiled.Fields) > 0:
		snk = sink.NewTablePrinter(os.Stdout, compiled.Fields, tr.MaxWidth, tr.NullMarker)
	default:
		snk = sink.NewRawPrinter(os.Stdout)
	}

	pipe := dispatch.New(dispatch.Config{
		PID:       tr.PID,
		TID:       tr.TID,
		Events:    tr.Events,
		RawFilter: compiled.Raw,
		Filters:   compiled.Filters,
	}, snk)

	if tr.MetricsAddr != "" {
		srv := metrics.NewServer(tr.MetricsAddr, logger.Logger)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Stop(ctx)
		}()
	}

	ctrl := session.New(src, pipe, snk, time.Duration(tr.DurationSec)*time.Second, logger, os.Stdout)
	return ctrl.Run(cmd.Context())
}
