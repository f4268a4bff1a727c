package cmd

import (
	"github.com/spf13/cobra"

	"github.com/goldshtn/etrace/internal/seeder"
	"github.com/goldshtn/etrace/pkg/logging"
)

var (
	seedOut      string
	seedCount    int
	seedPIDSet   int
	seedTemplate string
	seedSeed     int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a synthetic trace file",
	Long: `Generate a synthetic trace file in the format "etrace trace --file" replays.

The built-in template emits a mix of file, network, process, paging,
and GC events across a small set of fake processes. A YAML template
replaces the mix entirely.

Examples:
  # 100k events from the built-in template
  etrace seed --out events.jsonl --count 100000

  # Deterministic small file for tests
  etrace seed --out testdata/events.jsonl --count 500 --seed 42

  # Custom event mix
  etrace seed --out events.jsonl --template mix.yaml`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedOut, "out", "o", "events.jsonl", "output path, or - for stdout")
	seedCmd.Flags().IntVarP(&seedCount, "count", "c", 10000, "number of events to generate")
	seedCmd.Flags().IntVar(&seedPIDSet, "rate-pid-set", 8, "number of distinct synthetic processes")
	seedCmd.Flags().StringVar(&seedTemplate, "template", "", "YAML template replacing the built-in event mix")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed (0 picks one)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	r := seeder.NewRunner(seeder.Options{
		Out:          seedOut,
		Count:        seedCount,
		PIDSetSize:   seedPIDSet,
		TemplatePath: seedTemplate,
		Seed:         seedSeed,
	}, logging.Default().With("component", "seed"))
	return r.Run()
}
