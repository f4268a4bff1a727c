// Package cmd wires the etrace commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goldshtn/etrace/internal/config"
	"github.com/goldshtn/etrace/pkg/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	defaults  *config.Defaults
)

var rootCmd = &cobra.Command{
	Use:   "etrace",
	Short: "Trace event inspection tool",
	Long: `etrace captures, replays, and filters trace event streams.

Events come from a live kernel session or a recorded trace file and
flow through process, thread, name, and payload filters into a raw
printer, a bounded-width table, or an aggregating counter.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $ETRACE_CONFIG_DIR/config.yaml or ~/.etrace/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text, json")
}

func initConfig() {
	var err error
	defaults, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		defaults = config.Default()
	}
	if logLevel == "" {
		logLevel = defaults.LogLevel
	}
	if logFormat == "" {
		logFormat = defaults.LogFormat
	}
}

func initLogging() {
	logging.SetDefault(logging.New(logging.ParseLevel(logLevel), logFormat))
}
