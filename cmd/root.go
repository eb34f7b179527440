package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/council-ops/unit-roster/internal/config"
)

// cfg is populated before any subcommand runs.
var cfg *config.Config

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "unit-roster",
	Short: "Reconcile the council unit roster against public listings",
	Long: `Normalizes unit records from the administrative roster and scraped listing
pages, reconciles them by canonical key, and scores listing completeness.

Configuration is read from config.yaml, .env and ROSTER_* variables.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log.format (json or console)")
}

func setup(*cobra.Command, []string) error {
	loaded, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "roster: load config")
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if logFormat != "" {
		loaded.Log.Format = logFormat
	}
	if err := config.InitLogger(loaded.Log); err != nil {
		return eris.Wrap(err, "roster: init logger")
	}
	cfg = loaded
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
