package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/council-ops/unit-roster/internal/audit"
	"github.com/council-ops/unit-roster/internal/fetcher"
	"github.com/council-ops/unit-roster/internal/model"
	"github.com/council-ops/unit-roster/internal/pipeline"
)

var (
	normalizeInput  string
	normalizeSource string
	normalizeOutput string
)

type normalizeResult struct {
	Entities   []model.Entity    `json:"entities"`
	Rejections []model.Rejection `json:"rejections"`
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Resolve localities and build canonical keys for one input file",
	Example: `  unit-roster normalize --input roster.xlsx --source roster
  unit-roster normalize --input page-1.json --source listing --output entities.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := model.ParseSource(normalizeSource)
		if err != nil {
			return err
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		return runNormalize(cmd.Context(), normalizeInput, src, normalizeOutput, os.Stdout)
	},
}

func runNormalize(ctx context.Context, input string, src model.Source, output string, w io.Writer) error {
	p, err := initPipeline()
	if err != nil {
		return err
	}

	batch, err := readBatch(ctx, input, src, fetcher.NewDownloader(fetcher.HTTPOptions{}))
	if err != nil {
		return eris.Wrap(err, "normalize: read input")
	}

	runID := uuid.New().String()
	auditLog, err := audit.New(runID, cfg.Audit.Dir)
	if err != nil {
		return err
	}
	defer auditLog.Close() //nolint:errcheck

	norm, err := p.Normalizer(auditLog)
	if err != nil {
		return err
	}
	results, err := p.RunBatches(ctx, norm, []pipeline.Batch{batch})
	if err != nil {
		return eris.Wrap(err, "normalize")
	}

	res := normalizeResult{
		Entities:   results[0].Entities,
		Rejections: results[0].Rejections,
	}
	if res.Entities == nil {
		res.Entities = []model.Entity{}
	}
	if res.Rejections == nil {
		res.Rejections = []model.Rejection{}
	}

	zap.L().Info("normalize: complete",
		zap.String("run_id", runID),
		zap.Int("entities", len(res.Entities)),
		zap.Int("rejections", len(res.Rejections)),
	)
	if len(res.Rejections) > 0 {
		fmt.Fprintf(os.Stderr, "%d record(s) rejected", len(res.Rejections))
		if path := auditLog.Path(); path != "" {
			fmt.Fprintf(os.Stderr, "; see %s", path)
		}
		fmt.Fprintln(os.Stderr)
	}

	return writeJSON(w, output, res)
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeInput, "input", "", "input file or URL (csv, xlsx, json)")
	normalizeCmd.Flags().StringVar(&normalizeSource, "source", "", "record source: roster or listing")
	normalizeCmd.Flags().StringVar(&normalizeOutput, "output", "", "write JSON to this file instead of stdout")
	_ = normalizeCmd.MarkFlagRequired("input")
	_ = normalizeCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(normalizeCmd)
}
