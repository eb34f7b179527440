package main

import (
	"context"
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
	"github.com/council-ops/unit-roster/internal/report"
	"github.com/council-ops/unit-roster/internal/store"
)

type reconcileOptions struct {
	Roster   string
	Listings []string
	Output   string
	XLSX     string
	CSV      string
	Save     bool
}

var reconcileOpts reconcileOptions

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the roster against one or more listing batches",
	Long: `Normalizes the roster export and every listing batch, merges the listing
batches, and partitions units into both_sources, authoritative_only and
collected_only. Listing batches are processed concurrently.

Examples:
  unit-roster reconcile --roster roster.xlsx --listing page-1.json --listing page-2.json
  unit-roster reconcile --roster roster.csv --listing listing.csv --xlsx report.xlsx --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		return runReconcile(cmd.Context(), reconcileOpts, os.Stdout)
	},
}

func runReconcile(ctx context.Context, opts reconcileOptions, w io.Writer) error {
	p, err := initPipeline()
	if err != nil {
		return err
	}

	dl := fetcher.NewDownloader(fetcher.HTTPOptions{})
	roster, err := readBatch(ctx, opts.Roster, model.SourceRoster, dl)
	if err != nil {
		return eris.Wrap(err, "reconcile: read roster")
	}
	listings := make([]pipeline.Batch, 0, len(opts.Listings))
	for _, src := range opts.Listings {
		b, err := readBatch(ctx, src, model.SourceListing, dl)
		if err != nil {
			return eris.Wrapf(err, "reconcile: read listing %s", src)
		}
		listings = append(listings, b)
	}

	var st store.Store
	runID := uuid.New().String()
	if opts.Save {
		st, err = initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sources := append([]string{opts.Roster}, opts.Listings...)
		run, err := st.CreateRun(ctx, "reconcile", sources)
		if err != nil {
			return err
		}
		runID = run.ID
	}

	auditLog, err := audit.New(runID, cfg.Audit.Dir)
	if err != nil {
		return err
	}
	defer auditLog.Close() //nolint:errcheck

	r, runErr := p.Run(ctx, pipeline.Input{
		RunID:    runID,
		Roster:   []pipeline.Batch{roster},
		Listings: listings,
		Sink:     auditLog,
	})
	if st != nil {
		if err := finishRun(ctx, st, runID, r, runErr); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if opts.XLSX != "" {
		if err := report.WriteXLSX(r, opts.XLSX); err != nil {
			return err
		}
		zap.L().Info("reconcile: wrote workbook", zap.String("path", opts.XLSX))
	}
	if opts.CSV != "" {
		if err := report.WriteOutcomesCSV(r, opts.CSV); err != nil {
			return err
		}
		zap.L().Info("reconcile: wrote outcomes csv", zap.String("path", opts.CSV))
	}

	return writeJSON(w, opts.Output, r)
}

// finishRun persists a run's results and closes it out. A pipeline failure
// marks the run failed without saving partial results.
func finishRun(ctx context.Context, st store.Store, runID string, r *pipeline.Report, runErr error) error {
	if runErr != nil {
		return st.FinishRun(ctx, runID, model.RunStatusFailed, model.RunCounts{}, runErr.Error())
	}

	if err := st.SaveOutcomes(ctx, runID, r.Outcomes); err != nil {
		return err
	}
	if err := st.SaveScores(ctx, runID, r.Scores); err != nil {
		return err
	}
	if err := st.SaveRejections(ctx, runID, r.Rejections); err != nil {
		return err
	}
	if err := st.FinishRun(ctx, runID, model.RunStatusComplete, r.Counts(), ""); err != nil {
		return err
	}

	zap.L().Info("reconcile: run saved", zap.String("run_id", runID))
	return nil
}

func init() {
	f := reconcileCmd.Flags()
	f.StringVar(&reconcileOpts.Roster, "roster", "", "roster export (csv, xlsx, json)")
	f.StringArrayVar(&reconcileOpts.Listings, "listing", nil, "listing batch file or URL (repeatable)")
	f.StringVar(&reconcileOpts.Output, "output", "", "write the JSON report to this file instead of stdout")
	f.StringVar(&reconcileOpts.XLSX, "xlsx", "", "also write the report as an xlsx workbook")
	f.StringVar(&reconcileOpts.CSV, "csv", "", "also write the outcomes as csv")
	f.BoolVar(&reconcileOpts.Save, "save", false, "record the run and its results in the store")
	_ = reconcileCmd.MarkFlagRequired("roster")
	_ = reconcileCmd.MarkFlagRequired("listing")
	rootCmd.AddCommand(reconcileCmd)
}
