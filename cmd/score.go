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
)

var (
	scoreInput    string
	scoreOutput   string
	scoreMinGrade string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the completeness of listing records",
	Long: `Normalizes a listing batch and scores each unit's completeness.
With --min-grade only units graded below that grade are reported.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		return runScore(cmd.Context(), scoreInput, scoreMinGrade, scoreOutput, os.Stdout)
	},
}

func runScore(ctx context.Context, input, minGrade, output string, w io.Writer) error {
	var threshold model.Grade
	if minGrade != "" {
		g, err := model.ParseGrade(minGrade)
		if err != nil {
			return err
		}
		threshold = g
	}

	p, err := initPipeline()
	if err != nil {
		return err
	}
	batch, err := readBatch(ctx, input, model.SourceListing, fetcher.NewDownloader(fetcher.HTTPOptions{}))
	if err != nil {
		return eris.Wrap(err, "score: read input")
	}

	runID := uuid.New().String()
	auditLog, err := audit.New(runID, cfg.Audit.Dir)
	if err != nil {
		return err
	}
	defer auditLog.Close() //nolint:errcheck

	r, err := p.Score(ctx, pipeline.Input{
		RunID:    runID,
		Listings: []pipeline.Batch{batch},
		Sink:     auditLog,
	})
	if err != nil {
		return err
	}

	scores := filterBelow(r.Scores, threshold)
	zap.L().Info("score: complete",
		zap.String("run_id", runID),
		zap.Int("scored", len(r.Scores)),
		zap.Int("reported", len(scores)),
		zap.Int("rejected", len(r.Rejections)),
	)
	return writeJSON(w, output, scores)
}

// filterBelow keeps scores graded below threshold. An empty threshold keeps
// everything.
func filterBelow(scores []model.KeyScore, threshold model.Grade) []model.KeyScore {
	if threshold == "" {
		return scores
	}
	out := []model.KeyScore{}
	for _, s := range scores {
		if s.Grade.Below(threshold) {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "listing file or URL (csv, xlsx, json)")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "write JSON to this file instead of stdout")
	scoreCmd.Flags().StringVar(&scoreMinGrade, "min-grade", "", "report only units graded below this grade (A-F)")
	_ = scoreCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scoreCmd)
}
