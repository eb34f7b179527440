package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/council-ops/unit-roster/internal/fetcher"
	"github.com/council-ops/unit-roster/internal/gazetteer"
	"github.com/council-ops/unit-roster/internal/model"
	"github.com/council-ops/unit-roster/internal/pipeline"
	"github.com/council-ops/unit-roster/internal/scorer"
	"github.com/council-ops/unit-roster/internal/store"
)

// loadGazetteer returns the configured gazetteer file, or the built-in table
// when no path is set.
func loadGazetteer() (*gazetteer.Gazetteer, error) {
	if cfg.Gazetteer.Path == "" {
		return gazetteer.Default(), nil
	}
	gz, err := gazetteer.Load(cfg.Gazetteer.Path)
	if err != nil {
		return nil, err
	}
	zap.L().Info("gazetteer: loaded",
		zap.String("path", cfg.Gazetteer.Path),
		zap.Int("localities", gz.Len()),
	)
	return gz, nil
}

// initPipeline builds the pipeline from config.
func initPipeline() (*pipeline.Pipeline, error) {
	gz, err := loadGazetteer()
	if err != nil {
		return nil, err
	}
	sc, err := scorer.New(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	return pipeline.New(gz, sc, cfg.Batch.MaxConcurrent)
}

// initStore opens the configured run store.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store)
}

// readBatch loads one input file or URL as a pipeline batch named after its
// base name.
func readBatch(ctx context.Context, src string, source model.Source, dl *fetcher.Downloader) (pipeline.Batch, error) {
	records, err := fetcher.ReadRecords(ctx, src, dl)
	if err != nil {
		return pipeline.Batch{}, err
	}
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	zap.L().Info("fetcher: read batch",
		zap.String("source", string(source)),
		zap.String("batch", name),
		zap.Int("records", len(records)),
	)
	return pipeline.Batch{Name: name, Source: source, Records: records}, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode json")
}
