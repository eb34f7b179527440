// Package pipeline drives a reconciliation run. Roster and listing batches
// are normalized concurrently, merged deterministically in batch order,
// scored, and reconciled into a Report.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/council-ops/unit-roster/internal/fetcher"
	"github.com/council-ops/unit-roster/internal/gazetteer"
	"github.com/council-ops/unit-roster/internal/identity"
	"github.com/council-ops/unit-roster/internal/locator"
	"github.com/council-ops/unit-roster/internal/model"
	"github.com/council-ops/unit-roster/internal/reconcile"
	"github.com/council-ops/unit-roster/internal/scorer"
)

// Batch is one input partition: a roster export or one listing page set.
type Batch struct {
	Name    string
	Source  model.Source
	Records []model.RawRecord
}

// Input is everything one run consumes. Sink receives every rejection as it
// happens and may be nil.
type Input struct {
	RunID    string
	Roster   []Batch
	Listings []Batch
	Sink     identity.Sink
}

// Pipeline wires the normalizer, scorer and reconciler together. The
// gazetteer and locator are shared read-only across runs.
type Pipeline struct {
	gz          *gazetteer.Gazetteer
	loc         *locator.Resolver
	scorer      *scorer.Scorer
	reconciler  *reconcile.Reconciler
	concurrency int
}

// New creates a Pipeline. A nil scorer uses the default scoring config.
func New(gz *gazetteer.Gazetteer, sc *scorer.Scorer, concurrency int) (*Pipeline, error) {
	loc, err := locator.New(gz, zap.L())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: init locator")
	}
	if sc == nil {
		sc = scorer.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		gz:          gz,
		loc:         loc,
		scorer:      sc,
		reconciler:  reconcile.New(gz),
		concurrency: concurrency,
	}, nil
}

// Scorer returns the scorer used for collected entities.
func (p *Pipeline) Scorer() *scorer.Scorer { return p.scorer }

// Locator returns the shared locality resolver.
func (p *Pipeline) Locator() *locator.Resolver { return p.loc }

// Normalizer returns a normalizer that reports to sink.
func (p *Pipeline) Normalizer(sink identity.Sink) (*identity.Normalizer, error) {
	return identity.New(p.gz, p.loc, sink, zap.L())
}

// Run normalizes, merges, scores and reconciles the input.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Report, error) {
	log := zap.L().With(zap.String("run_id", in.RunID))
	log.Info("pipeline: starting run",
		zap.Int("roster_batches", len(in.Roster)),
		zap.Int("listing_batches", len(in.Listings)),
	)

	norm, err := p.Normalizer(in.Sink)
	if err != nil {
		return nil, err
	}

	rosterResults, err := p.RunBatches(ctx, norm, in.Roster)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: roster")
	}
	listingResults, err := p.RunBatches(ctx, norm, in.Listings)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: listings")
	}

	var rejections []model.Rejection
	var rosterEntities []model.Entity
	for _, br := range rosterResults {
		rosterEntities = append(rosterEntities, br.Entities...)
		rejections = append(rejections, br.Rejections...)
	}
	listingBatches := make([][]model.Entity, 0, len(listingResults))
	for _, br := range listingResults {
		listingBatches = append(listingBatches, br.Entities)
		rejections = append(rejections, br.Rejections...)
	}

	authoritative := Collapse(rosterEntities)
	collected := Merge(p.scorer, listingBatches...)
	outcomes := p.reconciler.Reconcile(authoritative, collected)

	r := newReport(in.RunID, authoritative, collected, outcomes, p.scoreAll(collected), rejections)
	log.Info("pipeline: run complete",
		zap.Int("authoritative", len(authoritative)),
		zap.Int("collected", len(collected)),
		zap.Int("both", r.Summary.Outcomes.Both),
		zap.Int("authoritative_only", r.Summary.Outcomes.AuthoritativeOnly),
		zap.Int("collected_only", r.Summary.Outcomes.CollectedOnly),
		zap.Int("rejected", len(rejections)),
	)
	return r, nil
}

// Score normalizes and scores listing batches without reconciling them.
func (p *Pipeline) Score(ctx context.Context, in Input) (*Report, error) {
	norm, err := p.Normalizer(in.Sink)
	if err != nil {
		return nil, err
	}

	results, err := p.RunBatches(ctx, norm, in.Listings)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: listings")
	}

	var rejections []model.Rejection
	batches := make([][]model.Entity, 0, len(results))
	for _, br := range results {
		batches = append(batches, br.Entities)
		rejections = append(rejections, br.Rejections...)
	}
	collected := Merge(p.scorer, batches...)

	return newReport(in.RunID, nil, collected, nil, p.scoreAll(collected), rejections), nil
}

// BatchResult is the normalized form of one batch.
type BatchResult struct {
	Name       string
	Entities   []model.Entity
	Rejections []model.Rejection
}

// RunBatches normalizes batches concurrently. Results are returned in batch
// order regardless of completion order. Listing batches are deduplicated by
// literal identifier before normalization.
func (p *Pipeline) RunBatches(ctx context.Context, norm *identity.Normalizer, batches []Batch) ([]BatchResult, error) {
	results := make([]BatchResult, len(batches))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	var mu sync.Mutex
	for i, b := range batches {
		g.Go(func() error {
			br, err := normalizeBatch(gCtx, norm, b)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = br
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func normalizeBatch(ctx context.Context, norm *identity.Normalizer, b Batch) (BatchResult, error) {
	records := b.Records
	if b.Source == model.SourceListing {
		records = fetcher.DedupeListing(records)
	}

	br := BatchResult{Name: b.Name}
	for _, raw := range records {
		if err := ctx.Err(); err != nil {
			return BatchResult{}, eris.Wrapf(err, "pipeline: batch %s", b.Name)
		}

		e, err := norm.Entity(raw, b.Source, b.Name)
		if err != nil {
			var rej *identity.RejectedError
			if errors.As(err, &rej) {
				br.Rejections = append(br.Rejections, rej.Rejection)
				continue
			}
			return BatchResult{}, eris.Wrapf(err, "pipeline: batch %s", b.Name)
		}
		br.Entities = append(br.Entities, *e)
	}

	zap.L().Debug("pipeline: batch normalized",
		zap.String("batch", b.Name),
		zap.String("source", string(b.Source)),
		zap.Int("entities", len(br.Entities)),
		zap.Int("rejections", len(br.Rejections)),
	)
	return br, nil
}

func (p *Pipeline) scoreAll(entities []model.Entity) []model.KeyScore {
	out := make([]model.KeyScore, 0, len(entities))
	for i := range entities {
		out = append(out, model.KeyScore{Key: entities[i].Key, ScoreResult: p.scorer.Score(&entities[i])})
	}
	return out
}
