package pipeline

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/council-ops/unit-roster/internal/model"
	"github.com/council-ops/unit-roster/internal/reconcile"
)

// Summary holds the headline counts of a run.
type Summary struct {
	Authoritative int                 `json:"authoritative"`
	Collected     int                 `json:"collected"`
	Rejected      int                 `json:"rejected"`
	Outcomes      reconcile.Summary   `json:"outcomes"`
	Grades        map[model.Grade]int `json:"grades"`
}

// Report is the full result of a run.
type Report struct {
	RunID         string            `json:"run_id"`
	Authoritative []model.Entity    `json:"authoritative"`
	Collected     []model.Entity    `json:"collected"`
	Outcomes      []model.Outcome   `json:"outcomes"`
	Scores        []model.KeyScore  `json:"scores"`
	Rejections    []model.Rejection `json:"rejections"`
	Summary       Summary           `json:"summary"`
}

func newReport(runID string, auth, coll []model.Entity, outcomes []model.Outcome, scores []model.KeyScore, rejections []model.Rejection) *Report {
	sortEntities(auth)
	sortEntities(coll)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Key.Less(scores[j].Key) })

	grades := make(map[model.Grade]int)
	for _, s := range scores {
		grades[s.Grade]++
	}

	summary := Summary{
		Authoritative: len(auth),
		Collected:     len(coll),
		Rejected:      len(rejections),
		Outcomes:      reconcile.Summarize(outcomes),
		Grades:        grades,
	}
	return &Report{
		RunID:         runID,
		Authoritative: nonNil(auth),
		Collected:     nonNil(coll),
		Outcomes:      nonNil(outcomes),
		Scores:        nonNil(scores),
		Rejections:    nonNil(rejections),
		Summary:       summary,
	}
}

// Counts condenses the summary into the figures stored with a run.
func (r *Report) Counts() model.RunCounts {
	return model.RunCounts{
		Authoritative:     r.Summary.Authoritative,
		Collected:         r.Summary.Collected,
		Both:              r.Summary.Outcomes.Both,
		AuthoritativeOnly: r.Summary.Outcomes.AuthoritativeOnly,
		CollectedOnly:     r.Summary.Outcomes.CollectedOnly,
		Rejected:          r.Summary.Rejected,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "pipeline: encode report")
	}
	return nil
}

func sortEntities(es []model.Entity) {
	sort.SliceStable(es, func(i, j int) bool { return es[i].Key.Less(es[j].Key) })
}

// nonNil keeps empty sections as [] rather than null in JSON output.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
