package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/council-ops/unit-roster/internal/db"
	"github.com/council-ops/unit-roster/internal/model"
)

// Column lists shared by both backends. JSON-valued columns are passed as
// strings so SQLite TEXT and Postgres JSONB accept the same row.
var (
	outcomeColumns   = []string{"run_id", "unit_type", "unit_number", "locality", "kind", "issues", "authoritative", "collected"}
	scoreColumns     = []string{"run_id", "unit_type", "unit_number", "locality", "score", "grade", "issues"}
	rejectionColumns = []string{"run_id", "source", "batch", "unit_type", "unit_number", "locality", "organization", "reason"}
	resultKey        = []string{"run_id", "unit_type", "unit_number", "locality"}
)

var (
	outcomesTable   = db.Table{Name: "outcomes", Columns: outcomeColumns, Key: resultKey}
	scoresTable     = db.Table{Name: "scores", Columns: scoreColumns, Key: resultKey}
	rejectionsTable = db.Table{Name: "rejections", Columns: rejectionColumns}
)

func outcomeRow(runID string, o model.Outcome) ([]any, error) {
	issues, err := jsonText(nonNilStrings(o.Issues))
	if err != nil {
		return nil, err
	}
	auth, err := entityJSON(o.Authoritative)
	if err != nil {
		return nil, err
	}
	coll, err := entityJSON(o.Collected)
	if err != nil {
		return nil, err
	}
	return []any{runID, string(o.Key.Type), o.Key.Number, o.Key.Locality, string(o.Kind), issues, auth, coll}, nil
}

func scoreRow(runID string, s model.KeyScore) ([]any, error) {
	issues, err := jsonText(nonNilStrings(s.Issues))
	if err != nil {
		return nil, err
	}
	return []any{runID, string(s.Key.Type), s.Key.Number, s.Key.Locality, s.Score, string(s.Grade), issues}, nil
}

func rejectionRow(runID string, r model.Rejection) []any {
	return []any{runID, string(r.Source), r.Batch, r.Type, r.Number, r.Locality, r.Organization, r.Reason}
}

// entityJSON returns nil for a missing side so the column stays NULL.
func entityJSON(e *model.Entity) (any, error) {
	if e == nil {
		return nil, nil
	}
	return jsonText(e)
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal")
	}
	return string(b), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func decodeRunJSON(r *model.Run, sources, counts []byte) error {
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &r.Sources); err != nil {
			return eris.Wrap(err, "unmarshal sources")
		}
	}
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &r.Counts); err != nil {
			return eris.Wrap(err, "unmarshal counts")
		}
	}
	return nil
}
