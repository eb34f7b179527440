package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/council-ops/unit-roster/internal/model"
)

// DecodeListing reads a listing feed: a JSON array of unit objects. Each
// element is passed through Clean. An empty body yields no records.
func DecodeListing(ctx context.Context, r io.Reader) ([]model.RawRecord, error) {
	dec := json.NewDecoder(r)

	open, err := dec.Token()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "json: listing")
	}
	if d, ok := open.(json.Delim); !ok || d != '[' {
		return nil, eris.Errorf("json: listing must be an array, found %v", open)
	}

	var records []model.RawRecord
	for i := 0; dec.More(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "json: context cancelled")
		}
		var rec model.RawRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, eris.Wrapf(err, "json: listing element %d", i)
		}
		records = append(records, Clean(rec))
	}
	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrap(err, "json: unterminated listing")
	}
	return records, nil
}

// Clean trims every field of rec and drops the blank ones.
func Clean(rec model.RawRecord) model.RawRecord {
	for _, p := range rec.Fields() {
		*p = model.Opt(model.Val(*p))
	}
	return rec
}
