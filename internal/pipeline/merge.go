package pipeline

import (
	"github.com/council-ops/unit-roster/internal/model"
	"github.com/council-ops/unit-roster/internal/scorer"
)

// Collapse folds roster rows that share a canonical key into one entity.
// The roster carries one row per registered adult, so the first non-empty
// value of each field wins in input order. Output keeps first-seen order.
func Collapse(entities []model.Entity) []model.Entity {
	pos := make(map[model.CanonicalKey]int, len(entities))
	out := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		i, ok := pos[e.Key]
		if !ok {
			pos[e.Key] = len(out)
			out = append(out, e)
			continue
		}
		fillGolden(&out[i], e)
	}
	return out
}

func fillGolden(dst *model.Entity, src model.Entity) {
	// Location and the town parsed from it travel together.
	if dst.Location == "" && src.Location != "" {
		dst.Location = src.Location
		dst.LocationTown = src.LocationTown
	}
	fillEmpty(&dst.District, src.District)
	fillEmpty(&dst.CharteredOrg, src.CharteredOrg)
	fillEmpty(&dst.Description, src.Description)
	fillEmpty(&dst.MeetingDay, src.MeetingDay)
	fillEmpty(&dst.MeetingTime, src.MeetingTime)
	fillEmpty(&dst.Specialty, src.Specialty)
	fillEmpty(&dst.Email, src.Email)
	fillEmpty(&dst.Phone, src.Phone)
	fillEmpty(&dst.Contact, src.Contact)
	fillEmpty(&dst.Website, src.Website)
}

func fillEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// Merge combines listing batches. When a key appears more than once the
// entity with the higher completeness score wins; ties keep the first seen,
// counting batches in the order given and rows in input order.
func Merge(sc *scorer.Scorer, batches ...[]model.Entity) []model.Entity {
	type best struct {
		entity model.Entity
		score  float64
	}

	pos := make(map[model.CanonicalKey]int)
	var kept []best
	for _, batch := range batches {
		for _, e := range batch {
			s := sc.Score(&e).Score
			i, ok := pos[e.Key]
			if !ok {
				pos[e.Key] = len(kept)
				kept = append(kept, best{entity: e, score: s})
				continue
			}
			if s > kept[i].score {
				kept[i] = best{entity: e, score: s}
			}
		}
	}

	out := make([]model.Entity, len(kept))
	for i, b := range kept {
		out[i] = b.entity
	}
	return out
}
