// Package scorer grades how completely a unit's listing is filled in.
package scorer

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/council-ops/unit-roster/internal/config"
	"github.com/council-ops/unit-roster/internal/model"
)

// DefaultScoringConfig returns the default scoring config: Crews are the only
// specialized unit type.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		SpecializedTypes: []string{string(model.TypeCrew)},
	}
}

// ValidateConfig checks that every specialized type is in the vocabulary.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string
	for _, t := range c.SpecializedTypes {
		known := false
		for _, u := range model.UnitTypes {
			if string(u) == t {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, "unknown specialized type "+t)
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
