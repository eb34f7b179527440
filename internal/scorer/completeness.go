package scorer

import (
	"math"

	"github.com/council-ops/unit-roster/internal/config"
	"github.com/council-ops/unit-roster/internal/locator"
	"github.com/council-ops/unit-roster/internal/model"
)

// Issue tags.
const (
	TagMissingLocation    = "REQUIRED_MISSING_LOCATION"
	TagMissingMeetingDay  = "REQUIRED_MISSING_MEETING_DAY"
	TagMissingMeetingTime = "REQUIRED_MISSING_MEETING_TIME"
	TagMissingEmail       = "REQUIRED_MISSING_EMAIL"
	TagMissingSpecialty   = "REQUIRED_MISSING_SPECIALTY"

	TagPOBoxOnly     = "QUALITY_PO_BOX_ONLY"
	TagPersonalEmail = "QUALITY_PERSONAL_EMAIL"

	TagNoContact     = "RECOMMENDED_MISSING_CONTACT"
	TagNoPhone       = "RECOMMENDED_MISSING_PHONE"
	TagNoWebsite     = "RECOMMENDED_MISSING_WEBSITE"
	TagNoDescription = "RECOMMENDED_MISSING_DESCRIPTION"
)

// requiredField is one weighted field. degraded, when set, reports a present
// value that only earns half credit.
type requiredField struct {
	missingTag string
	value      func(*model.Entity) string
	qualityTag string
	degraded   func(*model.Entity) bool
}

var standardFields = []requiredField{
	{
		missingTag: TagMissingLocation,
		value:      func(e *model.Entity) string { return e.Location },
		qualityTag: TagPOBoxOnly,
		degraded:   func(e *model.Entity) bool { return IsPOBoxOnly(e.Location) },
	},
	{
		missingTag: TagMissingMeetingDay,
		value:      func(e *model.Entity) string { return e.MeetingDay },
	},
	{
		missingTag: TagMissingMeetingTime,
		value:      func(e *model.Entity) string { return e.MeetingTime },
	},
	{
		missingTag: TagMissingEmail,
		value:      func(e *model.Entity) string { return e.Email },
		qualityTag: TagPersonalEmail,
		degraded: func(e *model.Entity) bool {
			return IsPersonalEmail(e.Email, e.Key.Number, e.Key.Locality)
		},
	},
}

var specialtyField = requiredField{
	missingTag: TagMissingSpecialty,
	value:      func(e *model.Entity) string { return e.Specialty },
}

type recommendedField struct {
	tag   string
	value func(*model.Entity) string
}

var recommendedFields = []recommendedField{
	{TagNoContact, func(e *model.Entity) string { return e.Contact }},
	{TagNoPhone, func(e *model.Entity) string { return e.Phone }},
	{TagNoWebsite, func(e *model.Entity) string { return e.Website }},
	{TagNoDescription, func(e *model.Entity) string { return e.Description }},
}

// Scorer computes completeness scores. It is stateless after construction.
type Scorer struct {
	specialized map[model.UnitType]bool
}

// New creates a Scorer from config.
func New(cfg config.ScoringConfig) (*Scorer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	s := &Scorer{specialized: make(map[model.UnitType]bool)}
	for _, t := range cfg.SpecializedTypes {
		s.specialized[model.UnitType(t)] = true
	}
	return s, nil
}

// Default returns a Scorer using DefaultScoringConfig.
func Default() *Scorer {
	s, _ := New(DefaultScoringConfig())
	return s
}

// Specialized reports whether t requires a program specialty.
func (s *Scorer) Specialized(t model.UnitType) bool {
	return s.specialized[t]
}

// Score grades one entity. Required fields share 100 points equally; a
// missing field loses its whole weight and a degraded one loses half.
// Recommended fields only add informational tags.
func (s *Scorer) Score(e *model.Entity) model.ScoreResult {
	fields := standardFields
	if s.specialized[e.Key.Type] {
		fields = append(append([]requiredField{}, standardFields...), specialtyField)
	}
	weight := 100 / float64(len(fields))

	score := 100.0
	var issues []string
	for _, f := range fields {
		if f.value(e) == "" {
			score -= weight
			issues = append(issues, f.missingTag)
			continue
		}
		if f.degraded != nil && f.degraded(e) {
			score -= weight / 2
			issues = append(issues, f.qualityTag)
		}
	}
	for _, f := range recommendedFields {
		if f.value(e) == "" {
			issues = append(issues, f.tag)
		}
	}

	score = math.Min(100, math.Max(0, score))
	score = math.Round(score*100) / 100

	return model.ScoreResult{
		Score:  score,
		Grade:  model.GradeFor(score),
		Issues: issues,
	}
}

// IsPOBoxOnly reports a location that is a post-office box with no street
// address. When both appear the street address wins.
func IsPOBoxOnly(location string) bool {
	return locator.HasPOBox(location) && !locator.HasStreetAddress(location)
}
