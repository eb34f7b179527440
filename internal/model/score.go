package model

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Grade is the letter grade derived from a completeness score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeFor maps a score onto its letter grade.
func GradeFor(score float64) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// ScoreResult is the completeness score for one entity.
type ScoreResult struct {
	Score  float64  `json:"score"`
	Grade  Grade    `json:"grade"`
	Issues []string `json:"issues,omitempty"`
}

// KeyScore pairs a canonical key with the completeness score of its
// collected entity.
type KeyScore struct {
	Key CanonicalKey `json:"key"`
	ScoreResult
}

var gradeOrder = []Grade{GradeA, GradeB, GradeC, GradeD, GradeF}

// ParseGrade accepts a letter grade in either case.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(gradeOrder, g) {
		return g, nil
	}
	return "", eris.Errorf("model: unknown grade %q", s)
}

// Below reports whether g is a worse grade than o.
func (g Grade) Below(o Grade) bool {
	return slices.Index(gradeOrder, g) > slices.Index(gradeOrder, o)
}
