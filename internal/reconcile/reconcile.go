// Package reconcile compares the authoritative roster against the collected
// listing by canonical key.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/council-ops/unit-roster/internal/gazetteer"
	"github.com/council-ops/unit-roster/internal/model"
)

// Issue messages for units present in both sources.
const (
	IssueMissingLocation    = "listing is missing the meeting location"
	IssueMissingMeetingDay  = "listing is missing the meeting day"
	IssueMissingMeetingTime = "listing is missing the meeting time"
	IssueMissingEmail       = "listing is missing the contact email"
)

// Summary counts outcomes by kind.
type Summary struct {
	Both              int `json:"both_sources"`
	AuthoritativeOnly int `json:"authoritative_only"`
	CollectedOnly     int `json:"collected_only"`
	WithIssues        int `json:"with_issues"`
}

// Reconciler performs the three-way comparison. The gazetteer is used only
// to compare locations, so a nil gazetteer skips the locality check.
type Reconciler struct {
	gz *gazetteer.Gazetteer
}

// New creates a Reconciler.
func New(gz *gazetteer.Gazetteer) *Reconciler {
	return &Reconciler{gz: gz}
}

// Reconcile classifies every key in either input into exactly one outcome,
// sorted by key. When a key repeats within one input the first entity wins.
func (r *Reconciler) Reconcile(authoritative, collected []model.Entity) []model.Outcome {
	a := index(authoritative)
	c := index(collected)

	keys := make([]model.CanonicalKey, 0, len(a)+len(c))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range c {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]model.Outcome, 0, len(keys))
	for _, k := range keys {
		ae, inA := a[k]
		ce, inC := c[k]
		switch {
		case inA && inC:
			out = append(out, model.Outcome{
				Kind:          model.BothSources,
				Key:           k,
				Authoritative: ae,
				Collected:     ce,
				Issues:        r.Check(ae, ce),
			})
		case inA:
			out = append(out, model.Outcome{Kind: model.AuthoritativeOnly, Key: k, Authoritative: ae})
		default:
			out = append(out, model.Outcome{Kind: model.CollectedOnly, Key: k, Collected: ce})
		}
	}
	return out
}

// Check lists field-level inconsistencies for a unit present in both sources.
func (r *Reconciler) Check(auth, coll *model.Entity) []string {
	var issues []string
	if coll.Location == "" {
		issues = append(issues, IssueMissingLocation)
	}
	if coll.MeetingDay == "" {
		issues = append(issues, IssueMissingMeetingDay)
	}
	if coll.MeetingTime == "" {
		issues = append(issues, IssueMissingMeetingTime)
	}
	if coll.Email == "" {
		issues = append(issues, IssueMissingEmail)
	}
	if r.gz != nil && auth.LocationTown != "" && coll.LocationTown != "" &&
		r.gz.Parent(auth.LocationTown) != r.gz.Parent(coll.LocationTown) {
		issues = append(issues, fmt.Sprintf("locality mismatch: roster %q, listing %q", auth.Location, coll.Location))
	}
	return issues
}

// Summarize counts outcomes by kind.
func Summarize(outcomes []model.Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Kind {
		case model.BothSources:
			s.Both++
		case model.AuthoritativeOnly:
			s.AuthoritativeOnly++
		case model.CollectedOnly:
			s.CollectedOnly++
		}
		if len(o.Issues) > 0 {
			s.WithIssues++
		}
	}
	return s
}

func index(entities []model.Entity) map[model.CanonicalKey]*model.Entity {
	m := make(map[model.CanonicalKey]*model.Entity, len(entities))
	for _, e := range entities {
		if _, dup := m[e.Key]; dup {
			continue
		}
		m[e.Key] = &e
	}
	return m
}
