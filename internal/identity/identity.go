// Package identity turns a type, number, and locality into the canonical key
// that joins the roster and the listing, and builds normalized entities.
package identity

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/council-ops/unit-roster/internal/gazetteer"
	"github.com/council-ops/unit-roster/internal/locator"
	"github.com/council-ops/unit-roster/internal/model"
)

// Rejection reasons.
const (
	ReasonUnknownType     = "unrecognized unit type"
	ReasonMissingNumber   = "missing unit number"
	ReasonInvalidNumber   = "unit number is not numeric"
	ReasonNoLocality      = "no locality in any field"
	ReasonUnknownLocality = "locality not in gazetteer"
)

// Number parse errors.
var (
	ErrMissingNumber = eris.New(ReasonMissingNumber)
	ErrInvalidNumber = eris.New(ReasonInvalidNumber)
)

// RejectedError reports a record that could not be given a canonical key.
type RejectedError struct {
	model.Rejection
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("identity: rejected %s %s (locality %q, organization %q): %s",
		e.Type, e.Number, e.Locality, e.Organization, e.Reason)
}

// Sink receives every rejection for audit.
type Sink interface {
	Reject(model.Rejection)
}

// ParseType maps free text onto the unit type vocabulary. The last word
// decides, so "Cub Scout Pack" and "PACK" are both Pack.
func ParseType(s string) (model.UnitType, bool) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return "", false
	}
	last := strings.ToLower(strings.Trim(words[len(words)-1], ".,:#"))
	t := model.UnitType(cases.Title(language.English).String(last))
	for _, u := range model.UnitTypes {
		if u == t {
			return t, true
		}
	}
	return "", false
}

// ParseNumber accepts "7", "0007", "#7" or "No. 7" and returns the display
// form and the fixed-width internal form.
func ParseNumber(s string) (display, padded string, err error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	if lower := strings.ToLower(s); strings.HasPrefix(lower, "no.") {
		s = strings.TrimSpace(s[3:])
	}
	if s == "" {
		return "", "", ErrMissingNumber
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", "", ErrInvalidNumber
		}
	}
	display = model.DisplayNumber(s)
	return display, model.PadNumber(display), nil
}

// Normalizer builds canonical keys and entities. It holds no mutable state
// beyond its sink, whose lifetime is one pipeline run.
type Normalizer struct {
	gz   *gazetteer.Gazetteer
	loc  *locator.Resolver
	sink Sink
	log  *zap.Logger
}

// New creates a Normalizer. sink may be nil when rejections are only returned.
func New(gz *gazetteer.Gazetteer, loc *locator.Resolver, sink Sink, log *zap.Logger) (*Normalizer, error) {
	if gz == nil || gz.Len() == 0 {
		return nil, gazetteer.ErrEmpty
	}
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		var err error
		if loc, err = locator.New(gz, log); err != nil {
			return nil, err
		}
	}
	return &Normalizer{gz: gz, loc: loc, sink: sink, log: log}, nil
}

// Normalize builds the canonical key for one unit. When locality is empty the
// organization name is searched as a last resort. Failures are returned as
// *RejectedError and also sent to the sink.
func (n *Normalizer) Normalize(unitType, number, locality, organization string) (model.CanonicalKey, error) {
	return n.normalize(unitType, number, locality, organization, "", "")
}

func (n *Normalizer) normalize(unitType, number, locality, organization string, src model.Source, batch string) (model.CanonicalKey, error) {
	reject := func(reason string) (model.CanonicalKey, error) {
		r := model.Rejection{
			Type:         unitType,
			Number:       number,
			Locality:     locality,
			Organization: organization,
			Reason:       reason,
			Source:       src,
			Batch:        batch,
		}
		n.log.Warn("identity: rejected record",
			zap.String("type", unitType),
			zap.String("number", number),
			zap.String("locality", locality),
			zap.String("reason", reason),
		)
		if n.sink != nil {
			n.sink.Reject(r)
		}
		return model.CanonicalKey{}, &RejectedError{Rejection: r}
	}

	t, ok := ParseType(unitType)
	if !ok {
		return reject(ReasonUnknownType)
	}
	display, _, err := ParseNumber(number)
	if eris.Is(err, ErrMissingNumber) {
		return reject(ReasonMissingNumber)
	}
	if err != nil {
		return reject(ReasonInvalidNumber)
	}

	var canonical string
	if strings.TrimSpace(locality) == "" {
		out := n.loc.FromOrganization(organization)
		if !out.Found {
			return reject(ReasonNoLocality)
		}
		canonical = out.Value
	} else {
		c, ok := n.gz.Canonical(locality)
		if !ok {
			return reject(ReasonUnknownLocality)
		}
		canonical = c
	}

	return model.CanonicalKey{Type: t, Number: display, Locality: canonical}, nil
}

// Entity resolves and normalizes one raw record. A locality hint that is in
// the gazetteer is used directly; otherwise the locator cascade runs over the
// address, description, and organization fields.
func (n *Normalizer) Entity(raw model.RawRecord, src model.Source, batch string) (*model.Entity, error) {
	address := model.Val(raw.Address)
	org := model.Val(raw.Organization)

	locality := model.Val(raw.Locality)
	res := n.loc.Resolve(address, model.Val(raw.Description), org)
	if _, ok := n.gz.Canonical(locality); !ok && res.Found {
		locality = res.Value
	}

	key, err := n.normalize(model.Val(raw.Type), model.Val(raw.Number), locality, org, src, batch)
	if err != nil {
		return nil, err
	}

	location := address
	if location == "" {
		location = res.Location
	}

	e := &model.Entity{
		Key:          key,
		PaddedNumber: model.PadNumber(key.Number),
		District:     n.gz.District(key.Locality),
		LocationTown: n.loc.FromAddress(address).Value,
		CharteredOrg: org,
		Location:     location,
		Description:  model.Val(raw.Description),
		MeetingDay:   model.Val(raw.MeetingDay),
		MeetingTime:  model.Val(raw.MeetingTime),
		Specialty:    model.Val(raw.Specialty),
		Email:        model.Val(raw.Email),
		Phone:        model.Val(raw.Phone),
		Contact:      model.Val(raw.Contact),
		Website:      model.Val(raw.Website),
		Source:       src,
		Batch:        batch,
	}
	return e, nil
}
