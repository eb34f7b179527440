// Package model defines the record, key, and result types shared by the
// roster reconciliation pipeline.
package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// UnitType is one of the fixed unit type vocabulary.
type UnitType string

// Known unit types, in canonical capitalization.
const (
	TypePack  UnitType = "Pack"
	TypeTroop UnitType = "Troop"
	TypeCrew  UnitType = "Crew"
	TypeShip  UnitType = "Ship"
	TypePost  UnitType = "Post"
	TypeClub  UnitType = "Club"
)

// UnitTypes lists the vocabulary in sort order.
var UnitTypes = []UnitType{TypePack, TypeTroop, TypeCrew, TypeShip, TypePost, TypeClub}

func (t UnitType) rank() int {
	for i, u := range UnitTypes {
		if u == t {
			return i
		}
	}
	return len(UnitTypes)
}

// Source identifies which collaborator produced a record.
type Source string

const (
	// SourceRoster is the authoritative administrative roster.
	SourceRoster Source = "roster"
	// SourceListing is the set of records collected from listing pages.
	SourceListing Source = "listing"
)

// ParseSource maps a CLI or API value onto a Source.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "roster", "authoritative":
		return SourceRoster, nil
	case "listing", "collected":
		return SourceListing, nil
	default:
		return "", eris.Errorf("model: unknown source %q (want roster or listing)", s)
	}
}

// NumberWidth is the zero-padded width of the internal unit number form.
const NumberWidth = 4

// PadNumber converts a display number into the fixed-width internal form.
// Numbers longer than NumberWidth are returned unchanged.
func PadNumber(display string) string {
	if len(display) >= NumberWidth {
		return display
	}
	return strings.Repeat("0", NumberWidth-len(display)) + display
}

// DisplayNumber strips zero padding down to a minimum of one digit.
func DisplayNumber(padded string) string {
	d := strings.TrimLeft(padded, "0")
	if d == "" {
		return "0"
	}
	return d
}

// CanonicalKey identifies one unit across both sources.
type CanonicalKey struct {
	Type     UnitType `json:"type"`
	Number   string   `json:"number"`
	Locality string   `json:"locality"`
}

// String renders the key as "Troop 7 Acton".
func (k CanonicalKey) String() string {
	return fmt.Sprintf("%s %s %s", k.Type, k.Number, k.Locality)
}

// SortKey renders the key with the padded number, used for stable ordering
// and log correlation.
func (k CanonicalKey) SortKey() string {
	return fmt.Sprintf("%s %s %s", k.Type, PadNumber(k.Number), k.Locality)
}

// Less orders keys by type vocabulary, padded number, then locality.
func (k CanonicalKey) Less(o CanonicalKey) bool {
	if k.Type != o.Type {
		return k.Type.rank() < o.Type.rank()
	}
	if pk, po := PadNumber(k.Number), PadNumber(o.Number); pk != po {
		if len(pk) != len(po) {
			return len(pk) < len(po)
		}
		return pk < po
	}
	return k.Locality < o.Locality
}

// Entity is a normalized unit. Values are built by the identity package and
// never mutated afterwards; re-resolving a record yields a new Entity.
type Entity struct {
	Key CanonicalKey `json:"key"`

	// PaddedNumber is the fixed-width form of Key.Number.
	PaddedNumber string `json:"padded_number"`
	// District is derived from the territorial parent of Key.Locality.
	District string `json:"district"`
	// LocationTown is the locality resolved from the location text alone,
	// empty when the location names no known locality.
	LocationTown string `json:"location_town,omitempty"`

	CharteredOrg string `json:"chartered_org,omitempty"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
	MeetingDay   string `json:"meeting_day,omitempty"`
	MeetingTime  string `json:"meeting_time,omitempty"`
	Specialty    string `json:"specialty,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Contact      string `json:"contact,omitempty"`
	Website      string `json:"website,omitempty"`

	Source Source `json:"source"`
	// Batch names the input batch the entity came from.
	Batch string `json:"batch,omitempty"`
}
