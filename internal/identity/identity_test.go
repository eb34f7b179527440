package identity

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/council-ops/unit-roster/internal/gazetteer"
	"github.com/council-ops/unit-roster/internal/model"
)

type memSink struct {
	got []model.Rejection
}

func (m *memSink) Reject(r model.Rejection) { m.got = append(m.got, r) }

func newTestNormalizer(t *testing.T) (*Normalizer, *memSink) {
	t.Helper()
	sink := &memSink{}
	n, err := New(gazetteer.Default(), nil, sink, nil)
	require.NoError(t, err)
	return n, sink
}

func str(s string) *string { return &s }

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want model.UnitType
		ok   bool
	}{
		{"Troop", model.TypeTroop, true},
		{"PACK", model.TypePack, true},
		{"Cub Scout Pack", model.TypePack, true},
		{"Venturing Crew", model.TypeCrew, true},
		{"Sea Scout Ship.", model.TypeShip, true},
		{"  post ", model.TypePost, true},
		{"Brigade", "", false},
		{"Pack Meeting", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		display string
		padded  string
		err     error
	}{
		{"7", "7", "0007", nil},
		{"0007", "7", "0007", nil},
		{"#12", "12", "0012", nil},
		{"No. 192", "192", "0192", nil},
		{" 1234 ", "1234", "1234", nil},
		{"12345", "12345", "12345", nil},
		{"0", "0", "0000", nil},
		{"", "", "", ErrMissingNumber},
		{"#", "", "", ErrMissingNumber},
		{"7A", "", "", ErrInvalidNumber},
		{"seven", "", "", ErrInvalidNumber},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			display, padded, err := ParseNumber(tt.in)
			if tt.err != nil {
				assert.True(t, eris.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.display, display)
			assert.Equal(t, tt.padded, padded)
		})
	}
}

func TestNew_EmptyGazetteer(t *testing.T) {
	_, err := New(nil, nil, nil, nil)
	assert.True(t, eris.Is(err, gazetteer.ErrEmpty))
}

func TestNormalize(t *testing.T) {
	n, sink := newTestNormalizer(t)

	tests := []struct {
		name                       string
		unitType, number, loc, org string
		want                       model.CanonicalKey
	}{
		{"plain", "Troop", "7", "Acton", "", model.CanonicalKey{Type: model.TypeTroop, Number: "7", Locality: "Acton"}},
		{"padded number", "troop", "0007", "acton", "", model.CanonicalKey{Type: model.TypeTroop, Number: "7", Locality: "Acton"}},
		{"alias locality", "Cub Scout Pack", "#12", "W. Boylston", "", model.CanonicalKey{Type: model.TypePack, Number: "12", Locality: "West Boylston"}},
		{"village kept", "Crew", "9", "fiskdale", "", model.CanonicalKey{Type: model.TypeCrew, Number: "9", Locality: "Fiskdale"}},
		{"locality from organization", "Pack", "3", "", "First Parish Church of Stow", model.CanonicalKey{Type: model.TypePack, Number: "3", Locality: "Stow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.unitType, tt.number, tt.loc, tt.org)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Empty(t, sink.got)
}

func TestNormalize_Idempotent(t *testing.T) {
	n, _ := newTestNormalizer(t)

	first, err := n.Normalize("Troop", "0192", "W Boylston", "")
	require.NoError(t, err)
	again, err := n.Normalize(string(first.Type), model.PadNumber(first.Number), first.Locality, "")
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name                       string
		unitType, number, loc, org string
		reason                     string
	}{
		{"unknown type", "Brigade", "4", "Acton", "", ReasonUnknownType},
		{"missing number", "Troop", "", "Acton", "", ReasonMissingNumber},
		{"non numeric number", "Troop", "7B", "Acton", "", ReasonInvalidNumber},
		{"no locality anywhere", "Troop", "7", "", "Lions Club", ReasonNoLocality},
		{"unknown locality", "Troop", "7", "Springfield", "", ReasonUnknownLocality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, sink := newTestNormalizer(t)

			key, err := n.Normalize(tt.unitType, tt.number, tt.loc, tt.org)
			require.Error(t, err)
			assert.Equal(t, model.CanonicalKey{}, key)

			var rej *RejectedError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.reason, rej.Reason)
			assert.Equal(t, tt.unitType, rej.Type)
			assert.Contains(t, err.Error(), tt.reason)

			require.Len(t, sink.got, 1)
			assert.Equal(t, rej.Rejection, sink.got[0])
		})
	}
}

func TestNormalize_NilSink(t *testing.T) {
	n, err := New(gazetteer.Default(), nil, nil, nil)
	require.NoError(t, err)
	_, err = n.Normalize("Brigade", "1", "Acton", "")
	assert.Error(t, err)
}

func TestEntity(t *testing.T) {
	n, _ := newTestNormalizer(t)

	raw := model.RawRecord{
		Type:         str("Troop"),
		Number:       str("0007"),
		Organization: str("Acton Lions Club"),
		Address:      str("12 Main St, Acton, MA 01720"),
		MeetingDay:   str("Tuesday"),
		Email:        str("troop7@actonscouts.org"),
	}
	e, err := n.Entity(raw, model.SourceRoster, "roster")
	require.NoError(t, err)

	assert.Equal(t, model.CanonicalKey{Type: model.TypeTroop, Number: "7", Locality: "Acton"}, e.Key)
	assert.Equal(t, "0007", e.PaddedNumber)
	assert.Equal(t, gazetteer.DistrictNashoba, e.District)
	assert.Equal(t, "Acton", e.LocationTown)
	assert.Equal(t, "12 Main St, Acton, MA 01720", e.Location)
	assert.Equal(t, "Tuesday", e.MeetingDay)
	assert.Equal(t, model.SourceRoster, e.Source)
	assert.Equal(t, "roster", e.Batch)
}

func TestEntity_KnownHintWins(t *testing.T) {
	n, _ := newTestNormalizer(t)

	raw := model.RawRecord{
		Type:     str("Pack"),
		Number:   str("5"),
		Locality: str("Fiskdale"),
		Address:  str("40 Main St, Sturbridge, MA 01566"),
	}
	e, err := n.Entity(raw, model.SourceListing, "")
	require.NoError(t, err)
	assert.Equal(t, "Fiskdale", e.Key.Locality)
	assert.Equal(t, gazetteer.DistrictQuinebaug, e.District)
	assert.Equal(t, "Sturbridge", e.LocationTown)
}

func TestEntity_UnknownHintReplaced(t *testing.T) {
	n, _ := newTestNormalizer(t)

	raw := model.RawRecord{
		Type:        str("Crew"),
		Number:      str("9"),
		Locality:    str("Central Mass"),
		Description: str("Venturing crew serving Holden youth"),
	}
	e, err := n.Entity(raw, model.SourceListing, "")
	require.NoError(t, err)
	assert.Equal(t, "Holden", e.Key.Locality)
	assert.Empty(t, e.LocationTown)
}

func TestEntity_StreetOnlyLocation(t *testing.T) {
	n, _ := newTestNormalizer(t)

	raw := model.RawRecord{
		Type:         str("Troop"),
		Number:       str("1"),
		Organization: str("Stow Grange"),
		Address:      str("5 Crescent St"),
	}
	e, err := n.Entity(raw, model.SourceRoster, "")
	require.NoError(t, err)
	assert.Equal(t, "Stow", e.Key.Locality)
	assert.Equal(t, "5 Crescent St", e.Location)
	assert.Empty(t, e.LocationTown)
}

func TestEntity_Rejected(t *testing.T) {
	n, sink := newTestNormalizer(t)

	raw := model.RawRecord{Type: str("Troop"), Organization: str("Lions Club")}
	_, err := n.Entity(raw, model.SourceListing, "listing-1")
	require.Error(t, err)

	require.Len(t, sink.got, 1)
	assert.Equal(t, ReasonMissingNumber, sink.got[0].Reason)
	assert.Equal(t, model.SourceListing, sink.got[0].Source)
	assert.Equal(t, "listing-1", sink.got[0].Batch)
}
