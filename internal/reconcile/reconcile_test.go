package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/council-ops/unit-roster/internal/gazetteer"
	"github.com/council-ops/unit-roster/internal/model"
)

func key(t model.UnitType, n, loc string) model.CanonicalKey {
	return model.CanonicalKey{Type: t, Number: n, Locality: loc}
}

func complete(k model.CanonicalKey) model.Entity {
	return model.Entity{
		Key:         k,
		Location:    "12 Main St, " + k.Locality + ", MA 01720",
		MeetingDay:  "Monday",
		MeetingTime: "7:00 PM",
		Email:       "leader@example.org",
	}
}

func TestReconcile_Partition(t *testing.T) {
	r := New(gazetteer.Default())

	troop7 := key(model.TypeTroop, "7", "Acton")
	pack12 := key(model.TypePack, "12", "Stow")
	crew9 := key(model.TypeCrew, "9", "Holden")
	troop100 := key(model.TypeTroop, "100", "Acton")

	auth := []model.Entity{complete(troop7), complete(troop100), complete(pack12)}
	coll := []model.Entity{complete(crew9), complete(troop7)}

	out := r.Reconcile(auth, coll)
	require.Len(t, out, 4)

	// Sorted by type vocabulary, then numeric order.
	assert.Equal(t, pack12, out[0].Key)
	assert.Equal(t, troop7, out[1].Key)
	assert.Equal(t, troop100, out[2].Key)
	assert.Equal(t, crew9, out[3].Key)

	assert.Equal(t, model.AuthoritativeOnly, out[0].Kind)
	assert.NotNil(t, out[0].Authoritative)
	assert.Nil(t, out[0].Collected)

	assert.Equal(t, model.BothSources, out[1].Kind)
	assert.NotNil(t, out[1].Authoritative)
	assert.NotNil(t, out[1].Collected)
	assert.Empty(t, out[1].Issues)

	assert.Equal(t, model.CollectedOnly, out[3].Kind)
	assert.Nil(t, out[3].Authoritative)
	assert.NotNil(t, out[3].Collected)

	s := Summarize(out)
	assert.Equal(t, Summary{Both: 1, AuthoritativeOnly: 2, CollectedOnly: 1}, s)
	assert.Equal(t, len(auth)+1, s.Both+s.AuthoritativeOnly+s.CollectedOnly)
}

func TestReconcile_FirstDuplicateWins(t *testing.T) {
	r := New(nil)
	k := key(model.TypeTroop, "7", "Acton")

	first := complete(k)
	first.Email = "first@example.org"
	second := complete(k)
	second.Email = "second@example.org"

	out := r.Reconcile(nil, []model.Entity{first, second})
	require.Len(t, out, 1)
	assert.Equal(t, "first@example.org", out[0].Collected.Email)
}

func TestReconcile_Empty(t *testing.T) {
	out := New(nil).Reconcile(nil, nil)
	assert.Empty(t, out)
	assert.Equal(t, Summary{}, Summarize(out))
}

func TestCheck_MissingFields(t *testing.T) {
	r := New(gazetteer.Default())
	k := key(model.TypePack, "7", "Acton")
	auth := complete(k)
	coll := model.Entity{Key: k}

	issues := r.Check(&auth, &coll)
	assert.Equal(t, []string{
		IssueMissingLocation,
		IssueMissingMeetingDay,
		IssueMissingMeetingTime,
		IssueMissingEmail,
	}, issues)
}

func TestCheck_LocalityMismatch(t *testing.T) {
	r := New(gazetteer.Default())
	k := key(model.TypeTroop, "7", "Acton")

	auth := complete(k)
	auth.Location = "12 Main St, Acton, MA 01720"
	auth.LocationTown = "Acton"

	coll := complete(k)
	coll.Location = "5 Crescent St, Stow, MA 01775"
	coll.LocationTown = "Stow"

	issues := r.Check(&auth, &coll)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "locality mismatch")
	assert.Contains(t, issues[0], "Stow")
}

func TestCheck_VillageMatchesParent(t *testing.T) {
	r := New(gazetteer.Default())
	k := key(model.TypePack, "5", "Sturbridge")

	auth := complete(k)
	auth.LocationTown = "Sturbridge"
	coll := complete(k)
	coll.LocationTown = "Fiskdale"

	assert.Empty(t, r.Check(&auth, &coll))
}

func TestCheck_NoGazetteerSkipsLocality(t *testing.T) {
	r := New(nil)
	k := key(model.TypeTroop, "7", "Acton")

	auth := complete(k)
	auth.LocationTown = "Acton"
	coll := complete(k)
	coll.LocationTown = "Stow"

	assert.Empty(t, r.Check(&auth, &coll))
}

func TestSummarize_WithIssues(t *testing.T) {
	out := []model.Outcome{
		{Kind: model.BothSources, Issues: []string{IssueMissingEmail}},
		{Kind: model.BothSources},
		{Kind: model.CollectedOnly},
	}
	assert.Equal(t, Summary{Both: 2, CollectedOnly: 1, WithIssues: 1}, Summarize(out))
}
