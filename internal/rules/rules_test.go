package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/types"
)

func track(uri, name string, artists ...string) types.TrackRef {
	return types.TrackRef{URI: "spotify:track:" + uri, ID: uri, Name: name, Artists: artists, DurationMs: 200000}
}

func withPop(t types.TrackRef, pop int, explicit bool) types.TrackRef {
	t.Popularity = types.Int(pop)
	t.Explicit = types.Bool(explicit)
	return t
}

func TestDeduplicateTracks_ByURI(t *testing.T) {
	engine := NewEngine(nil)
	a := track("A", "Song A", "Artist")
	b := track("B", "Song B", "Artist")

	result := engine.DeduplicateTracks([]types.TrackRef{a, b, a}, types.Rules{DedupeBy: []types.DedupeKey{types.DedupeByURI}})

	assert.Equal(t, []types.TrackRef{a, b}, result.Deduped)
	assert.Equal(t, []types.TrackRef{a}, result.Removed)
}

func TestDeduplicateTracks_EmptyDedupeByIsIdentity(t *testing.T) {
	engine := NewEngine(nil)
	a := track("A", "Song A", "Artist")
	tracks := []types.TrackRef{a, a}

	result := engine.DeduplicateTracks(tracks, types.Rules{})

	assert.Equal(t, tracks, result.Deduped)
	assert.Empty(t, result.Removed)
}

func TestDeduplicateTracks_NameArtist(t *testing.T) {
	engine := NewEngine(nil)
	original := track("1", "Hey Jude", "The Beatles")
	remaster := track("2", "hey jude!", "the beatles")
	cover := track("3", "Hey Jude", "Wilson Pickett")
	featuring := track("4", "Song", "B", "A")
	reordered := track("5", "Song", "A", "B")

	result := engine.DeduplicateTracks(
		[]types.TrackRef{original, remaster, cover, featuring, reordered},
		types.Rules{DedupeBy: []types.DedupeKey{types.DedupeByNameArtist}},
	)

	assert.Equal(t, []types.TrackRef{original, cover, featuring}, result.Deduped)
	assert.Equal(t, []types.TrackRef{remaster, reordered}, result.Removed)
}

func TestDeduplicateTracks_AudioHashFallback(t *testing.T) {
	engine := NewEngine(nil)
	a := track("1", "Intro", "X")
	sameAudio := track("2", "Intro", "X")
	longer := track("3", "Intro", "X")
	longer.DurationMs = 300000

	result := engine.DeduplicateTracks([]types.TrackRef{a, sameAudio, longer}, types.Rules{DedupeBy: []types.DedupeKey{types.DedupeByAudioHash}})

	assert.Equal(t, []types.TrackRef{a, longer}, result.Deduped)
	assert.Equal(t, []types.TrackRef{sameAudio}, result.Removed)
}

func TestDeduplicateTracks_CompositeKey(t *testing.T) {
	engine := NewEngine(nil)
	a := track("1", "Same", "X")
	b := track("1", "Different", "X")
	rules := types.Rules{DedupeBy: []types.DedupeKey{types.DedupeByURI, types.DedupeByNameArtist}}

	result := engine.DeduplicateTracks([]types.TrackRef{a, b}, rules)

	assert.Len(t, result.Deduped, 2)
	assert.Empty(t, result.Removed)
}

func TestDeduplicateTracks_Idempotent(t *testing.T) {
	engine := NewEngine(nil)
	tracks := []types.TrackRef{
		track("1", "One", "A"), track("2", "Two", "B"), track("1", "One", "A"),
		track("3", "one", "a"), track("2", "Two", "B"), track("4", "Four", "C"),
	}
	ruleSets := []types.Rules{
		{DedupeBy: []types.DedupeKey{types.DedupeByURI}},
		{DedupeBy: []types.DedupeKey{types.DedupeByNameArtist}},
		{DedupeBy: []types.DedupeKey{types.DedupeByID, types.DedupeByAudioHash}},
	}

	for _, rules := range ruleSets {
		first := engine.DeduplicateTracks(tracks, rules)
		second := engine.DeduplicateTracks(first.Deduped, rules)
		assert.Empty(t, second.Removed)
		assert.Equal(t, first.Deduped, second.Deduped)
	}
}

func TestApplyConstraints_PopularityAndExplicit(t *testing.T) {
	engine := NewEngine(nil)
	t1 := withPop(track("T1", "T1", "A"), 50, false)
	t2 := withPop(track("T2", "T2", "B"), 20, false)
	t3 := withPop(track("T3", "T3", "C"), 80, true)
	t4 := withPop(track("T4", "T4", "D"), 60, false)

	result := engine.ApplyConstraints(
		[]types.TrackRef{t1, t2, t3, t4},
		types.Rules{MinPopularity: types.Int(30), AllowExplicit: types.Bool(false)},
	)

	assert.Equal(t, []types.TrackRef{t1, t4}, result.Accepted)
	assert.Equal(t, []types.Rejection{
		{Reason: ReasonPopularity, Item: t2},
		{Reason: ReasonExplicit, Item: t3},
	}, result.Rejected)
}

func TestApplyConstraints_JoinsReasons(t *testing.T) {
	engine := NewEngine(nil)
	bad := withPop(track("X", "X", "A"), 10, true)

	result := engine.ApplyConstraints([]types.TrackRef{bad}, types.Rules{MinPopularity: types.Int(30), AllowExplicit: types.Bool(false)})

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "popularity; explicit", result.Rejected[0].Reason)
}

func TestApplyConstraints_UnknownPopularityPasses(t *testing.T) {
	engine := NewEngine(nil)
	unknown := track("U", "U", "A")

	result := engine.ApplyConstraints([]types.TrackRef{unknown}, types.Rules{MinPopularity: types.Int(90)})

	assert.Equal(t, []types.TrackRef{unknown}, result.Accepted)
}

func TestApplyConstraints_ExplicitAllowedWhenUnset(t *testing.T) {
	engine := NewEngine(nil)
	explicit := withPop(track("E", "E", "A"), 50, true)

	result := engine.ApplyConstraints([]types.TrackRef{explicit}, types.Rules{})

	assert.Equal(t, []types.TrackRef{explicit}, result.Accepted)
	assert.Empty(t, result.Rejected)
}

func TestApplyConstraints_MaxTracksThenUniqueArtists(t *testing.T) {
	engine := NewEngine(nil)
	a1 := track("1", "One", "The Beatles")
	a2 := track("2", "Two", "Beatles")
	b1 := track("3", "Three", "Stones")
	c1 := track("4", "Four", "Who")

	result := engine.ApplyConstraints(
		[]types.TrackRef{a1, a2, b1, c1},
		types.Rules{MaxTracks: types.Int(3), UniqueArtists: true},
	)

	assert.Equal(t, []types.TrackRef{a1, b1}, result.Accepted)
	assert.Equal(t, []types.Rejection{
		{Reason: ReasonMaxTracks, Item: c1},
		{Reason: ReasonArtistRepeated, Item: a2},
	}, result.Rejected)
}

func TestApplyConstraints_UniqueArtistsKeepsCollaborationWithNewArtist(t *testing.T) {
	engine := NewEngine(nil)
	solo := track("1", "Solo", "A")
	collab := track("2", "Collab", "A", "B")
	again := track("3", "Again", "B")

	result := engine.ApplyConstraints([]types.TrackRef{solo, collab, again}, types.Rules{UniqueArtists: true})

	assert.Equal(t, []types.TrackRef{solo, collab}, result.Accepted)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, again, result.Rejected[0].Item)
}

func TestValidateRules(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name       string
		rules      types.Rules
		violations int
		rule       string
	}{
		{name: "empty", rules: types.Rules{}},
		{name: "valid", rules: types.Rules{MaxTracks: types.Int(10), MinPopularity: types.Int(0), DedupeBy: []types.DedupeKey{types.DedupeByURI}}},
		{name: "zero max tracks", rules: types.Rules{MaxTracks: types.Int(0)}, violations: 1, rule: "maxTracks"},
		{name: "popularity out of range", rules: types.Rules{MinPopularity: types.Int(101)}, violations: 1, rule: "minPopularity"},
		{name: "unknown dedupe key", rules: types.Rules{DedupeBy: []types.DedupeKey{"isrc"}}, violations: 1, rule: "dedupeBy"},
		{name: "duplicate dedupe key", rules: types.Rules{DedupeBy: []types.DedupeKey{types.DedupeByURI, types.DedupeByURI}}, violations: 1, rule: "dedupeBy"},
		{name: "several", rules: types.Rules{MaxTracks: types.Int(-1), MinPopularity: types.Int(-5)}, violations: 2, rule: "maxTracks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.ValidateRules(tt.rules)
			if tt.violations == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrRule))

			var e *errs.Error
			require.True(t, errors.As(err, &e))
			assert.Len(t, e.Violations, tt.violations)
			assert.Equal(t, tt.rule, e.Meta["rule"])
			assert.Equal(t, tt.violations, e.Meta["violation_count"])
		})
	}
}
