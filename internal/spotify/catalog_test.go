package spotify

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toozej/curator/internal/search"
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
)

func newTestCatalog(api API) *Catalog {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewCatalog(api, nil, "US", logger)
}

func playlistSummary(id, name, owner string) spotify.SimplePlaylist {
	var p spotify.SimplePlaylist
	p.ID = spotify.ID(id)
	p.Name = name
	p.URI = spotify.URI("spotify:playlist:" + id)
	p.Owner.ID = owner
	p.Tracks.Total = 3
	return p
}

func TestTrackFromFull(t *testing.T) {
	ft := fullTrack("abc", "Song", "Artist")
	ft.Explicit = true

	got := TrackFromFull(&ft)
	assert.Equal(t, "spotify:track:abc", got.URI)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "Song", got.Name)
	assert.Equal(t, []string{"Artist"}, got.Artists)
	assert.Equal(t, 200000, got.DurationMs)
	assert.True(t, got.IsExplicit())
	require.NotNil(t, got.Popularity)
	assert.Equal(t, 60, *got.Popularity)
	assert.Equal(t, "2020-05-01", got.ReleaseDate)
	assert.NoError(t, got.Validate())
}

func TestCatalog_PlaylistTracks(t *testing.T) {
	api := newFakeAPI()
	seedPlaylist(api, "p1", fullTrack("a", "A", "A"), fullTrack("b", "B", "B"))

	tracks, err := newTestCatalog(api).PlaylistTracks(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, types.URIs(tracks))
	assert.Equal(t, 1, api.count("GetPlaylistItems"))
}

func TestCatalog_UserPlaylists(t *testing.T) {
	api := newFakeAPI()
	api.owned = []spotify.SimplePlaylist{
		playlistSummary("p1", "Road Trip", "me"),
		playlistSummary("p2", "Discover Weekly", "spotify"),
		playlistSummary("p3", "Focus", "me"),
	}

	playlists, err := newTestCatalog(api).UserPlaylists(context.Background())
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	assert.Equal(t, types.PlaylistSummary{
		ID: "p1", Name: "Road Trip", URI: "spotify:playlist:p1", Owner: "me", TrackCount: 3,
	}, playlists[0])
	assert.Equal(t, "Focus", playlists[1].Name)
}

func TestCatalog_SearchTracks(t *testing.T) {
	api := newFakeAPI()
	api.results = []spotify.FullTrack{fullTrack("a", "So What", "Miles Davis")}
	c := newTestCatalog(api)

	tracks, err := c.SearchTracks(context.Background(), types.IntentCriteria{Genres: []string{"jazz"}, YearFrom: 1950, YearTo: 1959}, 200)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
	assert.Equal(t, `genre:"jazz" year:1950-1959`, api.lastQuery)

	_, err = c.SearchTracks(context.Background(), types.IntentCriteria{}, 10)
	assert.Error(t, err)

	api.results = nil
	tracks, err = c.SearchTracks(context.Background(), types.IntentCriteria{Query: "nothing"}, 10)
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestCatalog_ResolveTarget(t *testing.T) {
	api := newFakeAPI()
	api.owned = []spotify.SimplePlaylist{
		playlistSummary("p1", "Road Trip", "me"),
		playlistSummary("p3", "Focus", "me"),
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	match, err := newTestCatalog(api).ResolveTarget(context.Background(), "road trip", search.NewFuzzySearcher(logger))
	require.NoError(t, err)
	assert.Equal(t, "p1", match.Playlist.ID)
}
