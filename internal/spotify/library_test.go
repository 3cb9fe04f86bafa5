package spotify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toozej/curator/internal/library"
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
)

func newTestLibrary(api API) *LibraryExecutor {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewLibraryExecutor(api, nil, logger)
}

func TestLibraryExecutor_SavedTracks(t *testing.T) {
	api := newFakeAPI()
	api.saved = []spotify.FullTrack{fullTrack("a", "A", "A"), fullTrack("b", "B", "B")}
	l := newTestLibrary(api)

	tracks, err := l.SavedTracks(context.Background(), 500, -3)
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, types.URIs(tracks))

	ids, err := l.SavedTrackIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestLibraryExecutor_BatchCeiling(t *testing.T) {
	api := newFakeAPI()
	l := newTestLibrary(api)

	ids := make([]string, types.MaxIDsPerLibraryRequest+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}

	_, err := l.ContainsTracks(context.Background(), ids)
	assert.Error(t, err)
	assert.Error(t, l.SaveTracks(context.Background(), ids))
	assert.Error(t, l.RemoveTracks(context.Background(), ids))
	assert.Empty(t, api.calls)
}

func TestLibraryExecutor_WithService(t *testing.T) {
	api := newFakeAPI()
	api.saved = []spotify.FullTrack{fullTrack("keep", "K", "K"), fullTrack("drop", "D", "D")}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	service := library.NewService(newTestLibrary(api), logger)

	desired := []string{"keep"}
	for i := 0; i < 60; i++ {
		desired = append(desired, fmt.Sprintf("new%02d", i))
	}

	diff, err := service.Plan(context.Background(), desired, true)
	require.NoError(t, err)
	assert.Len(t, diff.ToSave, 60)
	assert.Equal(t, []string{"drop"}, diff.ToRemove)

	require.NoError(t, service.Apply(context.Background(), diff))
	assert.Equal(t, 2, api.count("AddTracksToLibrary"))
	assert.Equal(t, 1, api.count("RemoveTracksFromLibrary"))

	saved, err := service.CheckSaved(context.Background(), []string{"keep", "drop", "new59"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"keep": true, "drop": false, "new59": true}, saved)
}

func TestLibraryExecutor_Errors(t *testing.T) {
	api := newFakeAPI()
	api.failOn["CurrentUsersTracks"] = errors.New("unauthorized")
	api.failOn["AddTracksToLibrary"] = errors.New("unauthorized")
	l := newTestLibrary(api)

	_, err := l.SavedTrackIDs(context.Background())
	assert.ErrorContains(t, err, "unauthorized")
	assert.ErrorContains(t, l.SaveTracks(context.Background(), []string{"a"}), "failed to save tracks")
}
