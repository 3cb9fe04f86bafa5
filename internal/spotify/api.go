package spotify

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

// API is the subset of *spotify.Client the executors and fetchers call.
type API interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error)
	CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error)
	GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
	RemoveTracksFromPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
	ReorderPlaylistTracks(ctx context.Context, playlistID spotify.ID, opt spotify.PlaylistReorderOptions) (string, error)
	ChangePlaylistName(ctx context.Context, playlistID spotify.ID, newName string) error
	ChangePlaylistDescription(ctx context.Context, playlistID spotify.ID, newDescription string) error
	CurrentUsersTracks(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SavedTrackPage, error)
	UserHasTracks(ctx context.Context, ids ...spotify.ID) ([]bool, error)
	AddTracksToLibrary(ctx context.Context, ids ...spotify.ID) error
	RemoveTracksFromLibrary(ctx context.Context, ids ...spotify.ID) error
	PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error)
	PlayOpt(ctx context.Context, opt *spotify.PlayOptions) error
	PauseOpt(ctx context.Context, opt *spotify.PlayOptions) error
	NextOpt(ctx context.Context, opt *spotify.PlayOptions) error
	PreviousOpt(ctx context.Context, opt *spotify.PlayOptions) error
	SeekOpt(ctx context.Context, position int, opt *spotify.PlayOptions) error
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
}

var _ API = (*spotify.Client)(nil)

// NewLimiter returns a limiter allowing perSecond calls a second. A non-positive rate
// disables pacing.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// caller carries what every adapter needs: the API, a shared limiter and a logger.
type caller struct {
	api     API
	limiter *rate.Limiter
	logger  *log.Logger
}

func newCaller(api API, limiter *rate.Limiter, logger *log.Logger) caller {
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return caller{api: api, limiter: limiter, logger: logger}
}

// wait blocks until the limiter admits one more call.
func (c caller) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// trackID returns the catalog id of a track, falling back to the id part of its URI.
func trackID(t types.TrackRef) (spotify.ID, error) {
	if t.ID != "" {
		return spotify.ID(t.ID), nil
	}
	u, err := normalize.ParseURI(t.URI)
	if err != nil {
		return "", err
	}
	if u.Type != "track" {
		return "", fmt.Errorf("uri %q is not a track", t.URI)
	}
	return spotify.ID(u.ID), nil
}

func trackIDs(tracks []types.TrackRef) ([]spotify.ID, error) {
	ids := make([]spotify.ID, len(tracks))
	for i, t := range tracks {
		id, err := trackID(t)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}
