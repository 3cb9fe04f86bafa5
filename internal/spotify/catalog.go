package spotify

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/library"
	"github.com/toozej/curator/internal/playlist"
	"github.com/toozej/curator/internal/search"
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

// Page sizes used when walking paged endpoints.
const (
	playlistPageSize = 100
	searchPageSize   = 50
)

// Catalog reads playlists, playlist items and search results as engine types.
type Catalog struct {
	caller
	market string
}

// NewCatalog creates a Catalog. market is an ISO country code and may be empty.
func NewCatalog(api API, limiter *rate.Limiter, market string, logger *log.Logger) *Catalog {
	return &Catalog{caller: newCaller(api, limiter, logger), market: market}
}

// PlaylistTracks returns every track of a playlist in order. Episodes and unavailable
// items are skipped.
func (c *Catalog) PlaylistTracks(ctx context.Context, playlistID string) ([]types.TrackRef, error) {
	var tracks []types.TrackRef
	offset := 0

	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(playlistPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("failed to get playlist items: %w", err)
		}

		for i := range page.Items {
			if page.Items[i].Track.Track != nil {
				tracks = append(tracks, TrackFromFull(page.Items[i].Track.Track))
			}
		}

		if len(page.Items) < playlistPageSize {
			break
		}
		offset += playlistPageSize
	}

	c.logger.WithFields(log.Fields{
		"component":   "spotify_catalog",
		"operation":   "playlist_tracks",
		"playlist_id": playlistID,
		"count":       len(tracks),
	}).Debug("Retrieved playlist tracks")

	return tracks, nil
}

// UserPlaylists returns the playlists owned by the current user.
func (c *Catalog) UserPlaylists(ctx context.Context) ([]types.PlaylistSummary, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	var playlists []types.PlaylistSummary
	offset := 0
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, err := c.api.CurrentUsersPlaylists(ctx,
			spotify.Limit(library.MaxPageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("failed to get user playlists: %w", err)
		}

		for _, p := range page.Playlists {
			if p.Owner.ID == user.ID {
				playlists = append(playlists, summaryFrom(p))
			}
		}

		if len(page.Playlists) < library.MaxPageLimit {
			break
		}
		offset += library.MaxPageLimit
	}

	c.logger.WithFields(log.Fields{
		"component": "spotify_catalog",
		"operation": "user_playlists",
		"user_id":   user.ID,
		"count":     len(playlists),
	}).Debug("Filtered to user-owned playlists")

	return playlists, nil
}

// SearchTracks runs a track search built from intent criteria and returns at most
// limit results.
func (c *Catalog) SearchTracks(ctx context.Context, criteria types.IntentCriteria, limit int) ([]types.TrackRef, error) {
	query := playlist.SearchQuery(criteria)
	if query == "" {
		return nil, fmt.Errorf("no search criteria")
	}
	limit, _ = library.ClampPagination(limit, 0)
	if limit > searchPageSize {
		limit = searchPageSize
	}

	opts := []spotify.RequestOption{spotify.Limit(limit)}
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	results, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	if results.Tracks == nil {
		return []types.TrackRef{}, nil
	}

	tracks := make([]types.TrackRef, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		tracks = append(tracks, TrackFromFull(&results.Tracks.Tracks[i]))
	}

	c.logger.WithFields(log.Fields{
		"component": "spotify_catalog",
		"operation": "search_tracks",
		"query":     query,
		"count":     len(tracks),
	}).Debug("Track search completed")

	return tracks, nil
}

// ResolveTarget finds the user's playlist named by an append or update intent.
func (c *Catalog) ResolveTarget(ctx context.Context, target string, searcher *search.FuzzySearcher) (*search.PlaylistMatch, error) {
	playlists, err := c.UserPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	return searcher.ResolvePlaylist(target, playlists)
}
