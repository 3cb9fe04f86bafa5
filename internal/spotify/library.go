package spotify

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/library"
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

// LibraryExecutor is the catalog-backed library.Store.
type LibraryExecutor struct {
	caller
}

var _ library.Store = (*LibraryExecutor)(nil)

// NewLibraryExecutor creates a LibraryExecutor.
func NewLibraryExecutor(api API, limiter *rate.Limiter, logger *log.Logger) *LibraryExecutor {
	return &LibraryExecutor{caller: newCaller(api, limiter, logger)}
}

// SavedTracks returns one page of the user's saved tracks. limit is clamped to
// [1, 50] and offset is floored at 0.
func (l *LibraryExecutor) SavedTracks(ctx context.Context, limit, offset int) ([]types.TrackRef, error) {
	limit, offset = library.ClampPagination(limit, offset)

	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	page, err := l.api.CurrentUsersTracks(ctx, spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("failed to get saved tracks: %w", err)
	}

	tracks := make([]types.TrackRef, 0, len(page.Tracks))
	for i := range page.Tracks {
		tracks = append(tracks, TrackFromFull(&page.Tracks[i].FullTrack))
	}
	return tracks, nil
}

// SavedTrackIDs walks every page of the user's saved tracks.
func (l *LibraryExecutor) SavedTrackIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += library.MaxPageLimit {
		tracks, err := l.SavedTracks(ctx, library.MaxPageLimit, offset)
		if err != nil {
			return nil, err
		}
		for _, t := range tracks {
			ids = append(ids, t.ID)
		}
		if len(tracks) < library.MaxPageLimit {
			break
		}
	}

	l.logger.WithFields(log.Fields{
		"component": "spotify_library",
		"operation": "saved_track_ids",
		"count":     len(ids),
	}).Debug("Retrieved saved tracks")

	return ids, nil
}

// ContainsTracks reports, per id, whether it is saved.
func (l *LibraryExecutor) ContainsTracks(ctx context.Context, ids []string) ([]bool, error) {
	if len(ids) > types.MaxIDsPerLibraryRequest {
		return nil, fmt.Errorf("at most %d ids per request, got %d", types.MaxIDsPerLibraryRequest, len(ids))
	}
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	saved, err := l.api.UserHasTracks(ctx, toIDs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to check saved tracks: %w", err)
	}
	return saved, nil
}

// SaveTracks saves up to 50 tracks.
func (l *LibraryExecutor) SaveTracks(ctx context.Context, ids []string) error {
	if len(ids) > types.MaxIDsPerLibraryRequest {
		return fmt.Errorf("at most %d ids per request, got %d", types.MaxIDsPerLibraryRequest, len(ids))
	}
	if err := l.wait(ctx); err != nil {
		return err
	}
	if err := l.api.AddTracksToLibrary(ctx, toIDs(ids)...); err != nil {
		return fmt.Errorf("failed to save tracks: %w", err)
	}
	return nil
}

// RemoveTracks removes up to 50 tracks.
func (l *LibraryExecutor) RemoveTracks(ctx context.Context, ids []string) error {
	if len(ids) > types.MaxIDsPerLibraryRequest {
		return fmt.Errorf("at most %d ids per request, got %d", types.MaxIDsPerLibraryRequest, len(ids))
	}
	if err := l.wait(ctx); err != nil {
		return err
	}
	if err := l.api.RemoveTracksFromLibrary(ctx, toIDs(ids)...); err != nil {
		return fmt.Errorf("failed to remove tracks: %w", err)
	}
	return nil
}
