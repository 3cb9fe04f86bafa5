package spotify

import (
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
)

// TrackFromFull converts a catalog track into a TrackRef.
func TrackFromFull(t *spotify.FullTrack) types.TrackRef {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return types.TrackRef{
		URI:         string(t.URI),
		ID:          string(t.ID),
		Name:        t.Name,
		Artists:     artists,
		DurationMs:  int(t.Duration),
		Explicit:    types.Bool(t.Explicit),
		Popularity:  types.Int(int(t.Popularity)),
		ReleaseDate: t.Album.ReleaseDate,
	}
}

// PlaybackStateFrom converts the player state. A nil state means nothing is active.
func PlaybackStateFrom(s *spotify.PlayerState) types.PlaybackState {
	if s == nil {
		return types.PlaybackState{RepeatState: types.RepeatOff}
	}

	state := types.PlaybackState{
		IsPlaying:    s.Playing,
		ShuffleState: s.ShuffleState,
		RepeatState:  s.RepeatState,
		DeviceID:     string(s.Device.ID),
	}
	if state.RepeatState == "" {
		state.RepeatState = types.RepeatOff
	}
	if s.Item != nil {
		track := TrackFromFull(s.Item)
		state.CurrentTrack = &track
		state.ProgressMs = types.Int64(int64(s.Progress))
	}
	if s.PlaybackContext.URI != "" {
		state.Context = &types.PlaybackContext{
			URI:  string(s.PlaybackContext.URI),
			Type: s.PlaybackContext.Type,
		}
	}
	return state
}

func summaryFrom(p spotify.SimplePlaylist) types.PlaylistSummary {
	return types.PlaylistSummary{
		ID:         string(p.ID),
		Name:       p.Name,
		URI:        string(p.URI),
		Owner:      p.Owner.ID,
		TrackCount: int(p.Tracks.Total),
	}
}
