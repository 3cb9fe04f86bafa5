package spotify

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

// PlayerExecutor reads the player state and sends playback commands.
type PlayerExecutor struct {
	caller
}

// NewPlayerExecutor creates a PlayerExecutor.
func NewPlayerExecutor(api API, limiter *rate.Limiter, logger *log.Logger) *PlayerExecutor {
	return &PlayerExecutor{caller: newCaller(api, limiter, logger)}
}

// FetchPlaybackState returns the current player state.
func (p *PlayerExecutor) FetchPlaybackState(ctx context.Context) (types.PlaybackState, error) {
	if err := p.wait(ctx); err != nil {
		return types.PlaybackState{}, err
	}
	state, err := p.api.PlayerState(ctx)
	if err != nil {
		return types.PlaybackState{}, fmt.Errorf("failed to get player state: %w", err)
	}
	return PlaybackStateFrom(state), nil
}

// Execute sends cmd to the player. A play command with a position seeks after starting.
func (p *PlayerExecutor) Execute(ctx context.Context, cmd types.PlaybackCommand) error {
	opts := &spotify.PlayOptions{}
	if cmd.DeviceID != "" {
		device := spotify.ID(cmd.DeviceID)
		opts.DeviceID = &device
	}

	if err := p.wait(ctx); err != nil {
		return err
	}

	var err error
	switch cmd.Type {
	case types.CommandPlay:
		if cmd.ContextURI != "" {
			uri := spotify.URI(cmd.ContextURI)
			opts.PlaybackContext = &uri
			if cmd.TrackURI != "" {
				opts.PlaybackOffset = &spotify.PlaybackOffset{URI: spotify.URI(cmd.TrackURI)}
			}
		} else if cmd.TrackURI != "" {
			opts.URIs = []spotify.URI{spotify.URI(cmd.TrackURI)}
		}
		err = p.api.PlayOpt(ctx, opts)
		if err == nil && cmd.PositionMs != nil && *cmd.PositionMs > 0 {
			if err = p.wait(ctx); err == nil {
				err = p.api.SeekOpt(ctx, int(*cmd.PositionMs), opts)
			}
		}
	case types.CommandPause:
		err = p.api.PauseOpt(ctx, opts)
	case types.CommandNext:
		err = p.api.NextOpt(ctx, opts)
	case types.CommandPrevious:
		err = p.api.PreviousOpt(ctx, opts)
	case types.CommandSeek:
		if cmd.PositionMs == nil {
			return fmt.Errorf("seek command needs a position")
		}
		err = p.api.SeekOpt(ctx, int(*cmd.PositionMs), opts)
	default:
		return fmt.Errorf("unsupported playback command %q", cmd.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmd.Type, err)
	}

	p.logger.WithFields(log.Fields{
		"component":   "spotify_player",
		"operation":   "execute",
		"command":     cmd.Type,
		"context_uri": cmd.ContextURI,
		"track_uri":   cmd.TrackURI,
	}).Info("Playback command sent")

	return nil
}
