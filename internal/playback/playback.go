// Package playback decides which player command, if any, satisfies a requested action
// given a snapshot of the player. Decisions are pure and hold no state between calls.
package playback

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
)

// RestartThresholdMs is the progress beyond which "previous" restarts the current track.
const RestartThresholdMs = 3000

// Decision reasons for no-ops.
const (
	ReasonAlreadyPlaying = "already playing the requested content"
	ReasonAlreadyPaused  = "playback is already paused"
)

// Decider maps (state, action, options) to a PlaybackDecision.
type Decider struct {
	logger *log.Logger
}

// NewDecider creates a decider. A nil logger discards output.
func NewDecider(logger *log.Logger) *Decider {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &Decider{logger: logger}
}

// Validate checks the action, every supplied URI and the position before any state is
// inspected.
func Validate(action types.PlaybackAction, opts types.PlaybackOptions) error {
	var violations []string
	switch action {
	case types.PlaybackPlay, types.PlaybackPause, types.PlaybackNext, types.PlaybackPrevious:
	default:
		violations = append(violations, fmt.Sprintf("unknown action %q: must be play, pause, next or previous", action))
	}
	if opts.ContextURI != "" && !normalize.IsValidURI(opts.ContextURI) {
		violations = append(violations, fmt.Sprintf("invalid context uri %q", opts.ContextURI))
	}
	if opts.TrackURI != "" && !normalize.IsValidURI(opts.TrackURI) {
		violations = append(violations, fmt.Sprintf("invalid track uri %q", opts.TrackURI))
	}
	if opts.PositionMs != nil && *opts.PositionMs < 0 {
		violations = append(violations, fmt.Sprintf("position_ms must be non-negative, got %d", *opts.PositionMs))
	}
	if len(violations) > 0 {
		return errs.Validation(violations...)
	}
	return nil
}

// Decide returns the command that carries out action from state.
func (d *Decider) Decide(state types.PlaybackState, action types.PlaybackAction, opts types.PlaybackOptions) (types.PlaybackDecision, error) {
	if err := Validate(action, opts); err != nil {
		return types.PlaybackDecision{}, err
	}

	var decision types.PlaybackDecision
	switch action {
	case types.PlaybackPlay:
		decision = decidePlay(state, opts)
	case types.PlaybackPause:
		if !state.IsPlaying {
			decision = noop(ReasonAlreadyPaused)
		} else {
			decision = execute(types.PlaybackCommand{Type: types.CommandPause, DeviceID: opts.DeviceID})
		}
	case types.PlaybackNext:
		decision = execute(types.PlaybackCommand{Type: types.CommandNext, DeviceID: opts.DeviceID})
	case types.PlaybackPrevious:
		decision = decidePrevious(state, opts)
	}

	entry := d.logger.WithFields(log.Fields{
		"component":      "playback_decider",
		"operation":      "decide",
		"action":         action,
		"is_playing":     state.IsPlaying,
		"should_execute": decision.ShouldExecute,
	})
	if decision.Command != nil {
		entry = entry.WithField("command", decision.Command.Type)
	}
	entry.Debug("Decided playback command")

	return decision, nil
}

func decidePlay(state types.PlaybackState, opts types.PlaybackOptions) types.PlaybackDecision {
	sameTrack := opts.TrackURI != "" && state.CurrentTrack != nil && state.CurrentTrack.URI == opts.TrackURI
	sameContext := opts.ContextURI != "" && state.Context != nil && state.Context.URI == opts.ContextURI
	requested := opts.TrackURI != "" || opts.ContextURI != ""

	if state.IsPlaying && sameTrack && (opts.ContextURI == "" || sameContext) && opts.PositionMs != nil {
		if atPosition(state, *opts.PositionMs) {
			return noop(ReasonAlreadyPlaying)
		}
		return execute(types.PlaybackCommand{
			Type:       types.CommandSeek,
			PositionMs: opts.PositionMs,
			DeviceID:   opts.DeviceID,
		})
	}

	if state.IsPlaying && opts.PositionMs == nil {
		alreadyThere := !requested ||
			(sameTrack && (opts.ContextURI == "" || sameContext)) ||
			(sameContext && opts.TrackURI == "")
		if alreadyThere {
			return noop(ReasonAlreadyPlaying)
		}
	}

	return execute(types.PlaybackCommand{
		Type:       types.CommandPlay,
		ContextURI: opts.ContextURI,
		TrackURI:   opts.TrackURI,
		PositionMs: opts.PositionMs,
		DeviceID:   opts.DeviceID,
	})
}

func decidePrevious(state types.PlaybackState, opts types.PlaybackOptions) types.PlaybackDecision {
	if state.CurrentTrack != nil && state.ProgressMs != nil && *state.ProgressMs > RestartThresholdMs {
		cmd := types.PlaybackCommand{
			Type:       types.CommandPlay,
			TrackURI:   state.CurrentTrack.URI,
			PositionMs: types.Int64(0),
			DeviceID:   opts.DeviceID,
		}
		if state.Context != nil {
			cmd.ContextURI = state.Context.URI
		}
		return types.PlaybackDecision{ShouldExecute: true, Reason: "restarting current track", Command: &cmd}
	}
	return execute(types.PlaybackCommand{Type: types.CommandPrevious, DeviceID: opts.DeviceID})
}

func atPosition(state types.PlaybackState, position int64) bool {
	return state.ProgressMs != nil && *state.ProgressMs == position
}

func execute(cmd types.PlaybackCommand) types.PlaybackDecision {
	return types.PlaybackDecision{ShouldExecute: true, Command: &cmd}
}

func noop(reason string) types.PlaybackDecision {
	return types.PlaybackDecision{ShouldExecute: false, Reason: reason}
}
