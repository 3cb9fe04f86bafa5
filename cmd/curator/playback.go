package cmd

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/types"
	"github.com/toozej/curator/pkg/loader"
)

type playbackOptions struct {
	stateFile   string
	contextURI  string
	trackURI    string
	positionMs  int64
	hasPosition bool
	deviceID    string
	execute     bool
}

func newPlaybackCmd() *cobra.Command {
	opts := &playbackOptions{}
	cmd := &cobra.Command{
		Use:       "playback <play|pause|next|previous>",
		Short:     "Decide whether a playback command is needed",
		ValidArgs: []string{"play", "pause", "next", "previous"},
		Long: `Compare a playback request with the current player state and print the decision.
The state is read from --state or fetched from Spotify. With --execute a decision that
calls for a command is sent to the player.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasPosition = cmd.Flags().Changed("position")
			return runPlayback(cmd.Context(), cmd.OutOrStdout(), types.PlaybackAction(args[0]), opts)
		},
	}

	cmd.Flags().StringVar(&opts.stateFile, "state", "", "Player state file (fetched from Spotify when omitted)")
	cmd.Flags().StringVar(&opts.contextURI, "context", "", "Context URI to play (album, playlist or artist)")
	cmd.Flags().StringVar(&opts.trackURI, "track", "", "Track URI to play")
	cmd.Flags().Int64Var(&opts.positionMs, "position", 0, "Position in milliseconds")
	cmd.Flags().StringVar(&opts.deviceID, "device", "", "Target device id")
	cmd.Flags().BoolVarP(&opts.execute, "execute", "x", false, "Send the decided command to the player")

	return cmd
}

func runPlayback(ctx context.Context, out io.Writer, action types.PlaybackAction, opts *playbackOptions) error {
	pbOpts := types.PlaybackOptions{
		ContextURI: opts.contextURI,
		TrackURI:   opts.trackURI,
		DeviceID:   opts.deviceID,
	}
	if opts.hasPosition {
		pos := opts.positionMs
		pbOpts.PositionMs = &pos
	}

	var (
		sess  *session
		state types.PlaybackState
		err   error
	)
	if opts.stateFile != "" {
		if state, err = loader.Load[types.PlaybackState](opts.stateFile); err != nil {
			return fmt.Errorf("failed to load player state: %w", err)
		}
	} else {
		if sess, err = openSession(ctx); err != nil {
			return err
		}
		if state, err = sess.player().FetchPlaybackState(ctx); err != nil {
			return err
		}
	}

	decision, err := newEngine().Decider.Decide(state, action, pbOpts)
	if err != nil {
		return err
	}
	if err := writeJSON(out, decision); err != nil {
		return err
	}

	if !opts.execute || !decision.ShouldExecute {
		return nil
	}
	if sess == nil {
		if sess, err = openSession(ctx); err != nil {
			return err
		}
	}
	if err := sess.player().Execute(ctx, *decision.Command); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"action":  action,
		"command": decision.Command.Type,
	}).Info("Playback command sent")
	return nil
}
