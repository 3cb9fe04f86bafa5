package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/playlist"
	"github.com/toozej/curator/internal/search"
	"github.com/toozej/curator/internal/spotify"
	"github.com/toozej/curator/internal/types"
	"github.com/toozej/curator/pkg/loader"
)

type planOptions struct {
	file       string
	rulesFile  string
	name       string
	search     int
	execute    bool
	playlistID string
}

func newPlanCmd() *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan [intent]",
		Short: "Build a playlist plan from an intent",
		Long: `Build a playlist plan from a free-text intent such as "create a 90s hip hop playlist"
or from an intent file (JSON, YAML or TOML) carrying sources, rules and existing tracks.
With --search the intent's criteria are searched on Spotify and the results become a
source. With --execute the plan is applied to Spotify; append and update targets are
resolved by fuzzy name match unless --playlist-id is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Intent file (.json, .yaml, .toml or - for stdin)")
	cmd.Flags().StringVarP(&opts.rulesFile, "rules", "r", "", "Rules file overriding the intent's rules")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Explicit playlist name")
	cmd.Flags().IntVarP(&opts.search, "search", "s", 0, "Search Spotify for up to this many tracks matching the intent")
	cmd.Flags().BoolVarP(&opts.execute, "execute", "x", false, "Apply the plan to Spotify")
	cmd.Flags().StringVar(&opts.playlistID, "playlist-id", "", "Target playlist id for append and update plans")

	return cmd
}

func runPlan(ctx context.Context, out io.Writer, args []string, opts *planOptions) error {
	intent, err := loadIntent(args, opts)
	if err != nil {
		return err
	}

	var sess *session
	if opts.search > 0 || opts.execute {
		if sess, err = openSession(ctx); err != nil {
			return err
		}
	}

	structured, err := playlist.Resolve(intent)
	if err != nil {
		return err
	}

	if opts.search > 0 {
		tracks, err := sess.catalog().SearchTracks(ctx, structured.Criteria, opts.search)
		if err != nil {
			return fmt.Errorf("failed to search for tracks: %w", err)
		}
		intent.Sources = append(intent.Sources, types.TrackSource{Name: "search", Tracks: tracks})
	}

	playlistID := opts.playlistID
	if opts.execute && structured.Action != types.ActionCreate {
		if playlistID, err = resolveTarget(ctx, sess.catalog(), structured.Target, playlistID); err != nil {
			return err
		}
		if len(intent.Existing) == 0 {
			if intent.Existing, err = sess.catalog().PlaylistTracks(ctx, playlistID); err != nil {
				return fmt.Errorf("failed to fetch existing tracks: %w", err)
			}
		}
	}

	plan, err := newEngine().Builder.CreatePlaylistPlan(intent)
	if err != nil {
		return err
	}

	if !opts.execute {
		return writeJSON(out, plan)
	}

	report, err := sess.executor().ExecutePlaylistPlan(ctx, plan, playlistID)
	if werr := writeJSON(out, struct {
		Plan   types.PlaylistPlan      `json:"plan"`
		Report spotify.ExecutionReport `json:"report"`
	}{plan, report}); werr != nil {
		return werr
	}
	return err
}

// loadIntent reads the intent file, or builds an intent from the positional text.
func loadIntent(args []string, opts *planOptions) (types.PlaylistIntent, error) {
	var intent types.PlaylistIntent
	switch {
	case opts.file != "" && len(args) > 0:
		return intent, errors.New("pass either an intent argument or --file, not both")
	case opts.file != "":
		loaded, err := loader.Load[types.PlaylistIntent](opts.file)
		if err != nil {
			return intent, fmt.Errorf("failed to load intent: %w", err)
		}
		intent = loaded
	case len(args) == 1 && strings.TrimSpace(args[0]) != "":
		intent.Intent = args[0]
	default:
		return intent, errors.New("an intent argument or --file is required")
	}

	if opts.rulesFile != "" || (intent.Rules.IsZero() && conf.Curator.RulesFile != "") {
		r, err := loadRules(opts.rulesFile)
		if err != nil {
			return intent, err
		}
		intent.Rules = r
	}
	if opts.name != "" {
		intent.Name = opts.name
	}
	return intent, nil
}

// resolveTarget returns playlistID when given, otherwise the id of the user's playlist
// best matching target.
func resolveTarget(ctx context.Context, catalog *spotify.Catalog, target, playlistID string) (string, error) {
	if playlistID != "" {
		return playlistID, nil
	}
	match, err := catalog.ResolveTarget(ctx, target, search.NewFuzzySearcher(log.StandardLogger()))
	if err != nil {
		return "", fmt.Errorf("failed to resolve playlist %q: %w", target, err)
	}

	log.WithFields(log.Fields{
		"target":     target,
		"playlist":   match.Playlist.Name,
		"confidence": match.Confidence,
	}).Info("Resolved target playlist")

	return match.Playlist.ID, nil
}
