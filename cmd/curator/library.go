package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/library"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/pkg/loader"
)

type libraryOptions struct {
	desiredFile string
	savedFile   string
	prune       bool
	execute     bool
}

func newLibraryCmd() *cobra.Command {
	opts := &libraryOptions{}
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Sync the saved-track library with a desired track list",
		Long: `Diff the saved tracks against a desired list of track ids or URIs and print the ids
to save and to remove. Saved tracks come from --saved or from Spotify. Nothing is
removed unless --prune is set. --execute applies the diff in batches of 50.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibrary(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.desiredFile, "desired", "i", "", "Desired track ids or URIs file (required)")
	cmd.Flags().StringVar(&opts.savedFile, "saved", "", "Saved track ids file (fetched from Spotify when omitted)")
	cmd.Flags().BoolVar(&opts.prune, "prune", false, "Remove saved tracks that are not desired")
	cmd.Flags().BoolVarP(&opts.execute, "execute", "x", false, "Apply the diff to the Spotify library")

	return cmd
}

func runLibrary(ctx context.Context, out io.Writer, opts *libraryOptions) error {
	if opts.desiredFile == "" {
		return errors.New("--desired is required")
	}
	if opts.execute && opts.savedFile != "" {
		return errors.New("--execute reads the saved tracks from Spotify and cannot be combined with --saved")
	}

	desired, err := loadTrackIDs(opts.desiredFile)
	if err != nil {
		return err
	}

	if opts.savedFile != "" {
		saved, err := loadTrackIDs(opts.savedFile)
		if err != nil {
			return err
		}
		diff := library.Diff(saved, desired)
		if !opts.prune {
			diff.ToRemove = []string{}
		}
		return writeJSON(out, diff)
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	svc := library.NewService(sess.library(), sess.logger)

	diff, err := svc.Plan(ctx, desired, opts.prune)
	if err != nil {
		return err
	}
	if err := writeJSON(out, diff); err != nil {
		return err
	}
	if !opts.execute {
		return nil
	}
	return svc.Apply(ctx, diff)
}

// loadTrackIDs reads a list of track ids or track URIs and returns bare ids.
func loadTrackIDs(path string) ([]string, error) {
	entries, err := loader.Load[[]string](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load track ids: %w", err)
	}
	return toTrackIDs(entries)
}

func toTrackIDs(entries []string) ([]string, error) {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !normalize.IsValidURI(entry) {
			ids = append(ids, entry)
			continue
		}
		uri, err := normalize.ParseURI(entry)
		if err != nil {
			return nil, err
		}
		if uri.Type != "track" {
			return nil, fmt.Errorf("%q is a %s uri, expected a track", entry, uri.Type)
		}
		ids = append(ids, uri.ID)
	}
	return ids, nil
}

