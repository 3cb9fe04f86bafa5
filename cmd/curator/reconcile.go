package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/planner"
	"github.com/toozej/curator/internal/spotify"
	"github.com/toozej/curator/internal/types"
	"github.com/toozej/curator/pkg/loader"
)

type reconcileOptions struct {
	existingFile string
	targetFile   string
	rulesFile    string
	playlistID   string
	optimize     bool
	verify       bool
	execute      bool
}

// reconcileOutput is printed by the reconcile command.
type reconcileOutput struct {
	Plan   types.MutationPlan       `json:"plan"`
	Result []types.TrackRef         `json:"result,omitempty"`
	Report *spotify.ExecutionReport `json:"report,omitempty"`
}

func newReconcileCmd() *cobra.Command {
	opts := &reconcileOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Plan the changes that turn a playlist into a desired track list",
		Long: `Diff the existing tracks of a playlist against a desired track list after rules are
applied, and print the mutation plan. Existing tracks come from --existing or, with
--playlist-id, from Spotify. --verify simulates the plan and checks that reconciling the
result again yields no steps. --execute applies the plan to --playlist-id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.existingFile, "existing", "e", "", "Existing tracks file")
	cmd.Flags().StringVarP(&opts.targetFile, "target", "t", "", "Desired tracks file (required)")
	cmd.Flags().StringVarP(&opts.rulesFile, "rules", "r", "", "Rules file applied to the desired tracks")
	cmd.Flags().StringVar(&opts.playlistID, "playlist-id", "", "Playlist to read existing tracks from and to execute against")
	cmd.Flags().BoolVar(&opts.optimize, "optimize", false, "Merge consecutive add and remove steps")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Simulate the plan and check it is idempotent")
	cmd.Flags().BoolVarP(&opts.execute, "execute", "x", false, "Apply the plan to --playlist-id")

	return cmd
}

func runReconcile(ctx context.Context, out io.Writer, opts *reconcileOptions) error {
	if opts.targetFile == "" {
		return errors.New("--target is required")
	}
	if opts.execute && opts.playlistID == "" {
		return errors.New("--execute requires --playlist-id")
	}

	target, err := loader.Load[[]types.TrackRef](opts.targetFile)
	if err != nil {
		return fmt.Errorf("failed to load target tracks: %w", err)
	}
	r, err := loadRules(opts.rulesFile)
	if err != nil {
		return err
	}

	var (
		sess     *session
		existing []types.TrackRef
	)
	switch {
	case opts.existingFile != "":
		if existing, err = loader.Load[[]types.TrackRef](opts.existingFile); err != nil {
			return fmt.Errorf("failed to load existing tracks: %w", err)
		}
	case opts.playlistID != "":
		if sess, err = openSession(ctx); err != nil {
			return err
		}
		if existing, err = sess.catalog().PlaylistTracks(ctx, opts.playlistID); err != nil {
			return fmt.Errorf("failed to fetch existing tracks: %w", err)
		}
	}

	output, err := reconcile(newEngine().Planner, existing, target, r, opts.optimize, opts.verify)
	if err != nil {
		return err
	}

	if opts.execute {
		if sess == nil {
			if sess, err = openSession(ctx); err != nil {
				return err
			}
		}
		report, execErr := sess.executor().ExecuteMutationPlan(ctx, opts.playlistID, output.Plan)
		output.Report = &report
		if werr := writeJSON(out, output); werr != nil {
			return werr
		}
		return execErr
	}

	return writeJSON(out, output)
}

// reconcile builds the mutation plan and, with verify, the simulated result.
func reconcile(p *planner.Planner, existing, target []types.TrackRef, r types.Rules, optimize, verify bool) (reconcileOutput, error) {
	plan, err := p.GenerateMutationPlan(existing, target, r)
	if err != nil {
		return reconcileOutput{}, err
	}
	if optimize {
		plan = planner.OptimizeMutationPlan(plan)
	}

	output := reconcileOutput{Plan: plan}
	if verify {
		result, err := p.VerifyIdempotent(existing, target, r)
		if err != nil {
			return output, err
		}
		output.Result = result
	}
	return output, nil
}
