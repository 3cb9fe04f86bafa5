package cmd

import (
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/ports"
	"github.com/toozej/curator/internal/server"
	"github.com/toozej/curator/internal/types"
	"github.com/toozej/curator/pkg/loader"
)

type selectOptions struct {
	candidatesFile   string
	rulesFile        string
	count            int
	popularityWeight float64
	recencyBoost     float64
	diversityFactor  float64
	randomnessFactor float64
	seed             int64
}

func newSelectCmd() *cobra.Command {
	opts := &selectOptions{}
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Score candidate tracks and select the best",
		Long: `Score every eligible candidate by popularity, recency and duration, apply the
diversity penalty and print the top --count tracks. Weights left unset use the engine
defaults. --seed makes tie-breaking reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.candidatesFile, "candidates", "c", "", "Candidate tracks file (required)")
	cmd.Flags().StringVarP(&opts.rulesFile, "rules", "r", "", "Rules file")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "Number of tracks to select")
	cmd.Flags().Float64Var(&opts.popularityWeight, "popularity-weight", 0, "Popularity weight in [0,1]")
	cmd.Flags().Float64Var(&opts.recencyBoost, "recency-boost", 0, "Recency boost in [0,1]")
	cmd.Flags().Float64Var(&opts.diversityFactor, "diversity", 0, "Diversity penalty factor in [0,1]")
	cmd.Flags().Float64Var(&opts.randomnessFactor, "randomness", 0, "Randomness factor in [0,1]")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (overrides CURATOR_SEED)")

	return cmd
}

func runSelect(cmd *cobra.Command, out io.Writer, opts *selectOptions) error {
	if opts.candidatesFile == "" {
		return errors.New("--candidates is required")
	}
	candidates, err := loader.Load[[]types.TrackRef](opts.candidatesFile)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	r, err := loadRules(opts.rulesFile)
	if err != nil {
		return err
	}

	selOpts := types.SelectionOptions{Count: opts.count}
	flags := cmd.Flags()
	if flags.Changed("popularity-weight") {
		selOpts.PopularityWeight = &opts.popularityWeight
	}
	if flags.Changed("recency-boost") {
		selOpts.RecencyBoost = &opts.recencyBoost
	}
	if flags.Changed("diversity") {
		selOpts.DiversityFactor = &opts.diversityFactor
	}
	if flags.Changed("randomness") {
		selOpts.RandomnessFactor = &opts.randomnessFactor
	}

	seed := conf.Curator.Seed
	if opts.seed != 0 {
		seed = opts.seed
	}
	engine := server.NewEngine(newRandom(seed), ports.SystemClock{}, log.StandardLogger())

	result, err := engine.Selector.SelectTracks(candidates, r, selOpts)
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}
