// Package cmd provides the command-line interface for curator.
//
// The root command loads configuration, sets up logging and registers the plan,
// reconcile, select, playback, library, serve and auth subcommands. Commands read their
// inputs through pkg/loader, run the curation engine, and only touch Spotify when a
// subcommand needs live data or was asked to --execute.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/ports"
	"github.com/toozej/curator/internal/server"
	"github.com/toozej/curator/internal/types"
	"github.com/toozej/curator/pkg/config"
	"github.com/toozej/curator/pkg/loader"
	"github.com/toozej/curator/pkg/man"
	"github.com/toozej/curator/pkg/version"
)

var (
	// conf holds the configuration loaded before every command runs.
	conf config.Config
	// debug enables debug-level logging.
	debug bool
	// logFormat overrides CURATOR_LOG_FORMAT when set.
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Curate and reconcile Spotify playlists",
	Long: `curator builds playlist plans from free-text intents, reconciles existing playlists
against a desired track list, selects tracks by score, decides playback commands and
keeps the saved-track library in sync. Plans are printed as JSON and only reach Spotify
when a command is run with --execute.`,
	Args:             cobra.ExactArgs(0),
	PersistentPreRun: rootCmdPreRun,
	Run:              rootCmdRun,
}

func rootCmdRun(cmd *cobra.Command, args []string) {
	log.Info("Use 'curator plan <intent>' to build a playlist plan")
	log.Info("Use 'curator reconcile --target <file>' to diff a playlist against a desired track list")
	log.Info("Use 'curator serve' to start the HTTP tool surface")
}

// rootCmdPreRun loads configuration and configures logrus for every command.
func rootCmdPreRun(cmd *cobra.Command, args []string) {
	conf = config.GetEnvVars()
	if logFormat != "" {
		conf.Curator.LogFormat = logFormat
	}
	configureLogging(conf.Curator.LogFormat, debug)
}

func configureLogging(format string, debug bool) {
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug-level logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides CURATOR_LOG_FORMAT)")

	rootCmd.AddCommand(
		newPlanCmd(),
		newReconcileCmd(),
		newSelectCmd(),
		newPlaybackCmd(),
		newLibraryCmd(),
		newServeCmd(),
		newAuthCmd(),
		man.NewManCmd(),
		version.Command(),
	)
}

// newEngine wires the core services with the configured random source.
func newEngine() server.Engine {
	return server.NewEngine(newRandom(conf.Curator.Seed), ports.SystemClock{}, log.StandardLogger())
}

// newRandom returns a reproducible generator for a non-zero seed.
func newRandom(seed int64) ports.RandomPort {
	if seed != 0 {
		return ports.NewSeededRandom(seed)
	}
	return ports.SystemRandom{}
}

// loadRules decodes the rules file at path, falling back to CURATOR_RULES_FILE. No file
// means no rules.
func loadRules(path string) (types.Rules, error) {
	if path == "" {
		path = conf.Curator.RulesFile
	}
	if path == "" {
		return types.Rules{}, nil
	}
	r, err := loader.Load[types.Rules](path)
	if err != nil {
		return types.Rules{}, fmt.Errorf("failed to load rules: %w", err)
	}
	return r, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
