package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the curation engine over HTTP",
		Long: `Start the JSON tool surface on SERVER_HOST:SERVER_PORT. Endpoints build plans,
reconcile track lists, select tracks, decide playback and diff libraries. Prometheus
metrics are served on /metrics. The server stops cleanly on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Listen host (overrides SERVER_HOST)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides SERVER_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := conf.Server
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(parentContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, conf.Curator.Timeout(), newEngine(), log.StandardLogger())
	return srv.Run(ctx)
}

func parentContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
