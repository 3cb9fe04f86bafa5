package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/toozej/curator/internal/spotify"
)

// session is an authenticated Spotify connection shared by the executors of one command.
// All executors draw from the same limiter.
type session struct {
	api     spotify.API
	limiter *rate.Limiter
	logger  *log.Logger
}

// openSession authenticates with Spotify, running the browser flow when no valid stored
// token exists.
func openSession(ctx context.Context) (*session, error) {
	logger := log.StandardLogger()

	client, err := spotify.NewClient(conf.Spotify, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify client: %w", err)
	}

	if !client.IsAuthenticated() {
		log.Info("Spotify authentication required. Starting authentication flow...")
		if err := authenticate(ctx, client, conf.Server.Address()); err != nil {
			return nil, err
		}
		log.Info("Spotify authentication completed successfully")
	}

	api, err := client.API()
	if err != nil {
		return nil, err
	}

	return &session{
		api:     api,
		limiter: spotify.NewLimiter(conf.Curator.RateLimit),
		logger:  logger,
	}, nil
}

func (s *session) catalog() *spotify.Catalog {
	return spotify.NewCatalog(s.api, s.limiter, conf.Spotify.Market, s.logger)
}

func (s *session) executor() *spotify.Executor {
	return spotify.NewExecutor(s.api, s.limiter, nil, s.logger)
}

func (s *session) library() *spotify.LibraryExecutor {
	return spotify.NewLibraryExecutor(s.api, s.limiter, s.logger)
}

func (s *session) player() *spotify.PlayerExecutor {
	return spotify.NewPlayerExecutor(s.api, s.limiter, s.logger)
}
