package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/curator/internal/spotify"
)

// authTimeout bounds how long the callback server waits for the user.
const authTimeout = 5 * time.Minute

// authCompleter finishes the OAuth exchange for a callback's code and state.
type authCompleter interface {
	AuthURL() string
	CompleteAuth(ctx context.Context, code, state string) error
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Spotify",
		Long: `Authenticate with Spotify and store the OAuth token so later commands can run
unattended. A temporary server on the configured address receives the callback.`,
		Args: cobra.NoArgs,
		RunE: runAuth,
	}
}

func runAuth(cmd *cobra.Command, args []string) error {
	client, err := spotify.NewClient(conf.Spotify, log.StandardLogger())
	if err != nil {
		return fmt.Errorf("failed to create Spotify client: %w", err)
	}
	if client.IsAuthenticated() {
		log.Info("Already authenticated with Spotify")
		return nil
	}
	if err := authenticate(cmd.Context(), client, conf.Server.Address()); err != nil {
		return err
	}
	log.Info("Spotify authentication completed successfully")
	return nil
}

// authenticate starts a temporary callback server on addr and waits for the user to
// finish the authorization flow in a browser.
func authenticate(ctx context.Context, client authCompleter, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	authURL := client.AuthURL()

	log.WithField("auth_url", authURL).Info("Please visit this URL to authenticate with Spotify")
	fmt.Printf("\nSpotify Authentication Required\n")
	fmt.Printf("Please visit this URL to authenticate:\n%s\n\n", authURL)
	fmt.Printf("Waiting for authentication... (Press Ctrl+C to cancel)\n")

	authComplete := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		handleSpotifyCallback(w, r, client, authComplete)
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("address", addr).Info("Starting temporary server for OAuth callback")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			authComplete <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down authentication server")
		}
	}

	select {
	case err := <-authComplete:
		shutdown()
		if err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdown()
		return fmt.Errorf("authentication cancelled: %w", ctx.Err())
	case <-time.After(authTimeout):
		shutdown()
		return fmt.Errorf("authentication timeout after %v", authTimeout)
	}
}

// handleSpotifyCallback completes the exchange and reports the outcome on authComplete.
func handleSpotifyCallback(w http.ResponseWriter, r *http.Request, client authCompleter, authComplete chan<- error) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")

	if errorParam != "" {
		log.WithField("error", errorParam).Error("Spotify authentication error")
		http.Error(w, "Authentication failed: "+errorParam, http.StatusBadRequest)
		authComplete <- fmt.Errorf("spotify authentication error: %s", errorParam)
		return
	}

	if code == "" {
		log.Error("No authorization code received")
		http.Error(w, "No authorization code received", http.StatusBadRequest)
		authComplete <- errors.New("no authorization code received")
		return
	}

	if err := client.CompleteAuth(r.Context(), code, state); err != nil {
		log.WithError(err).Error("Failed to complete Spotify authentication")
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		authComplete <- fmt.Errorf("failed to complete authentication: %w", err)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	successHTML := `
		<!DOCTYPE html>
		<html>
		<head>
			<title>Authentication Successful</title>
			<style>
				body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
				.success { color: #28a745; font-size: 24px; margin-bottom: 20px; }
				.message { color: #6c757d; font-size: 16px; }
			</style>
		</head>
		<body>
			<div class="success">Authentication Successful!</div>
			<div class="message">You can now close this window and return to the terminal.</div>
		</body>
		</html>
	`

	if _, err := w.Write([]byte(successHTML)); err != nil {
		log.WithError(err).Warn("Failed to write success response")
	}

	log.Info("Spotify authentication completed successfully via callback")
	authComplete <- nil
}
