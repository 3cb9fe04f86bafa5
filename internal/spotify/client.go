// Package spotify adapts the curation engine to the Spotify Web API. It owns OAuth
// token persistence, executes playlist plans, library diffs and playback commands, and
// fetches catalog data as engine types.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toozej/curator/pkg/config"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// AuthState is the OAuth state value sent with the authorization request.
const AuthState = "curator-auth-state"

// ErrNotAuthenticated is returned when an API call is attempted before authentication.
var ErrNotAuthenticated = errors.New("user not authenticated to Spotify")

// Scopes lists every permission the executors need.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
}

// Client holds the authenticator and the persisted OAuth token.
type Client struct {
	client     *spotify.Client
	logger     *logrus.Logger
	token      *oauth2.Token
	tokenMu    sync.RWMutex
	ctx        context.Context
	auth       *spotifyauth.Authenticator
	isUserAuth bool
	authURL    string
	tokenFile  string
}

// TokenData represents the stored token information
type TokenData struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"` // #nosec G117 -- persisted OAuth refresh token
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// NewClient creates a Spotify client. A previously stored token is loaded and checked;
// without one the caller must send the user to AuthURL and call CompleteAuth.
func NewClient(cfg config.SpotifyConfig, logger *logrus.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(Scopes...),
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
	)

	tokenFile, err := cfg.GetTokenFilePath()
	if err != nil {
		logger.WithError(err).Warn("Could not determine token file path, authentication will be required each time")
	}

	client := &Client{
		logger:    logger,
		ctx:       context.Background(),
		auth:      auth,
		authURL:   auth.AuthURL(AuthState),
		tokenFile: tokenFile,
	}

	logger.WithFields(logrus.Fields{
		"component":    "spotify_client",
		"redirect_url": cfg.RedirectURL,
		"token_file":   tokenFile,
	}).Debug("Spotify client configured")

	if tokenFile != "" && client.loadToken() {
		if client.validateStoredToken() {
			logger.WithField("token_file", tokenFile).Info("Loaded existing Spotify authentication token")
			return client, nil
		}
		logger.Info("Stored token is invalid or expired, re-authentication required")
	}

	return client, nil
}

// AuthURL returns the URL the user visits to grant access.
func (c *Client) AuthURL() string {
	return c.authURL
}

// IsAuthenticated returns whether the user is authenticated
func (c *Client) IsAuthenticated() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.isUserAuth && c.client != nil
}

// CompleteAuth exchanges an authorization code for a token, verifies it and stores it.
func (c *Client) CompleteAuth(ctx context.Context, code, state string) error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if state != AuthState {
		return fmt.Errorf("invalid state parameter")
	}

	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	client := spotify.New(c.auth.Client(c.ctx, token))
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("authentication verification failed: %w", err)
	}

	c.token = token
	c.client = client
	c.isUserAuth = true

	c.logger.WithFields(logrus.Fields{
		"component":         "spotify_client",
		"user_id":           user.ID,
		"user_display_name": user.DisplayName,
	}).Info("Spotify authentication completed")

	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Warn("Failed to save authentication token, will require re-authentication next time")
	}
	return nil
}

// API returns the authenticated client after refreshing its token when needed.
func (c *Client) API() (API, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := c.refreshToken(); err != nil {
		return nil, err
	}
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.client, nil
}

// refreshToken refreshes the access token five minutes before it expires.
func (c *Client) refreshToken() error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != nil && time.Until(c.token.Expiry) > 5*time.Minute {
		return nil
	}

	newToken, err := c.auth.RefreshToken(c.ctx, c.token)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	c.token = newToken
	c.client = spotify.New(c.auth.Client(c.ctx, newToken))
	c.logger.Debug("Spotify access token refreshed")

	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Warn("Failed to save refreshed token")
	}
	return nil
}

// loadToken attempts to load a stored token from disk
func (c *Client) loadToken() bool {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	token, err := readToken(c.tokenFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.WithError(err).Debug("Failed to read token file")
		}
		return false
	}
	c.token = token
	return true
}

// saveTokenUnsafe saves the current token to disk without acquiring locks.
// The caller must hold tokenMu.
func (c *Client) saveTokenUnsafe() error {
	if c.tokenFile == "" || c.token == nil {
		return nil
	}
	return writeToken(c.tokenFile, c.token)
}

// validateStoredToken checks the stored token with a CurrentUser call.
func (c *Client) validateStoredToken() bool {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token == nil {
		return false
	}

	testClient := spotify.New(c.auth.Client(c.ctx, c.token))
	if _, err := testClient.CurrentUser(c.ctx); err != nil {
		c.logger.WithError(err).Debug("Stored token validation failed")
		return false
	}

	c.client = testClient
	c.isUserAuth = true
	return true
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, err
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  tokenData.AccessToken,
		RefreshToken: tokenData.RefreshToken,
		TokenType:    tokenData.TokenType,
		Expiry:       tokenData.Expiry,
	}, nil
}

// writeToken writes to a temporary file first, then renames it into place.
func writeToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(TokenData{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename token file: %w", err)
	}
	return nil
}
