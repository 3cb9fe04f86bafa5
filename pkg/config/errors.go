// Package config provides error definitions for configuration-related errors.
package config

import "errors"

// Configuration validation errors
var (
	// ErrMissingSpotifyClientID is returned when Spotify Client ID is not provided
	ErrMissingSpotifyClientID = errors.New("spotify client ID is required")

	// ErrMissingSpotifyClientSecret is returned when Spotify Client Secret is not provided
	ErrMissingSpotifyClientSecret = errors.New("spotify client secret is required")

	// ErrMissingRedirectURL is returned when the OAuth redirect URL is empty
	ErrMissingRedirectURL = errors.New("spotify redirect URL is required")

	// ErrMissingTokenFilePath is returned when no token file path is configured
	ErrMissingTokenFilePath = errors.New("spotify token file path is required")

	// ErrInvalidServerPort is returned when the server port is outside 1-65535
	ErrInvalidServerPort = errors.New("server port must be between 1 and 65535")

	// ErrInvalidRateLimit is returned when the executor rate limit is not positive
	ErrInvalidRateLimit = errors.New("rate limit must be greater than 0")

	// ErrInvalidRequestTimeout is returned when the request timeout is not positive
	ErrInvalidRequestTimeout = errors.New("request timeout must be greater than 0")

	// ErrInvalidLogFormat is returned for a log format other than text or json
	ErrInvalidLogFormat = errors.New("log format must be text or json")

	// ErrEnvPathTraversal is returned when the .env path escapes the working directory
	ErrEnvPathTraversal = errors.New(".env file path traversal detected")
)
