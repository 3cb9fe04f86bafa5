// Package config provides secure configuration management for the curator application.
//
// This package handles loading configuration from environment variables and .env files
// with built-in security measures to prevent path traversal attacks. It uses the
// github.com/caarlos0/env library for environment variable parsing and
// github.com/joho/godotenv for .env file loading.
//
// The configuration loading follows a priority order:
//  1. Environment variables (highest priority)
//  2. .env file in current working directory
//  3. Default values (if any)
//
// Security features:
//   - Path traversal protection for .env file loading
//   - Secure file path resolution using filepath.Abs and filepath.Rel
//   - Validation against directory traversal attempts
//
// Example usage:
//
//	import "github.com/toozej/curator/pkg/config"
//
//	func main() {
//		conf := config.GetEnvVars()
//		fmt.Printf("Listening on: %s\n", conf.Server.Address())
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the main application configuration with nested service configurations.
type Config struct {
	Spotify SpotifyConfig `envPrefix:"SPOTIFY_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Curator CuratorConfig `envPrefix:"CURATOR_"`
}

// SpotifyConfig represents the configuration for Spotify API integration.
//
// This struct contains all the necessary configuration parameters for
// authenticating and interacting with the Spotify API.
type SpotifyConfig struct {
	// ClientID is the Spotify application client ID.
	ClientID string `env:"CLIENT_ID"`

	// ClientSecret is the Spotify application client secret.
	ClientSecret string `env:"CLIENT_SECRET"` // #nosec G117 -- OAuth client secret, expected in config

	// RedirectURL is the callback URL for OAuth authentication.
	RedirectURL string `env:"REDIRECT_URI" envDefault:"http://127.0.0.1:8080/callback"`

	// TokenFilePath is the path where the Spotify authentication token is stored.
	// If not specified, defaults to ~/.config/curator/spotify_token.json
	TokenFilePath string `env:"TOKEN_FILE_PATH" envDefault:"~/.config/curator/spotify_token.json"`

	// Market is the ISO 3166-1 country code used for catalog searches.
	Market string `env:"MARKET" envDefault:"US"`
}

// ServerConfig represents the server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// CuratorConfig represents the curation engine and executor configuration.
type CuratorConfig struct {
	// RateLimit is the number of catalog API calls per second the executors may issue.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"5"`

	// RequestTimeout bounds a single catalog call or HTTP request, in seconds.
	RequestTimeout int `env:"REQUEST_TIMEOUT" envDefault:"30"`

	// RulesFile is an optional JSON, YAML or TOML rules file applied when a command
	// is given no rules of its own.
	RulesFile string `env:"RULES_FILE"`

	// Seed makes selection tie-breaking reproducible when non-zero.
	Seed int64 `env:"SEED"`

	// LogFormat is either "text" or "json".
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Timeout returns RequestTimeout as a duration.
func (c CuratorConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Load reads the .env file in the current directory, if any, parses environment
// variables into a Config and validates it.
func Load() (Config, error) {
	// Get current working directory for secure file operations
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("error getting current working directory: %w", err)
	}

	// Construct secure path for .env file within current directory
	envPath := filepath.Join(cwd, ".env")

	// Ensure the path is within our expected directory (prevent traversal)
	cleanEnvPath, err := filepath.Abs(envPath)
	if err != nil {
		return Config{}, fmt.Errorf("error resolving .env file path: %w", err)
	}
	cleanCwd, err := filepath.Abs(cwd)
	if err != nil {
		return Config{}, fmt.Errorf("error resolving current directory: %w", err)
	}
	relPath, err := filepath.Rel(cleanCwd, cleanEnvPath)
	if err != nil || strings.Contains(relPath, "..") {
		return Config{}, ErrEnvPathTraversal
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Parse environment variables into config struct
	var conf Config
	if err := env.Parse(&conf); err != nil {
		return Config{}, fmt.Errorf("error parsing configuration from environment: %w", err)
	}

	if err := validateConfig(&conf); err != nil {
		return Config{}, err
	}

	return conf, nil
}

// GetEnvVars loads and returns the application configuration from environment
// variables and .env files with comprehensive security validation.
//
// The function will terminate the program with os.Exit(1) if any critical
// errors occur during configuration loading, such as:
//   - Current directory access failures
//   - Path traversal attempts detected
//   - .env file parsing errors
//   - Environment variable parsing failures
//   - Configuration validation errors
//
// Use Load when the caller wants to handle the error itself.
func GetEnvVars() Config {
	conf, err := Load()
	if err != nil {
		fmt.Printf("Configuration error: %s\n", err)
		fmt.Println("Please check your configuration and try again.")
		os.Exit(1)
	}
	return conf
}

// Address returns the server address
func (s ServerConfig) Address() string {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetTokenFilePath returns the resolved token file path, handling tilde expansion
// and ensuring the directory exists.
func (s SpotifyConfig) GetTokenFilePath() (string, error) {
	tokenPath := s.TokenFilePath
	if tokenPath == "" {
		return "", ErrMissingTokenFilePath
	}

	// Handle tilde expansion
	if strings.HasPrefix(tokenPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		tokenPath = filepath.Join(homeDir, tokenPath[2:])
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(tokenPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Ensure the directory exists
	tokenDir := filepath.Dir(absPath)
	if err := os.MkdirAll(tokenDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create token directory %s: %w", tokenDir, err)
	}

	return absPath, nil
}

// Validate reports whether Spotify credentials are present.
func (s SpotifyConfig) Validate() error {
	var errs []error
	if s.ClientID == "" {
		errs = append(errs, ErrMissingSpotifyClientID)
	}
	if s.ClientSecret == "" {
		errs = append(errs, ErrMissingSpotifyClientSecret)
	}
	if s.RedirectURL == "" {
		errs = append(errs, ErrMissingRedirectURL)
	}
	return errors.Join(errs...)
}

// validateConfig validates the configuration
func validateConfig(conf *Config) error {
	var errs []error

	// Validate server configuration
	if conf.Server.Port < 1 || conf.Server.Port > 65535 {
		errs = append(errs, ErrInvalidServerPort)
	}

	// Validate curator configuration
	if conf.Curator.RateLimit <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if conf.Curator.RequestTimeout <= 0 {
		errs = append(errs, ErrInvalidRequestTimeout)
	}
	switch conf.Curator.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, conf.Curator.LogFormat))
	}

	// Spotify credentials are only needed by commands that talk to Spotify, so
	// they are checked where the client is built.

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}

	return nil
}
