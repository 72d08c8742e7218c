package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that overlay file configuration. See [Config.ApplyEnv].
const (
	EnvAccessToken  = "SPOTIFY_ACCESS_TOKEN"
	EnvRefreshToken = "SPOTIFY_REFRESH_TOKEN"
	EnvUserID       = "SPOTIFY_USER_ID"
	EnvAPIBaseURL   = "MONTHLIES_API_BASE_URL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Limits      LimitsConfig      `toml:"limits"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
	Cleanup     CleanupConfig     `toml:"cleanup"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the tokens supplied by an external OAuth flow and the acting user's id.
type SpotifyConfig struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	UserID       string `toml:"user_id"`
}

// APIConfig contains streaming API client settings.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	PageSize       int     `toml:"page_size"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// LimitsConfig contains the size and retry limits applied to generation and cleanup.
type LimitsConfig struct {
	MaxRetries  int `toml:"max_retries"`
	ChunkSize   int `toml:"chunk_size"`
	BucketCap   int `toml:"bucket_cap"`
	Concurrency int `toml:"concurrency"`
	BackoffMS   int `toml:"backoff_ms"`
}

// PlaylistsConfig contains the attributes given to generated playlists.
type PlaylistsConfig struct {
	Public      bool   `toml:"public"`
	Description string `toml:"description"`
}

// CleanupConfig bounds the years recognized in generated playlist names.
type CleanupConfig struct {
	MinYear int `toml:"min_year"`
	MaxYear int `toml:"max_year"`
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff returns the initial delay between retry attempts.
func (c LimitsConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	case c.Limits.MaxRetries < 1:
		return fmt.Errorf("%w: limits.max_retries must be at least 1", ErrInvalidConfig)
	case c.Limits.ChunkSize < 1 || c.Limits.ChunkSize > 100:
		return fmt.Errorf("%w: limits.chunk_size must be between 1 and 100", ErrInvalidConfig)
	case c.Limits.BucketCap < 1:
		return fmt.Errorf("%w: limits.bucket_cap must be at least 1", ErrInvalidConfig)
	case c.Cleanup.MinYear > c.Cleanup.MaxYear:
		return fmt.Errorf("%w: cleanup.min_year is after cleanup.max_year", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv overlays non-empty token and endpoint environment variables on the configuration.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvAccessToken); v != "" {
		c.Credentials.Spotify.AccessToken = v
	}
	if v := getenv(EnvRefreshToken); v != "" {
		c.Credentials.Spotify.RefreshToken = v
	}
	if v := getenv(EnvUserID); v != "" {
		c.Credentials.Spotify.UserID = v
	}
	if v := getenv(EnvAPIBaseURL); v != "" {
		c.API.BaseURL = v
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
