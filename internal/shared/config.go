package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
	Cache       CacheConfig       `toml:"cache"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the most recent token pair.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenExpiry  time.Time `toml:"token_expiry"`
}

// APIConfig controls how requests to the Web API are executed and retried.
type APIConfig struct {
	BaseURL string `toml:"base_url"`

	// RetryOnServerErrorTimes is the 5xx retry budget: -1 is unlimited, 0 disables retries.
	RetryOnServerErrorTimes int     `toml:"retry_on_server_error_times"`
	RetryWhenRateLimited    bool    `toml:"retry_when_rate_limited"`
	AutomaticRefresh        bool    `toml:"automatic_refresh"`
	Debug                   bool    `toml:"debug"`
	JSONMode                string  `toml:"json_mode"` // lenient or strict
	RequestsPerSecond       float64 `toml:"requests_per_second"`
	TimeoutSeconds          int     `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig toggles the local track cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// HasClientCredentials reports whether a client id and secret are set and are not the example placeholders.
func (s SpotifyConfig) HasClientCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != "" &&
		!strings.HasPrefix(s.ClientID, "your_") && !strings.HasPrefix(s.ClientSecret, "your_")
}

// Token returns the stored token pair, or nil when no access or refresh token is configured.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.TokenExpiry,
	}
}

// Update copies a freshly issued token into the configuration.
//
// A token without a refresh token keeps the previously stored one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenExpiry = token.Expiry
	return nil
}

// Validate checks option values that would otherwise fail at request time.
func (c *Config) Validate() error {
	switch c.API.JSONMode {
	case "", "lenient", "strict":
	default:
		return fmt.Errorf("%w: json_mode must be lenient or strict, got %q", ErrInvalidConfig, c.API.JSONMode)
	}
	if c.API.RetryOnServerErrorTimes < -1 {
		return fmt.Errorf("%w: retry_on_server_error_times must be -1 or greater", ErrInvalidConfig)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes the configuration to path as TOML.
//
// The file holds tokens, so it is written with owner-only permissions.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
