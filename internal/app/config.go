package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/credstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// CredentialStorageType represents the different storage backends supported
// for persisted credentials.
type CredentialStorageType string

const (
	CredentialStorageTypeFile    CredentialStorageType = "file"
	CredentialStorageTypeKeyring CredentialStorageType = "keyring"
	CredentialStorageTypeMemory  CredentialStorageType = "memory"
)

// Default configuration values
const (
	DefaultConfigLogFormat    = LogFormatText
	DefaultConfigAuthStorage  = CredentialStorageTypeFile
	DefaultConfigRedirectURI  = "http://127.0.0.1:8585/callback"
	DefaultConfigAuthorizeURL = "https://twitter.com/i/oauth2/authorize"
	DefaultConfigTokenURL     = "https://api.twitter.com/2/oauth2/token"
	DefaultConfigTweetsURL    = "https://api.twitter.com/2/tweets"

	// keyringService scopes keyring entries to this application.
	keyringService = "tweetctl"
)

// AuthConfig represents the OAuth client settings and where its credentials
// are persisted.
type AuthConfig struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri" validate:"required,url"`

	// Storage configuration - where persisted credentials live
	Storage CredentialStorageType `json:"storage" validate:"required,oneof=file keyring memory"`
	File    string                `json:"file,omitempty"` // For file storage: path to credential file
}

// NewCredentialStore creates a credential store from the authentication
// configuration.
func (a *AuthConfig) NewCredentialStore() (credstore.Store, error) {
	switch a.Storage {
	case CredentialStorageTypeFile:
		return credstore.NewFileStore(a.File)
	case CredentialStorageTypeKeyring:
		return credstore.NewKeyringStore(keyringService)
	case CredentialStorageTypeMemory:
		return credstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// APIConfig holds the provider endpoints. Overridable for testing against a
// stub server.
type APIConfig struct {
	AuthorizeURL string `json:"authorize_url" validate:"required,url"`
	TokenURL     string `json:"token_url" validate:"required,url"`
	TweetsURL    string `json:"tweets_url" validate:"required,url"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level `json:"log_level"`
	LogFormat LogFormat  `json:"log_format" validate:"oneof=text json"`
	Auth      AuthConfig `json:"auth"`
	API       APIConfig  `json:"api"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Auth.RedirectURI == "" {
		c.Auth.RedirectURI = DefaultConfigRedirectURI
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.API.AuthorizeURL == "" {
		c.API.AuthorizeURL = DefaultConfigAuthorizeURL
	}
	if c.API.TokenURL == "" {
		c.API.TokenURL = DefaultConfigTokenURL
	}
	if c.API.TweetsURL == "" {
		c.API.TweetsURL = DefaultConfigTweetsURL
	}

	// Dynamic defaults based on storage type
	if c.Auth.Storage == CredentialStorageTypeFile && c.Auth.File == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
		}
		c.Auth.File = filepath.Join(configDir, "tweetctl", "credentials.json")
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Auth.Storage == CredentialStorageTypeFile && c.Auth.File == "" {
		return fmt.Errorf("file path required for file storage")
	}

	return nil
}
