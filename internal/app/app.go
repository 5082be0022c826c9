package app

import (
	"fmt"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/oauth"
	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/pkce"
	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/twitter"
)

// App wires the configured collaborators into the authentication manager and
// the tweet poster the commands operate on.
type App struct {
	cfg *Config

	Manager *oauth.Manager
	Poster  *twitter.Poster
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewCredentialStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	manager, err := oauth.NewManager(oauth.ManagerConfig{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURI:  cfg.Auth.RedirectURI,
		Codes:        pkce.Generator{},
		URLBuilder:   twitter.NewURLBuilder(twitter.WithAuthorizeEndpoint(cfg.API.AuthorizeURL)),
		Exchanger:    twitter.NewExchanger(twitter.WithTokenEndpoint(cfg.API.TokenURL)),
		Browser:      oauth.NewRelaySession(),
		Store:        store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	return &App{
		cfg:     cfg,
		Manager: manager,
		Poster:  twitter.NewPoster(twitter.WithTweetsEndpoint(cfg.API.TweetsURL)),
	}, nil
}
