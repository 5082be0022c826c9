package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/skratchdot/open-golang/open"
)

// RelaySession presents the authorization page in the system browser and
// captures the provider redirect on a local loopback listener.
type RelaySession struct {
	openURL func(string) error
}

// Compile-time check to ensure RelaySession implements BrowserSession
var _ BrowserSession = (*RelaySession)(nil)

// RelaySessionOption customizes a RelaySession.
type RelaySessionOption func(*RelaySession)

// WithOpenURL replaces the system browser launcher.
func WithOpenURL(fn func(string) error) RelaySessionOption {
	return func(s *RelaySession) {
		s.openURL = fn
	}
}

// NewRelaySession creates a RelaySession that launches the default browser.
func NewRelaySession(opts ...RelaySessionOption) *RelaySession {
	s := &RelaySession{openURL: open.Run}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds a loopback listener for redirectURI, opens authURL in the
// browser, and relays the eventual redirect to complete. It returns as soon
// as the listener is up; the redirect is awaited in the background. Setup
// failures are reported through complete as well, so callers have a single
// completion path.
func (s *RelaySession) Start(ctx context.Context, authURL, redirectURI string, complete CompletionFunc) {
	relay, err := newCallbackRelay(redirectURI)
	if err != nil {
		complete(nil, fmt.Errorf("starting callback listener: %w", err))
		return
	}
	serveErr := relay.serve()

	if err := s.openURL(authURL); err != nil {
		// A headless or browserless host can still finish the flow by hand.
		slog.WarnContext(ctx, "could not open browser", "error", err)
		fmt.Fprintf(os.Stderr, "Open this URL in your browser to continue:\n\n  %s\n\n", authURL)
	}

	go func() {
		defer relay.shutdown()

		select {
		case result := <-relay.results:
			complete(result.callbackURL, result.err)
		case err := <-serveErr:
			complete(nil, fmt.Errorf("callback listener: %w", err))
		case <-ctx.Done():
			complete(nil, ctx.Err())
		}
	}()
}

// parseRedirectURI splits a loopback redirect URI into the address to bind
// and the path to serve.
func parseRedirectURI(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return "", "", fmt.Errorf("redirect URI %q must be a loopback http URL", redirectURI)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}
