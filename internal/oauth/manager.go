// Package oauth drives the end-to-end authorization-code flow with PKCE and
// maintains the resulting credentials across application sessions.
package oauth

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/credstore"
	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/twitter"
)

// refreshLeeway is how close to expiry a stored access token may get before
// AccessToken refreshes it.
const refreshLeeway = 5 * time.Minute

// CodeGenerator produces PKCE material for one authentication attempt.
type CodeGenerator interface {
	GenerateCodeVerifier() (string, error)
	GenerateCodeChallenge(verifier string) string
}

// AuthorizationURLBuilder renders the provider authorization URL.
type AuthorizationURLBuilder interface {
	Build(clientID, redirectURI, codeChallenge, state string) (string, error)
}

// TokenExchanger performs the code-for-token and refresh-for-token calls.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code, clientID, clientSecret, redirectURI, codeVerifier string) (*twitter.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*twitter.TokenResponse, error)
}

// CompletionFunc delivers the outcome of a browser session: the callback URL
// the provider redirected to, or the error that ended the session. Calling it
// more than once per Start is safe; later deliveries find no pending attempt
// and are ignored.
type CompletionFunc func(callbackURL *url.URL, err error)

// BrowserSession presents the authorization page to the user and reports the
// redirect through the completion callback. User cancellation must arrive as
// twitter.ErrUserCancelled so callers can distinguish it.
type BrowserSession interface {
	Start(ctx context.Context, authURL, redirectURI string, complete CompletionFunc)
}

// callbackResult is what a browser session delivers.
type callbackResult struct {
	callbackURL *url.URL
	err         error
}

// pendingAuth is the single in-flight authentication attempt. The verifier
// and state are scoped to the attempt and die with it.
type pendingAuth struct {
	verifier string
	state    string
	done     chan callbackResult
}

// ManagerConfig carries the client settings and collaborators for NewManager.
// All fields are required.
type ManagerConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	Codes      CodeGenerator
	URLBuilder AuthorizationURLBuilder
	Exchanger  TokenExchanger
	Browser    BrowserSession
	Store      credstore.Store
}

// Manager orchestrates authentication, token refresh, and credential
// persistence for a single account. At most one authentication attempt is in
// flight at any time; the pending handle is the mutual-exclusion point.
type Manager struct {
	clientID     string
	clientSecret string
	redirectURI  string

	codes     CodeGenerator
	builder   AuthorizationURLBuilder
	exchanger TokenExchanger
	browser   BrowserSession
	store     credstore.Store

	now func() time.Time

	mu      sync.Mutex
	pending *pendingAuth

	// refreshGroup collapses concurrent refresh attempts into one exchange.
	refreshGroup singleflight.Group
}

// NewManager creates a Manager from explicitly injected collaborators.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	switch {
	case cfg.ClientID == "":
		return nil, fmt.Errorf("missing client id")
	case cfg.RedirectURI == "":
		return nil, fmt.Errorf("missing redirect URI")
	case cfg.Codes == nil:
		return nil, fmt.Errorf("missing code generator")
	case cfg.URLBuilder == nil:
		return nil, fmt.Errorf("missing URL builder")
	case cfg.Exchanger == nil:
		return nil, fmt.Errorf("missing token exchanger")
	case cfg.Browser == nil:
		return nil, fmt.Errorf("missing browser session")
	case cfg.Store == nil:
		return nil, fmt.Errorf("missing credential store")
	}

	return &Manager{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		codes:        cfg.Codes,
		builder:      cfg.URLBuilder,
		exchanger:    cfg.Exchanger,
		browser:      cfg.Browser,
		store:        cfg.Store,
		now:          time.Now,
	}, nil
}

// Authenticate runs one authorization-code attempt end to end: PKCE material,
// authorization URL, browser hand-off, code exchange, credential persistence.
// It blocks until the browser session completes or ctx is cancelled. A second
// call while one is pending fails with twitter.ErrAuthenticationInProgress.
func (m *Manager) Authenticate(ctx context.Context) error {
	verifier, err := m.codes.GenerateCodeVerifier()
	if err != nil || verifier == "" {
		return twitter.ErrCodeVerifierGenerationFailed
	}
	challenge := m.codes.GenerateCodeChallenge(verifier)
	state := uuid.NewString()

	authURL, err := m.builder.Build(m.clientID, m.redirectURI, challenge, state)
	if err != nil {
		return fmt.Errorf("%w: %v", twitter.ErrInvalidURL, err)
	}

	pending := &pendingAuth{
		verifier: verifier,
		state:    state,
		done:     make(chan callbackResult, 1),
	}
	m.mu.Lock()
	if m.pending != nil {
		m.mu.Unlock()
		return twitter.ErrAuthenticationInProgress
	}
	m.pending = pending
	m.mu.Unlock()

	m.browser.Start(ctx, authURL, m.redirectURI, m.completeAuthentication)

	// Suspension is bounded only by the user's interaction with the browser
	// and the caller's context; there is no internal timeout.
	var result callbackResult
	select {
	case result = <-pending.done:
	case <-ctx.Done():
		m.takePending()
		return ctx.Err()
	}
	if result.err != nil {
		return result.err
	}

	code, err := authorizationCode(result.callbackURL, pending.state)
	if err != nil {
		return err
	}
	if pending.verifier == "" {
		return twitter.ErrCodeVerifierNotFound
	}

	tokens, err := m.exchanger.ExchangeCode(ctx, code, m.clientID, m.clientSecret, m.redirectURI, pending.verifier)
	if err != nil {
		return err
	}
	return m.saveTokens(ctx, tokens)
}

// completeAuthentication consumes the pending handle and resumes the waiting
// Authenticate call. The handle is cleared before the result is examined, so
// a second delivery is structurally impossible to act on.
func (m *Manager) completeAuthentication(callbackURL *url.URL, err error) {
	pending := m.takePending()
	if pending == nil {
		return
	}
	pending.done <- callbackResult{callbackURL: callbackURL, err: err}
}

// takePending removes and returns the in-flight attempt, or nil when none.
func (m *Manager) takePending() *pendingAuth {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pending
	m.pending = nil
	return p
}

// authorizationCode extracts the code from a redirect callback URL and
// verifies the anti-CSRF state when the provider echoed one.
func authorizationCode(callbackURL *url.URL, expectedState string) (string, error) {
	if callbackURL == nil {
		return "", twitter.ErrInvalidResponse
	}
	query := callbackURL.Query()
	if state := query.Get("state"); state != "" && state != expectedState {
		return "", twitter.ErrInvalidResponse
	}
	code := query.Get("code")
	if code == "" {
		return "", twitter.ErrInvalidResponse
	}
	return code, nil
}

// AccessToken returns a valid access token for the stored account, refreshing
// first when the stored one is expired or within five minutes of expiry. The
// fast path performs no network calls.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	if err := m.RefreshTokenIfNeeded(ctx); err != nil {
		return "", err
	}

	token, ok, err := m.store.Get(ctx, credstore.AuthTokenKey)
	if err != nil {
		return "", err
	}
	if !ok || token == "" {
		return "", twitter.ErrInvalidResponse
	}
	return token, nil
}

// RefreshTokenIfNeeded refreshes the stored bundle unless the stored
// expiration is more than five minutes away. Concurrent callers share a
// single refresh exchange.
func (m *Manager) RefreshTokenIfNeeded(ctx context.Context) error {
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return nil, m.refreshTokenIfNeeded(ctx)
	})
	return err
}

func (m *Manager) refreshTokenIfNeeded(ctx context.Context) error {
	refreshToken, ok, err := m.store.Get(ctx, credstore.RefreshTokenKey)
	if err != nil {
		return err
	}
	if !ok || refreshToken == "" {
		return twitter.ErrRefreshTokenNotFound
	}

	expiry, ok, err := credstore.GetTime(ctx, m.store, credstore.TokenExpirationKey)
	if err != nil {
		return err
	}
	if ok && expiry.After(m.now().Add(refreshLeeway)) {
		// Token is still valid.
		return nil
	}

	tokens, err := m.exchanger.Refresh(ctx, refreshToken, m.clientID, m.clientSecret)
	if err != nil {
		if twitter.IsOAuthError(err) {
			return err
		}
		return &twitter.RefreshError{Message: err.Error()}
	}
	return m.saveTokens(ctx, tokens)
}

// saveTokens persists the bundle in one batched store write. The expiration
// instant is computed here, at persistence time. A response without a new
// refresh token keeps the previously stored one.
func (m *Manager) saveTokens(ctx context.Context, tokens *twitter.TokenResponse) error {
	values := map[string]string{
		credstore.AuthTokenKey:       tokens.AccessToken,
		credstore.TokenExpirationKey: credstore.FormatTime(m.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)),
	}
	if tokens.RefreshToken != "" {
		values[credstore.RefreshTokenKey] = tokens.RefreshToken
	}

	if err := m.store.SetAll(ctx, values); err != nil {
		return fmt.Errorf("persisting tokens: %w", err)
	}
	return nil
}

// DeleteAccessToken removes all persisted credentials. The keys go in one
// batched delete, so partial removal is never observable.
func (m *Manager) DeleteAccessToken(ctx context.Context) error {
	return m.store.DeleteAll(ctx,
		credstore.AuthTokenKey,
		credstore.RefreshTokenKey,
		credstore.TokenExpirationKey,
	)
}
