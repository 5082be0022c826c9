package oauth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/credstore"
)

// tokenSource adapts a Manager to oauth2.TokenSource so the managed
// credentials can authenticate standard oauth2 transports.
type tokenSource struct {
	ctx     context.Context
	manager *Manager
}

// Compile-time check to ensure tokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*tokenSource)(nil)

// TokenSource returns an oauth2.TokenSource backed by this manager.
// oauth2.TokenSource.Token takes no context parameter, so the context is
// captured here per the oauth2 package's documented convention.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: m}
}

// Token returns a valid token, refreshing through the manager if necessary.
func (ts *tokenSource) Token() (*oauth2.Token, error) {
	access, err := ts.manager.AccessToken(ts.ctx)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if expiry, ok, err := credstore.GetTime(ts.ctx, ts.manager.store, credstore.TokenExpirationKey); err == nil && ok {
		token.Expiry = expiry
	}
	return token, nil
}
