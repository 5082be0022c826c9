package twitter

import (
	"fmt"
	"net/url"
)

// authorizeEndpoint is the provider's OAuth 2.0 authorization page.
const authorizeEndpoint = "https://twitter.com/i/oauth2/authorize"

// scopes is the fixed scope set requested during authorization.
// offline.access makes the provider issue refresh tokens.
const scopes = "tweet.read tweet.write users.read offline.access"

// URLBuilder renders provider authorization URLs. It is a pure function of
// its inputs; one attempt's challenge and state never leak into another's.
type URLBuilder struct {
	endpoint string
}

// URLBuilderOption configures a URLBuilder.
type URLBuilderOption func(*URLBuilder)

// WithAuthorizeEndpoint overrides the authorization endpoint URL.
func WithAuthorizeEndpoint(endpoint string) URLBuilderOption {
	return func(b *URLBuilder) {
		if endpoint != "" {
			b.endpoint = endpoint
		}
	}
}

// NewURLBuilder creates a URLBuilder for the provider's authorization
// endpoint.
func NewURLBuilder(opts ...URLBuilderOption) *URLBuilder {
	b := &URLBuilder{endpoint: authorizeEndpoint}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the authorization URL for one authentication attempt.
func (b *URLBuilder) Build(clientID, redirectURI, codeChallenge, state string) (string, error) {
	base, err := url.Parse(b.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", scopes)
	q.Set("state", state)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "S256")
	base.RawQuery = q.Encode()

	return base.String(), nil
}
