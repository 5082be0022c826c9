// Package twitter implements the provider-facing surface of the OAuth flow:
// the authorization URL builder, the token endpoint client, the tweet
// submission client, and the error taxonomy they share.
package twitter

import (
	"errors"
	"fmt"
)

// Sentinel errors of the OAuth flow. Callers match them with errors.Is.
var (
	// ErrInvalidURL reports a URL that could not be constructed or parsed.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidResponse reports a provider response missing required fields,
	// or a redirect callback missing the authorization code.
	ErrInvalidResponse = errors.New("invalid response from server")

	// ErrCodeVerifierGenerationFailed reports that PKCE verifier generation
	// produced no usable verifier.
	ErrCodeVerifierGenerationFailed = errors.New("failed to generate code verifier")

	// ErrCodeVerifierNotFound reports an internal-consistency fault: a code
	// exchange was attempted without a matching verifier.
	ErrCodeVerifierNotFound = errors.New("code verifier not found")

	// ErrUserCancelled reports that the user dismissed the authorization page.
	ErrUserCancelled = errors.New("user cancelled authentication")

	// ErrRefreshTokenNotFound reports that no refresh token is stored.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// ErrAuthenticationInProgress reports a second authentication attempt
	// while one is already pending.
	ErrAuthenticationInProgress = errors.New("authentication already in progress")
)

// ExchangeError reports a provider rejection of a token exchange or tweet
// submission. Message carries the provider's description when one exists.
type ExchangeError struct {
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %s", e.Message)
}

// RefreshError wraps a token refresh failure that is not already part of the
// taxonomy, typically a transport error.
type RefreshError struct {
	Message string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %s", e.Message)
}

// HTTPError reports an HTTP exchange whose response could not be read.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// IsOAuthError reports whether err belongs to the flow's closed error
// taxonomy. Errors outside it get wrapped before they reach a caller.
func IsOAuthError(err error) bool {
	var exchangeErr *ExchangeError
	var refreshErr *RefreshError
	var httpErr *HTTPError
	if errors.As(err, &exchangeErr) || errors.As(err, &refreshErr) || errors.As(err, &httpErr) {
		return true
	}

	for _, sentinel := range []error{
		ErrInvalidURL,
		ErrInvalidResponse,
		ErrCodeVerifierGenerationFailed,
		ErrCodeVerifierNotFound,
		ErrUserCancelled,
		ErrRefreshTokenNotFound,
		ErrAuthenticationInProgress,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
