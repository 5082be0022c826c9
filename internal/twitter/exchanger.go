package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// tokenEndpoint is the provider's OAuth 2.0 token endpoint.
const tokenEndpoint = "https://api.twitter.com/2/oauth2/token"

// defaultExpiresIn is assumed when the provider omits expires_in, in seconds.
const defaultExpiresIn = 7200

// TokenResponse is a parsed token endpoint response. RefreshToken is empty
// when the provider omitted it; the caller must retain the previous one.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Exchanger performs the two token-bearing calls against the provider's
// token endpoint: code-for-token and refresh-for-token. It is stateless;
// client credentials are passed per call.
type Exchanger struct {
	endpoint   string
	httpClient *http.Client
}

// ExchangerOption configures an Exchanger.
type ExchangerOption func(*Exchanger)

// WithTokenEndpoint overrides the token endpoint URL.
func WithTokenEndpoint(endpoint string) ExchangerOption {
	return func(e *Exchanger) {
		if endpoint != "" {
			e.endpoint = endpoint
		}
	}
}

// WithExchangerHTTPClient sets the HTTP client used for token requests.
func WithExchangerHTTPClient(c *http.Client) ExchangerOption {
	return func(e *Exchanger) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// NewExchanger creates an Exchanger for the provider's token endpoint.
func NewExchanger(opts ...ExchangerOption) *Exchanger {
	e := &Exchanger{
		endpoint:   tokenEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExchangeCode trades an authorization code and its PKCE verifier for a
// token bundle.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, clientID, clientSecret, redirectURI, codeVerifier string) (*TokenResponse, error) {
	form := url.Values{
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"client_id":     {clientID},
		"redirect_uri":  {redirectURI},
		"code_verifier": {codeVerifier},
	}
	return e.do(ctx, clientID, clientSecret, form)
}

// Refresh trades a refresh token for a new token bundle.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*TokenResponse, error) {
	form := url.Values{
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return e.do(ctx, clientID, clientSecret, form)
}

func (e *Exchanger) do(ctx context.Context, clientID, clientSecret string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeError{Message: oauthErrorMessage(body)}
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, ErrInvalidResponse
	}
	accessToken, ok := parsed["access_token"].(string)
	if !ok {
		return nil, ErrInvalidResponse
	}

	out := &TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   defaultExpiresIn,
	}
	if refresh, ok := parsed["refresh_token"].(string); ok {
		out.RefreshToken = refresh
	}
	// expires_in must be a JSON number; anything else keeps the default.
	if expires, ok := parsed["expires_in"].(float64); ok {
		out.ExpiresIn = int(expires)
	}
	return out, nil
}

// oauthErrorMessage extracts error_description from an OAuth error body,
// falling back to "Unknown error" for empty or unparseable bodies.
func oauthErrorMessage(body []byte) string {
	var parsed struct {
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.ErrorDescription == "" {
		return "Unknown error"
	}
	return parsed.ErrorDescription
}
