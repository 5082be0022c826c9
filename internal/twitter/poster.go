package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// tweetsEndpoint is the provider's tweet creation endpoint.
const tweetsEndpoint = "https://api.twitter.com/2/tweets"

// TweetResponse identifies a successfully created tweet.
type TweetResponse struct {
	TweetID string
}

// Poster submits tweets through the provider's write API.
type Poster struct {
	endpoint   string
	httpClient *http.Client
}

// PosterOption configures a Poster.
type PosterOption func(*Poster)

// WithTweetsEndpoint overrides the tweet creation endpoint URL.
func WithTweetsEndpoint(endpoint string) PosterOption {
	return func(p *Poster) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithPosterHTTPClient sets the HTTP client used for tweet submission.
func WithPosterHTTPClient(c *http.Client) PosterOption {
	return func(p *Poster) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewPoster creates a Poster for the provider's tweet endpoint.
func NewPoster(opts ...PosterOption) *Poster {
	p := &Poster{
		endpoint:   tweetsEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostTweet submits text as a new tweet authorized by accessToken.
func (p *Poster) PostTweet(ctx context.Context, text, accessToken string) (*TweetResponse, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, ErrInvalidResponse
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Transport failures surface through the same typed error the caller
		// renders for provider rejections.
		return nil, &ExchangeError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeError{Message: tweetErrorMessage(body)}
	}

	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Data.ID == "" {
		return nil, ErrInvalidResponse
	}
	return &TweetResponse{TweetID: parsed.Data.ID}, nil
}

// tweetErrorMessage extracts a human-readable message from a write API error
// body: errors[0].message first, then detail, else "Unknown error".
func tweetErrorMessage(body []byte) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "Unknown error"
	}
	if len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
		return parsed.Errors[0].Message
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return "Unknown error"
}
