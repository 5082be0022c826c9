package credstore

import (
	"context"
	"fmt"
	"time"
)

// Keys for the credential slots the OAuth flow persists. The three slots live
// and die together: created on first exchange, overwritten on refresh, all
// removed on logout.
const (
	AuthTokenKey       = "authToken"
	RefreshTokenKey    = "refreshToken"
	TokenExpirationKey = "tokenExpirationDate"
)

// Store reads and writes named secret values.
type Store interface {
	// Get returns the value for key. The boolean reports presence; an absent
	// key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// SetAll stores every entry of values, in a single write where the
	// backend supports it.
	SetAll(ctx context.Context, values map[string]string) error

	// DeleteAll removes every named key, in a single write where the backend
	// supports it.
	DeleteAll(ctx context.Context, keys ...string) error
}

// FormatTime renders an instant the way GetTime expects it stored.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// SetTime stores an instant under key.
func SetTime(ctx context.Context, s Store, key string, t time.Time) error {
	return s.Set(ctx, key, FormatTime(t))
}

// GetTime reads an instant stored by SetTime or FormatTime. The boolean
// reports presence; a present but unparseable value is an error.
func GetTime(ctx context.Context, s Store, key string) (time.Time, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing stored instant %s: %w", key, err)
	}
	return t, true, nil
}
