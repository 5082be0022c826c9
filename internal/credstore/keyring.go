package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps credentials in the OS-native secret service. Each key
// maps to one keyring entry under a shared service name, so SetAll and
// DeleteAll degrade to sequential per-entry writes on this backend.
type KeyringStore struct {
	service string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore scoped to the given service
// identifier.
func NewKeyringStore(service string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	return &KeyringStore{service: service}, nil
}

// Get returns the keyring entry for key.
func (k *KeyringStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value in the keyring entry for key.
func (k *KeyringStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return keyring.Set(k.service, key, value)
}

// Delete removes the keyring entry for key.
func (k *KeyringStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := keyring.Delete(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// SetAll stores all entries of values, one keyring write per key.
func (k *KeyringStore) SetAll(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := k.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll removes all named keys, one keyring write per key.
func (k *KeyringStore) DeleteAll(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := k.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
