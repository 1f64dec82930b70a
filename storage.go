package imagechat

import (
	"context"
	"fmt"
)

// Storage is the durable key-value capability the orchestrator consumes for
// session and credential persistence. Implementations wrap whatever the host
// environment offers; store/sqlite provides a file-backed one.
type Storage interface {
	// Get returns the value for key, and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error
}

// Fixed storage keys. The full session list serializes under one key,
// credentials under one key per backend.
const (
	sessionsStorageKey  = "imagechat.sessions"
	credentialKeyPrefix = "imagechat.credentials."
)

// Credentials resolves and stores API keys per backend. A missing credential
// is reported by the executor as ErrMissingCredentials.
type Credentials interface {
	// Get returns the stored API key for a backend, or "" when absent.
	Get(ctx context.Context, backend Backend) (string, error)

	// Set stores an API key for a backend.
	Set(ctx context.Context, backend Backend, apiKey string) error
}

// StoredCredentials keeps API keys in the durable Storage.
type StoredCredentials struct {
	storage Storage
}

var _ Credentials = (*StoredCredentials)(nil)

// NewStoredCredentials creates a credential provider over the given storage.
func NewStoredCredentials(storage Storage) *StoredCredentials {
	return &StoredCredentials{storage: storage}
}

func (c *StoredCredentials) Get(ctx context.Context, backend Backend) (string, error) {
	if c.storage == nil {
		return "", ErrStorageNotConfigured
	}
	value, _, err := c.storage.Get(ctx, credentialKeyPrefix+string(backend))
	if err != nil {
		return "", fmt.Errorf("reading credential for %s: %w", backend, err)
	}
	return value, nil
}

func (c *StoredCredentials) Set(ctx context.Context, backend Backend, apiKey string) error {
	if c.storage == nil {
		return ErrStorageNotConfigured
	}
	if err := c.storage.Set(ctx, credentialKeyPrefix+string(backend), apiKey); err != nil {
		return fmt.Errorf("storing credential for %s: %w", backend, err)
	}
	return nil
}

// StaticCredentials serves fixed API keys from memory. Useful for examples and
// for callers that manage keys themselves.
type StaticCredentials map[Backend]string

var _ Credentials = (StaticCredentials)(nil)

func (c StaticCredentials) Get(_ context.Context, backend Backend) (string, error) {
	return c[backend], nil
}

func (c StaticCredentials) Set(_ context.Context, backend Backend, apiKey string) error {
	c[backend] = apiKey
	return nil
}
