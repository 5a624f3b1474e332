package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keyring service entries are stored under.
const DefaultKeyringService = "cienv"

// KeyringStore reads secrets from the OS keyring. It is meant for running
// CI manifests on a developer machine.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a store for service, or DefaultKeyringService
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

// Name returns the store type
func (s *KeyringStore) Name() string {
	return StoreKeyring
}

// GetSecret looks name up as a user under the store's service.
func (s *KeyringStore) GetSecret(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value, err := keyring.Get(s.service, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", &NotFoundError{Store: s.Name(), Key: s.service + "/" + name, Err: err}
		}
		return "", fmt.Errorf("keyring error: %w", err)
	}
	return value, nil
}
