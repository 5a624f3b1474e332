package providers

import (
	"context"
	"sync"
)

// LazySecretStore defers building a store until the first lookup, so that
// manifests without secret directives never load cloud credentials.
type LazySecretStore struct {
	build func(ctx context.Context) (SecretStore, error)

	once  sync.Once
	store SecretStore
	err   error
}

// NewLazySecretStore wraps a store constructor
func NewLazySecretStore(build func(ctx context.Context) (SecretStore, error)) *LazySecretStore {
	return &LazySecretStore{build: build}
}

// NewLazySecretStoreFromConfig defers NewSecretStore(cfg)
func NewLazySecretStoreFromConfig(cfg StoreConfig) *LazySecretStore {
	return NewLazySecretStore(func(ctx context.Context) (SecretStore, error) {
		return NewSecretStore(ctx, cfg)
	})
}

// Built reports whether the underlying store has been constructed
func (l *LazySecretStore) Built() bool {
	return l.store != nil || l.err != nil
}

// GetSecret builds the store on first use and delegates to it. A failed
// build is remembered and returned on every later call.
func (l *LazySecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	l.once.Do(func() {
		// The store outlives the deadline of the lookup that built it.
		l.store, l.err = l.build(context.WithoutCancel(ctx))
	})
	if l.err != nil {
		return "", l.err
	}
	return l.store.GetSecret(ctx, name)
}
