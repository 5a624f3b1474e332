package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeSecretStore is an in-memory secret store.
//
//	store := fakes.NewFakeSecretStore().
//	    WithSecret("ci/token", "abc").
//	    WithError("ci/broken", errors.New("boom"))
type FakeSecretStore struct {
	secrets map[string]string
	failOn  map[string]error
	delay   time.Duration

	mu    sync.Mutex
	calls []string
}

// NewFakeSecretStore creates an empty store
func NewFakeSecretStore() *FakeSecretStore {
	return &FakeSecretStore{
		secrets: make(map[string]string),
		failOn:  make(map[string]error),
	}
}

// WithSecret stores value under name
func (f *FakeSecretStore) WithSecret(name, value string) *FakeSecretStore {
	f.secrets[name] = value
	return f
}

// WithError makes lookups of name fail with err
func (f *FakeSecretStore) WithError(name string, err error) *FakeSecretStore {
	f.failOn[name] = err
	return f
}

// WithDelay makes every lookup wait d or until the context is done
func (f *FakeSecretStore) WithDelay(d time.Duration) *FakeSecretStore {
	f.delay = d
	return f
}

// Name returns the store type
func (f *FakeSecretStore) Name() string {
	return "fake"
}

// GetSecret returns the configured value or error for name
func (f *FakeSecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err, ok := f.failOn[name]; ok {
		return "", err
	}
	value, ok := f.secrets[name]
	if !ok {
		return "", fmt.Errorf("secret %q not found", name)
	}
	return value, nil
}

// Calls returns the names looked up so far, in order
func (f *FakeSecretStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
