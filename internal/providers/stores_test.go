package providers_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/providers"
	"github.com/systmms/cienv/tests/fakes"
)

func TestGCPSecretManagerStore_GetSecret(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeGCPSecretManagerClient()
	client.AddSecretVersion("projects/ci/secrets/token/versions/latest", []byte("gcp-value"))
	client.AddSecretVersion("projects/other/secrets/token/versions/3", []byte("pinned"))
	client.Errors["projects/ci/secrets/denied/versions/latest"] = status.Error(codes.PermissionDenied, "denied")

	store := providers.NewGCPSecretManagerStore(client, "ci")

	got, err := store.GetSecret(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "gcp-value", got)

	got, err = store.GetSecret(context.Background(), "projects/other/secrets/token/versions/3")
	require.NoError(t, err)
	assert.Equal(t, "pinned", got)

	_, err = store.GetSecret(context.Background(), "absent")
	assert.True(t, providers.IsNotFound(err))

	_, err = store.GetSecret(context.Background(), "denied")
	var authErr *providers.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestAzureKeyVaultStore_GetSecret(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeAzureKeyVaultClient()
	client.Secrets["ci-token"] = "azure-value"
	client.Errors["denied"] = fakes.AzureForbiddenError()

	store := providers.NewAzureKeyVaultStore(client)
	assert.Equal(t, providers.StoreAzureKeyVault, store.Name())

	got, err := store.GetSecret(context.Background(), "ci-token")
	require.NoError(t, err)
	assert.Equal(t, "azure-value", got)

	_, err = store.GetSecret(context.Background(), "absent")
	assert.True(t, providers.IsNotFound(err))

	_, err = store.GetSecret(context.Background(), "denied")
	var authErr *providers.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestKeyringStore_GetSecret(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("cienv-test", "ci/token", "keyring-value"))

	store := providers.NewKeyringStore("cienv-test")

	got, err := store.GetSecret(context.Background(), "ci/token")
	require.NoError(t, err)
	assert.Equal(t, "keyring-value", got)

	_, err = store.GetSecret(context.Background(), "absent")
	assert.True(t, providers.IsNotFound(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.GetSecret(ctx, "ci/token")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSecretStore(t *testing.T) {
	t.Run("unknown_type", func(t *testing.T) {
		_, err := providers.NewSecretStore(context.Background(), providers.StoreConfig{Type: "vault"})
		var cfgErr dserrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "secret_store.type", cfgErr.Field)
		assert.Contains(t, cfgErr.Suggestion, providers.StoreKeyring)
	})

	t.Run("keyring", func(t *testing.T) {
		store, err := providers.NewSecretStore(context.Background(), providers.StoreConfig{
			Type:    providers.StoreKeyring,
			Options: map[string]interface{}{"service": "ci"},
		})
		require.NoError(t, err)
		assert.Equal(t, providers.StoreKeyring, store.Name())
	})

	t.Run("azure_requires_vault_url", func(t *testing.T) {
		_, err := providers.NewSecretStore(context.Background(), providers.StoreConfig{Type: providers.StoreAzureKeyVault})
		var cfgErr dserrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "secret_store.vault_url", cfgErr.Field)
	})
}

func TestSupportedStoreTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		providers.StoreAWSSecretsManager,
		providers.StoreAWSSSM,
		providers.StoreAzureKeyVault,
		providers.StoreGCPSecretManager,
		providers.StoreKeyring,
	}, providers.SupportedStoreTypes())
}

func TestLazySecretStore(t *testing.T) {
	t.Parallel()

	t.Run("builds_once", func(t *testing.T) {
		var builds int32
		lazy := providers.NewLazySecretStore(func(ctx context.Context) (providers.SecretStore, error) {
			atomic.AddInt32(&builds, 1)
			return fakes.NewFakeSecretStore().WithSecret("a", "1").WithSecret("b", "2"), nil
		})
		assert.False(t, lazy.Built())

		a, err := lazy.GetSecret(context.Background(), "a")
		require.NoError(t, err)
		b, err := lazy.GetSecret(context.Background(), "b")
		require.NoError(t, err)

		assert.Equal(t, "1", a)
		assert.Equal(t, "2", b)
		assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
		assert.True(t, lazy.Built())
	})

	t.Run("remembers_build_error", func(t *testing.T) {
		var builds int32
		lazy := providers.NewLazySecretStore(func(ctx context.Context) (providers.SecretStore, error) {
			atomic.AddInt32(&builds, 1)
			return nil, errors.New("no credentials")
		})

		_, err := lazy.GetSecret(context.Background(), "a")
		assert.EqualError(t, err, "no credentials")
		_, err = lazy.GetSecret(context.Background(), "a")
		assert.EqualError(t, err, "no credentials")
		assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	})
}
