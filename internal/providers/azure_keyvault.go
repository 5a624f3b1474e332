package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	dserrors "github.com/systmms/cienv/internal/errors"
)

// AzureKeyVaultClientAPI is the subset of the Key Vault client used here
type AzureKeyVaultClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVaultStore reads the current version of Key Vault secrets.
type AzureKeyVaultStore struct {
	client AzureKeyVaultClientAPI
}

// NewAzureKeyVaultStore creates a store over an existing client
func NewAzureKeyVaultStore(client AzureKeyVaultClientAPI) *AzureKeyVaultStore {
	return &AzureKeyVaultStore{client: client}
}

// NewAzureKeyVaultStoreFromOptions builds a real client from the
// secret_store options. vault_url is required. Managed identity is used
// when use_managed_identity is set, a service principal when client_secret
// is set, and the default credential chain otherwise.
func NewAzureKeyVaultStoreFromOptions(options map[string]interface{}) (*AzureKeyVaultStore, error) {
	vaultURL := stringOption(options, "vault_url")
	if vaultURL == "" {
		return nil, dserrors.ConfigError{
			Field:      "secret_store.vault_url",
			Message:    "vault_url is required for Azure Key Vault",
			Suggestion: "Set vault_url, e.g. https://my-vault.vault.azure.net/",
		}
	}

	var cred azcore.TokenCredential
	var err error

	switch {
	case boolOption(options, "use_managed_identity"):
		var opts *azidentity.ManagedIdentityCredentialOptions
		if id := stringOption(options, "user_assigned_identity_id"); id != "" {
			opts = &azidentity.ManagedIdentityCredentialOptions{ID: azidentity.ClientID(id)}
		}
		cred, err = azidentity.NewManagedIdentityCredential(opts)
	case stringOption(options, "client_secret") != "":
		cred, err = azidentity.NewClientSecretCredential(
			stringOption(options, "tenant_id"),
			stringOption(options, "client_id"),
			stringOption(options, "client_secret"),
			nil,
		)
	default:
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return NewAzureKeyVaultStore(client), nil
}

// Name returns the store type
func (s *AzureKeyVaultStore) Name() string {
	return StoreAzureKeyVault
}

// GetSecret returns the latest version of the named secret
func (s *AzureKeyVaultStore) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusNotFound:
				return "", &NotFoundError{Store: s.Name(), Key: name, Err: err}
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", &AuthError{Store: s.Name(), Message: respErr.ErrorCode, Err: err}
			}
		}
		return "", fmt.Errorf("azure Key Vault error: %w", err)
	}

	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", name)
	}
	return *resp.Value, nil
}
