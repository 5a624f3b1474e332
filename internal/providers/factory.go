package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	dserrors "github.com/systmms/cienv/internal/errors"
)

// Secret store types accepted in secret_store.type.
const (
	StoreAWSSecretsManager = "aws-secretsmanager"
	StoreAWSSSM            = "aws-ssm"
	StoreGCPSecretManager  = "gcp-secretmanager"
	StoreAzureKeyVault     = "azure-keyvault"
	StoreKeyring           = "keyring"
)

// SecretStore resolves a secret name to its current value.
type SecretStore interface {
	Name() string
	GetSecret(ctx context.Context, name string) (string, error)
}

// StoreConfig selects and configures a SecretStore.
type StoreConfig struct {
	Type    string
	Options map[string]interface{}
	AWS     AWSOptions
}

type storeFactory func(ctx context.Context, cfg StoreConfig) (SecretStore, error)

var storeFactories = map[string]storeFactory{
	StoreAWSSecretsManager: func(ctx context.Context, cfg StoreConfig) (SecretStore, error) {
		awsCfg, err := LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return NewAWSSecretsManagerStoreFromConfig(awsCfg), nil
	},
	StoreAWSSSM: func(ctx context.Context, cfg StoreConfig) (SecretStore, error) {
		awsCfg, err := LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return NewAWSSSMStoreFromConfig(awsCfg, stringOption(cfg.Options, "prefix")), nil
	},
	StoreGCPSecretManager: func(ctx context.Context, cfg StoreConfig) (SecretStore, error) {
		return NewGCPSecretManagerStoreFromOptions(ctx, cfg.Options)
	},
	StoreAzureKeyVault: func(_ context.Context, cfg StoreConfig) (SecretStore, error) {
		return NewAzureKeyVaultStoreFromOptions(cfg.Options)
	},
	StoreKeyring: func(_ context.Context, cfg StoreConfig) (SecretStore, error) {
		return NewKeyringStore(stringOption(cfg.Options, "service")), nil
	},
}

// SupportedStoreTypes returns the accepted store types, sorted
func SupportedStoreTypes() []string {
	types := make([]string, 0, len(storeFactories))
	for t := range storeFactories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewSecretStore creates the store named by cfg.Type. An empty type selects
// AWS Secrets Manager.
func NewSecretStore(ctx context.Context, cfg StoreConfig) (SecretStore, error) {
	storeType := cfg.Type
	if storeType == "" {
		storeType = StoreAWSSecretsManager
	}

	factory, ok := storeFactories[storeType]
	if !ok {
		return nil, dserrors.ConfigError{
			Field:      "secret_store.type",
			Value:      storeType,
			Message:    "unknown secret store type",
			Suggestion: fmt.Sprintf("Use one of: %s", strings.Join(SupportedStoreTypes(), ", ")),
		}
	}
	return factory(ctx, cfg)
}

func stringOption(options map[string]interface{}, key string) string {
	if v, ok := options[key].(string); ok {
		return v
	}
	return ""
}

func boolOption(options map[string]interface{}, key string) bool {
	v, _ := options[key].(bool)
	return v
}
