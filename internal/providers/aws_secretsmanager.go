package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerClientAPI is the subset of the Secrets Manager client used here
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManagerStore reads secrets from AWS Secrets Manager.
type AWSSecretsManagerStore struct {
	client SecretsManagerClientAPI
}

// NewAWSSecretsManagerStore creates a store over an existing client
func NewAWSSecretsManagerStore(client SecretsManagerClientAPI) *AWSSecretsManagerStore {
	return &AWSSecretsManagerStore{client: client}
}

// NewAWSSecretsManagerStoreFromConfig creates a store with a real client
func NewAWSSecretsManagerStoreFromConfig(cfg aws.Config) *AWSSecretsManagerStore {
	return NewAWSSecretsManagerStore(secretsmanager.NewFromConfig(cfg))
}

// Name returns the store type
func (s *AWSSecretsManagerStore) Name() string {
	return StoreAWSSecretsManager
}

// GetSecret returns the current value of the named secret. Binary secrets
// are returned as their raw bytes.
func (s *AWSSecretsManagerStore) GetSecret(ctx context.Context, name string) (string, error) {
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", s.handleError(err, name)
	}

	switch {
	case result.SecretString != nil:
		return *result.SecretString, nil
	case result.SecretBinary != nil:
		return string(result.SecretBinary), nil
	}
	return "", fmt.Errorf("secret %q has no value", name)
}

func (s *AWSSecretsManagerStore) handleError(err error, name string) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &NotFoundError{Store: s.Name(), Key: name, Err: err}
	}
	if isAWSAuthError(err) {
		return &AuthError{Store: s.Name(), Message: awsErrorCode(err), Err: err}
	}
	return fmt.Errorf("AWS Secrets Manager error: %w", err)
}
