package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMClientAPI is the subset of the SSM client used here
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// AWSSSMStore reads SecureString (or plain) parameters from Parameter Store.
type AWSSSMStore struct {
	client SSMClientAPI
	prefix string
}

// NewAWSSSMStore creates a store over an existing client. prefix is
// prepended to every parameter name.
func NewAWSSSMStore(client SSMClientAPI, prefix string) *AWSSSMStore {
	return &AWSSSMStore{client: client, prefix: prefix}
}

// NewAWSSSMStoreFromConfig creates a store with a real client
func NewAWSSSMStoreFromConfig(cfg aws.Config, prefix string) *AWSSSMStore {
	return NewAWSSSMStore(ssm.NewFromConfig(cfg), prefix)
}

// Name returns the store type
func (s *AWSSSMStore) Name() string {
	return StoreAWSSSM
}

// GetSecret returns the decrypted value of the named parameter
func (s *AWSSSMStore) GetSecret(ctx context.Context, name string) (string, error) {
	parameterName := s.prefix + name

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", &NotFoundError{Store: s.Name(), Key: parameterName, Err: err}
		}
		if isAWSAuthError(err) {
			return "", &AuthError{Store: s.Name(), Message: awsErrorCode(err), Err: err}
		}
		return "", fmt.Errorf("SSM error: %w", err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", parameterName)
	}
	return *result.Parameter.Value, nil
}
