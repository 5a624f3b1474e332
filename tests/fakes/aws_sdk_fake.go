package fakes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
)

// FakeSecretsManagerClient is an in-memory Secrets Manager
type FakeSecretsManagerClient struct {
	// Secrets maps secret names to their data
	Secrets map[string]*SecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// Calls counts GetSecretValue invocations
	Calls int
	mu    sync.Mutex
}

// SecretData holds the data for a fake secret
type SecretData struct {
	SecretString *string
	SecretBinary []byte
}

// NewFakeSecretsManagerClient creates an empty fake
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*SecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.Secrets[name] = &SecretData{SecretString: aws.String(value)}
}

// AddSecretBinary adds a binary secret
func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	f.Secrets[name] = &SecretData{SecretBinary: value}
}

// AddError makes lookups of name fail with err
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// GetSecretValue implements the Secrets Manager client method
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	f.Calls++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := aws.ToString(params.SecretId)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}

	data, ok := f.Secrets[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", name)),
		}
	}

	return &secretsmanager.GetSecretValueOutput{
		Name:         aws.String(name),
		SecretString: data.SecretString,
		SecretBinary: data.SecretBinary,
	}, nil
}

// FakeSSMClient is an in-memory Parameter Store
type FakeSSMClient struct {
	// Parameters maps parameter names to values
	Parameters map[string]string
	// Errors maps parameter names to errors to return
	Errors map[string]error
	// Decrypted records whether every call asked for decryption
	Decrypted bool
}

// NewFakeSSMClient creates an empty fake
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]string),
		Errors:     make(map[string]error),
		Decrypted:  true,
	}
}

// GetParameter implements the SSM client method
func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if !aws.ToBool(params.WithDecryption) {
		f.Decrypted = false
	}

	name := aws.ToString(params.Name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}

	value, ok := f.Parameters[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String(name)}
	}

	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:  aws.String(name),
			Value: aws.String(value),
			Type:  ssmtypes.ParameterTypeSecureString,
		},
	}, nil
}

// FakeSTSClient grants fixed credentials for known role ARNs
type FakeSTSClient struct {
	// Roles maps role ARNs to the credentials they grant
	Roles map[string]ststypes.Credentials
	// Errors maps role ARNs to errors to return
	Errors map[string]error
	// Inputs records every AssumeRole request
	Inputs []*sts.AssumeRoleInput
}

// NewFakeSTSClient creates a fake with no assumable roles
func NewFakeSTSClient() *FakeSTSClient {
	return &FakeSTSClient{
		Roles:  make(map[string]ststypes.Credentials),
		Errors: make(map[string]error),
	}
}

// AddRole makes roleARN assumable with the given credential parts
func (f *FakeSTSClient) AddRole(roleARN, accessKeyID, secretAccessKey, sessionToken string) {
	f.Roles[roleARN] = ststypes.Credentials{
		AccessKeyId:     aws.String(accessKeyID),
		SecretAccessKey: aws.String(secretAccessKey),
		SessionToken:    aws.String(sessionToken),
	}
}

// AssumeRole implements the STS client method
func (f *FakeSTSClient) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.Inputs = append(f.Inputs, params)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	arn := aws.ToString(params.RoleArn)
	if err, ok := f.Errors[arn]; ok {
		return nil, err
	}

	creds, ok := f.Roles[arn]
	if !ok {
		return nil, &smithy.GenericAPIError{
			Code:    "AccessDenied",
			Message: fmt.Sprintf("not authorized to perform sts:AssumeRole on %s", arn),
		}
	}
	return &sts.AssumeRoleOutput{Credentials: &creds}, nil
}

// FakeS3Client serves objects from memory
type FakeS3Client struct {
	// Objects maps "bucket/key" to object content
	Objects map[string][]byte
	// Errors maps "bucket/key" to errors to return
	Errors map[string]error
}

// NewFakeS3Client creates an empty fake
func NewFakeS3Client() *FakeS3Client {
	return &FakeS3Client{
		Objects: make(map[string][]byte),
		Errors:  make(map[string]error),
	}
}

// AddObject stores content under bucket/key
func (f *FakeS3Client) AddObject(bucket, key string, content []byte) {
	f.Objects[bucket+"/"+key] = content
}

// GetObject implements the S3 client method. Range headers are ignored and
// the whole object is returned.
func (f *FakeS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	if err, ok := f.Errors[path]; ok {
		return nil, err
	}

	content, ok := f.Objects[path]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(content)),
		ContentLength: aws.Int64(int64(len(content))),
	}, nil
}
