package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultRoleSessionName is the session name the CI roles are assumed with.
const DefaultRoleSessionName = "CI_Test_Run"

// STSClientAPI is the subset of the STS client used here
type STSClientAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Credentials are the three components of a temporary AWS identity.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// AWSRoleAssumer exchanges the caller's identity for a role's.
type AWSRoleAssumer struct {
	client      STSClientAPI
	sessionName string
	duration    int32
}

// NewAWSRoleAssumer creates an assumer. An empty sessionName selects
// DefaultRoleSessionName; durationSeconds <= 0 leaves the STS default.
func NewAWSRoleAssumer(client STSClientAPI, sessionName string, durationSeconds int32) *AWSRoleAssumer {
	if sessionName == "" {
		sessionName = DefaultRoleSessionName
	}
	return &AWSRoleAssumer{
		client:      client,
		sessionName: sessionName,
		duration:    durationSeconds,
	}
}

// NewAWSRoleAssumerFromConfig creates an assumer with a real client
func NewAWSRoleAssumerFromConfig(cfg aws.Config, sessionName string, durationSeconds int32) *AWSRoleAssumer {
	return NewAWSRoleAssumer(sts.NewFromConfig(cfg), sessionName, durationSeconds)
}

// AssumeRole performs a single sts:AssumeRole call.
func (a *AWSRoleAssumer) AssumeRole(ctx context.Context, roleARN string) (Credentials, error) {
	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(a.sessionName),
	}
	if a.duration > 0 {
		input.DurationSeconds = aws.Int32(a.duration)
	}

	result, err := a.client.AssumeRole(ctx, input)
	if err != nil {
		if isAWSAuthError(err) {
			return Credentials{}, &AuthError{Store: "aws-sts", Message: awsErrorCode(err), Err: err}
		}
		return Credentials{}, fmt.Errorf("STS error: %w", err)
	}

	creds := result.Credentials
	if creds == nil || creds.AccessKeyId == nil || creds.SecretAccessKey == nil || creds.SessionToken == nil {
		return Credentials{}, fmt.Errorf("STS returned incomplete credentials")
	}

	return Credentials{
		AccessKeyID:     *creds.AccessKeyId,
		SecretAccessKey: *creds.SecretAccessKey,
		SessionToken:    *creds.SessionToken,
	}, nil
}
