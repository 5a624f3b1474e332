package providers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/cienv/internal/providers"
	"github.com/systmms/cienv/tests/fakes"
)

func TestAWSSecretsManagerStore_GetSecret(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeSecretsManagerClient()
	client.AddSecretString("ci/token", "abc123")
	client.AddSecretBinary("ci/cert", []byte{0x01, 0x02, 0xff})
	client.AddError("ci/denied", &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"})
	client.AddError("ci/broken", errors.New("connection reset"))

	store := providers.NewAWSSecretsManagerStore(client)
	assert.Equal(t, providers.StoreAWSSecretsManager, store.Name())

	tests := []struct {
		name     string
		secret   string
		want     string
		wantErr  bool
		notFound bool
		auth     bool
	}{
		{name: "string_secret", secret: "ci/token", want: "abc123"},
		{name: "binary_secret", secret: "ci/cert", want: string([]byte{0x01, 0x02, 0xff})},
		{name: "missing_secret", secret: "ci/missing", wantErr: true, notFound: true},
		{name: "access_denied", secret: "ci/denied", wantErr: true, auth: true},
		{name: "transport_error", secret: "ci/broken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetSecret(context.Background(), tt.secret)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.notFound, providers.IsNotFound(err))
			var authErr *providers.AuthError
			assert.Equal(t, tt.auth, errors.As(err, &authErr))
		})
	}
}

func TestAWSSSMStore_GetSecret(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeSSMClient()
	client.Parameters["/ci/db-password"] = "hunter2"

	store := providers.NewAWSSSMStore(client, "/ci/")

	got, err := store.GetSecret(context.Background(), "db-password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
	assert.True(t, client.Decrypted)

	_, err = store.GetSecret(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, providers.IsNotFound(err))
	assert.Contains(t, err.Error(), "/ci/absent")
}

func TestAWSRoleAssumer_AssumeRole(t *testing.T) {
	t.Parallel()

	const roleARN = "arn:aws:iam::123456789012:role/ci"

	client := fakes.NewFakeSTSClient()
	client.AddRole(roleARN, "AKIAEXAMPLE", "secretkey", "sessiontoken")

	assumer := providers.NewAWSRoleAssumer(client, "", 900)

	creds, err := assumer.AssumeRole(context.Background(), roleARN)
	require.NoError(t, err)
	assert.Equal(t, providers.Credentials{
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secretkey",
		SessionToken:    "sessiontoken",
	}, creds)

	require.Len(t, client.Inputs, 1)
	assert.Equal(t, providers.DefaultRoleSessionName, *client.Inputs[0].RoleSessionName)
	assert.Equal(t, int32(900), *client.Inputs[0].DurationSeconds)
}

func TestAWSRoleAssumer_Errors(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeSTSClient()
	client.Errors["arn:aws:iam::123456789012:role/broken"] = errors.New("dial tcp: timeout")

	assumer := providers.NewAWSRoleAssumer(client, "custom-session", 0)

	t.Run("access_denied", func(t *testing.T) {
		_, err := assumer.AssumeRole(context.Background(), "arn:aws:iam::123456789012:role/unknown")
		var authErr *providers.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "AccessDenied", authErr.Message)
	})

	t.Run("transport_error", func(t *testing.T) {
		_, err := assumer.AssumeRole(context.Background(), "arn:aws:iam::123456789012:role/broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STS error")
	})

	t.Run("no_duration_by_default", func(t *testing.T) {
		require.NotEmpty(t, client.Inputs)
		for _, in := range client.Inputs {
			assert.Nil(t, in.DurationSeconds)
			assert.Equal(t, "custom-session", *in.RoleSessionName)
		}
	})
}
