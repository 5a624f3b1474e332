package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	dserrors "github.com/systmms/cienv/internal/errors"
)

// GCPSecretManagerClientAPI is the subset of the Secret Manager client used here
type GCPSecretManagerClientAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// GCPSecretManagerStore reads the latest version of GCP secrets.
type GCPSecretManagerStore struct {
	client    GCPSecretManagerClientAPI
	projectID string
}

// NewGCPSecretManagerStore creates a store over an existing client
func NewGCPSecretManagerStore(client GCPSecretManagerClientAPI, projectID string) *GCPSecretManagerStore {
	return &GCPSecretManagerStore{client: client, projectID: projectID}
}

// NewGCPSecretManagerStoreFromOptions builds a real client from the
// secret_store options (project_id, service_account_key_path).
func NewGCPSecretManagerStoreFromOptions(ctx context.Context, options map[string]interface{}) (*GCPSecretManagerStore, error) {
	projectID := stringOption(options, "project_id")
	if projectID == "" {
		projectID = getGCPProjectID()
	}
	if projectID == "" {
		return nil, dserrors.ConfigError{
			Field:      "secret_store.project_id",
			Message:    "project_id is required for GCP Secret Manager",
			Suggestion: "Set project_id in config or GOOGLE_CLOUD_PROJECT environment variable",
		}
	}

	var clientOptions []option.ClientOption
	if keyPath := stringOption(options, "service_account_key_path"); keyPath != "" {
		if strings.HasPrefix(keyPath, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			keyPath = filepath.Join(home, keyPath[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
	}

	client, err := secretmanager.NewClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}
	return NewGCPSecretManagerStore(client, projectID), nil
}

func getGCPProjectID() string {
	for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"} {
		if projectID := os.Getenv(key); projectID != "" {
			return projectID
		}
	}
	return ""
}

// Name returns the store type
func (s *GCPSecretManagerStore) Name() string {
	return StoreGCPSecretManager
}

// GetSecret accepts a bare secret name or a full resource name.
func (s *GCPSecretManagerStore) GetSecret(ctx context.Context, name string) (string, error) {
	resourceName := s.resourceName(name)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return "", &NotFoundError{Store: s.Name(), Key: resourceName, Err: err}
		case codes.PermissionDenied, codes.Unauthenticated:
			return "", &AuthError{Store: s.Name(), Message: status.Code(err).String(), Err: err}
		}
		return "", fmt.Errorf("GCP Secret Manager error: %w", err)
	}

	if result.Payload == nil || result.Payload.Data == nil {
		return "", fmt.Errorf("secret %q has no data", resourceName)
	}
	return string(result.Payload.Data), nil
}

func (s *GCPSecretManagerStore) resourceName(name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)
}
