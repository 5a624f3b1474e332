package fakes

import (
	"context"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FakeGCPSecretManagerClient serves secret versions from memory
type FakeGCPSecretManagerClient struct {
	// Versions maps version resource names to payloads
	Versions map[string][]byte
	// Errors maps version resource names to errors to return
	Errors map[string]error
}

// NewFakeGCPSecretManagerClient creates an empty fake
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Versions: make(map[string][]byte),
		Errors:   make(map[string]error),
	}
}

// AddSecretVersion stores payload under the full version resource name
func (f *FakeGCPSecretManagerClient) AddSecretVersion(resourceName string, payload []byte) {
	f.Versions[resourceName] = payload
}

// AccessSecretVersion implements the Secret Manager client method
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	if err, ok := f.Errors[req.Name]; ok {
		return nil, err
	}

	payload, ok := f.Versions[req.Name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "Secret Version [%s] not found.", req.Name)
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.Name,
		Payload: &secretmanagerpb.SecretPayload{Data: payload},
	}, nil
}
