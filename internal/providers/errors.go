package providers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// NotFoundError means the store answered but holds no such key.
type NotFoundError struct {
	Store string
	Key   string
	Err   error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q not found", e.Store, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// AuthError means the caller was not allowed to read the key.
type AuthError struct {
	Store   string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: access denied: %s", e.Store, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// awsErrorCode returns the API error code of an AWS SDK error, or "".
func awsErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func isAWSAuthError(err error) bool {
	switch awsErrorCode(err) {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation", "UnrecognizedClientException",
		"InvalidClientTokenId", "ExpiredToken", "ExpiredTokenException":
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") || strings.Contains(errStr, "Forbidden")
}
