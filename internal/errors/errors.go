package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// MalformedDirectiveError marks a manifest entry that cannot become a
// directive. The entry is skipped; the run continues.
type MalformedDirectiveError struct {
	Index  int // zero-based position in its manifest
	Name   string
	Field  string
	Reason string
}

func (e *MalformedDirectiveError) Error() string {
	who := fmt.Sprintf("entry #%d", e.Index)
	if e.Name != "" {
		who = fmt.Sprintf("%s (%s)", who, e.Name)
	}
	if e.Field != "" {
		return fmt.Sprintf("MalformedDirectiveError: %s field %q: %s", who, e.Field, e.Reason)
	}
	return fmt.Sprintf("MalformedDirectiveError: %s: %s", who, e.Reason)
}

// UnsupportedManifestFormatError is returned for manifest locators whose
// extension maps to no known syntax.
type UnsupportedManifestFormatError struct {
	Locator string
}

func (e *UnsupportedManifestFormatError) Error() string {
	return fmt.Sprintf("UnsupportedManifestFormatError: cannot parse %q: unknown extension (want .json, .xml, .yaml or .yml)", e.Locator)
}

// ManifestParseError covers unreadable, missing or syntactically invalid manifests.
type ManifestParseError struct {
	Locator string
	Err     error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("ManifestParseError: %s: %v", e.Locator, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// SecretResolutionError is a failed secret store lookup. Name is the secret
// name, never its value.
type SecretResolutionError struct {
	Name string
	Err  error
}

func (e *SecretResolutionError) Error() string {
	return fmt.Sprintf("SecretResolutionError: secret %q: %v", e.Name, e.Err)
}

func (e *SecretResolutionError) Unwrap() error {
	return e.Err
}

// RoleAssumptionError is a failed credential exchange, including a failed
// lookup of the role ARN itself.
type RoleAssumptionError struct {
	RoleARN string
	Err     error
}

func (e *RoleAssumptionError) Error() string {
	return fmt.Sprintf("RoleAssumptionError: role %q: %v", e.RoleARN, e.Err)
}

func (e *RoleAssumptionError) Unwrap() error {
	return e.Err
}

// DownloadError is a failed object transfer.
type DownloadError struct {
	Locator string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("DownloadError: %s: %v", e.Locator, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// FileWriteError is a failed temp file write during materialization.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("FileWriteError: %v", e.Err)
	}
	return fmt.Sprintf("FileWriteError: %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error {
	return e.Err
}

// Class returns the taxonomy name of err, or "" if err is not part of it.
func Class(err error) string {
	var (
		malformed   *MalformedDirectiveError
		unsupported *UnsupportedManifestFormatError
		parse       *ManifestParseError
		secret      *SecretResolutionError
		role        *RoleAssumptionError
		download    *DownloadError
		write       *FileWriteError
	)
	switch {
	case errors.As(err, &malformed):
		return "MalformedDirectiveError"
	case errors.As(err, &unsupported):
		return "UnsupportedManifestFormatError"
	case errors.As(err, &parse):
		return "ManifestParseError"
	case errors.As(err, &role):
		// checked first: a failed role ARN lookup wraps a SecretResolutionError
		return "RoleAssumptionError"
	case errors.As(err, &secret):
		return "SecretResolutionError"
	case errors.As(err, &download):
		return "DownloadError"
	case errors.As(err, &write):
		return "FileWriteError"
	}
	return ""
}

// IsFatal reports whether err must abort the run. Malformed directives are
// the only recoverable class.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var malformed *MalformedDirectiveError
	return !errors.As(err, &malformed)
}

// IsTimeout reports whether err was caused by an exceeded deadline
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// Suggestion returns a hint for a fatal error, or "" when none applies.
func Suggestion(err error) string {
	if err == nil {
		return ""
	}
	if IsTimeout(err) {
		return "The external call timed out. Check network connectivity or raise timeout_ms in cienv.yaml"
	}

	errStr := err.Error()
	switch Class(err) {
	case "SecretResolutionError":
		switch {
		case strings.Contains(errStr, "ResourceNotFoundException"), strings.Contains(errStr, "ParameterNotFound"), strings.Contains(errStr, "not found"):
			return "Verify the secret name and region configured for the secret store"
		case strings.Contains(errStr, "AccessDenied"):
			return "Check IAM permissions for secretsmanager:GetSecretValue (or ssm:GetParameter)"
		case strings.Contains(errStr, "DecryptionFailure"):
			return "Check that the build role may use the secret's KMS key"
		}
	case "RoleAssumptionError":
		switch {
		case strings.Contains(errStr, "AccessDenied"):
			return "Check that the build role may call sts:AssumeRole and the trust policy allows it"
		case strings.Contains(errStr, "ValidationError"), strings.Contains(errStr, "InvalidParameterValue"):
			return "Check the role ARN format"
		}
		return "Check AWS credentials, role ARN, and IAM permissions"
	case "DownloadError":
		switch {
		case strings.Contains(errStr, "NoSuchKey"), strings.Contains(errStr, "NoSuchBucket"), strings.Contains(errStr, "NotFound"):
			return "Verify the bucket and key exist. List them with: 'aws s3 ls <bucket>'"
		case strings.Contains(errStr, "AccessDenied"):
			return "Check IAM permissions for s3:GetObject"
		}
	case "UnsupportedManifestFormatError":
		return "Rename the manifest to end in .json, .xml, .yaml or .yml"
	case "ManifestParseError":
		if strings.Contains(errStr, "no such file or directory") {
			return "Verify the manifest path exists and is spelled correctly"
		}
		return "Validate the manifest with 'cienv validate'"
	case "FileWriteError":
		return "Check free space and permissions of the temp directory (temp_dir in cienv.yaml)"
	}

	if strings.Contains(errStr, "credentials") {
		return "Configure cloud credentials for the build environment"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and endpoint configuration"
	}
	return ""
}
