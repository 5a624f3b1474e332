package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const s3Scheme = "s3://"

// IsS3Locator reports whether locator uses the s3:// scheme
func IsS3Locator(locator string) bool {
	return strings.HasPrefix(locator, s3Scheme)
}

// ParseS3Locator splits s3://bucket/key/path into bucket and key.
func ParseS3Locator(locator string) (bucket, key string, err error) {
	if !IsS3Locator(locator) {
		return "", "", fmt.Errorf("invalid S3 locator %q: expected %sbucket/key", locator, s3Scheme)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(locator, s3Scheme), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 locator %q: expected %sbucket/key", locator, s3Scheme)
	}
	return bucket, key, nil
}

// S3Fetcher copies objects from S3 to local files.
type S3Fetcher struct {
	downloader *manager.Downloader
}

// NewS3Fetcher creates a fetcher over any GetObject client
func NewS3Fetcher(client manager.DownloadAPIClient) *S3Fetcher {
	return &S3Fetcher{downloader: manager.NewDownloader(client)}
}

// NewS3FetcherFromConfig creates a fetcher with a real client. Path-style
// addressing is used when a custom endpoint is configured.
func NewS3FetcherFromConfig(cfg aws.Config) *S3Fetcher {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.BaseEndpoint != nil
	})
	return NewS3Fetcher(client)
}

// Download writes the object named by locator to dest, truncating any
// existing content. It returns the number of bytes written.
func (f *S3Fetcher) Download(ctx context.Context, locator, dest string) (int64, error) {
	bucket, key, err := ParseS3Locator(locator)
	if err != nil {
		return 0, err
	}

	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", dest, err)
	}
	defer func() { _ = file.Close() }()

	n, err := f.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return n, f.handleError(err, locator)
	}

	if err := file.Sync(); err != nil {
		return n, fmt.Errorf("failed to flush %s: %w", dest, err)
	}
	return n, nil
}

func (f *S3Fetcher) handleError(err error, locator string) error {
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) || awsErrorCode(err) == "NotFound" {
		return &NotFoundError{Store: "aws-s3", Key: locator, Err: err}
	}
	if isAWSAuthError(err) {
		return &AuthError{Store: "aws-s3", Message: awsErrorCode(err), Err: err}
	}
	return fmt.Errorf("S3 error: %w", err)
}
