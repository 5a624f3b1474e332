package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"

	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/logging"
	"github.com/systmms/cienv/internal/providers"
	"github.com/systmms/cienv/internal/resolve"
)

// Fetcher copies a remote manifest to a local path.
type Fetcher interface {
	Download(ctx context.Context, locator, dest string) (int64, error)
}

// PathReserver hands out registry-owned file paths.
type PathReserver interface {
	Reserve() (string, error)
}

// Loader reads manifests from disk or S3.
type Loader struct {
	fetcher   Fetcher
	files     PathReserver
	opts      ParseOptions
	timeoutMs int
	logger    *logging.Logger
}

// NewLoader creates a loader. fetcher and files may be nil when no remote
// manifests are used.
func NewLoader(fetcher Fetcher, files PathReserver, opts ParseOptions, timeoutMs int, logger *logging.Logger) *Loader {
	return &Loader{
		fetcher:   fetcher,
		files:     files,
		opts:      opts,
		timeoutMs: timeoutMs,
		logger:    logger,
	}
}

// Load reads and parses the manifest at locator. The format is checked
// before anything is read.
func (l *Loader) Load(ctx context.Context, locator string) (*Manifest, error) {
	format, err := DetectFormat(locator)
	if err != nil {
		return nil, err
	}

	var data []byte
	if providers.IsS3Locator(locator) {
		data, err = l.fetch(ctx, locator)
	} else {
		data, err = readLocal(locator)
	}
	if err != nil {
		return nil, err
	}

	if l.logger != nil {
		l.logger.Debug("Parsing %s manifest %s (%d bytes)", format, locator, len(data))
	}
	return Parse(locator, format, data, l.opts)
}

func readLocal(locator string) ([]byte, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &dserrors.ManifestParseError{
				Locator: locator,
				Err:     fmt.Errorf("file given does not point to a valid file: %w", err),
			}
		}
		return nil, &dserrors.ManifestParseError{Locator: locator, Err: err}
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, locator string) ([]byte, error) {
	if l.fetcher == nil || l.files == nil {
		return nil, &dserrors.DownloadError{Locator: locator, Err: errors.New("no object fetcher configured")}
	}

	dest, err := l.files.Reserve()
	if err != nil {
		return nil, &dserrors.DownloadError{Locator: locator, Err: err}
	}

	callCtx, cancel := resolve.CallContext(ctx, l.timeoutMs)
	defer cancel()

	if l.logger != nil {
		l.logger.Debug("Downloading manifest %s", locator)
	}
	if _, err := l.fetcher.Download(callCtx, locator, dest); err != nil {
		return nil, &dserrors.DownloadError{
			Locator: locator,
			Err:     resolve.AnnotateTimeout(err, "manifest download", l.timeoutMs),
		}
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return nil, &dserrors.ManifestParseError{Locator: locator, Err: err}
	}
	return data, nil
}
