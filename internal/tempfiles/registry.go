// Package tempfiles owns the temporary files created while provisioning.
// Files stay on disk until Release is called once at the end of the run.
package tempfiles

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/systmms/cienv/internal/logging"
)

const filePattern = "cienv-*"

// Registry creates and tracks temporary files. Callers get paths only;
// the registry alone deletes them.
type Registry struct {
	dir    string
	logger *logging.Logger

	mu       sync.Mutex
	paths    []string
	released bool
}

// New creates a registry placing files in dir (os.TempDir() when empty).
func New(dir string, logger *logging.Logger) *Registry {
	return &Registry{
		dir:    dir,
		logger: logger,
	}
}

// Create makes a new empty file readable only by the current user and
// returns it open for writing. The caller closes it; the registry removes it.
func (r *Registry) Create() (*os.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil, errors.New("temp file registry already released")
	}

	f, err := os.CreateTemp(r.dir, filePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := f.Chmod(0o600); err != nil && r.logger != nil {
		r.logger.Debug("Could not restrict permissions of %s: %v", f.Name(), err)
	}

	r.paths = append(r.paths, f.Name())
	return f, nil
}

// Reserve creates an empty file and returns its path, for collaborators
// that write to a destination path themselves.
func (r *Registry) Reserve() (string, error) {
	f, err := r.Create()
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), nil
}

// Paths returns the files created so far, in creation order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Release deletes every registered file. Failures are logged and joined
// into the returned error; callers treat it as a warning. Only the first
// call has any effect.
func (r *Registry) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil
	}
	r.released = true

	var errs []error
	for _, path := range r.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if r.logger != nil {
				r.logger.Warn("Failed to remove temp file %s: %v", path, err)
			}
			errs = append(errs, err)
		}
	}
	if r.logger != nil && len(r.paths) > 0 {
		r.logger.Debug("Released %d temp files", len(r.paths)-len(errs))
	}
	return errors.Join(errs...)
}
