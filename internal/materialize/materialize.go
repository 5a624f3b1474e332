// Package materialize turns a resolved value into a temp file whose path
// replaces the value.
package materialize

import (
	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/secure"
	"github.com/systmms/cienv/internal/tempfiles"
)

// FileCreator is the part of the temp registry the materializer needs.
type FileCreator interface {
	Create() (FileWriter, error)
}

// FileWriter is an open temp file. *os.File satisfies it.
type FileWriter interface {
	Write(p []byte) (int, error)
	Sync() error
	Close() error
	Name() string
}

// registryCreator adapts *tempfiles.Registry to FileCreator.
type registryCreator struct {
	reg *tempfiles.Registry
}

func (r registryCreator) Create() (FileWriter, error) {
	return r.reg.Create()
}

// Materializer writes values to registry-owned files.
type Materializer struct {
	files FileCreator
}

// New creates a materializer backed by reg.
func New(reg *tempfiles.Registry) *Materializer {
	return &Materializer{files: registryCreator{reg: reg}}
}

// NewWithCreator creates a materializer backed by an arbitrary FileCreator.
func NewWithCreator(files FileCreator) *Materializer {
	return &Materializer{files: files}
}

// Materialize writes value's bytes to a new temp file, destroys value and
// returns the path. Failures are *errors.FileWriteError.
func (m *Materializer) Materialize(value *secure.SecureBuffer) (string, error) {
	defer value.Destroy()

	f, err := m.files.Create()
	if err != nil {
		return "", &dserrors.FileWriteError{Err: err}
	}
	path := f.Name()

	writeErr := value.Reveal(func(b []byte) error {
		if _, err := f.Write(b); err != nil {
			return err
		}
		return f.Sync()
	})
	closeErr := f.Close()

	if writeErr != nil {
		return "", &dserrors.FileWriteError{Path: path, Err: writeErr}
	}
	if closeErr != nil {
		return "", &dserrors.FileWriteError{Path: path, Err: closeErr}
	}
	return path, nil
}
