package pipeline

import (
	"fmt"

	"github.com/systmms/cienv/internal/directive"
	dserrors "github.com/systmms/cienv/internal/errors"
)

// DirectiveError is the fatal error that aborted a run. Err carries the
// taxonomy type and is reachable with errors.As.
type DirectiveError struct {
	Directive string
	Kind      directive.SourceKind
	Err       error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Directive, e.Kind, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// Class returns the taxonomy class of the cause
func (e *DirectiveError) Class() string {
	if class := dserrors.Class(e.Err); class != "" {
		return class
	}
	return "Error"
}
