package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeoutMs bounds each external call when no timeout is configured.
const DefaultTimeoutMs = 30000

// CallContext derives the context for one external call. A non-positive
// timeout means DefaultTimeoutMs.
func CallContext(ctx context.Context, timeoutMs int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(effectiveTimeout(timeoutMs))*time.Millisecond)
}

// AnnotateTimeout adds the configured limit to deadline errors. The result
// still matches context.DeadlineExceeded.
func AnnotateTimeout(err error, operation string, timeoutMs int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s exceeded %dms timeout: %w", operation, effectiveTimeout(timeoutMs), err)
	}
	return err
}

func effectiveTimeout(timeoutMs int) int {
	if timeoutMs <= 0 {
		return DefaultTimeoutMs
	}
	return timeoutMs
}
