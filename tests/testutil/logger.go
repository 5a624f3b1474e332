package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/cienv/internal/logging"
)

// TestLogger is a real *logging.Logger that writes to a buffer.
//
//	logger := testutil.NewTestLogger(t)
//	logger.Info("token: %s", logging.Secret("abc"))
//	logger.AssertRedacted(t, "abc")
type TestLogger struct {
	*logging.Logger

	buf *syncBuffer
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// NewTestLogger captures everything including debug lines, without color
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()

	buf := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buf, true, true),
		buf:    buf,
	}
}

// GetOutput returns everything logged since creation or the last Clear
func (l *TestLogger) GetOutput() string {
	return l.buf.String()
}

// Clear drops captured output
func (l *TestLogger) Clear() {
	l.buf.Reset()
}

// Lines returns the non-empty output lines
func (l *TestLogger) Lines() []string {
	var lines []string
	for _, line := range strings.Split(l.GetOutput(), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// AssertContains asserts that the log output contains substr
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr, "Expected log output to contain %q", substr)
}

// AssertNotContains asserts that the log output does not contain substr
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr, "Expected log output to NOT contain %q", substr)
}

// AssertRedacted asserts that secretValue never reached the log
func (l *TestLogger) AssertRedacted(t *testing.T, secretValue string) {
	t.Helper()
	AssertNoSecretLeak(t, l.GetOutput(), []string{secretValue})
}
