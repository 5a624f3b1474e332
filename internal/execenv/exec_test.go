package execenv

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/cienv/internal/logging"
)

func createTestExecutor(buf *bytes.Buffer) *Executor {
	return New(logging.NewWithWriter(buf, false, true))
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestBuildEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		base      []string
		overrides map[string]string
		want      []string
	}{
		{
			name: "base_only",
			base: []string{"B=2", "A=1"},
			want: []string{"A=1", "B=2"},
		},
		{
			name:      "override_wins",
			base:      []string{"A=1"},
			overrides: map[string]string{"A": "override", "C": "3"},
			want:      []string{"A=override", "C=3"},
		},
		{
			name: "value_with_equals",
			base: []string{"URL=a=b=c", "malformed"},
			want: []string{"URL=a=b=c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildEnvironment(tt.base, tt.overrides))
		})
	}
}

func TestExec_InheritsProcessEnvironment(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("CIENV_EXEC_TEST", "from-parent")

	var logs, stdout bytes.Buffer
	e := createTestExecutor(&logs)

	code, err := e.Exec(context.Background(), ExecOptions{
		Command:     []string{"sh", "-c", `printf '%s %s' "$CIENV_EXEC_TEST" "$CIENV_OVERRIDE"`},
		Environment: map[string]string{"CIENV_OVERRIDE": "layered"},
		Stdout:      &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "from-parent layered", stdout.String())
}

func TestExec_PropagatesExitCode(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	var logs bytes.Buffer
	code, err := createTestExecutor(&logs).Exec(context.Background(), ExecOptions{
		Command: []string{"sh", "-c", "exit 7"},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestExec_PrintVarsShowsNamesOnly(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	var logs bytes.Buffer
	_, err := createTestExecutor(&logs).Exec(context.Background(), ExecOptions{
		Command:   []string{"true"},
		PrintVars: true,
		VarNames:  []string{"TOKEN", "API_KEY"},
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Set 2 environment variables: API_KEY, TOKEN")
}

func TestExec_EmptyCommand(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	code, err := createTestExecutor(&logs).Exec(context.Background(), ExecOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, err.Error(), "No command specified")
}

func TestExec_CommandNotFound(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	_, err := createTestExecutor(&logs).Exec(context.Background(), ExecOptions{
		Command: []string{"cienv-definitely-not-a-command"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Command not found")
}
