package execenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/logging"
)

// Executor runs a command inside the provisioned environment
type Executor struct {
	logger *logging.Logger
}

// New creates a new executor
func New(logger *logging.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// ExecOptions configures command execution
type ExecOptions struct {
	Command     []string          // Command and arguments to run
	Environment map[string]string // Extra variables layered over os.Environ()
	PrintVars   bool              // Print the names of the variables set by cienv
	VarNames    []string          // Names printed when PrintVars is set
	WorkingDir  string            // Working directory for the command
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
}

// Exec runs the command to completion and returns its exit code. A
// non-nil error means the command could not be started.
func (e *Executor) Exec(ctx context.Context, options ExecOptions) (int, error) {
	if err := ValidateCommand(options.Command); err != nil {
		return 1, err
	}

	if options.PrintVars {
		e.printVariableNames(options.VarNames)
	}

	cmdName := options.Command[0]
	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = buildEnvironment(os.Environ(), options.Environment)
	cmd.Stdin = orDefault(options.Stdin, os.Stdin)
	cmd.Stdout = orDefaultWriter(options.Stdout, os.Stdout)
	cmd.Stderr = orDefaultWriter(options.Stderr, os.Stderr)
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	e.logger.Debug("Executing command: %s", strings.Join(options.Command, " "))

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			code := exitError.ExitCode()
			if code < 0 {
				// killed by a signal
				code = 1
			}
			return code, nil
		}
		return 1, dserrors.UserError{
			Message:    fmt.Sprintf("Failed to run %s", cmdName),
			Details:    err.Error(),
			Suggestion: "Check the command output above for details",
			Err:        err,
		}
	}
	return 0, nil
}

// ValidateCommand checks that a command was given and can be found
func ValidateCommand(command []string) error {
	if len(command) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., cienv exec -- make test)",
		}
	}

	if _, err := exec.LookPath(command[0]); err != nil {
		return dserrors.UserError{
			Message:    fmt.Sprintf("Command not found: %s", command[0]),
			Details:    err.Error(),
			Suggestion: "Check that the command is installed and on PATH",
			Err:        err,
		}
	}
	return nil
}

// buildEnvironment layers overrides over base. The result is sorted.
func buildEnvironment(base []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// printVariableNames lists what was set. Values are never shown.
func (e *Executor) printVariableNames(names []string) {
	if len(names) == 0 {
		e.logger.Info("No environment variables set")
		return
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	e.logger.Info("Set %d environment variables: %s", len(sorted), strings.Join(sorted, ", "))
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return def
}

func orDefaultWriter(w io.Writer, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
