package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/cienv/internal/config"
	"github.com/systmms/cienv/internal/environ"
	"github.com/systmms/cienv/internal/execenv"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	return newExecCommand(cfg, nil)
}

// newExecCommand lets tests replace the cloud clients
func newExecCommand(cfg *config.Config, deps *sessionDeps) *cobra.Command {
	var (
		manifests  []string
		printVars  bool
		workingDir string
	)

	cmd := &cobra.Command{
		Use:   "exec [--manifest <loc>]... -- <command> [args...]",
		Short: "Provision the environment and run a command in it",
		Long: `Exec processes every directive of the given manifests, sets the
resulting variables in its own environment and then runs the command,
which inherits them. Temp files written for file_tmp directives are
removed after the command exits, and its exit status is returned.

The command must be separated from cienv arguments with '--'.

Examples:
  cienv exec --manifest ci/env.json -- make test
  cienv exec --manifest s3://build-config/env.yaml -- ./gradlew build
  CI_ENVIRONMENT_VARIABLE_FILES=ci/env.json cienv exec -- npm test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := execenv.ValidateCommand(args); err != nil {
				return err
			}

			if err := loadConfig(cfg); err != nil {
				return err
			}

			locators := cfg.Manifests(manifests)
			if len(locators) == 0 {
				cfg.Logger.Warn("No manifests given, running %s with the current environment", args[0])
			}

			d := defaultDeps(cfg)
			if deps != nil {
				d = *deps
			}
			s := newSession(cfg, environ.OS{}, d)
			defer s.close()

			ctx := context.Background()
			report, err := s.run(ctx, locators)
			if err != nil {
				return err
			}
			cfg.Logger.Info("Environment ready: %s", report)

			code, err := execenv.New(cfg.Logger).Exec(ctx, execenv.ExecOptions{
				Command:    args,
				PrintVars:  printVars,
				VarNames:   report.Variables,
				WorkingDir: workingDir,
				Stdin:      os.Stdin,
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&manifests, "manifest", "m", nil, "Manifest file or s3:// locator (repeatable)")
	cmd.Flags().BoolVar(&printVars, "print", false, "Print the names of the variables that were set")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")

	return cmd
}
