package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/cienv/internal/config"
	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/tempfiles"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	return newValidateCommand(cfg, nil)
}

func newValidateCommand(cfg *config.Config, deps *sessionDeps) *cobra.Command {
	var (
		manifests []string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "validate [--manifest <loc>]...",
		Short: "Check manifests for parse errors and malformed directives",
		Long: `Validate parses each manifest, applies the manifest schema to JSON and
YAML documents and reports directives that would be skipped as malformed.
It fails on unreadable or unparseable manifests, and with --strict also
on malformed directives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg); err != nil {
				return err
			}
			locators, err := manifestLocators(cfg, manifests)
			if err != nil {
				return err
			}

			d := defaultDeps(cfg)
			if deps != nil {
				d = *deps
			}
			files := tempfiles.New(cfg.TempDir(), cfg.Logger)
			defer func() {
				if err := files.Release(); err != nil {
					cfg.Logger.Warn("Failed to remove temp files: %v", err)
				}
			}()
			loader := newLoader(cfg, files, d.objects)

			out := cmd.OutOrStdout()
			malformed := 0
			for _, loc := range locators {
				m, err := loader.Load(context.Background(), loc)
				if err != nil {
					fmt.Fprintf(out, "✗ %s: %v\n", loc, err)
					return err
				}

				bad := m.Malformed()
				malformed += len(bad)
				fmt.Fprintf(out, "✓ %s (%s): %d directives, %d malformed\n", loc, m.Format, len(m.Entries), len(bad))
				for _, entry := range bad {
					fmt.Fprintf(out, "  - %s: %v\n", entry.Name(), entry.Err)
				}
			}

			if strict && malformed > 0 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d malformed directives", malformed),
					Suggestion: "Give every directive a name and exactly one source",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&manifests, "manifest", "m", nil, "Manifest file or s3:// locator (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any directive is malformed")

	return cmd
}
