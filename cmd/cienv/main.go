package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/systmms/cienv/cmd/cienv/commands"
	"github.com/systmms/cienv/internal/config"
	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Wipe the enclave key before exit, including on a failed run.
	defer memguard.Purge()

	var (
		configFile string
		noColor    bool
		debug      bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "cienv",
		Short: "Provision CI environment variables from manifests",
		Long: `cienv reads environment manifests (JSON, YAML or XML, local or s3://)
and sets each directive's value from literal data, a secret store, an
assumed AWS role or an S3 download before running your build command.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Explicit = cmd.Flags().Changed("config")
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewExecCommand(cfg),
		commands.NewPlanCommand(cfg),
		commands.NewValidateCommand(cfg),
	)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exit *commands.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	// UserError and ConfigError carry their own suggestion
	if dserrors.Class(err) != "" {
		if s := dserrors.Suggestion(err); s != "" {
			fmt.Fprintf(os.Stderr, "  💡 Try: %s\n", s)
		}
	}
	return 1
}
