package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/systmms/cienv/internal/config"
	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/environ"
	"github.com/systmms/cienv/internal/gate"
	"github.com/systmms/cienv/internal/manifest"
	"github.com/systmms/cienv/internal/materialize"
	"github.com/systmms/cienv/internal/metrics"
	"github.com/systmms/cienv/internal/pipeline"
	"github.com/systmms/cienv/internal/providers"
	"github.com/systmms/cienv/internal/resolve"
	"github.com/systmms/cienv/internal/tempfiles"
)

// ExitError carries a child exit status up to main without printing.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// loadConfig loads cfg, wrapping failures for the user
func loadConfig(cfg *config.Config) error {
	if err := cfg.Load(); err != nil {
		if _, ok := err.(dserrors.ConfigError); ok {
			return err
		}
		return dserrors.UserError{
			Message:    "Failed to load configuration",
			Details:    err.Error(),
			Suggestion: "Check that cienv.yaml is valid YAML",
			Err:        err,
		}
	}
	return nil
}

// manifestLocators resolves the manifests for this run or explains how to
// name them.
func manifestLocators(cfg *config.Config, flags []string) ([]string, error) {
	locators := cfg.Manifests(flags)
	if len(locators) == 0 {
		return nil, dserrors.UserError{
			Message:    "No manifests to process",
			Suggestion: fmt.Sprintf("Pass --manifest, list manifests in %s, or set %s", cfg.Path, config.ManifestsEnvVar),
		}
	}
	return locators, nil
}

// awsClients builds the AWS config on first use, so literal-only manifests
// never touch credentials.
type awsClients struct {
	opts        providers.AWSOptions
	sessionName string
	duration    int32

	once    sync.Once
	assumer *providers.AWSRoleAssumer
	fetcher *providers.S3Fetcher
	err     error
}

func newAWSClients(cfg *config.Config) *awsClients {
	return &awsClients{
		opts:        cfg.AWSOptions(),
		sessionName: cfg.RoleSessionName(),
		duration:    cfg.RoleDurationSeconds(),
	}
}

func (a *awsClients) init(ctx context.Context) error {
	a.once.Do(func() {
		var awsCfg aws.Config
		awsCfg, a.err = providers.LoadAWSConfig(context.WithoutCancel(ctx), a.opts)
		if a.err != nil {
			return
		}
		a.assumer = providers.NewAWSRoleAssumerFromConfig(awsCfg, a.sessionName, a.duration)
		a.fetcher = providers.NewS3FetcherFromConfig(awsCfg)
	})
	return a.err
}

// AssumeRole implements resolve.RoleAssumer
func (a *awsClients) AssumeRole(ctx context.Context, roleARN string) (providers.Credentials, error) {
	if err := a.init(ctx); err != nil {
		return providers.Credentials{}, err
	}
	return a.assumer.AssumeRole(ctx, roleARN)
}

// Download implements resolve.ObjectFetcher and manifest.Fetcher
func (a *awsClients) Download(ctx context.Context, locator, dest string) (int64, error) {
	if err := a.init(ctx); err != nil {
		return 0, err
	}
	return a.fetcher.Download(ctx, locator, dest)
}

func newLoader(cfg *config.Config, files *tempfiles.Registry, fetcher manifest.Fetcher) *manifest.Loader {
	return manifest.NewLoader(fetcher, files, manifest.ParseOptions{
		Directive:      cfg.DirectiveOptions(),
		ValidateSchema: cfg.SchemaValidation(),
	}, cfg.TimeoutMs(), cfg.Logger)
}

// session is everything one provisioning run owns. close must be called
// once the provisioned values are no longer needed.
type session struct {
	cfg      *config.Config
	files    *tempfiles.Registry
	metrics  *metrics.Recorder
	loader   *manifest.Loader
	pipeline *pipeline.Pipeline
}

type sessionDeps struct {
	secrets resolve.SecretGetter
	roles   resolve.RoleAssumer
	objects interface {
		resolve.ObjectFetcher
		manifest.Fetcher
	}
	gate gate.Context
}

// defaultDeps wires the real cloud clients behind lazy constructors
func defaultDeps(cfg *config.Config) sessionDeps {
	clients := newAWSClients(cfg)
	return sessionDeps{
		secrets: providers.NewLazySecretStoreFromConfig(cfg.StoreConfig()),
		roles:   clients,
		objects: clients,
		gate:    gate.Detect(),
	}
}

func newSession(cfg *config.Config, env environ.Environment, deps sessionDeps) *session {
	files := tempfiles.New(cfg.TempDir(), cfg.Logger)
	recorder := metrics.NewRecorder()

	resolver := resolve.New(files, cfg.Logger,
		resolve.WithSecretGetter(deps.secrets),
		resolve.WithRoleAssumer(deps.roles),
		resolve.WithObjectFetcher(deps.objects),
		resolve.WithTimeout(cfg.TimeoutMs()),
		resolve.WithObserver(pipeline.ObserveResolve(recorder)),
	)

	return &session{
		cfg:     cfg,
		files:   files,
		metrics: recorder,
		loader:  newLoader(cfg, files, deps.objects),
		pipeline: pipeline.New(pipeline.Config{
			Resolver:     resolver,
			Materializer: materialize.New(files),
			Environment:  env,
			Gate:         deps.gate,
			Logger:       cfg.Logger,
			Metrics:      recorder,
		}),
	}
}

// run loads and processes each manifest in order, stopping at the first
// fatal error.
func (s *session) run(ctx context.Context, locators []string) (pipeline.Report, error) {
	var total pipeline.Report
	for _, loc := range locators {
		s.cfg.Logger.Info("Processing %s", loc)
		m, err := s.loader.Load(ctx, loc)
		if err != nil {
			s.cfg.Logger.Error("[FAIL] %s: %v", loc, err)
			return total, err
		}
		report, err := s.pipeline.Run(ctx, m.Entries)
		total.Merge(report)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// close writes the metrics textfile and releases temp artifacts
func (s *session) close() {
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile()); err != nil {
		s.cfg.Logger.Warn("Failed to write metrics: %v", err)
	}
	if err := s.files.Release(); err != nil {
		s.cfg.Logger.Warn("Failed to remove temp files: %v", err)
	}
}
