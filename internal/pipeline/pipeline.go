// Package pipeline applies directives to an environment, one at a time and
// in manifest order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/systmms/cienv/internal/directive"
	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/environ"
	"github.com/systmms/cienv/internal/gate"
	"github.com/systmms/cienv/internal/logging"
	"github.com/systmms/cienv/internal/manifest"
	"github.com/systmms/cienv/internal/metrics"
	"github.com/systmms/cienv/internal/resolve"
	"github.com/systmms/cienv/internal/secure"
)

// Resolver produces the values of a directive.
type Resolver interface {
	Resolve(ctx context.Context, d directive.Directive) (resolve.Result, error)
}

// Materializer swaps a value for the path of a file holding it.
type Materializer interface {
	Materialize(value *secure.SecureBuffer) (string, error)
}

// Pipeline is the only writer of the target environment.
type Pipeline struct {
	resolver     Resolver
	materializer Materializer
	env          environ.Environment
	gate         gate.Context
	logger       *logging.Logger
	metrics      *metrics.Recorder
}

// Config wires a Pipeline. Metrics may be nil.
type Config struct {
	Resolver     Resolver
	Materializer Materializer
	Environment  environ.Environment
	Gate         gate.Context
	Logger       *logging.Logger
	Metrics      *metrics.Recorder
}

// New creates a pipeline. A nil logger logs to stderr.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = logging.New(false, false)
	}
	return &Pipeline{
		resolver:     cfg.Resolver,
		materializer: cfg.Materializer,
		env:          cfg.Environment,
		gate:         cfg.Gate,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Run processes entries in order. The first fatal error stops the run and
// is returned as a *DirectiveError; the report covers what happened before.
func (p *Pipeline) Run(ctx context.Context, entries []manifest.Entry) (Report, error) {
	var report Report

	p.logger.Info("Starting to process all environment variables in file...")
	for _, entry := range entries {
		if err := p.process(ctx, entry, &report); err != nil {
			p.metrics.RecordOutcome(metrics.OutcomeAborted)
			return report, err
		}
	}
	p.logger.Info("Finished processing all environment variables in file.")

	return report, nil
}

func (p *Pipeline) process(ctx context.Context, entry manifest.Entry, report *Report) error {
	if entry.Err != nil {
		if dserrors.IsFatal(entry.Err) {
			return &DirectiveError{Directive: entry.Name(), Kind: directive.KindNone, Err: entry.Err}
		}
		p.skip(report, entry.Name(), entry.Err.Error())
		p.logger.Warn("[SKIPPED] %s: %v", entry.Name(), entry.Err)
		return nil
	}

	d := entry.Directive

	if verdict := gate.Evaluate(d, p.gate); !verdict.Apply {
		p.skip(report, d.Name, verdict.Reason)
		p.logger.Info("[SKIP] %s [%s]: %s. Skipping...", d.Name, verdict.Failed.Label(), verdict.Reason)
		return nil
	}

	for _, key := range d.Unknown {
		p.logger.Debug("%s: ignoring unknown key %q", d.Name, key)
	}

	result, err := p.resolver.Resolve(ctx, d)
	if err != nil {
		return p.fail(d, err)
	}
	defer result.Destroy()

	if result.Empty() {
		reason := "no environment value could be set"
		p.skip(report, d.Name, reason)
		p.logger.Warn("[SKIPPED] %s: Invalid environment variable in file: %s", d.Name, reason)
		return nil
	}

	if d.Materialize {
		path, err := p.materializer.Materialize(result.Entries[0].Value)
		if err != nil {
			return p.fail(d, err)
		}
		buf, err := secure.NewSecureBufferFromString(path)
		if err != nil {
			return p.fail(d, &dserrors.FileWriteError{Path: path, Err: err})
		}
		result.Entries[0].Value = buf
		p.logger.Debug("%s: value written to temp file", d.Name)
	}

	for _, e := range result.Entries {
		if err := p.inject(e); err != nil {
			return p.fail(d, err)
		}
		report.Variables = append(report.Variables, e.Name)
		p.metrics.RecordVariableSet()
		p.logger.Info("%s: Set successfully", e.Name)
	}

	report.Applied = append(report.Applied, d.Name)
	p.metrics.RecordOutcome(metrics.OutcomeApplied)
	return nil
}

// inject sets one variable. The plaintext only exists for the Set call.
func (p *Pipeline) inject(e resolve.Entry) error {
	return e.Value.Reveal(func(b []byte) error {
		return p.env.Set(e.Name, string(b))
	})
}

func (p *Pipeline) skip(report *Report, name, reason string) {
	report.Skipped = append(report.Skipped, Skip{Name: name, Reason: reason})
	p.metrics.RecordOutcome(metrics.OutcomeSkipped)
}

func (p *Pipeline) fail(d directive.Directive, err error) error {
	de := &DirectiveError{Directive: d.Name, Kind: d.Kind(), Err: err}
	p.logger.Error("[FAIL] %s [%s]: %v", d.Name, d.Kind(), err)
	return de
}

// ObserveResolve adapts a metrics recorder to resolve.WithObserver
func ObserveResolve(m *metrics.Recorder) func(kind directive.SourceKind, d time.Duration) {
	return func(kind directive.SourceKind, d time.Duration) {
		m.ObserveResolve(string(kind), d)
	}
}

// Skip is a directive that was not applied.
type Skip struct {
	Name   string
	Reason string
}

// Report summarizes one or more runs.
type Report struct {
	Applied   []string
	Skipped   []Skip
	Variables []string
}

// Merge appends other to r
func (r *Report) Merge(other Report) {
	r.Applied = append(r.Applied, other.Applied...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Variables = append(r.Variables, other.Variables...)
}

// String is a one-line summary
func (r Report) String() string {
	return fmt.Sprintf("%d applied, %d skipped, %d variables set", len(r.Applied), len(r.Skipped), len(r.Variables))
}
