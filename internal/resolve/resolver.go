// Package resolve turns a directive's source into concrete values.
package resolve

import (
	"context"
	"errors"
	"time"

	"github.com/systmms/cienv/internal/directive"
	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/logging"
	"github.com/systmms/cienv/internal/providers"
	"github.com/systmms/cienv/internal/secure"
)

// SuccessSentinel is the primary value of an assumed-role directive.
const SuccessSentinel = "SUCCESS"

// Suffixes of the variables derived from an assumed role.
const (
	SuffixAccessKey       = "_ACCESS_KEY"
	SuffixSecretAccessKey = "_SECRET_ACCESS_KEY"
	SuffixSessionToken    = "_SESSION_TOKEN"
)

var (
	errNoSecretStore   = errors.New("no secret store configured")
	errNoRoleAssumer   = errors.New("no role assumer configured")
	errNoObjectFetcher = errors.New("no object fetcher configured")
)

// SecretGetter looks up one secret by name.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// RoleAssumer exchanges the current identity for a role's credentials.
type RoleAssumer interface {
	AssumeRole(ctx context.Context, roleARN string) (providers.Credentials, error)
}

// ObjectFetcher copies a remote object to a local path.
type ObjectFetcher interface {
	Download(ctx context.Context, locator, dest string) (int64, error)
}

// PathReserver hands out registry-owned file paths.
type PathReserver interface {
	Reserve() (string, error)
}

// Entry is one variable to set.
type Entry struct {
	Name  string
	Value *secure.SecureBuffer
}

// Result holds what a directive resolved to. The directive's own name comes
// first, followed by any derived variables.
type Result struct {
	Entries []Entry
}

// Empty reports whether nothing was produced
func (r Result) Empty() bool {
	return len(r.Entries) == 0
}

// Destroy wipes every value in the result
func (r Result) Destroy() {
	for _, e := range r.Entries {
		e.Value.Destroy()
	}
}

// Resolver dispatches on source kind. Every external call gets its own
// timeout.
type Resolver struct {
	secrets   SecretGetter
	roles     RoleAssumer
	objects   ObjectFetcher
	files     PathReserver
	timeoutMs int
	logger    *logging.Logger
	observe   func(kind directive.SourceKind, d time.Duration)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithSecretGetter sets the secret store
func WithSecretGetter(s SecretGetter) Option {
	return func(r *Resolver) { r.secrets = s }
}

// WithRoleAssumer sets the credential exchange
func WithRoleAssumer(a RoleAssumer) Option {
	return func(r *Resolver) { r.roles = a }
}

// WithObjectFetcher sets the object transfer
func WithObjectFetcher(f ObjectFetcher) Option {
	return func(r *Resolver) { r.objects = f }
}

// WithTimeout sets the per-call timeout in milliseconds
func WithTimeout(ms int) Option {
	return func(r *Resolver) { r.timeoutMs = ms }
}

// WithObserver is called with the wall time of every resolution
func WithObserver(fn func(kind directive.SourceKind, d time.Duration)) Option {
	return func(r *Resolver) { r.observe = fn }
}

// New creates a resolver. files provides download destinations.
func New(files PathReserver, logger *logging.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		files:     files,
		logger:    logger,
		timeoutMs: DefaultTimeoutMs,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces the values for d. A directive without a source yields an
// empty result. Errors are one of SecretResolutionError, RoleAssumptionError
// or DownloadError.
func (r *Resolver) Resolve(ctx context.Context, d directive.Directive) (Result, error) {
	if d.Source == nil {
		return Result{}, nil
	}

	start := time.Now()
	defer func() {
		if r.observe != nil {
			r.observe(d.Kind(), time.Since(start))
		}
	}()

	switch src := d.Source.(type) {
	case directive.Literal:
		return r.single(d.Name, src.Value)
	case directive.Secret:
		return r.resolveSecret(ctx, d.Name, src)
	case directive.AssumedRole:
		return r.resolveRole(ctx, d.Name, src)
	case directive.ObjectDownload:
		return r.resolveDownload(ctx, d.Name, src)
	}
	return Result{}, nil
}

func (r *Resolver) single(name, value string) (Result, error) {
	buf, err := secure.NewSecureBufferFromString(value)
	if err != nil {
		return Result{}, err
	}
	return Result{Entries: []Entry{{Name: name, Value: buf}}}, nil
}

func (r *Resolver) resolveSecret(ctx context.Context, name string, src directive.Secret) (Result, error) {
	r.debug("Resolving secret %s for %s", logging.Secret(src.Name), name)

	value, err := r.getSecret(ctx, src.Name)
	if err != nil {
		return Result{}, &dserrors.SecretResolutionError{Name: src.Name, Err: err}
	}
	res, err := r.single(name, value)
	if err != nil {
		return Result{}, &dserrors.SecretResolutionError{Name: src.Name, Err: err}
	}
	return res, nil
}

func (r *Resolver) getSecret(ctx context.Context, secretName string) (string, error) {
	if r.secrets == nil {
		return "", errNoSecretStore
	}
	callCtx, cancel := CallContext(ctx, r.timeoutMs)
	defer cancel()

	value, err := r.secrets.GetSecret(callCtx, secretName)
	if err != nil {
		return "", AnnotateTimeout(err, "secret lookup", r.timeoutMs)
	}
	return value, nil
}

func (r *Resolver) resolveRole(ctx context.Context, name string, src directive.AssumedRole) (Result, error) {
	roleARN := src.RoleARN
	if roleARN == "" {
		r.debug("Reading role ARN for %s from secret %s", name, logging.Secret(src.RoleARNSecret))
		arn, err := r.getSecret(ctx, src.RoleARNSecret)
		if err != nil {
			return Result{}, &dserrors.RoleAssumptionError{
				RoleARN: "secret:" + src.RoleARNSecret,
				Err:     &dserrors.SecretResolutionError{Name: src.RoleARNSecret, Err: err},
			}
		}
		roleARN = arn
	}

	if r.roles == nil {
		return Result{}, &dserrors.RoleAssumptionError{RoleARN: roleARN, Err: errNoRoleAssumer}
	}

	r.debug("Assuming role %s for %s", logging.Secret(roleARN), name)
	callCtx, cancel := CallContext(ctx, r.timeoutMs)
	defer cancel()

	creds, err := r.roles.AssumeRole(callCtx, roleARN)
	if err != nil {
		return Result{}, &dserrors.RoleAssumptionError{
			RoleARN: roleARN,
			Err:     AnnotateTimeout(err, "role assumption", r.timeoutMs),
		}
	}

	pairs := []struct{ name, value string }{
		{name, SuccessSentinel},
		{name + SuffixAccessKey, creds.AccessKeyID},
		{name + SuffixSecretAccessKey, creds.SecretAccessKey},
		{name + SuffixSessionToken, creds.SessionToken},
	}

	res := Result{Entries: make([]Entry, 0, len(pairs))}
	for _, p := range pairs {
		buf, err := secure.NewSecureBufferFromString(p.value)
		if err != nil {
			res.Destroy()
			return Result{}, &dserrors.RoleAssumptionError{RoleARN: roleARN, Err: err}
		}
		res.Entries = append(res.Entries, Entry{Name: p.name, Value: buf})
	}
	return res, nil
}

func (r *Resolver) resolveDownload(ctx context.Context, name string, src directive.ObjectDownload) (Result, error) {
	if r.objects == nil {
		return Result{}, &dserrors.DownloadError{Locator: src.Locator, Err: errNoObjectFetcher}
	}

	dest, err := r.files.Reserve()
	if err != nil {
		return Result{}, &dserrors.DownloadError{Locator: src.Locator, Err: err}
	}

	r.debug("Downloading %s for %s", logging.Secret(src.Locator), name)
	callCtx, cancel := CallContext(ctx, r.timeoutMs)
	defer cancel()

	n, err := r.objects.Download(callCtx, src.Locator, dest)
	if err != nil {
		return Result{}, &dserrors.DownloadError{
			Locator: src.Locator,
			Err:     AnnotateTimeout(err, "download", r.timeoutMs),
		}
	}
	r.debug("Downloaded %d bytes for %s", n, name)

	return r.single(name, dest)
}

func (r *Resolver) debug(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(format, args...)
	}
}
