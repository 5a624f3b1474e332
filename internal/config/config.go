package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/systmms/cienv/internal/directive"
	dserrors "github.com/systmms/cienv/internal/errors"
	"github.com/systmms/cienv/internal/logging"
	"github.com/systmms/cienv/internal/providers"
	"github.com/systmms/cienv/internal/resolve"
)

// DefaultPath is used when --config is not given.
const DefaultPath = "cienv.yaml"

// ManifestsEnvVar lists manifests, comma-separated, when neither flags nor
// the config file name any.
const ManifestsEnvVar = "CI_ENVIRONMENT_VARIABLE_FILES"

// DefaultTimeoutMs bounds each external call.
const DefaultTimeoutMs = resolve.DefaultTimeoutMs

// Config holds the runtime configuration
type Config struct {
	Path   string
	Logger *logging.Logger
	// Explicit is set when Path came from --config; a missing explicit file
	// is an error, a missing default one is not.
	Explicit   bool
	Definition *Definition
}

// Definition represents the cienv.yaml structure
type Definition struct {
	Version                int               `yaml:"version"`
	Manifests              []string          `yaml:"manifests,omitempty"`
	Region                 string            `yaml:"region,omitempty"`
	Profile                string            `yaml:"profile,omitempty"`
	Endpoint               string            `yaml:"endpoint,omitempty"`
	TimeoutMs              int               `yaml:"timeout_ms,omitempty"`
	CIMarkerEnv            string            `yaml:"ci_marker_env,omitempty"`
	RoleSessionName        string            `yaml:"role_session_name,omitempty"`
	RoleDurationSeconds    int32             `yaml:"role_duration_seconds,omitempty"`
	LegacySourcePrecedence bool              `yaml:"legacy_source_precedence,omitempty"`
	ValidateSchema         *bool             `yaml:"validate_schema,omitempty"`
	TempDir                string            `yaml:"temp_dir,omitempty"`
	MetricsFile            string            `yaml:"metrics_file,omitempty"`
	SecretStore            SecretStoreConfig `yaml:"secret_store,omitempty"`
}

// SecretStoreConfig selects the backend behind input_secret and
// input_role_arn_secret.
type SecretStoreConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// Load reads and parses the config file, then validates it.
func (c *Config) Load() error {
	if c.Path == "" {
		c.Path = DefaultPath
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			if !c.Explicit {
				c.Definition = &Definition{}
				return nil
			}
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path, or omit it to run with defaults",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if err := def.Validate(); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

// Validate checks the values that cannot be defaulted.
func (d *Definition) Validate() error {
	if d.Version != 0 {
		return dserrors.ConfigError{
			Field:      "version",
			Value:      d.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your cienv.yaml file",
		}
	}
	if d.TimeoutMs < 0 {
		return dserrors.ConfigError{
			Field:      "timeout_ms",
			Value:      d.TimeoutMs,
			Message:    "timeout must not be negative",
			Suggestion: "Remove timeout_ms to use the 30000ms default",
		}
	}
	if d.RoleDurationSeconds < 0 {
		return dserrors.ConfigError{
			Field:      "role_duration_seconds",
			Value:      d.RoleDurationSeconds,
			Message:    "duration must not be negative",
			Suggestion: "Use a value between 900 and the role's maximum session duration",
		}
	}
	if t := d.SecretStore.Type; t != "" && !isSupportedStore(t) {
		return dserrors.ConfigError{
			Field:      "secret_store.type",
			Value:      t,
			Message:    "unsupported secret store type",
			Suggestion: "Use one of: " + strings.Join(providers.SupportedStoreTypes(), ", "),
		}
	}
	return nil
}

func isSupportedStore(t string) bool {
	for _, s := range providers.SupportedStoreTypes() {
		if s == t {
			return true
		}
	}
	return false
}

// def returns the loaded definition or an empty one
func (c *Config) def() *Definition {
	if c.Definition == nil {
		return &Definition{}
	}
	return c.Definition
}

// Manifests returns the manifest locators for this run: flags first, then
// the config file, then ManifestsEnvVar.
func (c *Config) Manifests(flags []string) []string {
	if len(flags) > 0 {
		return flags
	}
	if m := c.def().Manifests; len(m) > 0 {
		return m
	}

	var locators []string
	for _, loc := range strings.Split(os.Getenv(ManifestsEnvVar), ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			locators = append(locators, loc)
		}
	}
	return locators
}

// TimeoutMs returns the per-call timeout
func (c *Config) TimeoutMs() int {
	if t := c.def().TimeoutMs; t > 0 {
		return t
	}
	return DefaultTimeoutMs
}

// SchemaValidation reports whether manifests are schema-checked (default on)
func (c *Config) SchemaValidation() bool {
	if v := c.def().ValidateSchema; v != nil {
		return *v
	}
	return true
}

// DirectiveOptions returns the parse options for directives
func (c *Config) DirectiveOptions() directive.Options {
	marker := c.def().CIMarkerEnv
	if marker == "" {
		marker = directive.DefaultCIMarker
	}
	return directive.Options{
		LegacyPrecedence: c.def().LegacySourcePrecedence,
		CIMarker:         marker,
	}
}

// AWSOptions returns the shared AWS SDK settings. The region falls back to
// AWS_REGION and then to us-east-1.
func (c *Config) AWSOptions() providers.AWSOptions {
	d := c.def()
	region := d.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = providers.DefaultRegion
	}
	return providers.AWSOptions{
		Region:   region,
		Profile:  d.Profile,
		Endpoint: d.Endpoint,
	}
}

// StoreConfig returns the secret store selection
func (c *Config) StoreConfig() providers.StoreConfig {
	d := c.def()
	return providers.StoreConfig{
		Type:    d.SecretStore.Type,
		Options: d.SecretStore.Config,
		AWS:     c.AWSOptions(),
	}
}

// RoleSessionName returns the session name used for sts:AssumeRole
func (c *Config) RoleSessionName() string {
	if n := c.def().RoleSessionName; n != "" {
		return n
	}
	return providers.DefaultRoleSessionName
}

// RoleDurationSeconds returns the requested session duration, 0 for the
// STS default
func (c *Config) RoleDurationSeconds() int32 {
	return c.def().RoleDurationSeconds
}

// TempDir returns where temp files go; "" means the OS default
func (c *Config) TempDir() string {
	return c.def().TempDir
}

// MetricsFile returns the textfile path, or ""
func (c *Config) MetricsFile() string {
	return c.def().MetricsFile
}
