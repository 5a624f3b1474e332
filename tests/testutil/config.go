// Package testutil provides shared helpers for cienv tests: config and
// manifest writers plus log capture.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/systmms/cienv/internal/config"
	"gopkg.in/yaml.v3"
)

// TestConfigBuilder builds a cienv.yaml in a temp directory.
//
//	cfg := testutil.NewTestConfig(t).
//	    WithManifests(path).
//	    WithTimeoutMs(500).
//	    Config(logger)
type TestConfigBuilder struct {
	def     *config.Definition
	tempDir string
	t       *testing.T
}

// NewTestConfig starts from an empty definition
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		def:     &config.Definition{},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// Dir is the builder's temp directory
func (b *TestConfigBuilder) Dir() string {
	return b.tempDir
}

// WithManifests sets the manifest list
func (b *TestConfigBuilder) WithManifests(locators ...string) *TestConfigBuilder {
	b.def.Manifests = append(b.def.Manifests, locators...)
	return b
}

// WithSecretStore selects the secret store and its options
func (b *TestConfigBuilder) WithSecretStore(storeType string, opts map[string]interface{}) *TestConfigBuilder {
	b.def.SecretStore = config.SecretStoreConfig{Type: storeType, Config: opts}
	return b
}

// WithTimeoutMs sets the per-call timeout
func (b *TestConfigBuilder) WithTimeoutMs(ms int) *TestConfigBuilder {
	b.def.TimeoutMs = ms
	return b
}

// WithCIMarker overrides the CI marker variable
func (b *TestConfigBuilder) WithCIMarker(name string) *TestConfigBuilder {
	b.def.CIMarkerEnv = name
	return b
}

// WithMetricsFile enables the metrics textfile
func (b *TestConfigBuilder) WithMetricsFile(path string) *TestConfigBuilder {
	b.def.MetricsFile = path
	return b
}

// WithTempDir points the temp file registry at dir
func (b *TestConfigBuilder) WithTempDir(dir string) *TestConfigBuilder {
	b.def.TempDir = dir
	return b
}

// Build returns the in-memory definition
func (b *TestConfigBuilder) Build() *config.Definition {
	return b.def
}

// Write marshals the definition to <dir>/cienv.yaml and returns the path
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.def)
	if err != nil {
		b.t.Fatalf("Failed to marshal test config: %v", err)
	}
	path := filepath.Join(b.tempDir, config.DefaultPath)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		b.t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// Config writes the file and returns an unloaded *config.Config for it
func (b *TestConfigBuilder) Config(logger *TestLogger) *config.Config {
	b.t.Helper()

	return &config.Config{
		Path:     b.Write(),
		Explicit: true,
		Logger:   logger.Logger,
	}
}

// WriteManifest writes content to name inside a fresh temp directory and
// returns the path. The extension of name selects the manifest format.
func WriteManifest(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}
