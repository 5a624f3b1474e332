package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/cienv/internal/directive"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestNormalizePlatform(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"linux":   PlatformLinux,
		"freebsd": PlatformLinux,
		"windows": PlatformWindows,
		"cygwin":  PlatformWindows,
		"darwin":  PlatformMac,
		"Plan9":   "plan9",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePlatform(in), in)
	}
}

func TestIsARM(t *testing.T) {
	t.Parallel()

	assert.True(t, IsARM("arm"))
	assert.True(t, IsARM("arm64"))
	assert.True(t, IsARM("aarch64"))
	assert.False(t, IsARM("amd64"))
	assert.False(t, IsARM("386"))
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	linuxAMD := Context{Platform: PlatformLinux, Arch: "amd64", Lookup: lookupFrom(nil)}
	macARMInCI := Context{Platform: PlatformMac, Arch: "arm64", Lookup: lookupFrom(map[string]string{"CODEBUILD_BUILD_ID": "b-1"})}

	tests := []struct {
		name  string
		conds []directive.Condition
		ctx   Context
		apply bool
		label string
	}{
		{
			name:  "no conditions always pass",
			ctx:   linuxAMD,
			apply: true,
		},
		{
			name:  "platform matches",
			conds: []directive.Condition{directive.PlatformOnly{Platforms: []string{"windows", "linux"}}},
			ctx:   linuxAMD,
			apply: true,
		},
		{
			name:  "platform excluded",
			conds: []directive.Condition{directive.PlatformOnly{Platforms: []string{"windows"}}},
			ctx:   linuxAMD,
			apply: false,
			label: "OS Only",
		},
		{
			name:  "arm skipped",
			conds: []directive.Condition{directive.ArchitectureExclude{Family: "arm"}},
			ctx:   macARMInCI,
			apply: false,
			label: "OS No ARM",
		},
		{
			name:  "arm exclusion passes on amd64",
			conds: []directive.Condition{directive.ArchitectureExclude{Family: "arm"}},
			ctx:   linuxAMD,
			apply: true,
		},
		{
			name:  "marker present",
			conds: []directive.Condition{directive.ExecutionContextOnly{Marker: "CODEBUILD_BUILD_ID"}},
			ctx:   macARMInCI,
			apply: true,
		},
		{
			name:  "marker absent",
			conds: []directive.Condition{directive.ExecutionContextOnly{Marker: "CODEBUILD_BUILD_ID"}},
			ctx:   linuxAMD,
			apply: false,
			label: "OS Codebuild Only",
		},
		{
			name:  "nil lookup treats marker as absent",
			conds: []directive.Condition{directive.ExecutionContextOnly{Marker: "CODEBUILD_BUILD_ID"}},
			ctx:   Context{Platform: PlatformLinux, Arch: "amd64"},
			apply: false,
			label: "OS Codebuild Only",
		},
		{
			name: "all conditions must pass",
			conds: []directive.Condition{
				directive.PlatformOnly{Platforms: []string{"mac"}},
				directive.ExecutionContextOnly{Marker: "CODEBUILD_BUILD_ID"},
				directive.ArchitectureExclude{Family: "arm"},
			},
			ctx:   macARMInCI,
			apply: false,
			label: "OS No ARM",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := directive.Directive{Name: "X", Conditions: tt.conds}
			v := Evaluate(d, tt.ctx)
			assert.Equal(t, tt.apply, v.Apply)
			assert.Equal(t, tt.apply, ShouldApply(d, tt.ctx))
			if !tt.apply {
				assert.Equal(t, tt.label, v.Failed.Label())
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	t.Setenv("CIENV_GATE_TEST_MARKER", "1")

	ctx := Detect()
	assert.NotEmpty(t, ctx.Platform)
	assert.NotEmpty(t, ctx.Arch)
	_, ok := ctx.Lookup("CIENV_GATE_TEST_MARKER")
	assert.True(t, ok)
}
