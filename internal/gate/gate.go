// Package gate decides whether a directive applies to the current
// execution context.
package gate

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/systmms/cienv/internal/directive"
)

// Normalized platform names used by os_only.
const (
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
	PlatformMac     = "mac"
)

// Context is the part of the execution environment gating looks at.
type Context struct {
	Platform string
	Arch     string
	// Lookup reports whether an environment variable is set. A nil Lookup
	// treats every variable as unset.
	Lookup func(name string) (string, bool)
}

// Detect builds a Context for the running process.
func Detect() Context {
	return Context{
		Platform: NormalizePlatform(runtime.GOOS),
		Arch:     runtime.GOARCH,
		Lookup:   os.LookupEnv,
	}
}

// NormalizePlatform maps an OS identifier onto linux, windows or mac.
// Unknown identifiers are returned lower-cased.
func NormalizePlatform(goos string) string {
	goos = strings.ToLower(goos)
	switch {
	case strings.HasPrefix(goos, "linux"), strings.HasPrefix(goos, "freebsd"):
		return PlatformLinux
	case strings.HasPrefix(goos, "windows"), strings.HasPrefix(goos, "cygwin"):
		return PlatformWindows
	case strings.HasPrefix(goos, "darwin"):
		return PlatformMac
	}
	return goos
}

// IsARM reports whether arch belongs to the ARM family
func IsARM(arch string) bool {
	arch = strings.ToLower(arch)
	return strings.HasPrefix(arch, "arm") || arch == "aarch64"
}

// Verdict is the outcome of evaluating one directive.
type Verdict struct {
	Apply bool
	// Failed is the first condition that did not pass.
	Failed directive.Condition
	Reason string
}

// Evaluate checks every condition of d against ctx. All must pass.
func Evaluate(d directive.Directive, ctx Context) Verdict {
	for _, cond := range d.Conditions {
		if ok, reason := check(cond, ctx); !ok {
			return Verdict{Failed: cond, Reason: reason}
		}
	}
	return Verdict{Apply: true}
}

// ShouldApply is Evaluate reduced to its boolean.
func ShouldApply(d directive.Directive, ctx Context) bool {
	return Evaluate(d, ctx).Apply
}

func check(cond directive.Condition, ctx Context) (bool, string) {
	switch c := cond.(type) {
	case directive.PlatformOnly:
		for _, p := range c.Platforms {
			if p == ctx.Platform {
				return true, ""
			}
		}
		return false, "Not desired OS"
	case directive.ArchitectureExclude:
		if c.Family == "arm" && IsARM(ctx.Arch) {
			return false, "OS is ARM"
		}
		return true, ""
	case directive.ExecutionContextOnly:
		if ctx.Lookup != nil {
			if _, ok := ctx.Lookup(c.Marker); ok {
				return true, ""
			}
		}
		return false, fmt.Sprintf("%s is not set", c.Marker)
	}
	return false, fmt.Sprintf("unsupported condition %T", cond)
}
