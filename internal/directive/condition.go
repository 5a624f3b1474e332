package directive

import "strings"

// Condition gates a directive on the execution context. Implementations
// are evaluated by package gate.
type Condition interface {
	// Label is the short tag used in skip notices.
	Label() string
	isCondition()
}

// PlatformOnly passes when the current platform is one of Platforms
// (linux, windows, mac; lower case).
type PlatformOnly struct {
	Platforms []string
}

func (PlatformOnly) Label() string { return "OS Only" }
func (PlatformOnly) isCondition()  {}

func (p PlatformOnly) String() string {
	return "os_only=" + strings.Join(p.Platforms, ",")
}

// ArchitectureExclude fails when the CPU architecture belongs to Family.
type ArchitectureExclude struct {
	Family string
}

func (ArchitectureExclude) Label() string { return "OS No ARM" }
func (ArchitectureExclude) isCondition()  {}

func (a ArchitectureExclude) String() string {
	return "skip on " + a.Family
}

// ExecutionContextOnly passes only when the Marker variable is set.
type ExecutionContextOnly struct {
	Marker string
}

func (ExecutionContextOnly) Label() string { return "OS Codebuild Only" }
func (ExecutionContextOnly) isCondition()  {}

func (e ExecutionContextOnly) String() string {
	return "requires " + e.Marker
}
