// Package directive defines the canonical manifest entry consumed by the
// provisioning pipeline and its construction from raw manifest fields.
package directive

import (
	"fmt"
	"sort"
	"strings"

	dserrors "github.com/systmms/cienv/internal/errors"
)

// Canonical manifest keys. Every concrete syntax maps onto these.
const (
	KeyName               = "name"
	KeyInputData          = "input_data"
	KeyInputSecret        = "input_secret"
	KeyInputRoleARN       = "input_role_arn"
	KeyInputRoleARNSecret = "input_role_arn_secret"
	KeyInputS3            = "input_s3"
	KeyOSOnly             = "os_only"
	KeyOSArmSkip          = "os_arm_skip"
	KeyOSCodebuildOnly    = "os_codebuild_only"
	KeyFileTmp            = "file_tmp"
)

// DefaultCIMarker is the variable whose presence marks a CodeBuild run.
const DefaultCIMarker = "CODEBUILD_BUILD_ID"

// sourceKeys is also the last-wins order used in legacy precedence mode.
var sourceKeys = []string{
	KeyInputData,
	KeyInputSecret,
	KeyInputRoleARN,
	KeyInputRoleARNSecret,
	KeyInputS3,
}

var knownKeys = map[string]bool{
	KeyName:               true,
	KeyInputData:          true,
	KeyInputSecret:        true,
	KeyInputRoleARN:       true,
	KeyInputRoleARNSecret: true,
	KeyInputS3:            true,
	KeyOSOnly:             true,
	KeyOSArmSkip:          true,
	KeyOSCodebuildOnly:    true,
	KeyFileTmp:            true,
}

// Fields is one manifest entry flattened to strings. A key that is present
// with an empty value still counts as present.
type Fields map[string]string

// Has reports whether key is present
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Directive is one immutable manifest entry.
type Directive struct {
	// Index is the zero-based position within its manifest.
	Index       int
	Name        string
	Source      Source // nil when the entry names no source
	Conditions  []Condition
	Materialize bool
	// Unknown lists keys the entry carried that have no meaning here.
	Unknown []string
}

// Kind returns the source kind, or KindNone
func (d Directive) Kind() SourceKind {
	if d.Source == nil {
		return KindNone
	}
	return d.Source.Kind()
}

// Options controls how raw fields become a Directive.
type Options struct {
	// LegacyPrecedence accepts several source keys on one entry and keeps
	// the last one in canonical key order.
	LegacyPrecedence bool
	// CIMarker is the variable checked by os_codebuild_only.
	CIMarker string
}

// FromFields builds a Directive from one manifest entry. Entries that cannot
// be used return a *errors.MalformedDirectiveError.
func FromFields(index int, f Fields, opts Options) (Directive, error) {
	name := strings.TrimSpace(f[KeyName])
	if name == "" {
		return Directive{}, &dserrors.MalformedDirectiveError{
			Index:  index,
			Field:  KeyName,
			Reason: "variable is missing name",
		}
	}

	d := Directive{
		Index:       index,
		Name:        name,
		Materialize: f.Has(KeyFileTmp),
	}

	src, err := sourceFromFields(f, opts.LegacyPrecedence)
	if err != nil {
		err.Index = index
		err.Name = name
		return Directive{}, err
	}
	d.Source = src

	conds, err := conditionsFromFields(f, opts.CIMarker)
	if err != nil {
		err.Index = index
		err.Name = name
		return Directive{}, err
	}
	d.Conditions = conds

	for key := range f {
		if !knownKeys[key] {
			d.Unknown = append(d.Unknown, key)
		}
	}
	sort.Strings(d.Unknown)

	return d, nil
}

func sourceFromFields(f Fields, legacy bool) (Source, *dserrors.MalformedDirectiveError) {
	var present []string
	for _, key := range sourceKeys {
		if f.Has(key) {
			present = append(present, key)
		}
	}
	if len(present) == 0 {
		return nil, nil
	}
	if len(present) > 1 && !legacy {
		return nil, &dserrors.MalformedDirectiveError{
			Field:  present[len(present)-1],
			Reason: fmt.Sprintf("multiple source keys given (%s); use exactly one", strings.Join(present, ", ")),
		}
	}

	key := present[len(present)-1]
	value := f[key]
	if key != KeyInputData {
		value = strings.TrimSpace(value)
	}
	if key != KeyInputData && value == "" {
		return nil, &dserrors.MalformedDirectiveError{
			Field:  key,
			Reason: "value must not be empty",
		}
	}

	switch key {
	case KeyInputData:
		return Literal{Value: value}, nil
	case KeyInputSecret:
		return Secret{Name: value}, nil
	case KeyInputRoleARN:
		return AssumedRole{RoleARN: value}, nil
	case KeyInputRoleARNSecret:
		return AssumedRole{RoleARNSecret: value}, nil
	default:
		return ObjectDownload{Locator: value}, nil
	}
}

func conditionsFromFields(f Fields, marker string) ([]Condition, *dserrors.MalformedDirectiveError) {
	var conds []Condition

	if raw, ok := f[KeyOSOnly]; ok {
		var platforms []string
		for _, p := range strings.Split(raw, ",") {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				platforms = append(platforms, p)
			}
		}
		if len(platforms) == 0 {
			return nil, &dserrors.MalformedDirectiveError{
				Field:  KeyOSOnly,
				Reason: "expected a comma-separated list of linux, windows or mac",
			}
		}
		conds = append(conds, PlatformOnly{Platforms: platforms})
	}

	if f.Has(KeyOSArmSkip) {
		conds = append(conds, ArchitectureExclude{Family: "arm"})
	}

	if f.Has(KeyOSCodebuildOnly) {
		if marker == "" {
			marker = DefaultCIMarker
		}
		conds = append(conds, ExecutionContextOnly{Marker: marker})
	}

	return conds, nil
}
