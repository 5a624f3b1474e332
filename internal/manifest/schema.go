package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Violation is a schema failure inside one manifest entry.
type Violation struct {
	Field  string // "" when the entry itself has the wrong shape
	Reason string
}

// ValidateSchema checks decoded manifest entries against the manifest JSON
// schema. Failures inside an entry are returned keyed by entry index, first
// failure only; anything that concerns the document as a whole is an error.
func ValidateSchema(records []interface{}) (map[int]Violation, error) {
	jsonData, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest for validation: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make(map[int]Violation)
	var docErrors []string
	for _, desc := range result.Errors() {
		index, field, ok := entryField(desc.Field())
		if !ok {
			docErrors = append(docErrors, desc.String())
			continue
		}
		if _, seen := violations[index]; !seen {
			violations[index] = Violation{Field: field, Reason: desc.Description()}
		}
	}
	if len(docErrors) > 0 {
		return nil, fmt.Errorf("schema validation failed:\n  - %s", strings.Join(docErrors, "\n  - "))
	}
	return violations, nil
}

// entryField splits a gojsonschema field path such as "1.name" into the
// entry index and the key within it.
func entryField(path string) (int, string, bool) {
	head, rest, _ := strings.Cut(path, ".")
	index, err := strconv.Atoi(head)
	if err != nil || index < 0 {
		return 0, "", false
	}
	return index, rest, true
}
