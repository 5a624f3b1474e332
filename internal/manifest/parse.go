// Package manifest reads directive lists from JSON, XML and YAML documents,
// local or stored in S3.
package manifest

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/systmms/cienv/internal/directive"
	dserrors "github.com/systmms/cienv/internal/errors"
)

// Entry is one manifest element. Exactly one of Directive and Err is
// meaningful; Err is always a *errors.MalformedDirectiveError.
type Entry struct {
	Index     int
	Directive directive.Directive
	Err       error
}

// Name returns the directive name, or a positional label for malformed
// entries that have none.
func (e Entry) Name() string {
	if e.Err == nil {
		return e.Directive.Name
	}
	var malformed *dserrors.MalformedDirectiveError
	if errors.As(e.Err, &malformed) && malformed.Name != "" {
		return malformed.Name
	}
	return fmt.Sprintf("entry #%d", e.Index)
}

// Manifest is a parsed document.
type Manifest struct {
	Locator string
	Format  Format
	Entries []Entry
}

// Directives returns the well-formed entries in order
func (m *Manifest) Directives() []directive.Directive {
	var out []directive.Directive
	for _, e := range m.Entries {
		if e.Err == nil {
			out = append(out, e.Directive)
		}
	}
	return out
}

// Malformed returns the entries that will be skipped
func (m *Manifest) Malformed() []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

// ParseOptions controls parsing.
type ParseOptions struct {
	Directive directive.Options
	// ValidateSchema checks JSON and YAML entries against the manifest
	// schema; entries that fail it are malformed, not fatal.
	ValidateSchema bool
}

// Parse decodes data in the given format. Document-level problems are
// *errors.ManifestParseError; entry-level problems end up in Entry.Err.
func Parse(locator string, format Format, data []byte, opts ParseOptions) (*Manifest, error) {
	var (
		records []interface{}
		err     error
	)

	switch format {
	case FormatJSON:
		records, err = decodeJSON(data)
	case FormatYAML:
		records, err = decodeYAML(data)
	case FormatXML:
		records, err = decodeXML(data)
	default:
		return nil, &dserrors.UnsupportedManifestFormatError{Locator: locator}
	}
	if err != nil {
		return nil, &dserrors.ManifestParseError{Locator: locator, Err: err}
	}

	var violations map[int]Violation
	if opts.ValidateSchema && format != FormatXML {
		violations, err = ValidateSchema(records)
		if err != nil {
			return nil, &dserrors.ManifestParseError{Locator: locator, Err: err}
		}
	}

	m := &Manifest{Locator: locator, Format: format}
	for i, rec := range records {
		if v, ok := violations[i]; ok {
			if obj, isObj := rec.(map[string]interface{}); isObj {
				m.Entries = append(m.Entries, schemaEntry(i, obj, v))
				continue
			}
		}
		m.Entries = append(m.Entries, buildEntry(i, rec, opts.Directive))
	}
	return m, nil
}

// schemaEntry marks an object entry that failed the schema as malformed
func schemaEntry(index int, obj map[string]interface{}, v Violation) Entry {
	name, _ := obj[directive.KeyName].(string)
	return Entry{Index: index, Err: &dserrors.MalformedDirectiveError{
		Index:  index,
		Name:   strings.TrimSpace(name),
		Field:  v.Field,
		Reason: v.Reason,
	}}
}

func buildEntry(index int, rec interface{}, opts directive.Options) Entry {
	obj, ok := rec.(map[string]interface{})
	if !ok {
		return Entry{Index: index, Err: &dserrors.MalformedDirectiveError{
			Index:  index,
			Reason: fmt.Sprintf("entry is %s, not an object", describe(rec)),
		}}
	}

	fields := make(directive.Fields, len(obj))
	for k, v := range obj {
		fields[k] = stringify(v)
	}

	d, err := directive.FromFields(index, fields, opts)
	if err != nil {
		return Entry{Index: index, Err: err}
	}
	return Entry{Index: index, Directive: d}
}

func decodeJSON(data []byte) ([]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid JSON: trailing data after document")
	}

	records, ok := doc.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON array of directives, got %s", describe(doc))
	}
	return records, nil
}

func decodeYAML(data []byte) ([]interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		return []interface{}{}, nil
	}

	doc = normalizeYAML(doc)
	records, ok := doc.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a YAML sequence of directives, got %s", describe(doc))
	}
	return records, nil
}

// normalizeYAML converts non-string mapping keys so the tree is JSON-shaped.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	}
	return v
}

type xmlNode struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

// decodeXML maps every child of the root element to an object whose keys
// are the grandchildren's tag names and whose values are their text, kept
// exactly as written.
func decodeXML(data []byte) ([]interface{}, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}

	records := make([]interface{}, 0, len(root.Children))
	for _, elem := range root.Children {
		obj := make(map[string]interface{}, len(elem.Children))
		for _, field := range elem.Children {
			obj[field.XMLName.Local] = field.Text
		}
		records = append(records, obj)
	}
	return records, nil
}

// stringify renders a scalar the way it is written in the manifest. null
// becomes the empty string; nested values are re-encoded as JSON.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

func describe(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	}
	return "a number"
}
