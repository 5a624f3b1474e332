package manifest

import (
	"path"
	"strings"

	dserrors "github.com/systmms/cienv/internal/errors"
)

// Format is a manifest syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the syntax from the locator's extension. Remote
// locators are judged the same way as local paths.
func DetectFormat(locator string) (Format, error) {
	switch strings.ToLower(path.Ext(locator)) {
	case ".json":
		return FormatJSON, nil
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", &dserrors.UnsupportedManifestFormatError{Locator: locator}
}
