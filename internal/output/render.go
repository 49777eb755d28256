// Package output renders build configurations and resolved inputs as raw text, JSON, or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/phelcfg/internal/config"
	"github.com/temirov/phelcfg/internal/inputs"
)

const (
	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatYAML = "yaml"

	indentPrefix = ""
	indentSpacer = "  "
	yamlIndent   = 2

	listItemPrefix = "  "
	emptyListLabel = "(none)"

	sourceDirectoriesLabel  = "Source directories:"
	testDirectoriesLabel    = "Test directories:"
	ignoreWhenBuildingLabel = "Ignore when building:"
	ignoredFilesLabel       = "Ignored when building:"
	missingDirectoriesLabel = "Missing directories:"

	errorUnsupportedFormat = "unsupported format %q"
	errorEncodeJSONFormat  = "encode JSON output: %w"
	errorEncodeYAMLFormat  = "encode YAML output: %w"
)

// sourcesDocument is the serializable form of the sources listing.
type sourcesDocument struct {
	SourceFiles        []string `json:"sourceFiles" yaml:"source_files"`
	IgnoredFiles       []string `json:"ignoredFiles" yaml:"ignored_files"`
	MissingDirectories []string `json:"missingDirectories" yaml:"missing_directories"`
}

// testsDocument is the serializable form of the tests listing.
type testsDocument struct {
	TestFiles          []string `json:"testFiles" yaml:"test_files"`
	MissingDirectories []string `json:"missingDirectories" yaml:"missing_directories"`
}

// IsSupportedFormat reports whether the provided format is recognized.
func IsSupportedFormat(format string) bool {
	switch format {
	case FormatRaw, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// RenderConfiguration renders the effective build configuration.
func RenderConfiguration(configuration config.BuildConfiguration, format string) (string, error) {
	document := configuration.Document()
	if format != FormatRaw {
		return renderStructured(document, format)
	}
	var buffer bytes.Buffer
	writeSection(&buffer, sourceDirectoriesLabel, document.SourceDirectories)
	writeSection(&buffer, testDirectoriesLabel, document.TestDirectories)
	writeSection(&buffer, ignoreWhenBuildingLabel, document.IgnoreWhenBuilding)
	return buffer.String(), nil
}

// RenderSources renders the files a build considers together with the ignored files and missing directories.
// The raw format lists one source file per line followed by the other sections when they are not empty.
func RenderSources(resolved inputs.Inputs, format string) (string, error) {
	if format != FormatRaw {
		return renderStructured(sourcesDocument{
			SourceFiles:        nonNilList(resolved.SourceFiles),
			IgnoredFiles:       nonNilList(resolved.IgnoredFiles),
			MissingDirectories: nonNilList(resolved.MissingDirectories),
		}, format)
	}
	var buffer bytes.Buffer
	writeLines(&buffer, resolved.SourceFiles)
	if len(resolved.IgnoredFiles) > 0 {
		writeSection(&buffer, ignoredFilesLabel, resolved.IgnoredFiles)
	}
	if len(resolved.MissingDirectories) > 0 {
		writeSection(&buffer, missingDirectoriesLabel, resolved.MissingDirectories)
	}
	return buffer.String(), nil
}

// RenderTests renders the files a test run considers.
func RenderTests(resolved inputs.Inputs, format string) (string, error) {
	if format != FormatRaw {
		return renderStructured(testsDocument{
			TestFiles:          nonNilList(resolved.TestFiles),
			MissingDirectories: nonNilList(resolved.MissingDirectories),
		}, format)
	}
	var buffer bytes.Buffer
	writeLines(&buffer, resolved.TestFiles)
	if len(resolved.MissingDirectories) > 0 {
		writeSection(&buffer, missingDirectoriesLabel, resolved.MissingDirectories)
	}
	return buffer.String(), nil
}

func renderStructured(document any, format string) (string, error) {
	switch format {
	case FormatJSON:
		encoded, err := json.MarshalIndent(document, indentPrefix, indentSpacer)
		if err != nil {
			return "", fmt.Errorf(errorEncodeJSONFormat, err)
		}
		return string(encoded) + "\n", nil
	case FormatYAML:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(yamlIndent)
		if err := encoder.Encode(document); err != nil {
			return "", fmt.Errorf(errorEncodeYAMLFormat, err)
		}
		if err := encoder.Close(); err != nil {
			return "", fmt.Errorf(errorEncodeYAMLFormat, err)
		}
		return buffer.String(), nil
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}

func writeSection(buffer *bytes.Buffer, label string, values []string) {
	buffer.WriteString(label + "\n")
	if len(values) == 0 {
		buffer.WriteString(listItemPrefix + emptyListLabel + "\n")
		return
	}
	for _, value := range values {
		buffer.WriteString(listItemPrefix + value + "\n")
	}
}

func writeLines(buffer *bytes.Buffer, values []string) {
	if len(values) == 0 {
		return
	}
	buffer.WriteString(strings.Join(values, "\n") + "\n")
}

// nonNilList keeps empty lists rendering as [] rather than null.
func nonNilList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
