// Package output serializes command results to stdout as YAML or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ResolveResult is the top-level output of the `resolve` command and
// the resolve_element tool.
type ResolveResult struct {
	X               int            `yaml:"x"                          json:"x"`
	Y               int            `yaml:"y"                          json:"y"`
	Found           bool           `yaml:"found"                      json:"found"`
	DetectionMethod string         `yaml:"detection_method,omitempty" json:"detection_method,omitempty"`
	Element         *model.Element `yaml:"element,omitempty"          json:"element,omitempty"`
}

// ErrorResult is the structured failure payload printed by commands
// that fail without a more specific result type.
type ErrorResult struct {
	OK    bool   `yaml:"ok"    json:"ok"`
	Error string `yaml:"error" json:"error"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintPrettyJSON serializes v to stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// MarshalYAML renders v as a YAML string, for tool results returned
// over MCP rather than printed.
func MarshalYAML(v interface{}) (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("yaml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}
