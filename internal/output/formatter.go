// Package output provides formatters for different output formats.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Formatter is the interface for formatting results in different formats.
type Formatter interface {
	// Format formats a value according to the specified density level.
	Format(v any, density Density) (string, error)

	// FormatToWriter writes formatted output directly to a writer.
	FormatToWriter(w io.Writer, v any, density Density) error
}

// YAMLFormatter formats results as YAML output.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format formats a value as YAML.
func (f *YAMLFormatter) Format(v any, density Density) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v, density); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatToWriter writes YAML output to a writer.
func (f *YAMLFormatter) FormatToWriter(w io.Writer, v any, density Density) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(applyDensityFilter(v, density)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return encoder.Close()
}

// JSONFormatter formats results as JSON output.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a value as JSON.
func (f *JSONFormatter) Format(v any, density Density) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v, density); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatToWriter writes JSON output to a writer.
func (f *JSONFormatter) FormatToWriter(w io.Writer, v any, density Density) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(applyDensityFilter(v, density)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// applyDensityFilter truncates table rows to the density's limit.
// Other values pass through unchanged.
func applyDensityFilter(v any, density Density) any {
	switch t := v.(type) {
	case *TableOutput:
		return t.Truncate(density.RowLimit())
	case []*TableOutput:
		out := make([]*TableOutput, len(t))
		for i, table := range t {
			out[i] = table.Truncate(density.RowLimit())
		}
		return out
	default:
		return v
	}
}

// GetFormatter returns a formatter for the specified format.
func GetFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
