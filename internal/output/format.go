package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatYAML is the default self-documenting YAML output
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON output format
	FormatJSON Format = "json"
)

// ParseFormat parses a format string into a Format value.
// Accepts: "yaml", "json" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected yaml or json)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Density represents how much of a table is printed.
type Density string

const (
	// DensitySparse prints the first rows only
	DensitySparse Density = "sparse"

	// DensityMedium prints a bounded page of rows (default)
	DensityMedium Density = "medium"

	// DensityDense prints every row
	DensityDense Density = "dense"
)

// Row limits per density. Zero means unbounded.
const (
	SparseRows = 10
	MediumRows = 100
)

// ParseDensity parses a density string into a Density value.
// Accepts: "sparse", "medium", "dense" (case-insensitive)
func ParseDensity(s string) (Density, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sparse":
		return DensitySparse, nil
	case "medium":
		return DensityMedium, nil
	case "dense":
		return DensityDense, nil
	default:
		return "", fmt.Errorf("invalid density: %q (expected sparse, medium, or dense)", s)
	}
}

// String returns the string representation of the density.
func (d Density) String() string {
	return string(d)
}

// RowLimit returns the number of table rows printed at this density.
// Zero means every row.
func (d Density) RowLimit() int {
	switch d {
	case DensitySparse:
		return SparseRows
	case DensityDense:
		return 0
	default:
		return MediumRows
	}
}

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatYAML

// DefaultDensity is the default density level when none is specified.
const DefaultDensity = DensityMedium

// ValidateFormat checks if a format value is valid.
func ValidateFormat(f Format) bool {
	switch f {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// ValidateDensity checks if a density value is valid.
func ValidateDensity(d Density) bool {
	switch d {
	case DensitySparse, DensityMedium, DensityDense:
		return true
	default:
		return false
	}
}
