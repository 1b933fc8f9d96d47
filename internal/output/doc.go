// Package output renders pulse results as YAML or JSON.
//
// # Output Types
//
//   - TableOutput: any flat metric table (departments, high-risk list,
//     cohorts, recommendations). Each row becomes a mapping whose keys are
//     the column names, in column order.
//   - ImpactOutput: the retention impact estimate with the assumptions
//     used and currency amounts formatted for display.
//   - SummaryOutput: executive KPIs, with currency values formatted.
//
// Structured results that already carry yaml/json tags (insights,
// evaluation, predictions) are encoded as they are.
//
// # Formats
//
//   - YAML (default): self-documenting, human-readable
//   - JSON: machine-readable, same structure as YAML
//
// # Density
//
// Density bounds how many table rows are printed:
//
//   - Sparse: first 10 rows, for a quick look
//   - Medium (default): first 100 rows
//   - Dense: every row
//
// Truncated tables report the number of omitted rows so callers can ask
// for more.
//
// # Cell Values
//
// Cells that are numbers are emitted as numbers, empty cells as null, and
// everything else as strings. Identifiers with leading zeros stay strings.
package output
