// Package export writes flat metric tables to CSV and XLSX files and reads
// employee rosters back from CSV through a validated boundary.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bernlabs/pulse/internal/metrics"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/roster"
)

// ErrUnsupportedFormat is returned for a file extension with no writer.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Sheet is a named table; it becomes a worksheet in XLSX output.
type Sheet struct {
	Name  string
	Table metrics.Table
}

// WriteCSV writes the header and rows of t.
func WriteCSV(w io.Writer, t metrics.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteFile writes sheets to path, choosing the format from the extension.
// A .csv file holds exactly one sheet; a directory target writes one CSV per sheet.
func WriteFile(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("write %s: no tables", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := WriteXLSX(f, sheets...); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".csv":
		if len(sheets) != 1 {
			return fmt.Errorf("%w: %d tables cannot share one CSV file", ErrUnsupportedFormat, len(sheets))
		}
		return writeCSVFile(path, sheets[0].Table)
	case "":
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
		for _, s := range sheets {
			if err := writeCSVFile(filepath.Join(path, s.Name+".csv"), s.Table); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func writeCSVFile(path string, t metrics.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Find returns the sheet called name, suggesting the closest name on a miss.
func Find(sheets []Sheet, name string) (Sheet, error) {
	names := make([]string, len(sheets))
	for i, s := range sheets {
		if s.Name == name {
			return s, nil
		}
		names[i] = s.Name
	}
	return Sheet{}, roster.UnknownName(name, names)
}

// Report returns the standard set of sheets for a roster: the employees
// themselves and every descriptive table the dashboard shows.
func Report(r roster.Roster, threshold float64, impact predict.ImpactConfig) []Sheet {
	sheets := []Sheet{
		{Name: "summary", Table: metrics.ExecutiveSummary(r, threshold)},
		{Name: "employees", Table: r},
		{Name: "departments", Table: metrics.ComputeDepartmentTable(r)},
		{Name: "generations", Table: metrics.ComputeGenerationTable(r)},
		{Name: "engagement", Table: metrics.EngagementByDepartment(r)},
		{Name: "turnover", Table: metrics.TurnoverByDepartment(r)},
		{Name: "tenure", Table: metrics.TenureBuckets(r)},
		{Name: "high_risk", Table: metrics.HighRisk(r, threshold)},
		{Name: "risk_matrix", Table: metrics.RiskEngagementMatrix(r)},
		{Name: "cohorts", Table: metrics.HireCohorts(r)},
		{Name: "recommendations", Table: predict.RecommendRetention(r.HighRisk(threshold))},
		{Name: "impact", Table: predict.EstimateRetentionImpact(r, impact)},
	}
	if corr, err := metrics.Correlation(r); err == nil {
		sheets = append(sheets, Sheet{Name: "correlation", Table: corr})
	}
	return sheets
}
