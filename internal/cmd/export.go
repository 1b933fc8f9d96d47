package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/export"
	"github.com/bernlabs/pulse/internal/workspace"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write metric tables to XLSX or CSV",
	Long: `Write the tables of a roster snapshot to a file.

The format follows the path:
  report.xlsx    One worksheet per table
  table.csv      A single table (requires --tables with one name)
  outdir         One CSV file per table inside the directory

Examples:
  pulse export report.xlsx
  pulse export high_risk.csv --tables high_risk
  pulse export tables/ --tables departments,generations,cohorts
  pulse export sales.xlsx -f department=Sales`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportFlags  rosterFlags
	exportTables string
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportFlags.register(exportCmd, true)
	exportCmd.Flags().StringVar(&exportTables, "tables", "", "Comma-separated tables to write (default: all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	r, threshold, err := exportFlags.load(cmd, ws)
	if err != nil {
		return err
	}

	impact := workspace.ImpactConfig(ws.Config)
	impact.Threshold = threshold
	sheets := export.Report(r, threshold, impact)

	if names := splitList(exportTables); len(names) > 0 {
		selected := make([]export.Sheet, 0, len(names))
		for _, name := range names {
			s, err := export.Find(sheets, name)
			if err != nil {
				return fmt.Errorf("table %q: %w", name, err)
			}
			selected = append(selected, s)
		}
		sheets = selected
	}

	if err := export.WriteFile(path, sheets...); err != nil {
		return err
	}
	ws.Log.WithField("tables", len(sheets)).Debug("export written")
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tables to %s\n", len(sheets), path)
	return nil
}
