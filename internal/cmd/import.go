package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/export"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import a roster from CSV as a new snapshot",
	Long: `Import an employee roster from a CSV file and store it as a new snapshot.

The header must name every roster column, in any order. UTF-8 (with or
without BOM), UTF-16 and Windows-1252 files are accepted. Every record is
validated; the first invalid row aborts the import and nothing is stored.

Examples:
  pulse import employees.csv
  pulse import export/employees.csv --label "hris 2025-06"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importLabel string

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importLabel, "label", "", "Snapshot label (default: file name)")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, err := export.ReadRoster(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	label := importLabel
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	snap, err := ws.Save(cmd.Context(), r, label, 0)
	if err != nil {
		return err
	}
	return writeOutput(cmd, ws, snapshotOutput{Snapshot: snap})
}
