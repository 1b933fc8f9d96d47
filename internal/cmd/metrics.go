package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/export"
	"github.com/bernlabs/pulse/internal/metrics"
	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/workspace"
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics [table]",
	Short: "Show descriptive people metrics",
	Long: `Show one metric table for a roster snapshot.

Tables:
  summary          Executive KPIs (default)
  departments      Headcount, engagement, risk, turnover per department
  generations      The same per generation
  engagement       Engagement distribution per department
  turnover         Voluntary and involuntary turnover per department
  tenure           Headcount and engagement per tenure bucket
  high_risk        Active employees above the risk threshold
  risk_matrix      Employees per engagement band and risk band
  cohorts          Retention per hire year
  recommendations  Retention actions per department
  impact           Cost of losing the high-risk population
  correlation      Pearson correlation of the numeric fields
  employees        The roster itself
  all              Every table except employees

Examples:
  pulse metrics                                  # Executive summary
  pulse metrics departments
  pulse metrics turnover -f generation=Millennial
  pulse metrics all --density sparse --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMetrics,
}

var metricsFlags rosterFlags

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsFlags.register(metricsCmd, true)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	table := "summary"
	if len(args) == 1 {
		table = args[0]
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	r, threshold, err := metricsFlags.load(cmd, ws)
	if err != nil {
		return err
	}
	if table == "summary" {
		return writeOutput(cmd, ws, output.NewSummaryOutput(metrics.ExecutiveSummary(r, threshold)))
	}

	impact := workspace.ImpactConfig(ws.Config)
	impact.Threshold = threshold
	sheets := export.Report(r, threshold, impact)

	if table == "all" {
		tables := make([]*output.TableOutput, 0, len(sheets))
		for _, s := range sheets {
			if s.Name != "employees" {
				tables = append(tables, output.NewTableOutput(s.Name, s.Table))
			}
		}
		return writeOutput(cmd, ws, tables)
	}

	sheet, err := export.Find(sheets, table)
	if err != nil {
		return fmt.Errorf("table %q: %w", table, err)
	}
	return writeOutput(cmd, ws, output.NewTableOutput(sheet.Name, sheet.Table))
}
