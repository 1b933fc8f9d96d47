package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/metrics"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Executive insights: KPIs, critical departments, key correlations",
	Long: `Build the executive insights report for a roster snapshot.

The report holds the KPI summary, the critical departments (turnover above
35% or mean engagement below 6.5, highest turnover first), the generations
with elevated mean risk, the high-risk headcount and the key correlations
between engagement, turnover, performance and tenure.

Examples:
  pulse report
  pulse report --format json > insights.json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var reportFlags rosterFlags

func init() {
	rootCmd.AddCommand(reportCmd)
	reportFlags.register(reportCmd, true)
}

func runReport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	r, threshold, err := reportFlags.load(cmd, ws)
	if err != nil {
		return err
	}
	return writeOutput(cmd, ws, metrics.BuildInsights(r, threshold))
}
