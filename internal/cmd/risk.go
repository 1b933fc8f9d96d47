package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/metrics"
	"github.com/bernlabs/pulse/internal/output"
)

// riskCmd represents the risk command
var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "List active employees above the risk threshold",
	Long: `List active employees whose risk score exceeds the threshold, highest
risk first, with their risk level, recommended action and engagement trend.

Risk levels: Low (< 50), Medium (50-70), High (70-90), Critical (>= 90).

Examples:
  pulse risk                           # Threshold from config (default 70)
  pulse risk --threshold 50
  pulse risk -f department=Technology -f level=Senior`,
	Args: cobra.NoArgs,
	RunE: runRisk,
}

var riskFlags rosterFlags

func init() {
	rootCmd.AddCommand(riskCmd)
	riskFlags.register(riskCmd, true)
}

func runRisk(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	r, threshold, err := riskFlags.load(cmd, ws)
	if err != nil {
		return err
	}
	return writeOutput(cmd, ws, output.NewTableOutput("high_risk", metrics.HighRisk(r, threshold)))
}
