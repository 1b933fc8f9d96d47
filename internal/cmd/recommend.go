package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/predict"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend retention actions for the high-risk population",
	Long: `Recommend retention actions per department for active employees above
the risk threshold.

Departments with at least two high-risk employees get bundles of actions
chosen from their mean engagement and tenure: an engagement bundle below
engagement 6, onboarding below 2 years of tenure, career growth above 10.

Examples:
  pulse recommend
  pulse recommend --threshold 60 -f level=Junior`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

var recommendFlags rosterFlags

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendFlags.register(recommendCmd, true)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	r, threshold, err := recommendFlags.load(cmd, ws)
	if err != nil {
		return err
	}
	recs := predict.RecommendRetention(r.HighRisk(threshold))
	return writeOutput(cmd, ws, output.NewTableOutput("recommendations", recs))
}
