package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/roster"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict separation probability for active employees",
	Long: `Score active employees with the turnover model, most likely leavers first.

The model is trained on the whole snapshot (or restored from the model
cache); --filter narrows the employees that are scored, not the training
data.

Examples:
  pulse predict --limit 20
  pulse predict -f department=Sales --density dense`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

var (
	predictFlags rosterFlags
	predictLimit int
)

func init() {
	rootCmd.AddCommand(predictCmd)
	predictFlags.register(predictCmd, false)
	predictCmd.Flags().IntVar(&predictLimit, "limit", 0, "Show only the N most likely leavers")
}

func runPredict(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	filters, err := roster.ParseFilters(predictFlags.filters)
	if err != nil {
		return err
	}
	r, _, err := ws.Roster(cmd.Context(), predictFlags.snapshot)
	if err != nil {
		return err
	}
	p, err := ws.Session.Predictor(cmd.Context(), r)
	if err != nil {
		return err
	}

	scores, err := p.Score(r.Filter(filters...).Active())
	if err != nil {
		return err
	}
	if predictLimit > 0 {
		scores = scores.Top(predictLimit)
	}
	return writeOutput(cmd, ws, output.NewTableOutput("predictions", scores))
}
