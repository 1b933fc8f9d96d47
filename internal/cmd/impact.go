package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/workspace"
)

// impactCmd represents the impact command
var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Estimate the cost of losing the high-risk population",
	Long: `Estimate what losing the active high-risk employees would cost and what
retention interventions could save.

  cost per turnover = mean active salary x cost multiplier
  potential cost    = cost per turnover x high-risk headcount
  estimated savings = potential cost x success rate

Amounts are shown in impact.currency (default BRL).

Examples:
  pulse impact
  pulse impact --cost-multiplier 1.5 --success-rate 0.4
  pulse impact -f department=Sales --format json`,
	Args: cobra.NoArgs,
	RunE: runImpact,
}

var (
	impactFlags          rosterFlags
	impactCostMultiplier float64
	impactSuccessRate    float64
)

func init() {
	rootCmd.AddCommand(impactCmd)
	impactFlags.register(impactCmd, true)
	impactCmd.Flags().Float64Var(&impactCostMultiplier, "cost-multiplier", 0, "Turnover cost as a multiple of mean salary (default from config)")
	impactCmd.Flags().Float64Var(&impactSuccessRate, "success-rate", 0, "Share of interventions that retain the employee, 0-1 (default from config)")
}

func runImpact(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	r, threshold, err := impactFlags.load(cmd, ws)
	if err != nil {
		return err
	}

	cfg := workspace.ImpactConfig(ws.Config)
	cfg.Threshold = threshold
	if cmd.Flags().Changed("cost-multiplier") {
		if impactCostMultiplier <= 0 {
			return fmt.Errorf("cost multiplier must be positive, got %g", impactCostMultiplier)
		}
		cfg.CostMultiplier = impactCostMultiplier
	}
	if cmd.Flags().Changed("success-rate") {
		if impactSuccessRate <= 0 || impactSuccessRate > 1 {
			return fmt.Errorf("success rate must be in (0, 1], got %g", impactSuccessRate)
		}
		cfg.SuccessRate = impactSuccessRate
	}

	impact := predict.EstimateRetentionImpact(r, cfg)
	return writeOutput(cmd, ws, output.NewImpactOutput(impact, cfg, ws.Config.Impact.Currency))
}
