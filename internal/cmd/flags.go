package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/roster"
	"github.com/bernlabs/pulse/internal/workspace"
)

// rosterFlags selects the roster an analytics command works on.
type rosterFlags struct {
	snapshot  string
	filters   []string
	threshold float64
}

func (f *rosterFlags) register(cmd *cobra.Command, withThreshold bool) {
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Snapshot id (default: newest)")
	cmd.Flags().StringSliceVarP(&f.filters, "filter", "f", nil, "Keep employees matching field=value (repeatable)")
	if withThreshold {
		cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "High-risk cut-off on the 0-100 scale (default from config)")
	}
}

// load opens the selected roster with filters applied and resolves the
// threshold.
func (f *rosterFlags) load(cmd *cobra.Command, ws *workspace.Workspace) (roster.Roster, float64, error) {
	threshold, err := resolveThreshold(cmd, ws, f.threshold)
	if err != nil {
		return nil, 0, err
	}
	r, _, err := ws.Filtered(cmd.Context(), f.snapshot, f.filters)
	if err != nil {
		return nil, 0, err
	}
	return r, threshold, nil
}
