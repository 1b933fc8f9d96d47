package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/session"
	"github.com/bernlabs/pulse/internal/workspace"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the turnover model and report its quality",
	Long: `Train the turnover model on a snapshot and report its held-out
evaluation and feature importance.

The model is a class-balanced random forest over age, tenure, salary,
engagement, performance, department, level and generation. A stratified
split holds out model.test_fraction of the rows for evaluation. Trained
models are cached in .pulse/cache.db, so training the same snapshot with
the same parameters again restores the cached model.

Examples:
  pulse train
  pulse train --snapshot <id> --format json`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

var trainSnapshot string

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVar(&trainSnapshot, "snapshot", "", "Snapshot id (default: newest)")
}

// trainOutput reports a trained model.
type trainOutput struct {
	Snapshot    string              `yaml:"snapshot" json:"snapshot"`
	Fingerprint string              `yaml:"fingerprint" json:"fingerprint"`
	Params      string              `yaml:"params" json:"params"`
	Evaluation  predict.Evaluation  `yaml:"evaluation" json:"evaluation"`
	Importance  *output.TableOutput `yaml:"feature_importance" json:"feature_importance"`
	Session     session.Stats       `yaml:"session" json:"session"`
}

func runTrain(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	r, snap, err := ws.Roster(cmd.Context(), trainSnapshot)
	if err != nil {
		return err
	}
	p, err := ws.Session.Predictor(cmd.Context(), r)
	if err != nil {
		return err
	}
	eval, err := p.Evaluation()
	if err != nil {
		return err
	}
	importance, err := p.FeatureImportance()
	if err != nil {
		return err
	}

	return writeOutput(cmd, ws, trainOutput{
		Snapshot:    snap.ID,
		Fingerprint: p.Fingerprint(),
		Params:      session.Params(workspace.ModelConfig(ws.Config)),
		Evaluation:  eval,
		Importance:  output.NewTableOutput("feature_importance", importance),
		Session:     ws.Session.Stats(),
	})
}
