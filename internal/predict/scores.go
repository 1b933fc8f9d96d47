package predict

import (
	"cmp"
	"slices"

	"github.com/bernlabs/pulse/internal/metrics"
	"github.com/bernlabs/pulse/internal/roster"
)

// Score is the predicted separation probability of one employee.
type Score struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Department  roster.Department `json:"department" yaml:"department"`
	Probability float64           `json:"probability" yaml:"probability"`
	Level       metrics.RiskLevel `json:"level" yaml:"level"`
}

// ScoreTable is ordered by probability descending, then id.
type ScoreTable []Score

// Score predicts every record of r and ranks the results. Levels classify
// the probability on the 0-100 risk scale.
func (p *Predictor) Score(r roster.Roster) (ScoreTable, error) {
	probs, err := p.Predict(r)
	if err != nil {
		return nil, err
	}
	out := make(ScoreTable, len(r))
	for i, e := range r {
		out[i] = Score{
			ID:          e.ID,
			Name:        e.Name,
			Department:  e.Department,
			Probability: probs[i],
			Level:       metrics.ClassifyRisk(probs[i] * 100),
		}
	}
	slices.SortStableFunc(out, func(a, b Score) int {
		if c := cmp.Compare(b.Probability, a.Probability); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Top returns the first n scores, or all of them when n <= 0.
func (t ScoreTable) Top(n int) ScoreTable {
	if n <= 0 || n >= len(t) {
		return t
	}
	return t[:n]
}

func (t ScoreTable) Header() []string {
	return []string{"id", "name", "department", "probability", "level"}
}

func (t ScoreTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, s := range t {
		rows[i] = []string{s.ID, s.Name, string(s.Department), fmt2(s.Probability), string(s.Level)}
	}
	return rows
}
