package metrics

import (
	"fmt"

	"github.com/bernlabs/pulse/internal/roster"
)

// CorrelationFields is the numeric attribute set correlated over active employees.
var CorrelationFields = []string{"engagement", "performance", "risk", "tenure_years", "age", "salary"}

// CorrelationMatrix is a symmetric Pearson matrix over CorrelationFields.
// A nil cell marks a pair whose correlation is undefined (zero variance).
type CorrelationMatrix struct {
	Fields  []string     `json:"fields" yaml:"fields"`
	Values  [][]*float64 `json:"values" yaml:"values"`
	Samples int          `json:"samples" yaml:"samples"`
}

// Correlation computes the Pearson matrix over the active employees of r.
// It returns ErrInsufficientRows when fewer than two active rows are available.
func Correlation(r roster.Roster) (*CorrelationMatrix, error) {
	active := r.Where(func(e roster.Employee) bool {
		_, scored := e.RiskScore()
		return e.IsActive() && scored
	})
	if len(active) < 2 {
		return nil, fmt.Errorf("correlation over %d active rows: %w", len(active), ErrInsufficientRows)
	}

	getters := []func(roster.Employee) (float64, bool){
		engagementOf, performanceOf, riskOf, tenureOf, ageOf, salaryOf,
	}
	cols := make([][]float64, len(getters))
	for i, get := range getters {
		cols[i] = column(active, get)
	}

	n := len(getters)
	m := &CorrelationMatrix{
		Fields:  CorrelationFields,
		Values:  make([][]*float64, n),
		Samples: len(active),
	}
	for i := range n {
		m.Values[i] = make([]*float64, n)
	}
	for i := range n {
		for j := i; j < n; j++ {
			c := pearson(cols[i], cols[j])
			if c == nil {
				continue
			}
			mirror := *c
			m.Values[i][j] = c
			m.Values[j][i] = &mirror
		}
	}
	return m, nil
}

// Get returns the correlation between two fields and whether it is defined.
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 || m.Values[i][j] == nil {
		return 0, false
	}
	return *m.Values[i][j], true
}

func (m *CorrelationMatrix) index(field string) int {
	for i, f := range m.Fields {
		if f == field {
			return i
		}
	}
	return -1
}

func (m *CorrelationMatrix) Header() []string {
	return append([]string{"field"}, m.Fields...)
}

// Rows renders one row per field. Undefined cells are empty.
func (m *CorrelationMatrix) Rows() [][]string {
	rows := make([][]string, len(m.Fields))
	for i, f := range m.Fields {
		row := []string{f}
		for _, v := range m.Values[i] {
			if v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, f2(*v))
		}
		rows[i] = row
	}
	return rows
}
