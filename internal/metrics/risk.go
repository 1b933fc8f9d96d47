package metrics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bernlabs/pulse/internal/roster"
)

// HighRiskEmployee is one entry of the ranked high-risk list.
type HighRiskEmployee struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Department  roster.Department `json:"department" yaml:"department"`
	Level       roster.Level      `json:"level" yaml:"level"`
	Generation  roster.Generation `json:"generation" yaml:"generation"`
	TenureYears float64           `json:"tenure_years" yaml:"tenure_years"`
	Engagement  float64           `json:"engagement" yaml:"engagement"`
	Performance float64           `json:"performance" yaml:"performance"`
	Risk        float64           `json:"risk" yaml:"risk"`
	RiskLevel   RiskLevel         `json:"risk_level" yaml:"risk_level"`
	Action      string            `json:"action" yaml:"action"`
	Trend       roster.Trend      `json:"trend" yaml:"trend"`
}

// HighRiskList is ordered by risk descending.
type HighRiskList []HighRiskEmployee

// HighRisk ranks active employees whose risk exceeds threshold, highest first.
// Ties are broken by id.
func HighRisk(r roster.Roster, threshold float64) HighRiskList {
	selected := r.HighRisk(threshold)
	out := make(HighRiskList, 0, len(selected))
	for _, e := range selected {
		level := ClassifyRisk(*e.Risk)
		out = append(out, HighRiskEmployee{
			ID:          e.ID,
			Name:        e.Name,
			Department:  e.Department,
			Level:       e.Level,
			Generation:  e.Generation,
			TenureYears: e.TenureYears,
			Engagement:  e.Engagement,
			Performance: e.Performance,
			Risk:        *e.Risk,
			RiskLevel:   level,
			Action:      RecommendedAction(level),
			Trend:       e.Trend,
		})
	}
	slices.SortFunc(out, func(a, b HighRiskEmployee) int {
		if c := cmp.Compare(b.Risk, a.Risk); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (l HighRiskList) Header() []string {
	return []string{
		"id", "name", "department", "level", "generation", "tenure_years", "engagement",
		"performance", "risk", "risk_level", "action", "trend",
	}
}

func (l HighRiskList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, e := range l {
		rows[i] = []string{
			e.ID, e.Name, string(e.Department), string(e.Level), string(e.Generation),
			f1(e.TenureYears), f1(e.Engagement), f1(e.Performance), f1(e.Risk),
			string(e.RiskLevel), e.Action, string(e.Trend),
		}
	}
	return rows
}

// Band labels used by the engagement × risk matrix.
var matrixBands = []Category{CategoryLow, CategoryMedium, CategoryHigh}

func engagementBand(engagement float64) Category {
	switch {
	case engagement <= 4:
		return CategoryLow
	case engagement <= 7:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

func riskBand(risk float64) Category {
	switch {
	case risk < 50:
		return CategoryLow
	case risk < 70:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// MatrixCell counts active employees in one engagement band and risk band.
type MatrixCell struct {
	Engagement Category `json:"engagement" yaml:"engagement"`
	Risk       Category `json:"risk" yaml:"risk"`
	Employees  int      `json:"employees" yaml:"employees"`
}

// RiskMatrix is the full 3×3 grid, engagement band major.
type RiskMatrix []MatrixCell

// RiskEngagementMatrix counts active employees per engagement and risk band.
// All nine cells are present.
func RiskEngagementMatrix(r roster.Roster) RiskMatrix {
	counts := make(map[[2]Category]int)
	for _, e := range r.Active() {
		risk, ok := e.RiskScore()
		if !ok {
			continue
		}
		counts[[2]Category{engagementBand(e.Engagement), riskBand(risk)}]++
	}
	out := make(RiskMatrix, 0, len(matrixBands)*len(matrixBands))
	for _, eb := range matrixBands {
		for _, rb := range matrixBands {
			out = append(out, MatrixCell{Engagement: eb, Risk: rb, Employees: counts[[2]Category{eb, rb}]})
		}
	}
	return out
}

// Count returns the number of employees in a cell.
func (m RiskMatrix) Count(engagement, risk Category) int {
	for _, c := range m {
		if c.Engagement == engagement && c.Risk == risk {
			return c.Employees
		}
	}
	return 0
}

func (m RiskMatrix) Header() []string {
	return []string{"engagement_band", "risk_band", "employees"}
}

func (m RiskMatrix) Rows() [][]string {
	rows := make([][]string, len(m))
	for i, c := range m {
		rows[i] = []string{string(c.Engagement), string(c.Risk), itoa(c.Employees)}
	}
	return rows
}
