package metrics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bernlabs/pulse/internal/roster"
)

// DepartmentMetrics is the persisted per-department summary.
type DepartmentMetrics struct {
	Department         roster.Department `json:"department" yaml:"department"`
	Total              int               `json:"total" yaml:"total"`
	Active             int               `json:"active" yaml:"active"`
	MeanEngagement     float64           `json:"mean_engagement" yaml:"mean_engagement"`
	MeanRisk           float64           `json:"mean_risk" yaml:"mean_risk"`
	TurnoverRate       float64           `json:"turnover_rate" yaml:"turnover_rate"`
	Voluntary          int               `json:"voluntary" yaml:"voluntary"`
	Involuntary        int               `json:"involuntary" yaml:"involuntary"`
	MeanTenure         float64           `json:"mean_tenure" yaml:"mean_tenure"`
	MeanSalary         float64           `json:"mean_salary" yaml:"mean_salary"`
	RetentionRate      float64           `json:"retention_rate" yaml:"retention_rate"`
	EngagementCategory Category          `json:"engagement_category" yaml:"engagement_category"`
	TurnoverCategory   Category          `json:"turnover_category" yaml:"turnover_category"`
}

// DepartmentTable lists department summaries ordered by name.
type DepartmentTable []DepartmentMetrics

// ComputeDepartmentTable summarises every department present in r.
// Engagement, risk, tenure and salary means cover active employees only.
func ComputeDepartmentTable(r roster.Roster) DepartmentTable {
	groups := groupByDepartment(r)
	out := make(DepartmentTable, 0, len(groups))
	for dept, members := range groups {
		active := members.Active()
		vol := countVoluntary(members)
		sep := len(members.Separated())
		m := DepartmentMetrics{
			Department:     dept,
			Total:          len(members),
			Active:         len(active),
			MeanEngagement: mean(column(active, engagementOf)),
			MeanRisk:       mean(column(active, riskOf)),
			TurnoverRate:   percent(sep, len(members)),
			Voluntary:      vol,
			Involuntary:    sep - vol,
			MeanTenure:     mean(column(active, tenureOf)),
			MeanSalary:     mean(column(active, salaryOf)),
			RetentionRate:  percent(len(active), len(members)),
		}
		m.EngagementCategory = EngagementCategory(m.MeanEngagement)
		m.TurnoverCategory = TurnoverCategory(m.TurnoverRate)
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b DepartmentMetrics) int {
		return strings.Compare(string(a.Department), string(b.Department))
	})
	return out
}

func (t DepartmentTable) Header() []string {
	return []string{
		"department", "total", "active", "mean_engagement", "mean_risk", "turnover_rate",
		"voluntary", "involuntary", "mean_tenure", "mean_salary", "retention_rate",
		"engagement_category", "turnover_category",
	}
}

func (t DepartmentTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, d := range t {
		rows[i] = []string{
			string(d.Department), itoa(d.Total), itoa(d.Active), f1(d.MeanEngagement), f1(d.MeanRisk),
			f2(d.TurnoverRate), itoa(d.Voluntary), itoa(d.Involuntary), f1(d.MeanTenure),
			f1(d.MeanSalary), f1(d.RetentionRate), string(d.EngagementCategory), string(d.TurnoverCategory),
		}
	}
	return rows
}

// GenerationMetrics is the persisted per-generation summary.
type GenerationMetrics struct {
	Generation     roster.Generation `json:"generation" yaml:"generation"`
	Total          int               `json:"total" yaml:"total"`
	Active         int               `json:"active" yaml:"active"`
	MeanEngagement float64           `json:"mean_engagement" yaml:"mean_engagement"`
	MeanRisk       float64           `json:"mean_risk" yaml:"mean_risk"`
	TurnoverRate   float64           `json:"turnover_rate" yaml:"turnover_rate"`
	MeanAge        float64           `json:"mean_age" yaml:"mean_age"`
	MeanTenure     float64           `json:"mean_tenure" yaml:"mean_tenure"`
	MeanSalary     float64           `json:"mean_salary" yaml:"mean_salary"`
}

// GenerationTable lists generation summaries, oldest first.
type GenerationTable []GenerationMetrics

// ComputeGenerationTable summarises every generation present in r.
// Mean age covers all employees; the other means cover active employees.
func ComputeGenerationTable(r roster.Roster) GenerationTable {
	groups := groupByGeneration(r)
	out := make(GenerationTable, 0, len(groups))
	for _, gen := range roster.Generations {
		members, ok := groups[gen]
		if !ok {
			continue
		}
		active := members.Active()
		out = append(out, GenerationMetrics{
			Generation:     gen,
			Total:          len(members),
			Active:         len(active),
			MeanEngagement: mean(column(active, engagementOf)),
			MeanRisk:       mean(column(active, riskOf)),
			TurnoverRate:   percent(len(members.Separated()), len(members)),
			MeanAge:        mean(column(members, ageOf)),
			MeanTenure:     mean(column(active, tenureOf)),
			MeanSalary:     mean(column(active, salaryOf)),
		})
	}
	return out
}

func (t GenerationTable) Header() []string {
	return []string{
		"generation", "total", "active", "mean_engagement", "mean_risk", "turnover_rate",
		"mean_age", "mean_tenure", "mean_salary",
	}
}

func (t GenerationTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, g := range t {
		rows[i] = []string{
			string(g.Generation), itoa(g.Total), itoa(g.Active), f1(g.MeanEngagement), f1(g.MeanRisk),
			f2(g.TurnoverRate), f1(g.MeanAge), f1(g.MeanTenure), f1(g.MeanSalary),
		}
	}
	return rows
}

// HireCohort summarises the employees one department hired in one year.
type HireCohort struct {
	Year           int               `json:"year" yaml:"year"`
	Department     roster.Department `json:"department" yaml:"department"`
	Hires          int               `json:"hires" yaml:"hires"`
	StillActive    int               `json:"still_active" yaml:"still_active"`
	RetentionRate  float64           `json:"retention_rate" yaml:"retention_rate"`
	MeanEngagement float64           `json:"mean_engagement" yaml:"mean_engagement"`
}

// CohortTable lists hire cohorts by year then department.
type CohortTable []HireCohort

// MinCohortSize is the smallest number of hires reported as a cohort.
const MinCohortSize = 2

// HireCohorts groups employees by hire year and department, keeping cohorts
// with at least MinCohortSize hires.
func HireCohorts(r roster.Roster) CohortTable {
	type key struct {
		year int
		dept roster.Department
	}
	groups := make(map[key]roster.Roster)
	for _, e := range r {
		k := key{year: e.HireDate.Year(), dept: e.Department}
		groups[k] = append(groups[k], e)
	}

	out := make(CohortTable, 0, len(groups))
	for k, members := range groups {
		if len(members) < MinCohortSize {
			continue
		}
		active := len(members.Active())
		out = append(out, HireCohort{
			Year:           k.year,
			Department:     k.dept,
			Hires:          len(members),
			StillActive:    active,
			RetentionRate:  percent(active, len(members)),
			MeanEngagement: mean(column(members, engagementOf)),
		})
	}
	slices.SortFunc(out, func(a, b HireCohort) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return strings.Compare(string(a.Department), string(b.Department))
	})
	return out
}

func (t CohortTable) Header() []string {
	return []string{"hire_year", "department", "hires", "still_active", "retention_rate", "mean_engagement"}
}

func (t CohortTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, c := range t {
		rows[i] = []string{itoa(c.Year), string(c.Department), itoa(c.Hires), itoa(c.StillActive), f1(c.RetentionRate), f1(c.MeanEngagement)}
	}
	return rows
}
