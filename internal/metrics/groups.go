package metrics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bernlabs/pulse/internal/roster"
)

// DepartmentEngagement aggregates engagement among a department's active employees.
type DepartmentEngagement struct {
	Department     roster.Department `json:"department" yaml:"department"`
	MeanEngagement float64           `json:"mean_engagement" yaml:"mean_engagement"`
	StdEngagement  float64           `json:"std_engagement" yaml:"std_engagement"`
	Employees      int               `json:"employees" yaml:"employees"`
	MeanRisk       float64           `json:"mean_risk" yaml:"mean_risk"`
}

// DepartmentEngagementTable lists engagement per department.
type DepartmentEngagementTable []DepartmentEngagement

// EngagementByDepartment aggregates active employees per department,
// ordered by mean engagement descending.
func EngagementByDepartment(r roster.Roster) DepartmentEngagementTable {
	groups := groupByDepartment(r.Active())
	out := make(DepartmentEngagementTable, 0, len(groups))
	for dept, members := range groups {
		eng, risk := column(members, engagementOf), column(members, riskOf)
		out = append(out, DepartmentEngagement{
			Department:     dept,
			MeanEngagement: mean(eng),
			StdEngagement:  stdDev(eng),
			Employees:      len(members),
			MeanRisk:       mean(risk),
		})
	}
	slices.SortFunc(out, func(a, b DepartmentEngagement) int {
		if c := cmp.Compare(b.MeanEngagement, a.MeanEngagement); c != 0 {
			return c
		}
		return strings.Compare(string(a.Department), string(b.Department))
	})
	return out
}

func (t DepartmentEngagementTable) Header() []string {
	return []string{"department", "mean_engagement", "std_engagement", "employees", "mean_risk"}
}

func (t DepartmentEngagementTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, d := range t {
		rows[i] = []string{string(d.Department), f2(d.MeanEngagement), f2(d.StdEngagement), itoa(d.Employees), f2(d.MeanRisk)}
	}
	return rows
}

// GenerationEngagement aggregates engagement among a generation's active employees.
type GenerationEngagement struct {
	Generation     roster.Generation `json:"generation" yaml:"generation"`
	MeanEngagement float64           `json:"mean_engagement" yaml:"mean_engagement"`
	Employees      int               `json:"employees" yaml:"employees"`
	MeanRisk       float64           `json:"mean_risk" yaml:"mean_risk"`
	MeanTenure     float64           `json:"mean_tenure" yaml:"mean_tenure"`
}

// GenerationEngagementTable lists engagement per generation.
type GenerationEngagementTable []GenerationEngagement

// EngagementByGeneration aggregates active employees per generation, oldest first.
func EngagementByGeneration(r roster.Roster) GenerationEngagementTable {
	groups := groupByGeneration(r.Active())
	out := make(GenerationEngagementTable, 0, len(groups))
	for _, gen := range roster.Generations {
		members, ok := groups[gen]
		if !ok {
			continue
		}
		out = append(out, GenerationEngagement{
			Generation:     gen,
			MeanEngagement: mean(column(members, engagementOf)),
			Employees:      len(members),
			MeanRisk:       mean(column(members, riskOf)),
			MeanTenure:     mean(column(members, tenureOf)),
		})
	}
	return out
}

func (t GenerationEngagementTable) Header() []string {
	return []string{"generation", "mean_engagement", "employees", "mean_risk", "mean_tenure"}
}

func (t GenerationEngagementTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, g := range t {
		rows[i] = []string{string(g.Generation), f2(g.MeanEngagement), itoa(g.Employees), f2(g.MeanRisk), f2(g.MeanTenure)}
	}
	return rows
}

// TenureBucket aggregates active employees whose tenure falls in [Min, Max).
type TenureBucket struct {
	Label          string  `json:"label" yaml:"label"`
	Min            float64 `json:"min" yaml:"min"`
	Max            float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MeanEngagement float64 `json:"mean_engagement" yaml:"mean_engagement"`
	Employees      int     `json:"employees" yaml:"employees"`
	MeanRisk       float64 `json:"mean_risk" yaml:"mean_risk"`
}

// TenureBucketTable lists the fixed tenure bins in ascending order.
type TenureBucketTable []TenureBucket

var tenureBins = []TenureBucket{
	{Label: "<1", Min: 0, Max: 1},
	{Label: "1-3", Min: 1, Max: 3},
	{Label: "3-7", Min: 3, Max: 7},
	{Label: "7-15", Min: 7, Max: 15},
	{Label: "15+", Min: 15},
}

// TenureBuckets groups active employees into the fixed tenure bins.
// Every bin is present, empty bins carry zero values.
func TenureBuckets(r roster.Roster) TenureBucketTable {
	members := make([]roster.Roster, len(tenureBins))
	for _, e := range r.Active() {
		i := tenureBin(e.TenureYears)
		members[i] = append(members[i], e)
	}
	out := make(TenureBucketTable, len(tenureBins))
	for i, bin := range tenureBins {
		bin.Employees = len(members[i])
		bin.MeanEngagement = mean(column(members[i], engagementOf))
		bin.MeanRisk = mean(column(members[i], riskOf))
		out[i] = bin
	}
	return out
}

func tenureBin(tenure float64) int {
	for i, bin := range tenureBins {
		if bin.Max == 0 || tenure < bin.Max {
			return i
		}
	}
	return len(tenureBins) - 1
}

func (t TenureBucketTable) Header() []string {
	return []string{"tenure_group", "mean_engagement", "employees", "mean_risk"}
}

func (t TenureBucketTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, b := range t {
		rows[i] = []string{b.Label, f2(b.MeanEngagement), itoa(b.Employees), f2(b.MeanRisk)}
	}
	return rows
}

func column(r roster.Roster, get func(roster.Employee) (float64, bool)) []float64 {
	out := make([]float64, 0, len(r))
	for _, e := range r {
		if v, ok := get(e); ok {
			out = append(out, v)
		}
	}
	return out
}

func engagementOf(e roster.Employee) (float64, bool)  { return e.Engagement, true }
func performanceOf(e roster.Employee) (float64, bool) { return e.Performance, true }
func tenureOf(e roster.Employee) (float64, bool)      { return e.TenureYears, true }
func ageOf(e roster.Employee) (float64, bool)         { return float64(e.Age), true }
func salaryOf(e roster.Employee) (float64, bool)      { return float64(e.Salary), true }
func riskOf(e roster.Employee) (float64, bool)        { return e.RiskScore() }
