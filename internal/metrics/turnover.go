package metrics

import (
	"slices"
	"strings"

	"github.com/bernlabs/pulse/internal/roster"
)

// DefaultHighRiskThreshold is the risk score above which an active employee is high risk.
const DefaultHighRiskThreshold = 70.0

// TurnoverRate returns separated / total × 100, or 0 for an empty roster.
func TurnoverRate(r roster.Roster) float64 {
	return percent(len(r.Separated()), len(r))
}

// VoluntaryTurnoverRate returns voluntary separations / total × 100, or 0 for an empty roster.
func VoluntaryTurnoverRate(r roster.Roster) float64 {
	return percent(countVoluntary(r), len(r))
}

func countVoluntary(r roster.Roster) int {
	n := 0
	for _, e := range r {
		if e.Status == roster.Separated && e.IsVoluntarySeparation() {
			n++
		}
	}
	return n
}

// KeyMetrics holds the headline indicators of a roster.
type KeyMetrics struct {
	Total                 int     `json:"total" yaml:"total"`
	Active                int     `json:"active" yaml:"active"`
	Separated             int     `json:"separated" yaml:"separated"`
	TurnoverRate          float64 `json:"turnover_rate" yaml:"turnover_rate"`
	VoluntaryTurnoverRate float64 `json:"voluntary_turnover_rate" yaml:"voluntary_turnover_rate"`
	MeanEngagement        float64 `json:"mean_engagement" yaml:"mean_engagement"`
	HighRisk              int     `json:"high_risk" yaml:"high_risk"`
	MeanTenure            float64 `json:"mean_tenure" yaml:"mean_tenure"`
}

// ComputeKeyMetrics summarises r, counting active employees with risk above threshold as high risk.
func ComputeKeyMetrics(r roster.Roster, threshold float64) KeyMetrics {
	active := r.Active()
	var engagement, tenure []float64
	for _, e := range active {
		engagement = append(engagement, e.Engagement)
		tenure = append(tenure, e.TenureYears)
	}
	return KeyMetrics{
		Total:                 len(r),
		Active:                len(active),
		Separated:             len(r.Separated()),
		TurnoverRate:          TurnoverRate(r),
		VoluntaryTurnoverRate: VoluntaryTurnoverRate(r),
		MeanEngagement:        mean(engagement),
		HighRisk:              len(r.HighRisk(threshold)),
		MeanTenure:            mean(tenure),
	}
}

// DepartmentTurnover is one row of the turnover breakdown.
type DepartmentTurnover struct {
	Department     roster.Department `json:"department" yaml:"department"`
	Separations    int               `json:"separations" yaml:"separations"`
	Total          int               `json:"total" yaml:"total"`
	Voluntary      int               `json:"voluntary" yaml:"voluntary"`
	Rate           float64           `json:"rate" yaml:"rate"`
	VoluntaryShare float64           `json:"voluntary_share" yaml:"voluntary_share"`
}

// TurnoverTable lists turnover per department.
type TurnoverTable []DepartmentTurnover

// TurnoverByDepartment breaks turnover down per department, ordered by department name.
// A roster without separations yields an empty table.
func TurnoverByDepartment(r roster.Roster) TurnoverTable {
	if len(r.Separated()) == 0 {
		return TurnoverTable{}
	}
	groups := groupByDepartment(r)
	out := make(TurnoverTable, 0, len(groups))
	for dept, members := range groups {
		sep := len(members.Separated())
		vol := countVoluntary(members)
		out = append(out, DepartmentTurnover{
			Department:     dept,
			Separations:    sep,
			Total:          len(members),
			Voluntary:      vol,
			Rate:           percent(sep, len(members)),
			VoluntaryShare: percent(vol, sep),
		})
	}
	slices.SortFunc(out, func(a, b DepartmentTurnover) int {
		return strings.Compare(string(a.Department), string(b.Department))
	})
	return out
}

func (t TurnoverTable) Header() []string {
	return []string{"department", "separations", "total", "voluntary", "turnover_rate", "voluntary_share"}
}

func (t TurnoverTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, d := range t {
		rows[i] = []string{string(d.Department), itoa(d.Separations), itoa(d.Total), itoa(d.Voluntary), f1(d.Rate), f1(d.VoluntaryShare)}
	}
	return rows
}

func groupByDepartment(r roster.Roster) map[roster.Department]roster.Roster {
	groups := make(map[roster.Department]roster.Roster)
	for _, e := range r {
		groups[e.Department] = append(groups[e.Department], e)
	}
	return groups
}

func groupByGeneration(r roster.Roster) map[roster.Generation]roster.Roster {
	groups := make(map[roster.Generation]roster.Roster)
	for _, e := range r {
		groups[e.Generation] = append(groups[e.Generation], e)
	}
	return groups
}
