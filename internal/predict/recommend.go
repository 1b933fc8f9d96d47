package predict

import (
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/bernlabs/pulse/internal/roster"
)

// MinHighRiskPerDepartment is the smallest high-risk group that receives a recommendation.
const MinHighRiskPerDepartment = 2

// Bundle is a named retention initiative with its concrete actions.
type Bundle struct {
	Name    string   `json:"name" yaml:"name"`
	Actions []string `json:"actions" yaml:"actions"`
}

var (
	// EngagementBundle targets departments with low mean engagement.
	EngagementBundle = Bundle{
		Name: "Improve engagement",
		Actions: []string{
			"Run an organisational climate survey",
			"Review work processes and tooling",
			"Increase the frequency of feedback and recognition",
		},
	}
	// OnboardingBundle targets departments whose at-risk staff are recent hires.
	OnboardingBundle = Bundle{
		Name: "Fix onboarding",
		Actions: []string{
			"Review the integration programme",
			"Assign mentors to new hires",
			"Increase support during the first months",
		},
	}
	// CareerBundle targets departments whose at-risk staff are long-tenured.
	CareerBundle = Bundle{
		Name: "Career renewal",
		Actions: []string{
			"Create individual development plans",
			"Offer new opportunities and challenges",
			"Launch internal mobility programmes",
		},
	}
)

// retentionRules are evaluated in order; every matching bundle is kept.
var retentionRules = []struct {
	matches func(engagement, tenure float64) bool
	bundle  Bundle
}{
	{func(engagement, _ float64) bool { return engagement < 6 }, EngagementBundle},
	{func(_, tenure float64) bool { return tenure < 2 }, OnboardingBundle},
	{func(_, tenure float64) bool { return tenure > 10 }, CareerBundle},
}

// Recommendation is the retention plan for one department.
type Recommendation struct {
	Department     roster.Department `json:"department" yaml:"department"`
	AtRisk         int               `json:"at_risk" yaml:"at_risk"`
	MeanEngagement float64           `json:"mean_engagement" yaml:"mean_engagement"`
	MeanTenure     float64           `json:"mean_tenure" yaml:"mean_tenure"`
	Bundles        []Bundle          `json:"bundles" yaml:"bundles"`
}

// PrimaryActions returns the names of the matched bundles in rule order.
func (r Recommendation) PrimaryActions() []string {
	names := make([]string, len(r.Bundles))
	for i, b := range r.Bundles {
		names[i] = b.Name
	}
	return names
}

// Actions returns every concrete action across matched bundles.
func (r Recommendation) Actions() []string {
	var out []string
	for _, b := range r.Bundles {
		out = append(out, b.Actions...)
	}
	return out
}

// Recommendations is ordered by department name.
type Recommendations []Recommendation

// RecommendRetention groups a high-risk roster by department and proposes
// retention bundles. Departments with fewer than two high-risk employees are
// left out. It does not depend on a trained model.
func RecommendRetention(highRisk roster.Roster) Recommendations {
	groups := make(map[roster.Department]roster.Roster)
	for _, e := range highRisk {
		groups[e.Department] = append(groups[e.Department], e)
	}

	out := make(Recommendations, 0, len(groups))
	for dept, members := range groups {
		if len(members) < MinHighRiskPerDepartment {
			continue
		}
		engagement := make([]float64, len(members))
		tenure := make([]float64, len(members))
		for i, e := range members {
			engagement[i] = e.Engagement
			tenure[i] = e.TenureYears
		}
		rec := Recommendation{
			Department:     dept,
			AtRisk:         len(members),
			MeanEngagement: stat.Mean(engagement, nil),
			MeanTenure:     stat.Mean(tenure, nil),
			Bundles:        []Bundle{},
		}
		for _, rule := range retentionRules {
			if rule.matches(rec.MeanEngagement, rec.MeanTenure) {
				rec.Bundles = append(rec.Bundles, rule.bundle)
			}
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Recommendation) int {
		return strings.Compare(string(a.Department), string(b.Department))
	})
	return out
}

func (r Recommendations) Header() []string {
	return []string{"department", "at_risk", "mean_engagement", "mean_tenure", "primary_actions", "actions"}
}

func (r Recommendations) Rows() [][]string {
	rows := make([][]string, len(r))
	for i, rec := range r {
		rows[i] = []string{
			string(rec.Department),
			strconv.Itoa(rec.AtRisk),
			strconv.FormatFloat(rec.MeanEngagement, 'f', 1, 64),
			strconv.FormatFloat(rec.MeanTenure, 'f', 1, 64),
			strings.Join(rec.PrimaryActions(), "; "),
			strings.Join(rec.Actions(), "; "),
		}
	}
	return rows
}
