package metrics

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/bernlabs/pulse/internal/roster"
)

// SummaryRow is one KPI of the executive summary.
type SummaryRow struct {
	Metric string  `json:"metric" yaml:"metric"`
	Value  float64 `json:"value" yaml:"value"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// Summary is the executive KPI list.
type Summary []SummaryRow

// ExecutiveSummary lists the headline KPIs of r.
func ExecutiveSummary(r roster.Roster, threshold float64) Summary {
	km := ComputeKeyMetrics(r, threshold)
	return Summary{
		{Metric: "Total employees", Value: float64(km.Total), Unit: "people"},
		{Metric: "Active employees", Value: float64(km.Active), Unit: "people"},
		{Metric: "Turnover rate", Value: round(km.TurnoverRate, 2), Unit: "%"},
		{Metric: "Voluntary turnover rate", Value: round(km.VoluntaryTurnoverRate, 2), Unit: "%"},
		{Metric: "Mean engagement", Value: round(km.MeanEngagement, 1), Unit: "points"},
		{Metric: "High-risk employees", Value: float64(km.HighRisk), Unit: "people"},
		{Metric: "Mean tenure", Value: round(km.MeanTenure, 1), Unit: "years"},
		{Metric: "Mean salary", Value: math.Round(mean(column(r.Active(), salaryOf))), Unit: "BRL"},
	}
}

func (s Summary) Header() []string {
	return []string{"metric", "value", "unit"}
}

func (s Summary) Rows() [][]string {
	rows := make([][]string, len(s))
	for i, row := range s {
		rows[i] = []string{row.Metric, f2(row.Value), row.Unit}
	}
	return rows
}

// Critical-department thresholds used by the insights report.
const (
	CriticalTurnoverRate   = 35.0
	CriticalEngagement     = 6.5
	ElevatedGenerationRisk = 50.0
)

// KeyCorrelations are the headline relationships reported to executives.
// A nil value means the correlation is undefined for the roster.
type KeyCorrelations struct {
	EngagementTurnover    *float64 `json:"engagement_turnover" yaml:"engagement_turnover"`
	EngagementPerformance *float64 `json:"engagement_performance" yaml:"engagement_performance"`
	TenureEngagement      *float64 `json:"tenure_engagement" yaml:"tenure_engagement"`
}

// Insights is the executive insights report.
type Insights struct {
	KPIs                Summary                   `json:"kpis" yaml:"kpis"`
	CriticalDepartments DepartmentTable           `json:"critical_departments" yaml:"critical_departments"`
	AtRiskGenerations   GenerationEngagementTable `json:"at_risk_generations" yaml:"at_risk_generations"`
	HighRiskCount       int                       `json:"high_risk_count" yaml:"high_risk_count"`
	Correlations        KeyCorrelations           `json:"correlations" yaml:"correlations"`
}

// BuildInsights assembles the insights report for r.
// Critical departments have turnover above 35% or mean engagement below 6.5,
// ordered by turnover rate descending.
func BuildInsights(r roster.Roster, threshold float64) Insights {
	var critical DepartmentTable
	for _, d := range ComputeDepartmentTable(r) {
		if d.TurnoverRate > CriticalTurnoverRate || d.MeanEngagement < CriticalEngagement {
			critical = append(critical, d)
		}
	}
	slices.SortStableFunc(critical, func(a, b DepartmentMetrics) int {
		return cmp.Compare(b.TurnoverRate, a.TurnoverRate)
	})

	var atRisk GenerationEngagementTable
	for _, g := range EngagementByGeneration(r) {
		if g.MeanRisk > ElevatedGenerationRisk {
			atRisk = append(atRisk, g)
		}
	}

	engagement := column(r, engagementOf)
	separated := make([]float64, len(r))
	for i, e := range r {
		if e.Status == roster.Separated {
			separated[i] = 1
		}
	}

	return Insights{
		KPIs:                ExecutiveSummary(r, threshold),
		CriticalDepartments: critical,
		AtRiskGenerations:   atRisk,
		HighRiskCount:       len(r.HighRisk(threshold)),
		Correlations: KeyCorrelations{
			EngagementTurnover:    pearson(engagement, separated),
			EngagementPerformance: pearson(engagement, column(r, performanceOf)),
			TenureEngagement:      pearson(column(r, tenureOf), engagement),
		},
	}
}

func pearson(x, y []float64) *float64 {
	if len(x) < 2 || len(x) != len(y) {
		return nil
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return nil
	}
	return &c
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
