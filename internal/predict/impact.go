package predict

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bernlabs/pulse/internal/roster"
)

// ImpactConfig holds the cost assumptions of the retention impact estimate.
type ImpactConfig struct {
	Threshold      float64 `yaml:"threshold" json:"threshold"`
	CostMultiplier float64 `yaml:"cost_multiplier" json:"cost_multiplier"`
	SuccessRate    float64 `yaml:"success_rate" json:"success_rate"`
}

// DefaultImpactConfig returns the default assumptions: risk above 70 is high,
// a turnover costs 1.2× the mean salary, and interventions retain 60%.
func DefaultImpactConfig() ImpactConfig {
	return ImpactConfig{
		Threshold:      70,
		CostMultiplier: 1.2,
		SuccessRate:    0.6,
	}
}

// Impact is the estimated value of retaining the high-risk population.
// Currency amounts are rounded to cents.
type Impact struct {
	HighRiskCount    int             `json:"funcionarios_alto_risco" yaml:"funcionarios_alto_risco"`
	MeanSalary       decimal.Decimal `json:"salario_medio" yaml:"salario_medio"`
	CostPerTurnover  decimal.Decimal `json:"custo_medio_turnover" yaml:"custo_medio_turnover"`
	PotentialCost    decimal.Decimal `json:"economia_potencial_total" yaml:"economia_potencial_total"`
	EstimatedSavings decimal.Decimal `json:"economia_estimada_intervencoes" yaml:"economia_estimada_intervencoes"`
	SuccessRate      decimal.Decimal `json:"taxa_sucesso_estimada" yaml:"taxa_sucesso_estimada"`
}

// EstimateRetentionImpact computes the impact estimate over r. It does not
// depend on a trained model. An empty or fully separated roster yields zeros.
func EstimateRetentionImpact(r roster.Roster, cfg ImpactConfig) Impact {
	active := r.Active()
	highRisk := len(r.HighRisk(cfg.Threshold))

	meanSalary := decimal.Zero
	if len(active) > 0 {
		var total int64
		for _, e := range active {
			total += int64(e.Salary)
		}
		meanSalary = decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(len(active))))
	}

	costPer := meanSalary.Mul(decimal.NewFromFloat(cfg.CostMultiplier))
	potential := costPer.Mul(decimal.NewFromInt(int64(highRisk)))
	savings := potential.Mul(decimal.NewFromFloat(cfg.SuccessRate))

	return Impact{
		HighRiskCount:    highRisk,
		MeanSalary:       meanSalary.Round(2),
		CostPerTurnover:  costPer.Round(2),
		PotentialCost:    potential.Round(2),
		EstimatedSavings: savings.Round(2),
		SuccessRate:      decimal.NewFromFloat(cfg.SuccessRate).Mul(decimal.NewFromInt(100)).Round(2),
	}
}

func (i Impact) Header() []string {
	return []string{
		"funcionarios_alto_risco", "salario_medio", "custo_medio_turnover",
		"economia_potencial_total", "economia_estimada_intervencoes", "taxa_sucesso_estimada",
	}
}

func (i Impact) Rows() [][]string {
	return [][]string{{
		strconv.Itoa(i.HighRiskCount),
		i.MeanSalary.StringFixed(2),
		i.CostPerTurnover.StringFixed(2),
		i.PotentialCost.StringFixed(2),
		i.EstimatedSavings.StringFixed(2),
		i.SuccessRate.StringFixed(2),
	}}
}
