package generator

import "github.com/bernlabs/pulse/internal/roster"

// departmentProfile holds the per-department constants the generator draws from.
type departmentProfile struct {
	turnoverBase     float64
	salaryMultiplier float64
	engagementBase   float64
}

var departmentProfiles = map[roster.Department]departmentProfile{
	roster.CustomerService: {turnoverBase: 0.45, salaryMultiplier: 0.85, engagementBase: 5.5},
	roster.Sales:           {turnoverBase: 0.38, salaryMultiplier: 1.15, engagementBase: 6.0},
	roster.Operations:      {turnoverBase: 0.40, salaryMultiplier: 0.90, engagementBase: 5.8},
	roster.Logistics:       {turnoverBase: 0.35, salaryMultiplier: 0.90, engagementBase: 6.2},
	roster.Marketing:       {turnoverBase: 0.25, salaryMultiplier: 1.10, engagementBase: 7.2},
	roster.Technology:      {turnoverBase: 0.23, salaryMultiplier: 1.30, engagementBase: 7.5},
	roster.HumanResources:  {turnoverBase: 0.32, salaryMultiplier: 1.00, engagementBase: 6.8},
	roster.Finance:         {turnoverBase: 0.21, salaryMultiplier: 1.20, engagementBase: 7.0},
	roster.Procurement:     {turnoverBase: 0.18, salaryMultiplier: 1.05, engagementBase: 7.3},
	roster.Quality:         {turnoverBase: 0.30, salaryMultiplier: 0.95, engagementBase: 6.5},
	roster.Legal:           {turnoverBase: 0.15, salaryMultiplier: 1.25, engagementBase: 7.1},
}

type weighted[T any] struct {
	value  T
	weight float64
}

var generationWeights = []weighted[roster.Generation]{
	{roster.BabyBoomer, 0.08},
	{roster.GenerationX, 0.25},
	{roster.Millennial, 0.50},
	{roster.GenerationZ, 0.17},
}

var levelWeights = []weighted[roster.Level]{
	{roster.Junior, 0.35},
	{roster.MidLevel, 0.30},
	{roster.Senior, 0.20},
	{roster.Manager, 0.12},
	{roster.Director, 0.03},
}

var salaryBands = map[roster.Level][2]int{
	roster.Junior:   {3000, 6000},
	roster.MidLevel: {5500, 9500},
	roster.Senior:   {8500, 15000},
	roster.Manager:  {14000, 25000},
	roster.Director: {22000, 60000},
}

var generationTurnoverMultiplier = map[roster.Generation]float64{
	roster.GenerationZ: 1.8,
	roster.Millennial:  1.2,
	roster.GenerationX: 0.9,
	roster.BabyBoomer:  0.6,
}

// tenureFactor is the inverted-U engagement curve over tenure.
func tenureFactor(tenure float64) float64 {
	switch {
	case tenure < 1:
		return 0.8
	case tenure < 3:
		return 1.1
	case tenure < 7:
		return 1.0
	case tenure < 15:
		return 0.95
	default:
		return 0.85
	}
}

func engagementTurnoverMultiplier(engagement float64) float64 {
	switch {
	case engagement < 4:
		return 2.5
	case engagement < 6:
		return 1.5
	case engagement > 8:
		return 0.5
	default:
		return 1.0
	}
}

// riskFactors accumulates the additive risk adjustments for an active employee.
func riskFactors(tenure, performance float64, gen roster.Generation) float64 {
	var f float64
	if tenure < 1 {
		f += 20
	}
	if tenure > 15 {
		f += 15
	}
	switch gen {
	case roster.GenerationZ:
		f += 15
	case roster.Millennial:
		f += 5
	}
	if performance < 3 {
		f += 25
	}
	return f
}
