// Package metrics provides descriptive people-analytics over a roster:
// turnover rates, engagement by group, tenure buckets, correlations and
// risk classification. Every function is read-only and total; empty input
// yields zero values rather than an error, except Correlation.
package metrics

import (
	"errors"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientRows is returned when a statistic needs more rows than provided.
var ErrInsufficientRows = errors.New("insufficient rows")

// Table is a flat, row-oriented result that storage and export layers accept.
type Table interface {
	Header() []string
	Rows() [][]string
}

// RiskLevel represents the classification of an employee's turnover risk score.
type RiskLevel string

const (
	// Critical risk: score >= 90
	Critical RiskLevel = "Critical"
	// High risk: score >= 70
	High RiskLevel = "High"
	// Medium risk: score >= 50
	Medium RiskLevel = "Medium"
	// Low risk: score < 50
	Low RiskLevel = "Low"
)

// RiskThresholds contains configurable thresholds for risk classification.
type RiskThresholds struct {
	Critical float64 // Default: 90
	High     float64 // Default: 70
	Medium   float64 // Default: 50
}

// DefaultRiskThresholds returns the default risk thresholds.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		Critical: 90,
		High:     70,
		Medium:   50,
	}
}

// ClassifyRisk returns the risk level for a score.
// Thresholds:
//   - Critical: risk >= 90
//   - High: risk >= 70
//   - Medium: risk >= 50
//   - Low: risk < 50
func ClassifyRisk(risk float64) RiskLevel {
	return ClassifyRiskWithThresholds(risk, DefaultRiskThresholds())
}

// ClassifyRiskWithThresholds returns the risk level using custom thresholds.
func ClassifyRiskWithThresholds(risk float64, t RiskThresholds) RiskLevel {
	switch {
	case risk >= t.Critical:
		return Critical
	case risk >= t.High:
		return High
	case risk >= t.Medium:
		return Medium
	default:
		return Low
	}
}

// RecommendedAction returns the follow-up expected for a risk level.
func RecommendedAction(level RiskLevel) string {
	switch level {
	case Critical:
		return "Immediate intervention"
	case High:
		return "Monitor closely"
	case Medium:
		return "Periodic check-in"
	default:
		return "Stable"
	}
}

// Category is a coarse label for a group-level indicator.
type Category string

const (
	CategoryHigh   Category = "High"
	CategoryMedium Category = "Medium"
	CategoryNormal Category = "Normal"
	CategoryLow    Category = "Low"
)

// EngagementCategory buckets a mean engagement score.
func EngagementCategory(engagement float64) Category {
	switch {
	case engagement >= 7.5:
		return CategoryHigh
	case engagement >= 6:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// TurnoverCategory buckets a turnover rate in percent.
func TurnoverCategory(rate float64) Category {
	switch {
	case rate >= 35:
		return CategoryHigh
	case rate >= 25:
		return CategoryNormal
	default:
		return CategoryLow
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// stdDev is the sample standard deviation, 0 below two values.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func f1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func f2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
