// Package roster defines the synthetic employee record, the roster batch that
// groups them, and the exact-match filters applied before metrics or training.
package roster

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRecord is returned when an employee record breaks a data-model invariant.
var ErrInvalidRecord = errors.New("invalid employee record")

// MinWorkingAge is the youngest age at which an employee may have been hired.
const MinWorkingAge = 18

// Department is the organisational unit an employee belongs to.
type Department string

const (
	CustomerService Department = "Customer Service"
	Sales           Department = "Sales"
	Marketing       Department = "Marketing"
	Technology      Department = "Technology"
	HumanResources  Department = "Human Resources"
	Finance         Department = "Finance"
	Operations      Department = "Operations"
	Procurement     Department = "Procurement"
	Quality         Department = "Quality"
	Logistics       Department = "Logistics"
	Legal           Department = "Legal"
)

// Departments lists every department in a stable order.
var Departments = []Department{
	CustomerService, Sales, Marketing, Technology, HumanResources, Finance,
	Operations, Procurement, Quality, Logistics, Legal,
}

// Level is the ordinal position level.
type Level string

const (
	Junior   Level = "Junior"
	MidLevel Level = "Mid-level"
	Senior   Level = "Senior"
	Manager  Level = "Manager"
	Director Level = "Director"
)

// Levels lists position levels from lowest to highest.
var Levels = []Level{Junior, MidLevel, Senior, Manager, Director}

// Generation is the ordinal birth cohort.
type Generation string

const (
	BabyBoomer  Generation = "Baby Boomer"
	GenerationX Generation = "Generation X"
	Millennial  Generation = "Millennial"
	GenerationZ Generation = "Generation Z"
)

// Generations lists cohorts from oldest to youngest.
var Generations = []Generation{BabyBoomer, GenerationX, Millennial, GenerationZ}

// BirthYears returns the inclusive birth-year range of the generation.
func (g Generation) BirthYears() (start, end int) {
	switch g {
	case BabyBoomer:
		return 1946, 1964
	case GenerationX:
		return 1965, 1980
	case Millennial:
		return 1981, 1996
	case GenerationZ:
		return 1997, 2012
	default:
		return 0, 0
	}
}

// TenureRange returns the plausible tenure range, in years, for the generation.
// The upper bound is the ceiling no record of that generation may exceed.
func (g Generation) TenureRange() (lo, hi float64) {
	switch g {
	case BabyBoomer:
		return 10.0, 35.0
	case GenerationX:
		return 2.0, 25.0
	case Millennial:
		return 0.5, 12.0
	case GenerationZ:
		return 0.2, 4.0
	default:
		return 0, 0
	}
}

// GenerationForYear returns the generation whose range contains birthYear.
func GenerationForYear(birthYear int) (Generation, bool) {
	for _, g := range Generations {
		start, end := g.BirthYears()
		if birthYear >= start && birthYear <= end {
			return g, true
		}
	}
	return "", false
}

// Status is the employment lifecycle state.
type Status string

const (
	Active    Status = "Active"
	Separated Status = "Separated"
)

// SeparationType distinguishes voluntary from involuntary turnover.
type SeparationType string

const (
	Voluntary   SeparationType = "Voluntary"
	Involuntary SeparationType = "Involuntary"
)

// Trend summarises recent engagement direction.
type Trend string

const (
	Improving Trend = "Improving"
	Stable    Trend = "Stable"
	Declining Trend = "Declining"
)

// TrendFor derives the engagement trend from an engagement score.
// Scores exactly on a boundary are Stable.
func TrendFor(engagement float64) Trend {
	switch {
	case engagement < 5:
		return Declining
	case engagement > 7.5:
		return Improving
	default:
		return Stable
	}
}

// Employee is one synthetic individual.
type Employee struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	Department     Department      `json:"department" yaml:"department"`
	Level          Level           `json:"level" yaml:"level"`
	Generation     Generation      `json:"generation" yaml:"generation"`
	BirthYear      int             `json:"birth_year" yaml:"birth_year"`
	Age            int             `json:"age" yaml:"age"`
	TenureYears    float64         `json:"tenure_years" yaml:"tenure_years"`
	HireDate       time.Time       `json:"hire_date" yaml:"hire_date"`
	Salary         int             `json:"salary" yaml:"salary"`
	Engagement     float64         `json:"engagement" yaml:"engagement"`
	Performance    float64         `json:"performance" yaml:"performance"`
	Risk           *float64        `json:"risk,omitempty" yaml:"risk,omitempty"`
	Status         Status          `json:"status" yaml:"status"`
	SeparationType *SeparationType `json:"separation_type,omitempty" yaml:"separation_type,omitempty"`
	SeparationDate *time.Time      `json:"separation_date,omitempty" yaml:"separation_date,omitempty"`
	Trend          Trend           `json:"trend" yaml:"trend"`
}

// IsActive reports whether the employee is still employed.
func (e Employee) IsActive() bool {
	return e.Status == Active
}

// RiskScore returns the risk score and whether it is defined.
func (e Employee) RiskScore() (float64, bool) {
	if e.Risk == nil {
		return 0, false
	}
	return *e.Risk, true
}

// IsVoluntarySeparation reports whether the employee left voluntarily.
func (e Employee) IsVoluntarySeparation() bool {
	return e.SeparationType != nil && *e.SeparationType == Voluntary
}

// Clone returns a deep copy of the record.
func (e Employee) Clone() Employee {
	c := e
	if e.Risk != nil {
		r := *e.Risk
		c.Risk = &r
	}
	if e.SeparationType != nil {
		st := *e.SeparationType
		c.SeparationType = &st
	}
	if e.SeparationDate != nil {
		d := *e.SeparationDate
		c.SeparationDate = &d
	}
	return c
}

// Validate checks the record against the data-model invariants.
func (e Employee) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}

	switch e.Status {
	case Active:
		if e.Risk == nil {
			return fmt.Errorf("%w: %s is active but has no risk score", ErrInvalidRecord, e.ID)
		}
		if e.SeparationType != nil || e.SeparationDate != nil {
			return fmt.Errorf("%w: %s is active but has separation fields", ErrInvalidRecord, e.ID)
		}
	case Separated:
		if e.Risk != nil {
			return fmt.Errorf("%w: %s is separated but has a risk score", ErrInvalidRecord, e.ID)
		}
		if e.SeparationType == nil || e.SeparationDate == nil {
			return fmt.Errorf("%w: %s is separated but lacks separation type or date", ErrInvalidRecord, e.ID)
		}
	default:
		return fmt.Errorf("%w: %s has unknown status %q", ErrInvalidRecord, e.ID, e.Status)
	}

	if !inRange(e.Engagement, 1, 10) {
		return fmt.Errorf("%w: %s engagement %.2f outside [1,10]", ErrInvalidRecord, e.ID, e.Engagement)
	}
	if !inRange(e.Performance, 1, 5) {
		return fmt.Errorf("%w: %s performance %.2f outside [1,5]", ErrInvalidRecord, e.ID, e.Performance)
	}
	if e.Risk != nil && !inRange(*e.Risk, 0, 100) {
		return fmt.Errorf("%w: %s risk %.2f outside [0,100]", ErrInvalidRecord, e.ID, *e.Risk)
	}

	start, end := e.Generation.BirthYears()
	if start == 0 {
		return fmt.Errorf("%w: %s has unknown generation %q", ErrInvalidRecord, e.ID, e.Generation)
	}
	if e.BirthYear < start || e.BirthYear > end {
		return fmt.Errorf("%w: %s birth year %d outside %s range [%d,%d]",
			ErrInvalidRecord, e.ID, e.BirthYear, e.Generation, start, end)
	}

	_, ceiling := e.Generation.TenureRange()
	maxTenure := math.Min(ceiling, math.Max(0, float64(e.Age-MinWorkingAge)))
	if e.TenureYears < 0 || e.TenureYears > maxTenure {
		return fmt.Errorf("%w: %s tenure %.1f outside [0,%.1f]", ErrInvalidRecord, e.ID, e.TenureYears, maxTenure)
	}

	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// ParseDepartment returns the department with the given label.
func ParseDepartment(s string) (Department, bool) {
	for _, d := range Departments {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// ParseLevel returns the position level with the given label.
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// ParseGeneration returns the generation with the given label.
func ParseGeneration(s string) (Generation, bool) {
	for _, g := range Generations {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}
