// Package generator synthesizes employee rosters whose attributes carry the
// statistical relationships the turnover model later has to recover.
package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"

	"github.com/bernlabs/pulse/internal/roster"
)

// ErrInvalidCount is returned when asked for a non-positive number of records.
var ErrInvalidCount = errors.New("record count must be positive")

const (
	voluntaryShare = 0.7
	engagementSD   = 1.2
	performanceSD  = 0.4
	riskSD         = 10.0
	daysPerYear    = 365.25
)

// Generator produces synthetic rosters from an explicit random source.
// A Generator is not safe for concurrent use.
type Generator struct {
	rng   *rand.Rand
	faker *gofakeit.Faker
	now   time.Time
	log   logrus.FieldLogger
}

// Option configures a Generator.
type Option func(*Generator)

// WithNow fixes the reference date used for ages, hire and separation dates.
func WithNow(now time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger used for progress output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Generator) { g.log = log }
}

// New creates a generator seeded with seed. Equal seeds and reference dates
// produce identical rosters.
func New(seed uint64, opts ...Option) *Generator {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	g := &Generator{
		rng:   rand.New(src),
		faker: gofakeit.NewFaker(src, false),
		now:   time.Now(),
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces count employee records.
func (g *Generator) Generate(count int) (roster.Roster, error) {
	if count <= 0 {
		return nil, fmt.Errorf("generate %d records: %w", count, ErrInvalidCount)
	}

	out := make(roster.Roster, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.employee(i))
	}

	separated := len(out.Separated())
	g.log.WithFields(logrus.Fields{
		"records":   count,
		"separated": separated,
		"active":    count - separated,
	}).Debug("generated roster")

	return out, nil
}

func (g *Generator) employee(i int) roster.Employee {
	dept := roster.Departments[g.rng.IntN(len(roster.Departments))]
	profile := departmentProfiles[dept]

	gen := pick(g.rng, generationWeights)
	birthYear := g.birthYear(gen)
	age := g.now.Year() - birthYear
	maxByAge := float64(max(0, age-roster.MinWorkingAge))

	lo, hi := gen.TenureRange()
	tenure := round1(clamp(uniform(g.rng, lo, hi), 0, maxByAge))
	hireDate := g.now.AddDate(0, 0, -int(math.Round(tenure*daysPerYear))).Truncate(24 * time.Hour)

	level := pick(g.rng, levelWeights)
	band := salaryBands[level]
	baseSalary := band[0] + g.rng.IntN(band[1]-band[0]+1)
	salary := int(math.Round(float64(baseSalary) * profile.salaryMultiplier))

	engagementMean := profile.engagementBase * tenureFactor(tenure)
	engagement := round1(clamp(engagementMean+g.rng.NormFloat64()*engagementSD, 1, 10))

	performance := 1 + (engagement-1)*(4.0/9.0)*0.6 + g.rng.NormFloat64()*performanceSD
	performance = round1(clamp(performance, 1, 5))

	e := roster.Employee{
		ID:          fmt.Sprintf("EMP%04d", i+1),
		Name:        g.faker.Name(),
		Department:  dept,
		Level:       level,
		Generation:  gen,
		BirthYear:   birthYear,
		Age:         age,
		TenureYears: tenure,
		HireDate:    hireDate,
		Salary:      salary,
		Engagement:  engagement,
		Performance: performance,
		Trend:       roster.TrendFor(engagement),
	}

	p := profile.turnoverBase * engagementTurnoverMultiplier(engagement) * generationTurnoverMultiplier[gen]
	if p > 1 {
		p = 1
	}

	if g.rng.Float64() < p {
		st := roster.Involuntary
		if g.rng.Float64() < voluntaryShare {
			st = roster.Voluntary
		}
		date := g.separationDate(hireDate)
		e.Status = roster.Separated
		e.SeparationType = &st
		e.SeparationDate = &date
		return e
	}

	risk := (100 - engagement*10) + riskFactors(tenure, performance, gen) + g.rng.NormFloat64()*riskSD
	risk = round1(clamp(risk, 0, 100))
	e.Status = roster.Active
	e.Risk = &risk
	return e
}

// birthYear draws a year inside the generation range that still leaves the
// employee of working age at the reference date.
func (g *Generator) birthYear(gen roster.Generation) int {
	start, end := gen.BirthYears()
	end = min(end, g.now.Year()-roster.MinWorkingAge)
	if end < start {
		return start
	}
	return start + g.rng.IntN(end-start+1)
}

func (g *Generator) separationDate(hire time.Time) time.Time {
	today := g.now.Truncate(24 * time.Hour)
	days := int(today.Sub(hire).Hours() / 24)
	if days <= 0 {
		return today
	}
	return hire.AddDate(0, 0, g.rng.IntN(days+1))
}

func pick[T any](rng *rand.Rand, choices []weighted[T]) T {
	var total float64
	for _, c := range choices {
		total += c.weight
	}
	r := rng.Float64() * total
	for _, c := range choices {
		if r < c.weight {
			return c.value
		}
		r -= c.weight
	}
	return choices[len(choices)-1].value
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
