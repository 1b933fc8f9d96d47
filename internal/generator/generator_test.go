package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bernlabs/pulse/internal/roster"
)

var refDate = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateInvariants(t *testing.T) {
	r, err := New(7, WithNow(refDate)).Generate(10000)
	require.NoError(t, err)
	require.Len(t, r, 10000)

	require.NoError(t, r.Validate())

	for _, e := range r {
		switch e.Status {
		case roster.Active:
			require.NotNil(t, e.Risk, e.ID)
			require.Nil(t, e.SeparationType, e.ID)
			require.Nil(t, e.SeparationDate, e.ID)
			assert.GreaterOrEqual(t, *e.Risk, 0.0)
			assert.LessOrEqual(t, *e.Risk, 100.0)
		case roster.Separated:
			require.Nil(t, e.Risk, e.ID)
			require.NotNil(t, e.SeparationType, e.ID)
			require.NotNil(t, e.SeparationDate, e.ID)
			assert.False(t, e.SeparationDate.Before(e.HireDate), e.ID)
			assert.False(t, e.SeparationDate.After(refDate), e.ID)
		default:
			t.Fatalf("%s has status %q", e.ID, e.Status)
		}

		assert.GreaterOrEqual(t, e.Engagement, 1.0)
		assert.LessOrEqual(t, e.Engagement, 10.0)
		assert.GreaterOrEqual(t, e.Performance, 1.0)
		assert.LessOrEqual(t, e.Performance, 5.0)
		assert.GreaterOrEqual(t, e.Age, roster.MinWorkingAge)
		assert.LessOrEqual(t, e.TenureYears, float64(e.Age-roster.MinWorkingAge))
		assert.Equal(t, roster.TrendFor(e.Engagement), e.Trend)
		assert.NotEmpty(t, e.Name)

		gen, ok := roster.GenerationForYear(e.BirthYear)
		require.True(t, ok)
		assert.Equal(t, gen, e.Generation)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := New(42, WithNow(refDate)).Generate(200)
	require.NoError(t, err)
	b, err := New(42, WithNow(refDate)).Generate(200)
	require.NoError(t, err)
	c, err := New(43, WithNow(refDate)).Generate(200)
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestGenerateInvalidCount(t *testing.T) {
	for _, n := range []int{0, -5} {
		_, err := New(1).Generate(n)
		require.ErrorIs(t, err, ErrInvalidCount)
	}
}

func TestGenerateSequentialIDs(t *testing.T) {
	r, err := New(3, WithNow(refDate)).Generate(12)
	require.NoError(t, err)
	assert.Equal(t, "EMP0001", r[0].ID)
	assert.Equal(t, "EMP0012", r[11].ID)
}

func TestGenerateRelationships(t *testing.T) {
	r, err := New(11, WithNow(refDate)).Generate(5000)
	require.NoError(t, err)

	// Low-engagement employees separate more often than high-engagement ones.
	low := r.Where(func(e roster.Employee) bool { return e.Engagement < 5 })
	high := r.Where(func(e roster.Employee) bool { return e.Engagement > 8 })
	require.NotEmpty(t, low)
	require.NotEmpty(t, high)

	lowRate := float64(len(low.Separated())) / float64(len(low))
	highRate := float64(len(high.Separated())) / float64(len(high))
	assert.Greater(t, lowRate, highRate)

	// Directors earn more than juniors on average.
	mean := func(rr roster.Roster) float64 {
		var s float64
		for _, e := range rr {
			s += float64(e.Salary)
		}
		return s / float64(len(rr))
	}
	juniors := r.Filter(roster.Filter{Field: roster.FieldLevel, Value: string(roster.Junior)})
	directors := r.Filter(roster.Filter{Field: roster.FieldLevel, Value: string(roster.Director)})
	require.NotEmpty(t, directors)
	assert.Greater(t, mean(directors), mean(juniors))
}

func TestTenureFactor(t *testing.T) {
	tests := []struct {
		tenure   float64
		expected float64
	}{
		{0.5, 0.8},
		{1.0, 1.1},
		{2.9, 1.1},
		{3.0, 1.0},
		{7.0, 0.95},
		{15.0, 0.85},
	}
	for _, tt := range tests {
		if got := tenureFactor(tt.tenure); got != tt.expected {
			t.Errorf("tenureFactor(%v) = %v, expected %v", tt.tenure, got, tt.expected)
		}
	}
}

func TestRiskFactors(t *testing.T) {
	assert.Equal(t, 0.0, riskFactors(5, 4, roster.GenerationX))
	assert.Equal(t, 60.0, riskFactors(0.5, 2.5, roster.GenerationZ))
	assert.Equal(t, 20.0, riskFactors(20, 3.5, roster.Millennial))
}
