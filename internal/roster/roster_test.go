package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func activeEmployee(id string, dept Department) Employee {
	return Employee{
		ID:          id,
		Name:        "Test Person",
		Department:  dept,
		Level:       Senior,
		Generation:  Millennial,
		BirthYear:   1990,
		Age:         36,
		TenureYears: 5.0,
		HireDate:    time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		Salary:      9000,
		Engagement:  7.0,
		Performance: 3.5,
		Risk:        ptr(40.0),
		Status:      Active,
		Trend:       Stable,
	}
}

func separatedEmployee(id string, dept Department, st SeparationType) Employee {
	e := activeEmployee(id, dept)
	e.Risk = nil
	e.Status = Separated
	e.SeparationType = ptr(st)
	e.SeparationDate = ptr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	return e
}

func TestEmployeeValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Employee)
		wantErr bool
	}{
		{"valid active", func(e *Employee) {}, false},
		{"active without risk", func(e *Employee) { e.Risk = nil }, true},
		{"active with separation type", func(e *Employee) { e.SeparationType = ptr(Voluntary) }, true},
		{"engagement too high", func(e *Employee) { e.Engagement = 10.5 }, true},
		{"engagement too low", func(e *Employee) { e.Engagement = 0.9 }, true},
		{"performance out of range", func(e *Employee) { e.Performance = 5.1 }, true},
		{"risk out of range", func(e *Employee) { e.Risk = ptr(101.0) }, true},
		{"birth year outside generation", func(e *Employee) { e.BirthYear = 1975 }, true},
		{"tenure above age limit", func(e *Employee) { e.Age = 20; e.TenureYears = 3 }, true},
		{"tenure above generation ceiling", func(e *Employee) { e.TenureYears = 12.5 }, true},
		{"negative tenure", func(e *Employee) { e.TenureYears = -0.1 }, true},
		{"unknown status", func(e *Employee) { e.Status = "Retired" }, true},
		{"missing id", func(e *Employee) { e.ID = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := activeEmployee("EMP0001", Sales)
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				require.NoError(t, err)
			}
		})
	}

	t.Run("separated without date", func(t *testing.T) {
		e := separatedEmployee("EMP0002", Sales, Voluntary)
		require.NoError(t, e.Validate())
		e.SeparationDate = nil
		require.ErrorIs(t, e.Validate(), ErrInvalidRecord)
	})
}

func TestTrendFor(t *testing.T) {
	tests := []struct {
		engagement float64
		expected   Trend
	}{
		{1.0, Declining},
		{4.9, Declining},
		{5.0, Stable},
		{7.5, Stable},
		{7.6, Improving},
		{10.0, Improving},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, TrendFor(tt.engagement), "TrendFor(%v)", tt.engagement)
	}
}

func TestGenerationForYear(t *testing.T) {
	g, ok := GenerationForYear(1964)
	require.True(t, ok)
	assert.Equal(t, BabyBoomer, g)

	g, ok = GenerationForYear(1997)
	require.True(t, ok)
	assert.Equal(t, GenerationZ, g)

	_, ok = GenerationForYear(1930)
	assert.False(t, ok)
}

func TestRosterCloneIsDeep(t *testing.T) {
	r := Roster{activeEmployee("EMP0001", Sales)}
	c := r.Clone()
	*c[0].Risk = 99
	c[0].Name = "Changed"

	assert.Equal(t, 40.0, *r[0].Risk)
	assert.Equal(t, "Test Person", r[0].Name)
}

func TestRosterSubsets(t *testing.T) {
	hot := activeEmployee("EMP0003", Sales)
	hot.Risk = ptr(85.0)
	r := Roster{
		activeEmployee("EMP0001", Sales),
		separatedEmployee("EMP0002", Finance, Involuntary),
		hot,
	}

	assert.Len(t, r.Active(), 2)
	assert.Len(t, r.Separated(), 1)

	high := r.HighRisk(70)
	require.Len(t, high, 1)
	assert.Equal(t, "EMP0003", high[0].ID)
}

func TestRosterValidateDuplicateID(t *testing.T) {
	r := Roster{activeEmployee("EMP0001", Sales), activeEmployee("EMP0001", Legal)}
	require.ErrorIs(t, r.Validate(), ErrInvalidRecord)
}

func TestFingerprint(t *testing.T) {
	a := Roster{activeEmployee("EMP0001", Sales), separatedEmployee("EMP0002", Legal, Voluntary)}
	b := a.Clone()

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Contains(t, a.Fingerprint(), "2:")

	b[1].Engagement = 2.0
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("department=Human Resources")
	require.NoError(t, err)
	assert.Equal(t, Filter{Field: FieldDepartment, Value: "Human Resources"}, f)

	_, err = ParseFilter("department")
	require.Error(t, err)

	_, err = ParseFilter("departmnt=Sales")
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), `did you mean "department"`)

	_, err = ParseFilter("salary=9000")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestRosterFilter(t *testing.T) {
	r := Roster{
		activeEmployee("EMP0001", Sales),
		activeEmployee("EMP0002", Legal),
		separatedEmployee("EMP0003", Sales, Voluntary),
	}

	sales := r.Filter(Filter{Field: FieldDepartment, Value: "Sales"})
	assert.Len(t, sales, 2)

	voluntarySales := r.Filter(
		Filter{Field: FieldDepartment, Value: "Sales"},
		Filter{Field: FieldSeparationType, Value: "Voluntary"},
	)
	require.Len(t, voluntarySales, 1)
	assert.Equal(t, "EMP0003", voluntarySales[0].ID)

	assert.Len(t, r.Filter(), 3)
	assert.Empty(t, r.Filter(Filter{Field: FieldDepartment, Value: "sales"}))
}

func TestRows(t *testing.T) {
	r := Roster{activeEmployee("EMP0001", Sales), separatedEmployee("EMP0002", Legal, Voluntary)}
	rows := r.Rows()

	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(Header()))
	assert.Equal(t, "40.0", rows[0][12])
	assert.Equal(t, "", rows[1][12])
	assert.Equal(t, "Voluntary", rows[1][14])
	assert.Equal(t, "2024-06-01", rows[1][15])
}
