package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bernlabs/pulse/internal/roster"
)

func ptr[T any](v T) *T { return &v }

type empOpt func(*roster.Employee)

func withRisk(r float64) empOpt       { return func(e *roster.Employee) { e.Risk = ptr(r) } }
func withEngagement(v float64) empOpt { return func(e *roster.Employee) { e.Engagement = v } }
func withTenure(v float64) empOpt     { return func(e *roster.Employee) { e.TenureYears = v } }
func withSalary(v int) empOpt         { return func(e *roster.Employee) { e.Salary = v } }
func withHireYear(y int) empOpt {
	return func(e *roster.Employee) { e.HireDate = time.Date(y, 2, 1, 0, 0, 0, 0, time.UTC) }
}
func withGeneration(g roster.Generation) empOpt {
	return func(e *roster.Employee) { e.Generation = g }
}

func active(id string, dept roster.Department, opts ...empOpt) roster.Employee {
	e := roster.Employee{
		ID:          id,
		Department:  dept,
		Level:       roster.MidLevel,
		Generation:  roster.Millennial,
		BirthYear:   1990,
		Age:         35,
		TenureYears: 4,
		HireDate:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Salary:      8000,
		Engagement:  7,
		Performance: 3.5,
		Risk:        ptr(30.0),
		Status:      roster.Active,
		Trend:       roster.Stable,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func separated(id string, dept roster.Department, st roster.SeparationType, opts ...empOpt) roster.Employee {
	e := active(id, dept, opts...)
	e.Risk = nil
	e.Status = roster.Separated
	e.SeparationType = ptr(st)
	e.SeparationDate = ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return e
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		risk     float64
		expected RiskLevel
	}{
		{100, Critical},
		{90, Critical},
		{89.9, High},
		{70, High},
		{69.9, Medium},
		{50, Medium},
		{49.9, Low},
		{0, Low},
	}

	for _, tt := range tests {
		result := ClassifyRisk(tt.risk)
		if result != tt.expected {
			t.Errorf("ClassifyRisk(%v) = %s, expected %s", tt.risk, result, tt.expected)
		}
	}
}

func TestClassifyRiskWithThresholds(t *testing.T) {
	custom := RiskThresholds{Critical: 80, High: 60, Medium: 40}
	tests := []struct {
		risk     float64
		expected RiskLevel
	}{
		{80, Critical},
		{65, High},
		{45, Medium},
		{39, Low},
	}
	for _, tt := range tests {
		result := ClassifyRiskWithThresholds(tt.risk, custom)
		if result != tt.expected {
			t.Errorf("ClassifyRiskWithThresholds(%v) = %s, expected %s", tt.risk, result, tt.expected)
		}
	}
}

func TestCategories(t *testing.T) {
	engagement := []struct {
		v        float64
		expected Category
	}{
		{8, CategoryHigh},
		{7.5, CategoryHigh},
		{6, CategoryMedium},
		{5.9, CategoryLow},
	}
	for _, tt := range engagement {
		if got := EngagementCategory(tt.v); got != tt.expected {
			t.Errorf("EngagementCategory(%v) = %s, expected %s", tt.v, got, tt.expected)
		}
	}

	turnover := []struct {
		v        float64
		expected Category
	}{
		{40, CategoryHigh},
		{35, CategoryHigh},
		{25, CategoryNormal},
		{24.9, CategoryLow},
	}
	for _, tt := range turnover {
		if got := TurnoverCategory(tt.v); got != tt.expected {
			t.Errorf("TurnoverCategory(%v) = %s, expected %s", tt.v, got, tt.expected)
		}
	}
}

func TestTurnoverRate(t *testing.T) {
	tests := []struct {
		name      string
		r         roster.Roster
		rate      float64
		voluntary float64
	}{
		{"empty", roster.Roster{}, 0, 0},
		{"nil", nil, 0, 0},
		{"all active", roster.Roster{active("A", roster.Sales)}, 0, 0},
		{
			"one of three separated",
			roster.Roster{
				active("A", roster.Sales),
				active("B", roster.Sales),
				separated("C", roster.Sales, roster.Voluntary),
			},
			100.0 / 3.0,
			100.0 / 3.0,
		},
		{
			"involuntary does not count as voluntary",
			roster.Roster{
				separated("A", roster.Sales, roster.Involuntary),
				separated("B", roster.Sales, roster.Voluntary),
				active("C", roster.Legal),
				active("D", roster.Legal),
			},
			50,
			25,
		},
	}

	for _, tt := range tests {
		if got := TurnoverRate(tt.r); !approx(got, tt.rate) {
			t.Errorf("%s: TurnoverRate = %v, expected %v", tt.name, got, tt.rate)
		}
		if got := VoluntaryTurnoverRate(tt.r); !approx(got, tt.voluntary) {
			t.Errorf("%s: VoluntaryTurnoverRate = %v, expected %v", tt.name, got, tt.voluntary)
		}
	}
}

func TestComputeKeyMetrics(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withRisk(80), withEngagement(4), withTenure(2)),
		active("B", roster.Sales, withRisk(70), withEngagement(6), withTenure(4)),
		separated("C", roster.Sales, roster.Voluntary),
		separated("D", roster.Sales, roster.Involuntary),
	}
	km := ComputeKeyMetrics(r, 70)

	if km.Total != 4 || km.Active != 2 || km.Separated != 2 {
		t.Fatalf("counts = %d/%d/%d, expected 4/2/2", km.Total, km.Active, km.Separated)
	}
	if km.HighRisk != 1 {
		t.Errorf("HighRisk = %d, expected 1 (threshold is exclusive)", km.HighRisk)
	}
	if !approx(km.MeanEngagement, 5) {
		t.Errorf("MeanEngagement = %v, expected 5", km.MeanEngagement)
	}
	if !approx(km.MeanTenure, 3) {
		t.Errorf("MeanTenure = %v, expected 3", km.MeanTenure)
	}
	if !approx(km.VoluntaryTurnoverRate, 25) {
		t.Errorf("VoluntaryTurnoverRate = %v, expected 25", km.VoluntaryTurnoverRate)
	}

	empty := ComputeKeyMetrics(nil, 70)
	if empty.Total != 0 || empty.MeanEngagement != 0 || empty.TurnoverRate != 0 {
		t.Errorf("empty roster metrics = %+v, expected zero values", empty)
	}
}

func TestEngagementByDepartment(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withEngagement(5), withRisk(60)),
		active("B", roster.Sales, withEngagement(7), withRisk(40)),
		active("C", roster.Technology, withEngagement(9), withRisk(10)),
		separated("D", roster.Legal, roster.Voluntary),
	}
	table := EngagementByDepartment(r)

	if len(table) != 2 {
		t.Fatalf("len = %d, expected 2 (separated-only departments are excluded)", len(table))
	}
	if table[0].Department != roster.Technology {
		t.Errorf("first department = %s, expected Technology", table[0].Department)
	}
	sales := table[1]
	if !approx(sales.MeanEngagement, 6) || !approx(sales.MeanRisk, 50) || sales.Employees != 2 {
		t.Errorf("sales = %+v", sales)
	}
	if !approx(sales.StdEngagement, math.Sqrt2) {
		t.Errorf("StdEngagement = %v, expected sqrt(2)", sales.StdEngagement)
	}
	if table[0].StdEngagement != 0 {
		t.Errorf("single-member std = %v, expected 0", table[0].StdEngagement)
	}

	if got := EngagementByDepartment(nil); len(got) != 0 {
		t.Errorf("EngagementByDepartment(nil) = %v, expected empty", got)
	}
}

func TestEngagementByGeneration(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withGeneration(roster.GenerationZ), withEngagement(5), withTenure(1)),
		active("B", roster.Sales, withGeneration(roster.BabyBoomer), withEngagement(8), withTenure(20)),
		active("C", roster.Sales, withGeneration(roster.GenerationZ), withEngagement(7), withTenure(3)),
	}
	table := EngagementByGeneration(r)

	if len(table) != 2 {
		t.Fatalf("len = %d, expected 2", len(table))
	}
	if table[0].Generation != roster.BabyBoomer || table[1].Generation != roster.GenerationZ {
		t.Errorf("order = %s, %s; expected oldest first", table[0].Generation, table[1].Generation)
	}
	if !approx(table[1].MeanEngagement, 6) || !approx(table[1].MeanTenure, 2) || table[1].Employees != 2 {
		t.Errorf("gen z = %+v", table[1])
	}
}

func TestTurnoverByDepartment(t *testing.T) {
	if got := TurnoverByDepartment(roster.Roster{active("A", roster.Sales)}); len(got) != 0 {
		t.Errorf("no separations: got %d rows, expected 0", len(got))
	}

	r := roster.Roster{
		separated("A", roster.Sales, roster.Voluntary),
		separated("B", roster.Sales, roster.Involuntary),
		active("C", roster.Sales),
		active("D", roster.Sales),
		active("E", roster.Finance),
	}
	table := TurnoverByDepartment(r)
	if len(table) != 2 {
		t.Fatalf("len = %d, expected 2", len(table))
	}
	if table[0].Department != roster.Finance {
		t.Errorf("first = %s, expected Finance", table[0].Department)
	}
	if table[0].Rate != 0 || table[0].VoluntaryShare != 0 {
		t.Errorf("finance = %+v, expected zero rates", table[0])
	}
	s := table[1]
	if s.Separations != 2 || s.Total != 4 || s.Voluntary != 1 || !approx(s.Rate, 50) || !approx(s.VoluntaryShare, 50) {
		t.Errorf("sales = %+v", s)
	}
}

func TestTenureBuckets(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withTenure(0)),
		active("B", roster.Sales, withTenure(0.9)),
		active("C", roster.Sales, withTenure(1)),
		active("D", roster.Sales, withTenure(7)),
		active("E", roster.Sales, withTenure(15)),
		active("F", roster.Sales, withTenure(30)),
		separated("G", roster.Sales, roster.Voluntary, withTenure(2)),
	}
	table := TenureBuckets(r)

	expected := []int{2, 1, 0, 1, 2}
	if len(table) != len(expected) {
		t.Fatalf("len = %d, expected %d", len(table), len(expected))
	}
	for i, want := range expected {
		if table[i].Employees != want {
			t.Errorf("bucket %s = %d, expected %d", table[i].Label, table[i].Employees, want)
		}
	}
	if table[2].MeanEngagement != 0 {
		t.Errorf("empty bucket mean = %v, expected 0", table[2].MeanEngagement)
	}
}

func TestCorrelation(t *testing.T) {
	_, err := Correlation(roster.Roster{active("A", roster.Sales)})
	if !errors.Is(err, ErrInsufficientRows) {
		t.Fatalf("single row: err = %v, expected ErrInsufficientRows", err)
	}
	_, err = Correlation(nil)
	if !errors.Is(err, ErrInsufficientRows) {
		t.Fatalf("empty: err = %v, expected ErrInsufficientRows", err)
	}

	r := roster.Roster{
		active("A", roster.Sales, withEngagement(2), withRisk(80), withSalary(4000)),
		active("B", roster.Sales, withEngagement(5), withRisk(50), withSalary(6000)),
		active("C", roster.Sales, withEngagement(8), withRisk(20), withSalary(9000)),
	}
	m, err := Correlation(r)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}

	c, ok := m.Get("engagement", "risk")
	if !ok || !approx(c, -1) {
		t.Errorf("engagement/risk = %v (%v), expected -1", c, ok)
	}
	c, ok = m.Get("engagement", "engagement")
	if !ok || !approx(c, 1) {
		t.Errorf("diagonal = %v (%v), expected 1", c, ok)
	}
	// Age is constant across the fixture so its correlations are undefined.
	if _, ok := m.Get("age", "engagement"); ok {
		t.Error("age/engagement should be undefined for zero variance")
	}
	for _, row := range m.Rows() {
		for _, cell := range row[1:] {
			if cell == "NaN" {
				t.Fatalf("matrix contains NaN: %v", row)
			}
		}
	}
}

func TestHighRisk(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withRisk(75)),
		active("B", roster.Sales, withRisk(95)),
		active("C", roster.Sales, withRisk(70)),
		active("D", roster.Sales, withRisk(75)),
		separated("E", roster.Sales, roster.Voluntary),
	}
	list := HighRisk(r, 70)

	ids := []string{"B", "A", "D"}
	if len(list) != len(ids) {
		t.Fatalf("len = %d, expected %d", len(list), len(ids))
	}
	for i, id := range ids {
		if list[i].ID != id {
			t.Errorf("rank %d = %s, expected %s", i, list[i].ID, id)
		}
	}
	if list[0].RiskLevel != Critical || list[0].Action != RecommendedAction(Critical) {
		t.Errorf("top entry = %+v", list[0])
	}
}

func TestRiskEngagementMatrix(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withEngagement(3), withRisk(85)),
		active("B", roster.Sales, withEngagement(4), withRisk(70)),
		active("C", roster.Sales, withEngagement(9), withRisk(10)),
		active("D", roster.Sales, withEngagement(7), withRisk(50)),
	}
	m := RiskEngagementMatrix(r)

	if len(m) != 9 {
		t.Fatalf("cells = %d, expected 9", len(m))
	}
	checks := []struct {
		eng, risk Category
		expected  int
	}{
		{CategoryLow, CategoryHigh, 2},
		{CategoryHigh, CategoryLow, 1},
		{CategoryMedium, CategoryMedium, 1},
		{CategoryMedium, CategoryHigh, 0},
	}
	for _, c := range checks {
		if got := m.Count(c.eng, c.risk); got != c.expected {
			t.Errorf("Count(%s, %s) = %d, expected %d", c.eng, c.risk, got, c.expected)
		}
	}
}

func TestDepartmentTable(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withEngagement(5), withSalary(4000)),
		active("B", roster.Sales, withEngagement(6), withSalary(6000)),
		separated("C", roster.Sales, roster.Voluntary),
		active("D", roster.Technology, withEngagement(8)),
	}
	table := ComputeDepartmentTable(r)

	if len(table) != 2 {
		t.Fatalf("len = %d, expected 2", len(table))
	}
	s := table[0]
	if s.Department != roster.Sales {
		t.Fatalf("first = %s, expected Sales", s.Department)
	}
	if s.Total != 3 || s.Active != 2 || s.Voluntary != 1 || s.Involuntary != 0 {
		t.Errorf("sales counts = %+v", s)
	}
	if !approx(s.MeanSalary, 5000) || !approx(s.MeanEngagement, 5.5) {
		t.Errorf("sales means = %+v", s)
	}
	if s.EngagementCategory != CategoryLow || s.TurnoverCategory != CategoryNormal {
		t.Errorf("sales categories = %s/%s, expected Low/Normal (33.3%% turnover)", s.EngagementCategory, s.TurnoverCategory)
	}
	if table[1].EngagementCategory != CategoryHigh {
		t.Errorf("technology engagement category = %s, expected High", table[1].EngagementCategory)
	}
	if len(table.Rows()) != 2 || len(table.Rows()[0]) != len(table.Header()) {
		t.Error("rows do not match header width")
	}
}

func TestHireCohorts(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withHireYear(2020)),
		separated("B", roster.Sales, roster.Voluntary, withHireYear(2020)),
		active("C", roster.Sales, withHireYear(2021)),
		active("D", roster.Legal, withHireYear(2020)),
		active("E", roster.Legal, withHireYear(2020)),
	}
	table := HireCohorts(r)

	if len(table) != 2 {
		t.Fatalf("len = %d, expected 2 (single-hire cohorts dropped)", len(table))
	}
	if table[0].Department != roster.Legal || table[0].RetentionRate != 100 {
		t.Errorf("first cohort = %+v", table[0])
	}
	if table[1].Department != roster.Sales || table[1].StillActive != 1 || table[1].RetentionRate != 50 {
		t.Errorf("second cohort = %+v", table[1])
	}
}

func TestBuildInsights(t *testing.T) {
	r := roster.Roster{
		active("A", roster.Sales, withEngagement(4), withRisk(85)),
		separated("B", roster.Sales, roster.Voluntary, withEngagement(3)),
		active("C", roster.Technology, withEngagement(8), withRisk(10)),
		active("D", roster.Technology, withEngagement(9), withRisk(5)),
	}
	ins := BuildInsights(r, 70)

	if len(ins.CriticalDepartments) != 1 || ins.CriticalDepartments[0].Department != roster.Sales {
		t.Errorf("critical departments = %+v, expected only Sales", ins.CriticalDepartments)
	}
	if ins.HighRiskCount != 1 {
		t.Errorf("HighRiskCount = %d, expected 1", ins.HighRiskCount)
	}
	if ins.Correlations.EngagementTurnover == nil || *ins.Correlations.EngagementTurnover >= 0 {
		t.Errorf("engagement/turnover correlation = %v, expected negative", ins.Correlations.EngagementTurnover)
	}
	if len(ins.KPIs) == 0 || ins.KPIs[0].Value != 4 {
		t.Errorf("KPIs = %+v", ins.KPIs)
	}
}
