package roster

import (
	"strconv"
	"time"
)

// Column is a flat-row column of the employee export contract.
type Column string

const (
	ColID             Column = "id"
	ColName           Column = "name"
	ColDepartment     Column = "department"
	ColLevel          Column = "level"
	ColGeneration     Column = "generation"
	ColBirthYear      Column = "birth_year"
	ColAge            Column = "age"
	ColTenureYears    Column = "tenure_years"
	ColHireDate       Column = "hire_date"
	ColSalary         Column = "salary"
	ColEngagement     Column = "engagement"
	ColPerformance    Column = "performance"
	ColRisk           Column = "risk"
	ColStatus         Column = "status"
	ColSeparationType Column = "separation_type"
	ColSeparationDate Column = "separation_date"
	ColTrend          Column = "trend"
)

// Columns is the canonical column order of an employee row.
var Columns = []Column{
	ColID, ColName, ColDepartment, ColLevel, ColGeneration, ColBirthYear, ColAge,
	ColTenureYears, ColHireDate, ColSalary, ColEngagement, ColPerformance, ColRisk,
	ColStatus, ColSeparationType, ColSeparationDate, ColTrend,
}

// Header returns the column names as strings.
func Header() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = string(c)
	}
	return out
}

// Header makes Roster a flat table together with Rows.
func (r Roster) Header() []string {
	return Header()
}

// Row renders e in Columns order. Undefined optional fields are empty strings.
func (e Employee) Row() []string {
	risk, sepType, sepDate := "", "", ""
	if e.Risk != nil {
		risk = formatFloat(*e.Risk)
	}
	if e.SeparationType != nil {
		sepType = string(*e.SeparationType)
	}
	if e.SeparationDate != nil {
		sepDate = e.SeparationDate.Format(time.DateOnly)
	}
	return []string{
		e.ID,
		e.Name,
		string(e.Department),
		string(e.Level),
		string(e.Generation),
		strconv.Itoa(e.BirthYear),
		strconv.Itoa(e.Age),
		formatFloat(e.TenureYears),
		e.HireDate.Format(time.DateOnly),
		strconv.Itoa(e.Salary),
		formatFloat(e.Engagement),
		formatFloat(e.Performance),
		risk,
		string(e.Status),
		sepType,
		sepDate,
		string(e.Trend),
	}
}

// Rows renders every record in Columns order.
func (r Roster) Rows() [][]string {
	rows := make([][]string, len(r))
	for i, e := range r {
		rows[i] = e.Row()
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
