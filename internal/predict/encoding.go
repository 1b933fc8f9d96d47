package predict

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/bernlabs/pulse/internal/roster"
)

// Features is the fixed input schema of the turnover model.
type Features struct {
	Engagement  float64
	Performance float64
	TenureYears float64
	Age         float64
	Salary      float64
	Department  string
	Level       string
	Generation  string
}

// FeatureNames lists model inputs in column order: numeric first, then categorical.
var FeatureNames = []string{
	"engagement", "performance", "tenure_years", "age", "salary",
	"department", "level", "generation",
}

const numericFeatures = 5

// FeaturesOf extracts the model inputs from an employee record.
func FeaturesOf(e roster.Employee) Features {
	return Features{
		Engagement:  e.Engagement,
		Performance: e.Performance,
		TenureYears: e.TenureYears,
		Age:         float64(e.Age),
		Salary:      float64(e.Salary),
		Department:  string(e.Department),
		Level:       string(e.Level),
		Generation:  string(e.Generation),
	}
}

func (f Features) numeric() []float64 {
	return []float64{f.Engagement, f.Performance, f.TenureYears, f.Age, f.Salary}
}

func (f Features) categorical() []string {
	return []string{f.Department, f.Level, f.Generation}
}

// Complete reports whether every feature has a value.
func (f Features) Complete() bool {
	for _, v := range f.numeric() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range f.categorical() {
		if v == "" {
			return false
		}
	}
	return true
}

// Encoder maps category labels to integer codes. Classes are sorted, so
// codes are stable for a given set of labels.
type Encoder struct {
	Classes  []string `json:"classes"`
	Fallback string   `json:"fallback"`

	index map[string]int
}

// FitEncoder learns the classes present in values. The fallback used for
// unseen labels is the most frequent class, ties going to the first in order.
func FitEncoder(values []string) *Encoder {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	fallback := ""
	for _, c := range classes {
		if fallback == "" || counts[c] > counts[fallback] {
			fallback = c
		}
	}

	e := &Encoder{Classes: classes, Fallback: fallback}
	e.reindex()
	return e
}

func (e *Encoder) reindex() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Encode returns the code for label. Unseen labels map to the fallback
// class and report ok == false.
func (e *Encoder) Encode(label string) (code int, ok bool) {
	if code, ok := e.lookup(label); ok {
		return code, true
	}
	code, _ = e.lookup(e.Fallback)
	return code, false
}

func (e *Encoder) lookup(label string) (int, bool) {
	if e.index == nil {
		i := slices.Index(e.Classes, label)
		return i, i >= 0
	}
	i, ok := e.index[label]
	return i, ok
}

// Decode returns the label for code.
func (e *Encoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("decode code %d: out of range [0,%d)", code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// Scaler standardises numeric columns to zero mean and unit variance.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler learns per-column mean and population standard deviation.
// Constant columns get a scale of 1.
func FitScaler(rows [][]float64) *Scaler {
	cols := len(rows[0])
	s := &Scaler{Mean: make([]float64, cols), Scale: make([]float64, cols)}
	col := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		s.Mean[j], s.Scale[j] = stat.PopMeanStdDev(col, nil)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return s
}

// Transform returns a standardised copy of row.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}
