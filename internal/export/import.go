package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bernlabs/pulse/internal/roster"
)

var (
	// ErrMissingColumn is returned when a required roster column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrEmptyFile is returned for input without a header row.
	ErrEmptyFile = errors.New("empty file: no header row found")
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts input to UTF-8 and reports the detected encoding.
// A BOM selects UTF-8 or UTF-16; input that is not valid UTF-8 is read as
// Windows-1252, the usual encoding of spreadsheet exports.
func Decode(data []byte) ([]byte, string, error) {
	enc := "utf-8"
	fallback := unicode.UTF8.NewDecoder()
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		enc = "utf-8-bom"
	case bytes.HasPrefix(data, bomUTF16LE):
		enc = "utf-16le"
	case bytes.HasPrefix(data, bomUTF16BE):
		enc = "utf-16be"
	case !utf8.Valid(data):
		enc = "windows-1252"
		fallback = charmap.Windows1252.NewDecoder()
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", enc, err)
	}
	return out, enc, nil
}

// record is one CSV row after numeric parsing, checked field by field
// before it becomes an Employee. Cross-field invariants are left to
// Employee.Validate.
type record struct {
	ID             string   `csv:"id" validate:"required,max=16"`
	Name           string   `csv:"name" validate:"required,max=255"`
	Department     string   `csv:"department" validate:"department"`
	Level          string   `csv:"level" validate:"level"`
	Generation     string   `csv:"generation" validate:"generation"`
	BirthYear      int      `csv:"birth_year" validate:"gte=1900,lte=2100"`
	Age            int      `csv:"age" validate:"gte=18,lte=100"`
	TenureYears    float64  `csv:"tenure_years" validate:"gte=0"`
	HireDate       string   `csv:"hire_date" validate:"datetime=2006-01-02"`
	Salary         int      `csv:"salary" validate:"gt=0"`
	Engagement     float64  `csv:"engagement" validate:"gte=1,lte=10"`
	Performance    float64  `csv:"performance" validate:"gte=1,lte=5"`
	Risk           *float64 `csv:"risk" validate:"omitempty,gte=0,lte=100"`
	Status         string   `csv:"status" validate:"oneof=Active Separated"`
	SeparationType string   `csv:"separation_type" validate:"omitempty,oneof=Voluntary Involuntary"`
	SeparationDate string   `csv:"separation_date" validate:"omitempty,datetime=2006-01-02"`
	Trend          string   `csv:"trend" validate:"oneof=Improving Stable Declining"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report CSV column names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("csv")
	})
	must(v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		_, ok := roster.ParseDepartment(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("level", func(fl validator.FieldLevel) bool {
		_, ok := roster.ParseLevel(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("generation", func(fl validator.FieldLevel) bool {
		_, ok := roster.ParseGeneration(fl.Field().String())
		return ok
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ReadRoster parses a roster CSV in the column layout produced by
// roster.Header. Column order is free; every column must be present and
// unknown columns are rejected with a suggestion. The first invalid row
// aborts the import.
func ReadRoster(r io.Reader) (roster.Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	decoded, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(decoded))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out roster.Roster
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		e, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		out = append(out, e)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func columnIndex(header []string) (map[roster.Column]int, error) {
	known := roster.Header()
	index := make(map[roster.Column]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		col := roster.Column(name)
		if !isColumn(col) {
			return nil, fmt.Errorf("header: %w", roster.UnknownName(name, known))
		}
		index[col] = i
	}
	for _, col := range roster.Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	return index, nil
}

func isColumn(c roster.Column) bool {
	for _, col := range roster.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func parseRow(row []string, index map[roster.Column]int) (roster.Employee, error) {
	get := func(c roster.Column) string {
		if i := index[c]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var rec record
	var errs []string
	atoi := func(c roster.Column) int {
		v, err := strconv.Atoi(get(c))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not an integer: %q", c, get(c)))
		}
		return v
	}
	atof := func(c roster.Column) float64 {
		v, err := strconv.ParseFloat(get(c), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not a number: %q", c, get(c)))
		}
		return v
	}

	rec.ID = get(roster.ColID)
	rec.Name = get(roster.ColName)
	rec.Department = get(roster.ColDepartment)
	rec.Level = get(roster.ColLevel)
	rec.Generation = get(roster.ColGeneration)
	rec.BirthYear = atoi(roster.ColBirthYear)
	rec.Age = atoi(roster.ColAge)
	rec.TenureYears = atof(roster.ColTenureYears)
	rec.HireDate = get(roster.ColHireDate)
	rec.Salary = atoi(roster.ColSalary)
	rec.Engagement = atof(roster.ColEngagement)
	rec.Performance = atof(roster.ColPerformance)
	if get(roster.ColRisk) != "" {
		risk := atof(roster.ColRisk)
		rec.Risk = &risk
	}
	rec.Status = get(roster.ColStatus)
	rec.SeparationType = get(roster.ColSeparationType)
	rec.SeparationDate = get(roster.ColSeparationDate)
	rec.Trend = get(roster.ColTrend)

	if len(errs) > 0 {
		return roster.Employee{}, fmt.Errorf("%w: %s", roster.ErrInvalidRecord, strings.Join(errs, "; "))
	}
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s: failed %s%s (got %v)", fe.Field(), fe.Tag(), param(fe.Param()), fe.Value()))
			}
			return roster.Employee{}, fmt.Errorf("%w: %s %s", roster.ErrInvalidRecord, rec.ID, strings.Join(errs, "; "))
		}
		return roster.Employee{}, err
	}

	e, err := rec.employee()
	if err != nil {
		return roster.Employee{}, err
	}
	if err := e.Validate(); err != nil {
		return roster.Employee{}, err
	}
	return e, nil
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

func (rec record) employee() (roster.Employee, error) {
	hire, err := time.Parse(time.DateOnly, rec.HireDate)
	if err != nil {
		return roster.Employee{}, fmt.Errorf("%w: %s hire_date: %v", roster.ErrInvalidRecord, rec.ID, err)
	}
	dept, _ := roster.ParseDepartment(rec.Department)
	level, _ := roster.ParseLevel(rec.Level)
	gen, _ := roster.ParseGeneration(rec.Generation)

	e := roster.Employee{
		ID:          rec.ID,
		Name:        rec.Name,
		Department:  dept,
		Level:       level,
		Generation:  gen,
		BirthYear:   rec.BirthYear,
		Age:         rec.Age,
		TenureYears: rec.TenureYears,
		HireDate:    hire,
		Salary:      rec.Salary,
		Engagement:  rec.Engagement,
		Performance: rec.Performance,
		Risk:        rec.Risk,
		Status:      roster.Status(rec.Status),
		Trend:       roster.Trend(rec.Trend),
	}
	if rec.SeparationType != "" {
		st := roster.SeparationType(rec.SeparationType)
		e.SeparationType = &st
	}
	if rec.SeparationDate != "" {
		date, err := time.Parse(time.DateOnly, rec.SeparationDate)
		if err != nil {
			return roster.Employee{}, fmt.Errorf("%w: %s separation_date: %v", roster.ErrInvalidRecord, rec.ID, err)
		}
		e.SeparationDate = &date
	}
	return e, nil
}
