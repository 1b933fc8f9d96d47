package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrUnknownField is returned when a filter or column names a field that does not exist.
var ErrUnknownField = errors.New("unknown field")

// Field names an employee attribute that can be filtered on.
type Field string

const (
	FieldID             Field = "id"
	FieldDepartment     Field = "department"
	FieldLevel          Field = "level"
	FieldGeneration     Field = "generation"
	FieldStatus         Field = "status"
	FieldSeparationType Field = "separation_type"
	FieldTrend          Field = "trend"
)

// Fields lists every filterable field.
var Fields = []Field{
	FieldID, FieldDepartment, FieldLevel, FieldGeneration,
	FieldStatus, FieldSeparationType, FieldTrend,
}

// Filter is an exact-match predicate on one field.
type Filter struct {
	Field Field
	Value string
}

func (f Filter) String() string {
	return string(f.Field) + "=" + f.Value
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e Employee) bool {
	switch f.Field {
	case FieldID:
		return e.ID == f.Value
	case FieldDepartment:
		return string(e.Department) == f.Value
	case FieldLevel:
		return string(e.Level) == f.Value
	case FieldGeneration:
		return string(e.Generation) == f.Value
	case FieldStatus:
		return string(e.Status) == f.Value
	case FieldSeparationType:
		return e.SeparationType != nil && string(*e.SeparationType) == f.Value
	case FieldTrend:
		return string(e.Trend) == f.Value
	default:
		return false
	}
}

// ParseField resolves a field name, failing with a suggestion for near misses.
func ParseField(name string) (Field, error) {
	candidate := Field(strings.ToLower(strings.TrimSpace(name)))
	for _, f := range Fields {
		if f == candidate {
			return f, nil
		}
	}
	names := make([]string, len(Fields))
	for i, f := range Fields {
		names[i] = string(f)
	}
	return "", UnknownName(name, names)
}

// ParseFilter parses a "field=value" expression.
func ParseFilter(expr string) (Filter, error) {
	name, value, ok := strings.Cut(expr, "=")
	if !ok {
		return Filter{}, fmt.Errorf("invalid filter %q: expected field=value", expr)
	}
	field, err := ParseField(name)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Field: field, Value: strings.TrimSpace(value)}, nil
}

// ParseFilters parses each expression in order.
func ParseFilters(exprs []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := ParseFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// Filter returns a new roster holding the records that match every filter.
// With no filters it returns a full copy.
func (r Roster) Filter(filters ...Filter) Roster {
	return r.Where(func(e Employee) bool {
		for _, f := range filters {
			if !f.Matches(e) {
				return false
			}
		}
		return true
	})
}

// UnknownName builds an ErrUnknownField error that suggests the closest known name.
func UnknownName(name string, known []string) error {
	ranks := fuzzy.RankFindFold(name, known)
	if len(ranks) == 0 {
		// Input with stray characters may still contain a known name.
		for _, k := range known {
			if fuzzy.MatchFold(k, name) {
				return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownField, name, k)
			}
		}
		return fmt.Errorf("%w %q (known: %s)", ErrUnknownField, name, strings.Join(known, ", "))
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownField, name, best.Target)
}
