package output

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/bernlabs/pulse/internal/metrics"
	"github.com/bernlabs/pulse/internal/predict"
)

// Cell is one column value of a Record.
type Cell struct {
	Column string
	Value  string
}

// Record is a table row keyed by column name. It encodes as a mapping
// whose keys keep the column order.
type Record []Cell

// MarshalYAML emits the record as an ordered mapping.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range r {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Column},
			scalarNode(c.Value),
		)
	}
	return node, nil
}

func scalarNode(v string) *yaml.Node {
	switch {
	case v == "":
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case isNumber(v):
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	}
}

// MarshalJSON emits the record as an ordered object.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		switch {
		case c.Value == "":
			buf.WriteString("null")
		case isNumber(c.Value):
			buf.WriteString(c.Value)
		default:
			val, err := json.Marshal(c.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value of column, or "" if the record has no such column.
func (r Record) Get(column string) string {
	for _, c := range r {
		if c.Column == column {
			return c.Value
		}
	}
	return ""
}

// isNumber reports whether v is a finite decimal literal that survives
// being emitted bare. Leading zeros mark identifiers, not numbers.
func isNumber(v string) bool {
	digits := v
	if digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return false
	}
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	if last := digits[len(digits)-1]; last < '0' || last > '9' {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// TableOutput is a flat metric table ready for encoding.
type TableOutput struct {
	// Table names the table, e.g. "departments" or "high_risk"
	Table string `yaml:"table" json:"table"`

	// Total is the number of rows before truncation
	Total int `yaml:"total" json:"total"`

	// Omitted counts rows dropped by the density limit
	Omitted int `yaml:"omitted,omitempty" json:"omitted,omitempty"`

	Rows []Record `yaml:"rows" json:"rows"`
}

// NewTableOutput converts a header/rows table into keyed records.
func NewTableOutput(name string, t metrics.Table) *TableOutput {
	header := t.Header()
	rows := t.Rows()
	out := &TableOutput{Table: name, Total: len(rows), Rows: make([]Record, len(rows))}
	for i, row := range rows {
		rec := make(Record, 0, len(header))
		for j, col := range header {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			rec = append(rec, Cell{Column: col, Value: val})
		}
		out.Rows[i] = rec
	}
	return out
}

// Truncate returns a copy holding at most limit rows. A limit of zero
// keeps every row.
func (t *TableOutput) Truncate(limit int) *TableOutput {
	if limit <= 0 || len(t.Rows) <= limit {
		return t
	}
	return &TableOutput{
		Table:   t.Table,
		Total:   t.Total,
		Omitted: t.Total - limit,
		Rows:    t.Rows[:limit],
	}
}

// ImpactOutput is the retention impact estimate with display strings.
type ImpactOutput struct {
	Impact      predict.Impact       `yaml:"impacto" json:"impacto"`
	Display     ImpactDisplay        `yaml:"exibicao" json:"exibicao"`
	Assumptions predict.ImpactConfig `yaml:"premissas" json:"premissas"`
}

// ImpactDisplay holds the currency amounts of an Impact formatted for people.
type ImpactDisplay struct {
	MeanSalary       string `yaml:"salario_medio" json:"salario_medio"`
	CostPerTurnover  string `yaml:"custo_medio_turnover" json:"custo_medio_turnover"`
	PotentialCost    string `yaml:"economia_potencial_total" json:"economia_potencial_total"`
	EstimatedSavings string `yaml:"economia_estimada_intervencoes" json:"economia_estimada_intervencoes"`
}

// NewImpactOutput formats the amounts of impact in currency.
func NewImpactOutput(impact predict.Impact, cfg predict.ImpactConfig, currency string) *ImpactOutput {
	return &ImpactOutput{
		Impact: impact,
		Display: ImpactDisplay{
			MeanSalary:       FormatMoney(impact.MeanSalary, currency),
			CostPerTurnover:  FormatMoney(impact.CostPerTurnover, currency),
			PotentialCost:    FormatMoney(impact.PotentialCost, currency),
			EstimatedSavings: FormatMoney(impact.EstimatedSavings, currency),
		},
		Assumptions: cfg,
	}
}

// SummaryItem is one executive KPI with an optional display string.
type SummaryItem struct {
	Metric  string  `yaml:"metric" json:"metric"`
	Value   float64 `yaml:"value" json:"value"`
	Unit    string  `yaml:"unit" json:"unit"`
	Display string  `yaml:"display,omitempty" json:"display,omitempty"`
}

// SummaryOutput is the executive KPI list.
type SummaryOutput struct {
	Summary []SummaryItem `yaml:"summary" json:"summary"`
}

// NewSummaryOutput formats KPIs whose unit is a currency code.
func NewSummaryOutput(s metrics.Summary) *SummaryOutput {
	out := &SummaryOutput{Summary: make([]SummaryItem, len(s))}
	for i, row := range s {
		item := SummaryItem{Metric: row.Metric, Value: row.Value, Unit: row.Unit}
		if money.GetCurrency(row.Unit) != nil {
			item.Display = FormatMoney(decimal.NewFromFloat(row.Value), row.Unit)
		}
		out.Summary[i] = item
	}
	return out
}

// FormatMoney renders amount in the conventions of currency, e.g.
// R$1.234,56 for BRL. Unknown codes fall back to "1234.56 XYZ".
func FormatMoney(amount decimal.Decimal, currency string) string {
	if money.GetCurrency(currency) == nil {
		return amount.StringFixed(2) + " " + currency
	}
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, currency).Display()
}
