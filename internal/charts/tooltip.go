package charts

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"trendgraph/internal/models"
)

// DefaultOperator applies when a property filter carries no operator
const DefaultOperator = "exact"

// OperatorDescriptions maps filter operators to their display text.
// Tooltips use the first word only.
var OperatorDescriptions = map[string]string{
	"exact":         "= equals",
	"is_not":        "≠ doesn't equal",
	"icontains":     "∋ contains",
	"not_icontains": "∌ doesn't contain",
	"regex":         "∼ matches regex",
	"not_regex":     "≁ doesn't match regex",
	"gt":            "> greater than",
	"lt":            "< lower than",
	"is_set":        "✓ is set",
	"is_not_set":    "✕ is not set",
}

var valuePrinter = message.NewPrinter(language.English)

// OperatorSymbol returns the leading word of an operator description
func OperatorSymbol(op string) string {
	if op == "" {
		op = DefaultOperator
	}
	desc, ok := OperatorDescriptions[op]
	if !ok {
		return op
	}
	if i := strings.IndexByte(desc, ' '); i >= 0 {
		return desc[:i]
	}
	return desc
}

// SeriesLabel is the display name of a series followed by its property filters
func SeriesLabel(s models.Series) string {
	label := s.ChartLabel
	if label == "" {
		label = s.Label
	}
	if s.Action == nil || len(s.Action.Properties) == 0 {
		return label
	}
	parts := make([]string, len(s.Action.Properties))
	for i, p := range s.Action.Properties {
		parts[i] = OperatorSymbol(p.Operator) + " " + p.Value
	}
	return label + " (" + strings.Join(parts, ", ") + ")"
}

// FormatValue prints v with digit grouping
func FormatValue(v float64) string {
	return valuePrinter.Sprintf("%v", number.Decimal(v))
}

// TooltipLabel returns the tooltip line for point index of d.
// The second result is false when the point carries no tooltip: overlay
// datasets only label their last point, and a null sample has no value to
// print, so it gets no tooltip rather than a "label - " line.
func TooltipLabel(d models.Dataset, index int) (string, bool) {
	if d.Dotted && index != len(d.Data)-1 {
		return "", false
	}
	if index < 0 || index >= len(d.Data) || d.Data[index] == nil {
		return "", false
	}
	return SeriesLabel(d.Series) + " - " + FormatValue(*d.Data[index]), true
}

// tooltipTable precomputes TooltipLabel for every rendered point; empty means suppressed
func tooltipTable(datasets []models.Dataset) [][]string {
	table := make([][]string, len(datasets))
	for i, d := range datasets {
		row := make([]string, len(d.Data))
		for j := range d.Data {
			row[j], _ = TooltipLabel(d, j)
		}
		table[i] = row
	}
	return table
}
