package models

// ChartType selects how a panel is drawn
type ChartType string

const (
	ChartLine     ChartType = "line"
	ChartBar      ChartType = "bar"
	ChartDoughnut ChartType = "doughnut"
)

// IsLine reports whether the type is drawn as a line chart (unset means line)
func (c ChartType) IsLine() bool {
	return c == "" || c == ChartLine
}

// PropertyFilter is a single filter applied to the action behind a series
type PropertyFilter struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Operator string `json:"operator,omitempty"` // empty means "exact"
	Type     string `json:"type,omitempty"`
}

// Action describes the event or action a series counts
type Action struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Properties []PropertyFilter `json:"properties,omitempty"`
}

// Series is one named sequence of samples aligned by index with Labels and Days
type Series struct {
	Label      string     `json:"label"`
	ChartLabel string     `json:"chartLabel,omitempty"`
	Count      float64    `json:"count"`
	Data       []*float64 `json:"data"`
	Labels     []string   `json:"labels"`
	Days       []string   `json:"days"`
	Dates      []string   `json:"dates,omitempty"` // comparison dates, used when Compare is set
	Compare    bool       `json:"compare,omitempty"`
	Action     *Action    `json:"action,omitempty"`
}

// Clone returns a copy whose slices can be modified without touching s
func (s Series) Clone() Series {
	c := s
	c.Data = append([]*float64(nil), s.Data...)
	c.Labels = append([]string(nil), s.Labels...)
	c.Days = append([]string(nil), s.Days...)
	if s.Dates != nil {
		c.Dates = append([]string(nil), s.Dates...)
	}
	return c
}

// Dataset is a Series decorated for display
type Dataset struct {
	Series

	BorderColor     string `json:"borderColor"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Fill            bool   `json:"fill"`
	BorderWidth     int    `json:"borderWidth"`
	PointHitRadius  int    `json:"pointHitRadius"`
	BorderDash      []int  `json:"borderDash,omitempty"`
	Dotted          bool   `json:"dotted,omitempty"` // in-progress overlay copy
}

// Float returns a pointer to v, for building Data slices
func Float(v float64) *float64 {
	return &v
}

// Floats converts plain values into a Data slice without nulls
func Floats(values ...float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}
