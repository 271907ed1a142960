package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2021-01-02", time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2021-01-02T10:00", time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)},
		{"2021-01-02 10:30:15", time.Date(2021, 1, 2, 10, 30, 15, 0, time.UTC)},
		{" 2021-01-02T10:00:00Z ", time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDay(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDay("Jan 2")
	assert.Error(t, err)
}

func TestSeriesCloneIsIndependent(t *testing.T) {
	s := Series{Label: "pageviews", Data: Floats(1, 2), Labels: []string{"a", "b"}, Days: []string{"d1", "d2"}}
	c := s.Clone()
	c.Data[0] = Float(9)
	c.Labels = c.Labels[:1]

	assert.Equal(t, 1.0, *s.Data[0])
	assert.Len(t, s.Labels, 2)
}

func TestChartTypeIsLine(t *testing.T) {
	assert.True(t, ChartType("").IsLine())
	assert.True(t, ChartLine.IsLine())
	assert.False(t, ChartBar.IsLine())
	assert.False(t, ChartDoughnut.IsLine())
}

func TestAxisGeometryPositionAt(t *testing.T) {
	g := AxisGeometry{LeftEdge: 100, TickInterval: 20, TopOffset: 12}
	for i := 0; i < 5; i++ {
		assert.Equal(t, 100+float64(i)*20, g.PositionAt(i))
	}
}
