package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trendgraph/internal/models"
)

func TestScaleNearestIndex(t *testing.T) {
	s := Scale{Left: 100, Right: 180, Top: 300, TickCount: 5}
	assert.Equal(t, 20.0, s.Interval())

	tests := []struct {
		x    float64
		want int
		ok   bool
	}{
		{89, 0, false},
		{90, 0, true},
		{100, 0, true},
		{109.9, 0, true},
		{110, 1, true},
		{140, 2, true},
		{180, 4, true},
		{190, 4, true},
		{191, 0, false},
	}
	for _, tt := range tests {
		got, ok := s.NearestIndex(tt.x)
		assert.Equal(t, tt.ok, ok, "x=%v", tt.x)
		if tt.ok {
			assert.Equal(t, tt.want, got, "x=%v", tt.x)
		}
	}
}

func TestScaleNearestIndexFewTicks(t *testing.T) {
	_, ok := Scale{Left: 10, Right: 10}.NearestIndex(50)
	assert.False(t, ok)

	one := Scale{Left: 10, Right: 10, TickCount: 1}
	idx, ok := one.NearestIndex(50)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = one.NearestIndex(5)
	assert.False(t, ok)
}

func TestScaleAxisGeometry(t *testing.T) {
	s := Scale{Left: 100, Right: 180, Top: 300, TickCount: 5}
	assert.Equal(t, models.AxisGeometry{LeftEdge: 100, TickInterval: 20, TopOffset: 312}, s.AxisGeometry())
	assert.Equal(t, 160.0, s.PixelAt(3))
}
