package charts

import (
	"math"

	"trendgraph/internal/models"
)

// XAxisKey names the category axis in Instance.Scale lookups
const XAxisKey = "x-axis-0"

// markerTopPadding is added below the axis top for markers and the add button
const markerTopPadding = 12

// Canvas is the pixel size a chart is laid out in
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scale is the resolved pixel extent of an axis
type Scale struct {
	Left      float64
	Right     float64
	Top       float64
	TickCount int
}

// Interval is the spacing between adjacent ticks
func (s Scale) Interval() float64 {
	if s.TickCount < 2 {
		return 0
	}
	return (s.Right - s.Left) / float64(s.TickCount-1)
}

// AxisGeometry converts the scale into the overlay handoff
func (s Scale) AxisGeometry() models.AxisGeometry {
	return models.AxisGeometry{
		LeftEdge:     s.Left,
		TickInterval: s.Interval(),
		TopOffset:    s.Top + markerTopPadding,
	}
}

// NearestIndex maps a pointer x to the closest tick index.
// Pointers left of the first half-interval resolve to nothing.
func (s Scale) NearestIndex(x float64) (int, bool) {
	switch s.TickCount {
	case 0:
		return 0, false
	case 1:
		return 0, x >= s.Left
	}

	iv := s.Interval()
	lo := s.Left - iv/2
	hi := s.Right + iv/2
	if x < lo {
		return 0, false
	}
	idx := int(math.Floor((x - lo) * float64(s.TickCount) / (hi - lo)))
	if idx >= s.TickCount {
		if x > hi {
			return 0, false
		}
		idx = s.TickCount - 1
	}
	return idx, true
}

// PixelAt is the x of tick index i
func (s Scale) PixelAt(i int) float64 {
	return float64(i)*s.Interval() + s.Left
}
