package charts

import (
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
)

// Style defaults shared by every rendered dataset
const (
	defaultBorderWidth    = 1
	defaultPointHitRadius = 8
)

// inProgressDash is the dash pattern of the overlay while the last bucket is incomplete
var inProgressDash = []int{10, 10}

// BuildDatasets turns input series into the datasets handed to the engine.
// Line charts get a historical copy of every series without its last point,
// followed by a dotted overlay copy holding only the last two points.
// Bar and doughnut charts get one dataset per series.
func BuildDatasets(series []models.Series, chartType models.ChartType, isInProgress bool, colors []string) []models.Dataset {
	if !chartType.IsLine() {
		out := make([]models.Dataset, len(series))
		for i, s := range series {
			out[i] = styleDataset(s.Clone(), i, chartType, colors)
		}
		return out
	}

	out := make([]models.Dataset, 0, 2*len(series))
	for i, s := range series {
		out = append(out, styleDataset(historical(s), i, chartType, colors))
	}
	for i, s := range series {
		d := styleDataset(inProgress(s), i, chartType, colors)
		d.Dotted = true
		if isInProgress {
			d.BorderDash = append([]int(nil), inProgressDash...)
		}
		out = append(out, d)
	}
	return out
}

// historical drops the most recent point
func historical(s models.Series) models.Series {
	c := s.Clone()
	c.Data = dropLast(c.Data)
	c.Labels = dropLast(c.Labels)
	c.Days = dropLast(c.Days)
	return c
}

// inProgress keeps only the last two samples when there are more than two
func inProgress(s models.Series) models.Series {
	c := s.Clone()
	n := len(c.Data)
	if n <= 2 {
		return c
	}
	for i := 0; i < n-2; i++ {
		c.Data[i] = nil
	}
	return c
}

func dropLast[T any](s []T) []T {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}

func styleDataset(s models.Series, index int, chartType models.ChartType, colors []string) models.Dataset {
	d := models.Dataset{
		Series:         s,
		BorderColor:    palette.Pick(colors, index),
		Fill:           false,
		BorderWidth:    defaultBorderWidth,
		PointHitRadius: defaultPointHitRadius,
	}
	if chartType == models.ChartBar || chartType == models.ChartDoughnut {
		d.BackgroundColor = d.BorderColor
	}
	return d
}
