package annotations

import (
	"sort"
	"time"

	"trendgraph/internal/models"
)

// Groups holds annotations bucketed by their floored date marker
type Groups struct {
	Granularity Granularity
	buckets     map[int64][]models.Annotation
}

// GranularityFor infers the bucket unit from the first two axis days. A label set
// with fewer than two parseable days is bucketed by day.
func GranularityFor(labeledDates []string) Granularity {
	if len(labeledDates) < 2 {
		return Day
	}
	first, err := models.ParseDay(labeledDates[0])
	if err != nil {
		return Day
	}
	second, err := models.ParseDay(labeledDates[1])
	if err != nil {
		return Day
	}
	return InferGranularity(first, second)
}

// Regroup buckets annotations by DateMarker floored to the granularity inferred
// from labeledDates. Order inside a bucket follows list.
func Regroup(list []models.Annotation, labeledDates []string) Groups {
	g := Groups{
		Granularity: GranularityFor(labeledDates),
		buckets:     make(map[int64][]models.Annotation),
	}
	for _, a := range list {
		key := bucketKey(a.DateMarker, g.Granularity)
		g.buckets[key] = append(g.buckets[key], a)
	}
	return g
}

func bucketKey(t time.Time, g Granularity) int64 {
	return Floor(t.UTC(), g).Unix()
}

// Bucket returns the annotations sharing t's floored date
func (g Groups) Bucket(t time.Time) []models.Annotation {
	return g.buckets[bucketKey(t, g.Granularity)]
}

// BucketForDay is Bucket for an axis day label; unparseable labels have no bucket
func (g Groups) BucketForDay(day string) []models.Annotation {
	t, err := models.ParseDay(day)
	if err != nil {
		return nil
	}
	return g.Bucket(t)
}

// Len is the number of non-empty buckets
func (g Groups) Len() int {
	return len(g.buckets)
}

// Keys returns the bucket start times in ascending order
func (g Groups) Keys() []time.Time {
	keys := make([]time.Time, 0, len(g.buckets))
	for k := range g.buckets {
		keys = append(keys, time.Unix(k, 0).UTC())
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

// Marker is one annotation badge drawn above the x-axis
type Marker struct {
	Index       int                 `json:"index"`
	Day         string              `json:"day"`
	Left        float64             `json:"left"`
	Top         float64             `json:"top"`
	Count       int                 `json:"count"`
	Annotations []models.Annotation `json:"annotations"`
}

// Render places a marker at every label index whose day falls into a bucket.
// Several indices sharing one bucket each get their own marker.
func (g Groups) Render(labeledDates []string, geom models.AxisGeometry) []Marker {
	var markers []Marker
	for i, day := range labeledDates {
		bucket := g.BucketForDay(day)
		if len(bucket) == 0 {
			continue
		}
		markers = append(markers, Marker{
			Index:       i,
			Day:         day,
			Left:        geom.PositionAt(i),
			Top:         geom.TopOffset,
			Count:       len(bucket),
			Annotations: bucket,
		})
	}
	return markers
}
