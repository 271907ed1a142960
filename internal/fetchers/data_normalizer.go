package fetchers

import (
	"fmt"

	"trendgraph/internal/models"
)

// SeriesNormalizer fills in derivable series fields and rejects misaligned ones
type SeriesNormalizer struct{}

// NewSeriesNormalizer creates a new series normalizer instance
func NewSeriesNormalizer() *SeriesNormalizer {
	return &SeriesNormalizer{}
}

// Normalize returns copies of series with Labels, Days and Count completed.
// Data, Labels and Days must end up the same length and every day must parse.
func (n *SeriesNormalizer) Normalize(series []models.Series) ([]models.Series, error) {
	out := make([]models.Series, 0, len(series))
	for i, s := range series {
		s = s.Clone()
		if len(s.Labels) == 0 {
			s.Labels = append([]string(nil), s.Days...)
		}
		if len(s.Days) == 0 {
			s.Days = append([]string(nil), s.Labels...)
		}
		if len(s.Data) != len(s.Labels) || len(s.Data) != len(s.Days) {
			return nil, fmt.Errorf("series %d (%s): %d values for %d labels and %d days",
				i, s.Label, len(s.Data), len(s.Labels), len(s.Days))
		}
		if s.Compare && len(s.Dates) != len(s.Data) {
			return nil, fmt.Errorf("series %d (%s): compare series needs %d dates, got %d",
				i, s.Label, len(s.Data), len(s.Dates))
		}
		for _, day := range s.Days {
			if _, err := models.ParseDay(day); err != nil {
				return nil, fmt.Errorf("series %d (%s): %w", i, s.Label, err)
			}
		}
		if s.Count == 0 {
			for _, v := range s.Data {
				if v != nil {
					s.Count += *v
				}
			}
		}
		out = append(out, s)
	}
	return out, nil
}
