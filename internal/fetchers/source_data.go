package fetchers

import (
	"time"

	"trendgraph/internal/models"
)

// Source records how many series one URL contributed
type Source struct {
	URL    string `json:"url"`
	Series int    `json:"series"`
}

// SourceData is the merged result of fetching several trends URLs
type SourceData struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Sources   []Source        `json:"sources"`
	Series    []models.Series `json:"series"`
}
