package fetchers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"trendgraph/internal/logger"
	"trendgraph/internal/models"
)

// DataFetcher fetches chart inputs from external sources
type DataFetcher struct {
	client     *resty.Client
	trends     *TrendsFetcher
	releases   *ReleaseFetcher
	normalizer *SeriesNormalizer
	log        *logger.Logger
}

// NewDataFetcher creates a new data fetcher instance
func NewDataFetcher() *DataFetcher {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(2 * time.Second)

	return &DataFetcher{
		client:     client,
		trends:     NewTrendsFetcher(client),
		releases:   NewReleaseFetcher(client, gofeed.NewParser()),
		normalizer: NewSeriesNormalizer(),
		log:        logger.Component("fetchers"),
	}
}

// Client exposes the shared HTTP client
func (f *DataFetcher) Client() *resty.Client {
	return f.client
}

// FetchSeries fetches and normalizes the series behind one trends URL
func (f *DataFetcher) FetchSeries(ctx context.Context, url string) ([]models.Series, error) {
	series, err := f.trends.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return f.normalizer.Normalize(series)
}

// FetchReleases fetches the items of an RSS or Atom feed
func (f *DataFetcher) FetchReleases(ctx context.Context, url string) ([]*gofeed.Item, error) {
	return f.releases.Fetch(ctx, url)
}

// FetchAll fetches every trends URL concurrently and returns the series in URL
// order. Any failed source fails the whole fetch.
func (f *DataFetcher) FetchAll(ctx context.Context, urls ...string) (*SourceData, error) {
	f.log.Info("Starting series fetch", logger.Fields{"sources": len(urls)})

	type result struct {
		index  int
		series []models.Series
		err    error
	}
	results := make(chan result, len(urls))
	for i, url := range urls {
		go func(i int, url string) {
			series, err := f.FetchSeries(ctx, url)
			if err != nil {
				err = fmt.Errorf("source %s: %w", url, err)
			}
			results <- result{index: i, series: series, err: err}
		}(i, url)
	}

	bySource := make([][]models.Series, len(urls))
	for completed := 0; completed < len(urls); completed++ {
		select {
		case r := <-results:
			if r.err != nil {
				return nil, r.err
			}
			bySource[r.index] = r.series
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	data := &SourceData{FetchedAt: time.Now().UTC()}
	for i, series := range bySource {
		data.Sources = append(data.Sources, Source{URL: urls[i], Series: len(series)})
		data.Series = append(data.Series, series...)
	}
	f.log.Info("Series fetch completed", logger.Fields{"series": len(data.Series)})
	return data, nil
}
