package fetchers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
)

// ReleaseFetcher reads release notes feeds
type ReleaseFetcher struct {
	client *resty.Client
	parser *gofeed.Parser
}

// NewReleaseFetcher creates a feed fetcher
func NewReleaseFetcher(client *resty.Client, parser *gofeed.Parser) *ReleaseFetcher {
	return &ReleaseFetcher{client: client, parser: parser}
}

// Fetch returns the feed's items as published
func (f *ReleaseFetcher) Fetch(ctx context.Context, url string) ([]*gofeed.Item, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode())
	}

	feed, err := f.parser.ParseString(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed.Items, nil
}
