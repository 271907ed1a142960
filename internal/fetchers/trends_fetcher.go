package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"trendgraph/internal/models"
)

// TrendsFetcher reads series from a trends endpoint
type TrendsFetcher struct {
	client *resty.Client
}

// NewTrendsFetcher creates a trends fetcher over client
func NewTrendsFetcher(client *resty.Client) *TrendsFetcher {
	return &TrendsFetcher{client: client}
}

// trendsEnvelope is the wrapped response shape {"result": [...]}
type trendsEnvelope struct {
	Result []models.Series `json:"result"`
}

// Fetch gets url and decodes either a bare series array or a result envelope
func (f *TrendsFetcher) Fetch(ctx context.Context, url string) ([]models.Series, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trends: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("trends API returned status %d", resp.StatusCode())
	}
	return DecodeSeries(resp.Body())
}

// DecodeSeries parses a series payload as produced by the trends API
func DecodeSeries(body []byte) ([]models.Series, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var series []models.Series
		if err := json.Unmarshal(body, &series); err != nil {
			return nil, fmt.Errorf("failed to parse trends response: %w", err)
		}
		return series, nil
	}
	var envelope trendsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse trends response: %w", err)
	}
	return envelope.Result, nil
}
