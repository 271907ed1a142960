package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"trendgraph/internal/models"
)

// AnnotationClient talks to a remote annotations REST API
type AnnotationClient struct {
	client  *resty.Client
	baseURL string
	token   string
}

// annotationPage is the list response {"results": [...]}
type annotationPage struct {
	Results []models.Annotation `json:"results"`
}

// NewAnnotationClient creates a client for baseURL. token is sent as a bearer
// token when set.
func NewAnnotationClient(client *resty.Client, baseURL, token string) *AnnotationClient {
	return &AnnotationClient{client: client, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

func (c *AnnotationClient) request(ctx context.Context) *resty.Request {
	r := c.client.R().SetContext(ctx)
	if c.token != "" {
		r.SetAuthToken(c.token)
	}
	return r
}

// List returns the annotations stored under scope
func (c *AnnotationClient) List(ctx context.Context, scope string) ([]models.Annotation, error) {
	var page annotationPage
	resp, err := c.request(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("scope", scope).
		SetResult(&page).
		Get(c.baseURL + "/annotations")
	if err != nil {
		return nil, fmt.Errorf("failed to list remote annotations: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("annotations API returned status %d", resp.StatusCode())
	}
	return page.Results, nil
}

// Create posts a and returns the stored annotation
func (c *AnnotationClient) Create(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	var created models.Annotation
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(a).
		SetResult(&created).
		Post(c.baseURL + "/annotations")
	if err != nil {
		return models.Annotation{}, fmt.Errorf("failed to create remote annotation: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return models.Annotation{}, fmt.Errorf("annotations API returned status %d", resp.StatusCode())
	}
	return created, nil
}
