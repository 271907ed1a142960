package annotations

import (
	"context"

	"trendgraph/internal/fetchers"
	"trendgraph/internal/models"
)

// RemoteBackend stores annotations through a remote annotations API
type RemoteBackend struct {
	client *fetchers.AnnotationClient
}

// NewRemoteBackend wraps an API client
func NewRemoteBackend(client *fetchers.AnnotationClient) *RemoteBackend {
	return &RemoteBackend{client: client}
}

// List fetches the scope's annotations
func (b *RemoteBackend) List(ctx context.Context, scope Scope) ([]models.Annotation, error) {
	return b.client.List(ctx, scope.Key())
}

// Create posts a; the API assigns the id
func (b *RemoteBackend) Create(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	return b.client.Create(ctx, a)
}

// Close is a no-op
func (b *RemoteBackend) Close() error {
	return nil
}
