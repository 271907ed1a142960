package annotations

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"trendgraph/internal/models"
)

// MemoryBackend keeps annotations in process memory
type MemoryBackend struct {
	mu      sync.RWMutex
	byScope map[string][]models.Annotation
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{byScope: make(map[string][]models.Annotation)}
}

// List returns the scope's annotations in creation order
func (b *MemoryBackend) List(ctx context.Context, scope Scope) ([]models.Annotation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Annotation(nil), b.byScope[scope.Key()]...), nil
}

// Create stores a and assigns it an id
func (b *MemoryBackend) Create(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return models.Annotation{}, err
	}
	a.ID = uuid.NewString()
	key := Scope{DashboardItem: a.DashboardItem}.Key()
	b.mu.Lock()
	b.byScope[key] = append(b.byScope[key], a)
	b.mu.Unlock()
	return a, nil
}

// Close is a no-op
func (b *MemoryBackend) Close() error {
	return nil
}
