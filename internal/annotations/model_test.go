package annotations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendgraph/internal/models"
)

var errBackendDown = errors.New("backend down")

// flakyBackend fails Create after okCreates successful calls
type flakyBackend struct {
	*MemoryBackend
	mu        sync.Mutex
	okCreates int
}

func (b *flakyBackend) Create(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.okCreates <= 0 {
		return models.Annotation{}, errBackendDown
	}
	b.okCreates--
	return b.MemoryBackend.Create(ctx, a)
}

var testViewer = models.Viewer{Name: "Viewer", Email: "viewer@example.com"}

func TestScope(t *testing.T) {
	assert.Equal(t, "global", Scope{}.Key())
	assert.False(t, Scope{}.Persisted())
	assert.Equal(t, "42", Scope{DashboardItem: "42"}.Key())
	assert.True(t, Scope{DashboardItem: "42"}.Persisted())
}

func TestModelCreateNow(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := NewModel(backend, Scope{DashboardItem: "42"}, testViewer)
	m.now = func() time.Time { return time.Date(2021, 2, 1, 12, 0, 0, 0, time.UTC) }

	var notified [][]models.Annotation
	cancel := m.Subscribe(func(list []models.Annotation) { notified = append(notified, list) })
	defer cancel()

	a, err := m.CreateNow(ctx, "  deploy v2  ", day("2021-01-02"))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, IsStaged(a))
	assert.Equal(t, "deploy v2", a.Content)
	assert.Equal(t, "42", a.DashboardItem)
	assert.Equal(t, &models.Creator{FirstName: "Viewer", Email: "viewer@example.com"}, a.CreatedBy)
	assert.Equal(t, time.Date(2021, 2, 1, 12, 0, 0, 0, time.UTC), a.CreatedAt)

	require.Len(t, notified, 1)
	assert.Equal(t, []models.Annotation{a}, notified[0])

	stored, err := backend.List(ctx, Scope{DashboardItem: "42"})
	require.NoError(t, err)
	assert.Equal(t, []models.Annotation{a}, stored)

	_, err = m.CreateNow(ctx, "   ", day("2021-01-02"))
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestModelCreateNowBackendFailure(t *testing.T) {
	m := NewModel(&flakyBackend{MemoryBackend: NewMemoryBackend()}, Scope{DashboardItem: "1"}, testViewer)
	_, err := m.CreateNow(context.Background(), "x", day("2021-01-01"))
	assert.ErrorIs(t, err, errBackendDown)
	assert.Empty(t, m.List())
}

func TestModelStagedAndCommit(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend(), okCreates: 1}
	m := NewModel(backend, Scope{}, models.Viewer{})

	first, err := m.CreateStaged("first", day("2021-01-01"))
	require.NoError(t, err)
	assert.True(t, IsStaged(first))
	assert.Nil(t, first.CreatedBy)
	_, err = m.CreateStaged("second", day("2021-01-02"))
	require.NoError(t, err)

	assert.Len(t, m.List(), 2, "staged annotations are listed immediately")
	persisted, _ := backend.List(ctx, Scope{})
	assert.Empty(t, persisted)

	written, err := m.Commit(ctx)
	assert.Equal(t, 1, written)
	assert.ErrorIs(t, err, errBackendDown)
	require.Len(t, m.Staged(), 1)
	assert.Equal(t, "second", m.Staged()[0].Content)

	backend.okCreates = 1
	written, err = m.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Empty(t, m.Staged())

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.False(t, IsStaged(list[0]))
	assert.False(t, IsStaged(list[1]))

	persisted, _ = backend.List(ctx, Scope{})
	assert.Len(t, persisted, 2)
}

func TestModelLoadAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	_, err := backend.Create(ctx, models.Annotation{Content: "existing", DateMarker: day("2021-01-01")})
	require.NoError(t, err)

	m := NewModel(backend, Scope{}, testViewer)
	calls := 0
	cancel := m.Subscribe(func([]models.Annotation) { calls++ })
	require.NoError(t, m.Load(ctx))
	assert.Equal(t, 1, calls)
	assert.Len(t, m.List(), 1)

	cancel()
	_, err = m.CreateStaged("later", day("2021-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRegistryLoadsOncePerScope(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(NewMemoryBackend(), testViewer)

	a, err := r.For(ctx, Scope{DashboardItem: "7"})
	require.NoError(t, err)
	b, err := r.For(ctx, Scope{DashboardItem: "7"})
	require.NoError(t, err)
	assert.Same(t, a, b)

	g, err := r.For(ctx, Scope{})
	require.NoError(t, err)
	assert.NotSame(t, a, g)
	assert.Equal(t, testViewer, r.Viewer())
	assert.NoError(t, r.Close())
}

func TestSubmitChoosesCreationMode(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	dashboard := NewModel(backend, Scope{DashboardItem: "9"}, testViewer)
	a, err := Submit(ctx, dashboard, "now", day("2021-01-01"))
	require.NoError(t, err)
	assert.False(t, IsStaged(a))
	assert.Empty(t, dashboard.Staged())

	insight := NewModel(backend, Scope{}, testViewer)
	b, err := Submit(ctx, insight, "later", day("2021-01-01"))
	require.NoError(t, err)
	assert.True(t, IsStaged(b))
	assert.Len(t, insight.Staged(), 1)
}

func TestSubscribersSeeLatestCollection(t *testing.T) {
	m := NewModel(NewMemoryBackend(), Scope{}, testViewer)

	var (
		mu       sync.Mutex
		last     []models.Annotation
		stalled  bool
		released = make(chan struct{})
	)
	m.Subscribe(func(list []models.Annotation) {
		mu.Lock()
		slow := !stalled && len(list) == 1
		if slow {
			stalled = true
		}
		mu.Unlock()
		if slow {
			<-released
		}
		mu.Lock()
		last = list
		mu.Unlock()
	})

	day := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for _, content := range []string{"first", "second"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			_, err := m.CreateStaged(content, day)
			assert.NoError(t, err)
		}(content)
	}
	time.Sleep(20 * time.Millisecond)
	close(released)
	wg.Wait()

	require.Len(t, m.List(), 2)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, last, 2)
}
