package annotations

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendgraph/internal/models"
)

func TestAuthorName(t *testing.T) {
	viewer := models.Viewer{Name: "Val", Email: "val@example.com"}

	assert.Equal(t, "Ann", AuthorName(models.Annotation{CreatedBy: &models.Creator{FirstName: "Ann", Email: "ann@example.com"}}, viewer))
	assert.Equal(t, "ann@example.com", AuthorName(models.Annotation{CreatedBy: &models.Creator{Email: "ann@example.com"}}, viewer))
	assert.Equal(t, "Val", AuthorName(models.Annotation{}, viewer))
	assert.Equal(t, "val@example.com", AuthorName(models.Annotation{}, models.Viewer{Email: "val@example.com"}))
}

func newOverlayFixture(t *testing.T, scope Scope) (*Model, *Overlay) {
	t.Helper()
	m := NewModel(NewMemoryBackend(), scope, testViewer)
	o := NewOverlay(m, testViewer, WithOverlayDispatch(InlineDispatch))
	t.Cleanup(o.Close)
	return m, o
}

func TestOverlayFollowsCollection(t *testing.T) {
	m, o := newOverlayFixture(t, Scope{DashboardItem: "1"})
	labels := []string{"2021-01-01", "2021-01-02", "2021-01-03"}
	o.SetLabels(labels)
	geom := models.AxisGeometry{LeftEdge: 50, TickInterval: 100, TopOffset: 20}

	assert.Empty(t, o.Markers(geom))

	_, err := m.CreateNow(context.Background(), "launch", day("2021-01-02"))
	require.NoError(t, err)

	markers := o.Markers(geom)
	require.Len(t, markers, 1)
	assert.Equal(t, 1, markers[0].Index)
	assert.Equal(t, 150.0, markers[0].Left)
	assert.Equal(t, Day, o.Granularity())
}

func TestOverlayRegroupsOnLabelChange(t *testing.T) {
	m, o := newOverlayFixture(t, Scope{})
	_, err := m.CreateStaged("mid month", day("2021-01-15"))
	require.NoError(t, err)

	o.SetLabels([]string{"2021-01-14", "2021-01-15"})
	require.Len(t, o.Markers(models.AxisGeometry{}), 1)
	assert.Equal(t, 1, o.Markers(models.AxisGeometry{})[0].Index)

	o.SetLabels([]string{"2021-01-01", "2021-02-01"})
	assert.Equal(t, Month, o.Granularity())
	markers := o.Markers(models.AxisGeometry{})
	require.Len(t, markers, 1)
	assert.Equal(t, 0, markers[0].Index)
}

func TestOverlayPanel(t *testing.T) {
	m, o := newOverlayFixture(t, Scope{DashboardItem: "1"})
	o.SetLabels([]string{"2021-01-01", "2021-01-02"})

	_, err := m.CreateNow(context.Background(), "**bold** move", day("2021-01-02"))
	require.NoError(t, err)

	_, err = o.Panel(0)
	assert.ErrorIs(t, err, ErrNoMarker)
	_, err = o.Panel(5)
	assert.ErrorIs(t, err, ErrNoMarker)

	panel, err := o.Panel(1)
	require.NoError(t, err)
	assert.Equal(t, "2021-01-02", panel.Day)
	require.Len(t, panel.Entries, 1)
	entry := panel.Entries[0]
	assert.Equal(t, "Viewer", entry.Author)
	assert.Equal(t, "2021-01-02", entry.Date)
	assert.Contains(t, string(entry.HTML), "<strong>bold</strong>")
	assert.False(t, entry.Staged)
}

func TestOverlaySubmitClearsDraft(t *testing.T) {
	m, o := newOverlayFixture(t, Scope{DashboardItem: "1"})
	o.SetLabels([]string{"2021-01-01", "2021-01-02"})
	_, err := m.CreateNow(context.Background(), "first", day("2021-01-02"))
	require.NoError(t, err)

	assert.ErrorIs(t, o.SetDraft(0, "nothing here"), ErrNoMarker)
	require.NoError(t, o.SetDraft(1, "second"))
	panel, _ := o.Panel(1)
	assert.Equal(t, "second", panel.Draft)

	require.NoError(t, o.Submit(context.Background(), 1))

	panel, err = o.Panel(1)
	require.NoError(t, err)
	assert.Empty(t, panel.Draft)
	require.Len(t, panel.Entries, 2)
	assert.Equal(t, "second", panel.Entries[1].Content)
	assert.Equal(t, day("2021-01-02"), m.List()[1].DateMarker)
}

func TestOverlaySubmitStagesWithoutDashboardItem(t *testing.T) {
	m, o := newOverlayFixture(t, Scope{})
	o.SetLabels([]string{"2021-01-01", "2021-01-02"})
	_, err := m.CreateStaged("first", day("2021-01-01"))
	require.NoError(t, err)

	require.NoError(t, o.SetDraft(0, "another"))
	require.NoError(t, o.Submit(context.Background(), 0))
	assert.Len(t, m.Staged(), 2)

	panel, err := o.Panel(0)
	require.NoError(t, err)
	assert.True(t, panel.Entries[1].Staged)
}

func TestOverlaySubmitFailureIsDropped(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend(), okCreates: 1}
	m := NewModel(backend, Scope{DashboardItem: "1"}, testViewer)
	var wg sync.WaitGroup
	o := NewOverlay(m, testViewer, WithOverlayDispatch(func(fn func()) {
		wg.Add(1)
		go func() { defer wg.Done(); fn() }()
	}))
	defer o.Close()
	o.SetLabels([]string{"2021-01-01"})
	_, err := m.CreateNow(context.Background(), "ok", day("2021-01-01"))
	require.NoError(t, err)

	require.NoError(t, o.SetDraft(0, "will fail"))
	require.NoError(t, o.Submit(context.Background(), 0))
	wg.Wait()

	assert.Len(t, m.List(), 1)
	panel, _ := o.Panel(0)
	assert.Empty(t, panel.Draft)
}

func TestContentHTMLEscapesRawHTML(t *testing.T) {
	out := string(ContentHTML("<script>alert(1)</script>\nline two"))
	assert.False(t, strings.Contains(out, "<script>"))
}
