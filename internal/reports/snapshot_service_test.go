package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trendgraph/internal/annotations"
	"trendgraph/internal/charts"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
	"trendgraph/internal/storage"
)

type fakePanel struct {
	props       charts.Props
	contentType string
	collection  annotations.Collection
	renderErr   error
}

func (f *fakePanel) Props() charts.Props { return f.props }

func (f *fakePanel) State() charts.State {
	return charts.State{
		Type:        models.ChartLine,
		Canvas:      charts.Canvas{Width: 640, Height: 320},
		Hover:       models.HoverSelection{Enabled: true, PixelX: 120, LabelIndex: 1},
		Granularity: annotations.Day,
	}
}

func (f *fakePanel) ContentType() string { return f.contentType }

func (f *fakePanel) Render(w io.Writer) error {
	if f.renderErr != nil {
		return f.renderErr
	}
	_, err := io.WriteString(w, "<chart/>")
	return err
}

func (f *fakePanel) Collection() annotations.Collection { return f.collection }

func newFakePanel(t *testing.T) *fakePanel {
	t.Helper()
	viewer := models.Viewer{Name: "Ada", Email: "ada@example.com"}
	model := annotations.NewModel(annotations.NewMemoryBackend(), annotations.Scope{}, viewer)
	_, err := model.CreateStaged("Launched **v2**", time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	return &fakePanel{
		contentType: "text/html; charset=utf-8",
		collection:  model,
		props: charts.Props{
			Datasets: []models.Series{{
				Label:  "Pageviews",
				Data:   models.Floats(1, 2, 3),
				Labels: []string{"1 Jan", "2 Jan", "3 Jan"},
				Days:   []string{"2021-01-01", "2021-01-02", "2021-01-03"},
			}},
		},
	}
}

func newTestService(t *testing.T) (*SnapshotService, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "snapshots")
	client, err := storage.NewLocalStorageClient(root)
	require.NoError(t, err)

	svc := NewSnapshotService(client, models.Viewer{Name: "Ada"}, palette.ThemeFor("white"))
	svc.now = func() time.Time { return time.Date(2025, 9, 17, 14, 30, 45, 0, time.UTC) }
	return svc, root
}

func TestSnapshotServiceCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Create(ctx, newFakePanel(t), "")
	require.NoError(t, err)

	folder := "2025/09/17/Snapshot-2025-09-17-14-30-45"
	assert.Equal(t, folder, result.Folder)
	assert.Equal(t, folder+"/index.html", result.Index)
	assert.Equal(t, []string{
		folder + "/chart.html",
		folder + "/export.xlsx",
		folder + "/index.html",
		folder + "/panel.json",
	}, result.Files)

	index, err := svc.GetFile(ctx, result.Index)
	require.NoError(t, err)
	page := string(index)
	assert.Contains(t, page, "<title>Pageviews</title>")
	assert.Contains(t, page, `<iframe src="chart.html"`)
	assert.Contains(t, page, "<strong>v2</strong>")
	assert.Contains(t, page, `class="staged"`)
	assert.Contains(t, page, "Line chart")

	chart, err := svc.GetFile(ctx, folder+"/chart.html")
	require.NoError(t, err)
	assert.Equal(t, "<chart/>", string(chart))
}

func TestSnapshotPanelJSONResetsHover(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Create(ctx, newFakePanel(t), "Weekly")
	require.NoError(t, err)

	raw, err := svc.GetFile(ctx, result.Folder+"/panel.json")
	require.NoError(t, err)
	var decoded struct {
		State struct {
			Hover models.HoverSelection `json:"hover"`
		} `json:"state"`
		Annotations []models.Annotation `json:"annotations"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, models.NoHover, decoded.State.Hover)
	assert.Len(t, decoded.Annotations, 1)
}

func TestSnapshotExportWorkbook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Create(ctx, newFakePanel(t), "")
	require.NoError(t, err)

	raw, err := svc.GetFile(ctx, result.Folder+"/export.xlsx")
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trends")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Pageviews"}, rows[0])
	assert.Equal(t, []string{"2 Jan", "2"}, rows[2])

	notes, err := f.GetRows("Annotations")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Launched **v2**", notes[1][1])
}

func TestSnapshotPNGChart(t *testing.T) {
	svc, _ := newTestService(t)
	panel := newFakePanel(t)
	panel.contentType = "image/png"

	result, err := svc.Create(context.Background(), panel, "")
	require.NoError(t, err)
	assert.Contains(t, result.Files, result.Folder+"/chart.png")

	index, err := svc.GetFile(context.Background(), result.Index)
	require.NoError(t, err)
	assert.Contains(t, string(index), `<img src="chart.png"`)
}

func TestSnapshotRenderError(t *testing.T) {
	svc, root := newTestService(t)
	panel := newFakePanel(t)
	panel.renderErr = charts.ErrNoInstance

	_, err := svc.Create(context.Background(), panel, "")
	require.ErrorIs(t, err, charts.ErrNoInstance)

	list, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list, "nothing stored under %s", root)
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	panel := newFakePanel(t)

	for _, ts := range []time.Time{
		time.Date(2025, 9, 17, 14, 30, 45, 0, time.UTC),
		time.Date(2025, 9, 18, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 23, 59, 59, 0, time.UTC),
	} {
		ts := ts
		svc.now = func() time.Time { return ts }
		_, err := svc.Create(ctx, panel, "")
		require.NoError(t, err)
	}
	require.NoError(t, svc.orchestrator.storage.StoreFile(ctx, "notes/readme.txt", []byte("x")))

	list, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025/09/18/Snapshot-2025-09-18-08-00-00", list[0].Folder)
	assert.Equal(t, "2025/08/01/Snapshot-2025-08-01-23-59-59", list[2].Folder)
	assert.Equal(t, list[0].Folder+"/index.html", list[0].Index)
	assert.Equal(t, []string{"chart.html", "export.xlsx", "index.html", "panel.json"}, list[0].Files)

	limited, err := svc.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAnnotationRowsSortedByDate(t *testing.T) {
	created := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := AnnotationRows([]models.Annotation{
		{ID: "2", Content: "later", DateMarker: time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), CreatedAt: created},
		{ID: "1", Content: "earlier", DateMarker: time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), CreatedAt: created,
			CreatedBy: &models.Creator{FirstName: "Grace", Email: "grace@example.com"}},
	}, models.Viewer{Name: "Ada"})

	require.Len(t, rows, 2)
	assert.Equal(t, "2021-01-03", rows[0].Date)
	assert.Equal(t, "Grace", rows[0].Author)
	assert.Equal(t, "Ada", rows[1].Author)
	assert.True(t, strings.Contains(string(rows[1].HTML), "later"))
}

func TestToTitleCase(t *testing.T) {
	assert.Equal(t, "Line", ToTitleCase("line"))
	assert.Equal(t, "Hello World", ToTitleCase("hELLO world"))
	assert.Equal(t, "", ToTitleCase(""))
}
