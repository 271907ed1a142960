package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trendgraph/internal/config"
	"trendgraph/internal/logger"
)

const seriesJSON = `[{
	"label": "Pageviews",
	"data": [1, 2, 3, 4],
	"labels": ["1 Jan", "2 Jan", "3 Jan", "4 Jan"],
	"days": ["2021-01-01", "2021-01-02", "2021-01-03", "2021-01-04"]
}]`

const releasesRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Releases</title>
    <item>
      <title>v1.0.0</title>
      <pubDate>Sat, 02 Jan 2021 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>v0.9.0</title>
      <pubDate>Thu, 10 Dec 2020 10:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	previous := logger.Global()
	t.Cleanup(func() { logger.SetGlobal(previous) })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// sqliteFlags points the backend at a fresh database file
func sqliteFlags(t *testing.T) []string {
	t.Helper()
	return []string{"--backend", "sqlite", "--dsn", "file:" + filepath.Join(t.TempDir(), "annotations.db")}
}

func TestRenderHTML(t *testing.T) {
	series := writeTemp(t, "series.json", seriesJSON)
	output := filepath.Join(t.TempDir(), "chart.html")

	out, err := run(t, "render", series, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+output+" (1 series, 0 markers)")

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
}

func TestRenderPNGWithMarkers(t *testing.T) {
	db := sqliteFlags(t)
	_, err := run(t, append([]string{"annotations", "add", "Launch", "--dashboard-item", "42", "--date", "2021-01-02"}, db...)...)
	require.NoError(t, err)

	series := writeTemp(t, "series.json", seriesJSON)
	output := filepath.Join(t.TempDir(), "chart.png")
	args := append([]string{"render", series, "--engine", "png", "--width", "480", "--height", "300",
		"--dashboard-item", "42", "--output", output}, db...)
	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 series, 1 markers)")

	png, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRenderWorkbook(t *testing.T) {
	series := writeTemp(t, "series.json", seriesJSON)
	dir := t.TempDir()
	workbook := filepath.Join(dir, "export.xlsx")

	_, err := run(t, "render", series, "--output", filepath.Join(dir, "chart.html"), "--xlsx", workbook)
	require.NoError(t, err)

	f, err := excelize.OpenFile(workbook)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Trends")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Date", "Pageviews"}, rows[0])
	assert.Equal(t, []string{"4 Jan", "4"}, rows[4])
}

func TestRenderFromSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result": `+seriesJSON+`}`)
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "chart.html")
	out, err := run(t, "render", "--source", srv.URL, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 series, 0 markers)")
	assert.FileExists(t, output)

	out, err = run(t, "render", "--source", srv.URL+"/a", "--source", srv.URL+"/b", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 series, 0 markers)")
}

func TestRenderErrors(t *testing.T) {
	_, err := run(t, "render")
	assert.ErrorContains(t, err, "pass a series file or --source")

	empty := writeTemp(t, "empty.json", `[]`)
	_, err = run(t, "render", empty)
	assert.ErrorIs(t, err, errNoSeries)

	misaligned := writeTemp(t, "bad.json", `[{"label": "x", "data": [1, 2], "days": ["2021-01-01"]}]`)
	_, err = run(t, "render", misaligned)
	assert.Error(t, err)

	series := writeTemp(t, "series.json", seriesJSON)
	_, err = run(t, "render", series, "--engine", "svg")
	assert.ErrorContains(t, err, "unsupported CHART_ENGINE")
}

func TestAnnotationsAddAndList(t *testing.T) {
	db := sqliteFlags(t)
	out, err := run(t, append([]string{"annotations", "add", "Launched v2", "--dashboard-item", "42",
		"--date", "2021-01-02", "--viewer-name", "Ada", "--viewer-email", "ada@example.com"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "on 2021-01-02")

	out, err = run(t, append([]string{"annotations", "list", "--dashboard-item", "42"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Launched v2")
	assert.Contains(t, out, "2021-01-02")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "1 annotations in 42")

	out, err = run(t, append([]string{"annotations", "list", "--dashboard-item", "7"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "0 annotations in 7")
}

func TestAnnotationsListGranularity(t *testing.T) {
	db := sqliteFlags(t)
	_, err := run(t, append([]string{"annotations", "add", "Saturday release", "--dashboard-item", "42", "--date", "2021-01-02"}, db...)...)
	require.NoError(t, err)

	out, err := run(t, append([]string{"annotations", "list", "--dashboard-item", "42", "--granularity", "week"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "2020-12-27")

	_, err = run(t, append([]string{"annotations", "list", "--granularity", "fortnight"}, db...)...)
	assert.ErrorContains(t, err, "unknown granularity")
}

func TestAnnotationsAddValidation(t *testing.T) {
	db := sqliteFlags(t)
	_, err := run(t, append([]string{"annotations", "add", "x", "--dashboard-item", "42", "--date", "yesterday"}, db...)...)
	assert.ErrorContains(t, err, "invalid date")

	_, err = run(t, append([]string{"annotations", "add", "   ", "--dashboard-item", "42", "--date", "2021-01-02"}, db...)...)
	assert.Error(t, err)

	_, err = run(t, append([]string{"annotations", "add", "x", "--dashboard-item", "42"}, db...)...)
	assert.ErrorContains(t, err, "date")
}

func TestAnnotationsImportFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, releasesRSS)
	}))
	defer srv.Close()

	db := sqliteFlags(t)
	args := append([]string{"annotations", "import-feed", srv.URL, "--dashboard-item", "42", "--since", "2021-01-01"}, db...)
	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 of 2 feed items")

	out, err = run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 of 2 feed items")

	out, err = run(t, append([]string{"annotations", "list", "--dashboard-item", "42"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "v1.0.0")
	assert.NotContains(t, out, "v0.9.0")
}

func TestAnnotationsCommitFromSnapshot(t *testing.T) {
	panelJSON := writeTemp(t, "panel.json", `{
		"generated_at": "2025-09-17T14:30:45Z",
		"annotations": [
			{"id": "b6f0", "content": "Already saved", "date_marker": "2021-01-01T00:00:00Z"},
			{"id": "staged-1", "content": "Draft note", "date_marker": "2021-01-03T00:00:00Z"},
			{"id": "staged-2", "content": "Second draft", "date_marker": "2021-01-04T00:00:00Z"}
		]
	}`)
	db := sqliteFlags(t)

	_, err := run(t, append([]string{"annotations", "commit", panelJSON}, db...)...)
	assert.ErrorContains(t, err, "--dashboard-item")

	out, err := run(t, append([]string{"annotations", "commit", panelJSON, "--dashboard-item", "42"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Committed 2 annotations to 42")

	out, err = run(t, append([]string{"annotations", "list", "--dashboard-item", "42"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Draft note")
	assert.Contains(t, out, "Second draft")
	assert.NotContains(t, out, "Already saved")
}

func TestReadStagedArray(t *testing.T) {
	path := writeTemp(t, "staged.json", `[
		{"content": "No id", "date_marker": "2021-01-02T00:00:00Z"},
		{"id": "staged-9", "content": "Staged", "date_marker": "2021-01-03T00:00:00Z"},
		{"id": "saved", "content": "Saved", "date_marker": "2021-01-04T00:00:00Z"}
	]`)
	list, err := readStaged(path)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "No id", list[0].Content)
	assert.Equal(t, "Staged", list[1].Content)

	_, err = readStaged(writeTemp(t, "broken.json", `{`))
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	db := sqliteFlags(t)

	out, err := run(t, append([]string{"migrate"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated sqlite annotation schema to latest")

	out, err = run(t, append([]string{"migrate", "--version", "0"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "to version 0")

	out, err = run(t, append([]string{"migrate", "--version", "1"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "to version 1")
}

func TestMigrateNeedsSQLBackend(t *testing.T) {
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "not SQL")
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("TRENDGRAPH_BACKEND", "bogus")
	_, err := run(t, "annotations", "list")
	assert.ErrorContains(t, err, "unsupported ANNOTATION_BACKEND")

	// flags win over the environment
	_, err = run(t, "annotations", "list", "--backend", "memory")
	assert.NoError(t, err)
}

func TestConfigFile(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "annotations.db")
	cfgFile := writeTemp(t, "trendgraph.yaml", "backend: sqlite\ndsn: "+dsn+"\nlog-level: error\n")

	_, err := run(t, "annotations", "add", "From config", "--dashboard-item", "42", "--date", "2021-01-02", "--config", cfgFile)
	require.NoError(t, err)

	out, err := run(t, "annotations", "list", "--dashboard-item", "42", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "From config")
}

func TestUnknownLogLevel(t *testing.T) {
	_, err := run(t, "annotations", "list", "--log-level", "loud")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, config.GetVersion())
}
