package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "8981", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "white", cfg.DefaultTheme)
	assert.Equal(t, "echarts", cfg.ChartEngine)
	assert.Equal(t, 900, cfg.ChartWidth)
	assert.Equal(t, 500, cfg.ChartHeight)
	assert.Equal(t, "memory", cfg.AnnotationBackend)
	assert.Equal(t, "trendgraph-annotations", cfg.AnnotationTable)
	assert.Equal(t, "local", cfg.SnapshotStorage)
	assert.Equal(t, "./snapshots", cfg.SnapshotDir)
	assert.False(t, cfg.IsProduction())
}

func TestLoadCustomValues(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{
		"PORT":               "9000",
		"ENVIRONMENT":        "production",
		"LOG_LEVEL":          "debug",
		"LOG_FORMAT":         "text",
		"DEFAULT_THEME":      "dark",
		"CHART_ENGINE":       "png",
		"CHART_WIDTH":        "1200",
		"CHART_HEIGHT":       "600",
		"ANNOTATION_BACKEND": "postgres",
		"ANNOTATION_DB_DSN":  "postgres://u:p@localhost/db",
		"SNAPSHOT_STORAGE":   "s3",
		"S3_BUCKET":          "charts",
		"VIEWER_NAME":        "Ada",
		"VIEWER_EMAIL":       "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "png", cfg.ChartEngine)
	assert.Equal(t, 1200, cfg.ChartWidth)
	assert.Equal(t, "postgres", cfg.AnnotationBackend)
	assert.Equal(t, "charts", cfg.S3Bucket)
	assert.Equal(t, "Ada", cfg.ViewerName)
	assert.Equal(t, "ada@example.com", cfg.ViewerEmail)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown engine", map[string]string{"CHART_ENGINE": "svg"}},
		{"zero width", map[string]string{"CHART_WIDTH": "0"}},
		{"unknown backend", map[string]string{"ANNOTATION_BACKEND": "redis"}},
		{"mysql without dsn", map[string]string{"ANNOTATION_BACKEND": "mysql"}},
		{"remote without url", map[string]string{"ANNOTATION_BACKEND": "remote"}},
		{"gcs without bucket", map[string]string{"SNAPSHOT_STORAGE": "gcs"}},
		{"s3 without bucket", map[string]string{"SNAPSHOT_STORAGE": "s3"}},
		{"unknown storage", map[string]string{"SNAPSHOT_STORAGE": "ftp"}},
		{"malformed width", map[string]string{"CHART_WIDTH": "wide"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), tt.env)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("CHART_ENGINE", "png")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7777", cfg.Port)
	assert.Equal(t, "png", cfg.ChartEngine)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TRENDGRAPH_DOTENV_PROBE=from-file\nPORT_PROBE_KEEP=file\n"), 0644))

	t.Setenv("PORT_PROBE_KEEP", "env")
	defer os.Unsetenv("TRENDGRAPH_DOTENV_PROBE")

	require.NoError(t, LoadDotenv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("TRENDGRAPH_DOTENV_PROBE"))
	assert.Equal(t, "env", os.Getenv("PORT_PROBE_KEEP"))
}
