package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the trend graph service
type Config struct {
	// Server configuration
	Port        string `env:"PORT,default=8981"`
	Environment string `env:"ENVIRONMENT,default=development"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	// Chart rendering
	DefaultTheme string `env:"DEFAULT_THEME,default=white"`
	PaletteFile  string `env:"PALETTE_FILE"`
	ChartEngine  string `env:"CHART_ENGINE,default=echarts"`
	ChartWidth   int    `env:"CHART_WIDTH,default=900"`
	ChartHeight  int    `env:"CHART_HEIGHT,default=500"`

	// Annotation storage
	AnnotationBackend  string `env:"ANNOTATION_BACKEND,default=memory"`
	AnnotationDBDSN    string `env:"ANNOTATION_DB_DSN"`
	AnnotationTable    string `env:"ANNOTATION_TABLE,default=trendgraph-annotations"`
	AnnotationAPIURL   string `env:"ANNOTATION_API_URL"`
	AnnotationAPIToken string `env:"ANNOTATION_API_TOKEN"`

	// Snapshot storage
	SnapshotStorage string `env:"SNAPSHOT_STORAGE,default=local"`
	SnapshotDir     string `env:"SNAPSHOT_DIR,default=./snapshots"`
	GCSBucket       string `env:"GCS_BUCKET"`
	S3Bucket        string `env:"S3_BUCKET"`

	// Identity new annotations are attributed to
	ViewerName  string `env:"VIEWER_NAME"`
	ViewerEmail string `env:"VIEWER_EMAIL"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom loads configuration from a fixed map, for tests and tools
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(env))
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, lookuper); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotenv loads variables from .env style files that exist. Variables
// already set in the environment win.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks enumerated settings and the settings they require
func (c *Config) Validate() error {
	switch c.ChartEngine {
	case "echarts", "png":
	default:
		return fmt.Errorf("unsupported CHART_ENGINE %q", c.ChartEngine)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight)
	}

	switch c.AnnotationBackend {
	case "memory", "sqlite":
	case "mysql", "postgres":
		if c.AnnotationDBDSN == "" {
			return fmt.Errorf("ANNOTATION_DB_DSN is required for the %s backend", c.AnnotationBackend)
		}
	case "dynamodb":
		if c.AnnotationTable == "" {
			return fmt.Errorf("ANNOTATION_TABLE is required for the dynamodb backend")
		}
	case "remote":
		if c.AnnotationAPIURL == "" {
			return fmt.Errorf("ANNOTATION_API_URL is required for the remote backend")
		}
	default:
		return fmt.Errorf("unsupported ANNOTATION_BACKEND %q", c.AnnotationBackend)
	}

	switch c.SnapshotStorage {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for gcs snapshot storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 snapshot storage")
		}
	default:
		return fmt.Errorf("unsupported SNAPSHOT_STORAGE %q", c.SnapshotStorage)
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
