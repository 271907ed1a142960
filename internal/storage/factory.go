package storage

import (
	"context"
	"errors"
	"fmt"

	"trendgraph/internal/config"
)

// DeploymentMode selects where snapshots are stored
type DeploymentMode string

const (
	DeploymentLocal DeploymentMode = "local"
	DeploymentGCS   DeploymentMode = "gcs"
	DeploymentS3    DeploymentMode = "s3"
)

// NewStorageClient creates the storage client named by cfg.SnapshotStorage
func NewStorageClient(ctx context.Context, cfg *config.Config) (StorageClient, error) {
	if cfg == nil {
		return nil, errors.New("storage config is required")
	}

	switch DeploymentMode(cfg.SnapshotStorage) {
	case DeploymentLocal, "":
		localClient, err := NewLocalStorageClient(cfg.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return localClient, nil

	case DeploymentGCS:
		gcsClient, err := NewGCSClient(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return gcsClient, nil

	case DeploymentS3:
		s3Client, err := NewS3Client(ctx, cfg.S3Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return s3Client, nil

	default:
		return nil, fmt.Errorf("unsupported snapshot storage: %s", cfg.SnapshotStorage)
	}
}
