package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"trendgraph/internal/logger"
)

// GCSClient handles Google Cloud Storage operations
type GCSClient struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

// NewGCSClient creates a new GCS client
func NewGCSClient(ctx context.Context, bucketName string) (*GCSClient, error) {
	if bucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client: client,
		bucket: bucketName,
		log:    logger.Component("gcs").With(logger.Fields{"bucket": bucketName}),
	}, nil
}

// Close closes the GCS client
func (g *GCSClient) Close() error {
	return g.client.Close()
}

// CreateDir is a no-op: GCS has no directories
func (g *GCSClient) CreateDir(ctx context.Context, dirPath string) error {
	return nil
}

// StoreFile uploads a file with a content type derived from its name
func (g *GCSClient) StoreFile(ctx context.Context, filePath string, fileData []byte) error {
	key := cleanKey(filePath)
	g.log.Debug("Storing file", logger.Fields{"object": key, "bytes": len(fileData)})

	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = GetContentType(key)
	writer.CacheControl = "public, max-age=3600"
	writer.Metadata = map[string]string{
		"generated-at": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := writer.Write(fileData); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write file to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS file upload: %w", err)
	}
	return nil
}

// GetFile retrieves any file from GCS
func (g *GCSClient) GetFile(ctx context.Context, filePath string) ([]byte, error) {
	key := cleanKey(filePath)
	reader, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for file %s: %w", filePath, err)
	}
	defer reader.Close()

	fileData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return fileData, nil
}

// ListDir lists objects under dirPath, sorted
func (g *GCSClient) ListDir(ctx context.Context, dirPath string, recursive bool) ([]string, error) {
	query := &storage.Query{Prefix: dirPrefix(dirPath)}
	if !recursive {
		query.Delimiter = "/"
	}

	it := g.client.Bucket(g.bucket).Objects(ctx, query)
	var files []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		// prefixes stand in for subdirectories when listing with a delimiter
		if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		files = append(files, attrs.Name)
	}

	sort.Strings(files)
	return files, nil
}

// FileExists checks if an object exists
func (g *GCSClient) FileExists(ctx context.Context, filePath string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(cleanKey(filePath)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat object %s: %w", filePath, err)
	}
	return true, nil
}
