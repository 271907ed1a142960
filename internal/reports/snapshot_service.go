package reports

import (
	"context"
	"fmt"
	"time"

	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
	"trendgraph/internal/storage"
)

// SnapshotResult is returned after a snapshot was stored
type SnapshotResult struct {
	Folder    string    `json:"folder"`
	CreatedAt time.Time `json:"created_at"`
	Index     string    `json:"index"`
	Files     []string  `json:"files"`
}

// SnapshotService orchestrates snapshot generation and storage
type SnapshotService struct {
	generator    *FileGenerator
	orchestrator *StorageOrchestrator
	now          func() time.Time
	log          *logger.Logger
}

// NewSnapshotService creates a new snapshot service writing to client
func NewSnapshotService(client storage.StorageClient, viewer models.Viewer, theme palette.Theme) *SnapshotService {
	return &SnapshotService{
		generator:    NewFileGenerator(viewer, theme),
		orchestrator: NewStorageOrchestrator(client),
		now:          func() time.Time { return time.Now().UTC() },
		log:          logger.Component("snapshots"),
	}
}

// Create renders src and stores the snapshot. The caller must hold whatever
// lock guards src.
func (s *SnapshotService) Create(ctx context.Context, src PanelSource, title string) (*SnapshotResult, error) {
	start := s.now()
	files, err := s.generator.GenerateAllFiles(ctx, src, title, start)
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot: %w", err)
	}

	stored, err := s.orchestrator.StoreAllFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	s.log.Info("Snapshot created", logger.Fields{
		"folder":      files.FolderPath,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &SnapshotResult{
		Folder:    files.FolderPath,
		CreatedAt: files.CreatedAt,
		Index:     files.FolderPath + "/" + IndexFile,
		Files:     stored,
	}, nil
}

// List returns stored snapshots, newest first
func (s *SnapshotService) List(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	return s.orchestrator.ListSnapshots(ctx, limit)
}

// GetFile reads one stored snapshot file
func (s *SnapshotService) GetFile(ctx context.Context, p string) ([]byte, error) {
	return s.orchestrator.GetFile(ctx, p)
}
