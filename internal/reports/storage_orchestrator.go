package reports

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"trendgraph/internal/logger"
	"trendgraph/internal/storage"
)

// SnapshotInfo describes one stored snapshot
type SnapshotInfo struct {
	Folder    string    `json:"folder"`
	CreatedAt time.Time `json:"created_at"`
	Index     string    `json:"index"`
	Files     []string  `json:"files"`
}

// StorageOrchestrator handles storing generated snapshot files and finding them again
type StorageOrchestrator struct {
	storage storage.StorageClient
	log     *logger.Logger
}

// NewStorageOrchestrator creates a new storage orchestrator
func NewStorageOrchestrator(client storage.StorageClient) *StorageOrchestrator {
	return &StorageOrchestrator{
		storage: client,
		log:     logger.Component("snapshots"),
	}
}

// StoreAllFiles writes every generated file under the snapshot folder and
// returns the stored paths in name order
func (so *StorageOrchestrator) StoreAllFiles(ctx context.Context, files *GeneratedFiles) ([]string, error) {
	if err := so.storage.CreateDir(ctx, files.FolderPath); err != nil {
		return nil, fmt.Errorf("failed to create snapshot folder: %w", err)
	}

	names := make([]string, 0, len(files.Files))
	for name := range files.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	stored := make([]string, 0, len(names))
	for _, name := range names {
		p := path.Join(files.FolderPath, name)
		if err := so.storage.StoreFile(ctx, p, files.Files[name]); err != nil {
			return stored, fmt.Errorf("failed to store %s: %w", name, err)
		}
		stored = append(stored, p)
	}
	so.log.Info("Snapshot stored", logger.Fields{"folder": files.FolderPath, "files": len(stored)})
	return stored, nil
}

// ListSnapshots groups stored files by snapshot folder, newest first. A
// limit of zero or less returns all of them.
func (so *StorageOrchestrator) ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	paths, err := so.storage.ListDir(ctx, "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	byFolder := make(map[string]*SnapshotInfo)
	for _, p := range paths {
		created, ok := storage.ParseSnapshotFolderPath(p)
		if !ok {
			continue
		}
		folder := snapshotFolder(p)
		info, ok := byFolder[folder]
		if !ok {
			info = &SnapshotInfo{Folder: folder, CreatedAt: created}
			byFolder[folder] = info
		}
		name := strings.TrimPrefix(p, folder+"/")
		info.Files = append(info.Files, name)
		if name == IndexFile {
			info.Index = p
		}
	}

	list := make([]SnapshotInfo, 0, len(byFolder))
	for _, info := range byFolder {
		sort.Strings(info.Files)
		list = append(list, *info)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Folder > list[j].Folder
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// GetFile reads one stored snapshot file
func (so *StorageOrchestrator) GetFile(ctx context.Context, p string) ([]byte, error) {
	return so.storage.GetFile(ctx, p)
}

// snapshotFolder cuts a stored path after its Snapshot- folder
func snapshotFolder(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, storage.SnapshotPrefix) {
			return strings.Join(parts[:i+1], "/")
		}
	}
	return path.Dir(p)
}
