package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStorageClient handles local file system storage operations
type LocalStorageClient struct {
	rootDir string
}

// NewLocalStorageClient creates a new local storage client rooted at rootDir
func NewLocalStorageClient(rootDir string) (*LocalStorageClient, error) {
	if rootDir == "" {
		rootDir = "snapshots"
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory %s: %w", rootDir, err)
	}
	return &LocalStorageClient{rootDir: rootDir}, nil
}

// Close is a no-op for local storage
func (l *LocalStorageClient) Close() error {
	return nil
}

func (l *LocalStorageClient) resolve(p string) string {
	return filepath.Join(l.rootDir, filepath.FromSlash(cleanKey(p)))
}

// CreateDir creates a directory under the root
func (l *LocalStorageClient) CreateDir(ctx context.Context, dirPath string) error {
	if err := os.MkdirAll(l.resolve(dirPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// StoreFile writes a file, creating its parent directories
func (l *LocalStorageClient) StoreFile(ctx context.Context, filePath string, fileData []byte) error {
	full := l.resolve(filePath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filePath, err)
	}
	if err := os.WriteFile(full, fileData, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}
	return nil
}

// GetFile retrieves any file from local storage
func (l *LocalStorageClient) GetFile(ctx context.Context, filePath string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(filePath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return data, nil
}

// ListDir lists files under dirPath, relative to the root and sorted
func (l *LocalStorageClient) ListDir(ctx context.Context, dirPath string, recursive bool) ([]string, error) {
	base := l.resolve(dirPath)
	var files []string

	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == base && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if p != base && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(l.rootDir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dirPath, err)
	}

	sort.Strings(files)
	return files, nil
}

// FileExists checks if a regular file exists at filePath
func (l *LocalStorageClient) FileExists(ctx context.Context, filePath string) (bool, error) {
	info, err := os.Stat(l.resolve(filePath))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	return !info.IsDir() && !strings.HasSuffix(filePath, "/"), nil
}
