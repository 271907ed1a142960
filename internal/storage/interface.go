package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetFile for missing files
var ErrNotFound = errors.New("file not found")

// StorageClient defines the interface for basic storage operations.
// Paths are slash separated and relative to the client's root.
type StorageClient interface {
	// Close closes the storage client
	Close() error

	// CreateDir creates a directory (and any necessary parent directories)
	CreateDir(ctx context.Context, dirPath string) error

	// StoreFile stores a file at the specified path
	StoreFile(ctx context.Context, filePath string, fileData []byte) error

	// GetFile retrieves a file from the specified path
	GetFile(ctx context.Context, filePath string) ([]byte, error)

	// ListDir lists files under a directory
	ListDir(ctx context.Context, dirPath string, recursive bool) ([]string, error)

	// FileExists checks if a file exists at the specified path
	FileExists(ctx context.Context, filePath string) (bool, error)
}
