package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// SnapshotPrefix starts every snapshot folder name
const SnapshotPrefix = "Snapshot-"

// GenerateSnapshotFolderPath generates a consistent folder path for snapshots
// Format: YYYY/MM/DD/Snapshot-YYYY-MM-DD-HH-MM-SS
func GenerateSnapshotFolderPath(timestamp time.Time) string {
	return fmt.Sprintf("%04d/%02d/%02d/%s%04d-%02d-%02d-%02d-%02d-%02d",
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		SnapshotPrefix,
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		timestamp.Hour(), timestamp.Minute(), timestamp.Second())
}

// ParseSnapshotFolderPath reads the timestamp back from a snapshot folder or a file inside it
func ParseSnapshotFolderPath(p string) (time.Time, bool) {
	for _, part := range strings.Split(path.Clean(p), "/") {
		if !strings.HasPrefix(part, SnapshotPrefix) {
			continue
		}
		t, err := time.Parse("2006-01-02-15-04-05", strings.TrimPrefix(part, SnapshotPrefix))
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".json"):
		return "application/json"
	case strings.HasSuffix(filename, ".txt"):
		return "text/plain"
	case strings.HasSuffix(filename, ".html"):
		return "text/html"
	case strings.HasSuffix(filename, ".css"):
		return "text/css"
	case strings.HasSuffix(filename, ".md"):
		return "text/markdown"
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".jpg"), strings.HasSuffix(filename, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(filename, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// cleanKey turns a caller path into an object key without leading slash
func cleanKey(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// dirPrefix is the listing prefix for a directory key, empty for the root
func dirPrefix(dir string) string {
	key := cleanKey(dir)
	if key == "" {
		return ""
	}
	return key + "/"
}
