package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Version is set at build time with -ldflags "-X trendgraph/internal/config.Version=..."
var Version = ""

// GetVersion returns the build version, APP_VERSION, the VERSION file or the
// module version recorded in the binary, in that order
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if envVersion := os.Getenv("APP_VERSION"); envVersion != "" {
		return envVersion
	}
	if v := readVersionFile(); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return strings.TrimPrefix(info.Main.Version, "v")
	}
	return "0.1.0"
}

// readVersionFile looks for VERSION in the working directory and up to two parents
func readVersionFile() string {
	for _, dir := range []string{".", "..", filepath.Join("..", "..")} {
		content, err := os.ReadFile(filepath.Join(dir, "VERSION"))
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(content)); v != "" {
			return v
		}
	}
	return ""
}
