package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name       string
		buildValue string
		envVersion string
		expected   string
	}{
		{name: "build value wins", buildValue: "3.0.0", envVersion: "1.2.3", expected: "3.0.0"},
		{name: "version from environment variable", envVersion: "1.2.3", expected: "1.2.3"},
		{name: "pre-release from environment", envVersion: "2.0.0-beta.1", expected: "2.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := Version
			defer func() { Version = old }()
			Version = tt.buildValue
			t.Setenv("APP_VERSION", tt.envVersion)

			if got := GetVersion(); got != tt.expected {
				t.Errorf("Expected version %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestGetVersionFromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "VERSION"), []byte("4.5.6\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()
	t.Setenv("APP_VERSION", "")

	if got := GetVersion(); got != "4.5.6" {
		t.Errorf("Expected version from file, got %q", got)
	}
}

func TestGetVersionFallback(t *testing.T) {
	t.Setenv("APP_VERSION", "")
	if got := GetVersion(); got == "" {
		t.Error("Expected a non-empty fallback version")
	}
}
