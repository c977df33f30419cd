package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateRejectsBadFields(t *testing.T) {
	opts := Default()
	opts.ToolVersion = "next"
	opts.ServePath = "app.css"
	opts.DownloadTimeout = "soon"
	opts.Releases.MajorLines = map[string]string{"three": "v3.4.1"}

	err := opts.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"tool_version", "serve_path", "download_timeout", "major_lines"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestCheckWarnsAboutMissingProjectFiles(t *testing.T) {
	dir := t.TempDir()
	opts := Default()

	results := opts.Check(dir)
	if len(results) != 3 {
		t.Fatalf("expected 3 warnings, got %v", results)
	}
	for _, r := range results {
		if r.Level != "warning" {
			t.Fatalf("unexpected level in %v", r)
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, "Styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Styles", "app.css"), []byte(`@import "tailwindcss";`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "wwwroot"), 0o755); err != nil {
		t.Fatal(err)
	}
	opts.ConfigPath = NoConfigFile
	if results := opts.Check(dir); len(results) != 0 {
		t.Fatalf("expected a clean check, got %v", results)
	}
}
