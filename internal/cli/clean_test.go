package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestGlobFiles(t *testing.T) {
	dir := t.TempDir()

	subdir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.log", "b.log"} {
		if err := os.WriteFile(filepath.Join(subdir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "top.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("walks nested files", func(t *testing.T) {
		files, err := globFiles(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 3 {
			t.Fatalf("got %d files, want 3: %v", len(files), files)
		}
	})

	t.Run("nonexistent dir", func(t *testing.T) {
		files, err := globFiles(filepath.Join(dir, "nope"))
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 0 {
			t.Fatalf("got %d files, want 0", len(files))
		}
	})

	t.Run("dir size", func(t *testing.T) {
		size, err := dirSize(dir)
		if err != nil {
			t.Fatal(err)
		}
		if size != 3 {
			t.Fatalf("got %d bytes, want 3", size)
		}
	})
}

func TestRemoveFileEntry(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.css")
	if err := os.WriteFile(file, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("dry run does not delete", func(t *testing.T) {
		cleanDryRun = true
		defer func() { cleanDryRun = false }()

		result := cleanResult{DryRun: true}
		removeFileEntry(file, io.Discard, &result)

		if result.Removed != 1 {
			t.Fatalf("got removed=%d, want 1", result.Removed)
		}
		if result.FreedBytes != 5 {
			t.Fatalf("got freed=%d, want 5", result.FreedBytes)
		}
		if _, err := os.Stat(file); err != nil {
			t.Fatalf("file should still exist after dry run: %v", err)
		}
	})

	t.Run("actual remove deletes file", func(t *testing.T) {
		result := cleanResult{}
		removeFileEntry(file, io.Discard, &result)

		if result.Removed != 1 {
			t.Fatalf("got removed=%d, want 1", result.Removed)
		}
		if _, err := os.Stat(file); !os.IsNotExist(err) {
			t.Fatal("file should have been removed")
		}
	})

	t.Run("nonexistent file is skipped", func(t *testing.T) {
		result := cleanResult{}
		removeFileEntry(filepath.Join(dir, "nope.css"), io.Discard, &result)
		if result.Skipped != 1 {
			t.Fatalf("got skipped=%d, want 1", result.Skipped)
		}
	})
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{40 * 1024 * 1024, "40.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
