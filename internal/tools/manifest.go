package tools

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
)

const (
	manifestFileName = "manifest.json"
	lockFileName     = "install.lock"
	// CacheDirEnv overrides the per-user tool cache root.
	CacheDirEnv = "TAILBREEZE_TOOLS_DIR"
)

// CacheRoot determines the per-user directory holding downloaded CLI binaries.
func CacheRoot() (string, error) {
	if override, ok := os.LookupEnv(CacheDirEnv); ok && override != "" {
		expanded, err := homedir.Expand(override)
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", CacheDirEnv, err)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", CacheDirEnv, err)
		}
		return abs, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Tailbreeze", "cli"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "Tailbreeze", "cli"), nil
		}
		return filepath.Join(home, "AppData", "Local", "Tailbreeze", "cli"), nil
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "tailbreeze", "cli"), nil
		}
		return filepath.Join(home, ".local", "share", "tailbreeze", "cli"), nil
	}
}

func loadManifest(root string) (Manifest, error) {
	contents, err := os.ReadFile(filepath.Join(root, manifestFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{Entries: map[string]ManifestEntry{}}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(contents, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]ManifestEntry{}
	}
	return manifest, nil
}

// saveManifest must be called with the install lock held.
func saveManifest(root string, m Manifest) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("prepare manifest directory: %w", err)
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(root, "manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(root, manifestFileName)); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

func computeChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
