package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Detect reports every version present in the cache root or its manifest.
// Manifest entries whose binary has disappeared are pruned.
func (p *Provisioner) Detect(ctx context.Context) ([]Status, error) {
	manifest, err := loadManifest(p.root)
	if err != nil {
		return nil, err
	}

	versions := map[string]struct{}{}
	dirs, err := os.ReadDir(p.root)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read tool cache: %w", err)
	}
	for _, d := range dirs {
		if d.IsDir() {
			versions[d.Name()] = struct{}{}
		}
	}
	for version := range manifest.Entries {
		versions[version] = struct{}{}
	}

	statuses := make([]Status, 0, len(versions))
	var pruned []string
	for version := range versions {
		status, prune := p.detectOne(ctx, version, manifest.Entries[version])
		if prune {
			pruned = append(pruned, version)
		}
		if status.Path == "" && !prune {
			continue
		}
		statuses = append(statuses, status)
	}

	if len(pruned) > 0 {
		err := p.withLock(ctx, func() error {
			current, err := loadManifest(p.root)
			if err != nil {
				return err
			}
			for _, version := range pruned {
				delete(current.Entries, version)
			}
			return saveManifest(p.root, current)
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Version < statuses[j].Version })
	return statuses, nil
}

// detectOne reports prune when a manifest entry no longer has a binary on disk.
func (p *Provisioner) detectOne(ctx context.Context, version string, entry ManifestEntry) (Status, bool) {
	path := filepath.Join(p.root, version, executableName(p.goos))
	status := Status{
		Version:     version,
		URL:         entry.URL,
		Checksum:    entry.Checksum,
		InstalledAt: entry.InstalledAt,
	}

	if _, err := os.Stat(path); err != nil {
		if entry.Version == "" {
			return status, false
		}
		status.Notes = append(status.Notes, "manifest entry pruned: binary missing")
		return status, true
	}
	status.Path = path

	if err := p.verify(ctx, path); err != nil {
		status.Error = err.Error()
		return status, false
	}
	status.Installed = true

	if entry.Version == "" {
		status.Notes = append(status.Notes, "not recorded in manifest")
	} else if entry.Checksum != "" {
		sum, err := computeChecksum(path)
		if err != nil {
			status.Notes = append(status.Notes, fmt.Sprintf("checksum error: %v", err))
		} else if sum != entry.Checksum {
			status.Notes = append(status.Notes, "checksum differs from manifest")
		}
	}
	return status, false
}
