package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Remove deletes the cached binary for spec along with its manifest entry
// and reports the bytes freed. Removing a version that is not cached is not
// an error.
func (p *Provisioner) Remove(ctx context.Context, spec VersionSpec) (int64, error) {
	var freed int64
	err := p.withLock(ctx, func() error {
		dir := filepath.Join(p.root, spec.String())
		size, err := dirSize(dir)
		if err != nil {
			return err
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		freed = size

		manifest, err := loadManifest(p.root)
		if err != nil {
			return err
		}
		if _, ok := manifest.Entries[spec.String()]; !ok {
			return nil
		}
		delete(manifest.Entries, spec.String())
		return saveManifest(p.root, manifest)
	})
	return freed, err
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return total, err
}
