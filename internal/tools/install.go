package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"tailbreeze/internal/observability"
	"tailbreeze/internal/process"
)

const defaultLockRetry = 100 * time.Millisecond

// Phase names a step of an install reported through WithProgress.
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseVerifying   Phase = "verifying"
	PhaseInstalled   Phase = "installed"
	PhaseFailed      Phase = "failed"
)

// Provisioner installs CLI binaries into a cache root, one directory per
// version. Installs of the same version are collapsed, and installs of any
// version are serialized both in-process and across processes.
type Provisioner struct {
	root       string
	releases   Releases
	downloader Downloader
	runner     process.Runner
	logger     zerolog.Logger
	goos       string
	goarch     string
	lockRetry  time.Duration
	progress   func(VersionSpec, Phase)

	group singleflight.Group
	mu    sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]*installCall
}

// installCall is the context shared by every caller waiting on one version.
// It is cancelled once the last waiter leaves.
type installCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option customises a Provisioner.
type Option func(*Provisioner)

func WithReleases(r Releases) Option {
	return func(p *Provisioner) { p.releases = r }
}

func WithDownloader(d Downloader) Option {
	return func(p *Provisioner) { p.downloader = d }
}

// WithRunner replaces the runner used for self-checks and Execute.
func WithRunner(r process.Runner) Option {
	return func(p *Provisioner) { p.runner = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Provisioner) { p.logger = l }
}

// WithProgress registers a callback invoked as an install moves between
// phases. It runs on the installing goroutine and must not block.
func WithProgress(fn func(VersionSpec, Phase)) Option {
	return func(p *Provisioner) { p.progress = fn }
}

// WithPlatform overrides the GOOS/GOARCH used to pick release assets.
func WithPlatform(goos, goarch string) Option {
	return func(p *Provisioner) {
		p.goos = goos
		p.goarch = goarch
	}
}

// NewProvisioner returns a Provisioner rooted at root, or at CacheRoot when
// root is empty.
func NewProvisioner(root string, opts ...Option) (*Provisioner, error) {
	if root == "" {
		var err error
		root, err = CacheRoot()
		if err != nil {
			return nil, err
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve tool cache root: %w", err)
	}

	p := &Provisioner{
		root:       abs,
		releases:   DefaultReleases(),
		downloader: NewHTTPDownloader(0),
		runner:     process.ExecRunner{},
		logger:     zerolog.Nop(),
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
		lockRetry:  defaultLockRetry,
		inflight:   map[string]*installCall{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Root is the absolute tool cache root.
func (p *Provisioner) Root() string { return p.root }

// Releases is the release table used for downloads and CDN fallbacks.
func (p *Provisioner) Releases() Releases { return p.releases }

func (p *Provisioner) binaryPath(spec VersionSpec) string {
	return filepath.Join(p.root, spec.String(), executableName(p.goos))
}

// LocalPath returns where the binary for spec lives, creating its version
// directory.
func (p *Provisioner) LocalPath(spec VersionSpec) (string, error) {
	path := p.binaryPath(spec)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare version dir: %w", err)
	}
	return path, nil
}

// IsInstalled reports whether a usable binary for spec is already cached.
func (p *Provisioner) IsInstalled(ctx context.Context, spec VersionSpec) bool {
	return p.verify(ctx, p.binaryPath(spec)) == nil
}

func (p *Provisioner) verify(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}

	code, err := p.runner.Run(ctx, path, []string{selfCheckSwitch}, process.RunOptions{})
	if err != nil {
		return fmt.Errorf("self-check: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("self-check exited with code %d", code)
	}
	return nil
}

// EnsureInstalled returns the path of a verified binary for spec, downloading
// it when needed. Concurrent callers for one version share a single download.
// A caller whose ctx ends stops waiting; the shared install is aborted only
// when no caller is left waiting for it.
func (p *Provisioner) EnsureInstalled(ctx context.Context, spec VersionSpec) (string, error) {
	if path := p.binaryPath(spec); p.verify(ctx, path) == nil {
		return path, nil
	}

	key := spec.String()
	path, err := p.await(ctx, key, spec)
	// Joining an install whose earlier waiters all left yields its
	// cancellation even though ctx is live; start a fresh one.
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		path, err = p.await(ctx, key, spec)
	}
	return path, err
}

func (p *Provisioner) await(ctx context.Context, key string, spec VersionSpec) (string, error) {
	call := p.join(ctx, key)
	defer p.leave(key, call)

	ch := p.group.DoChan(key, func() (any, error) {
		return p.install(call.ctx, spec)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s: %w", ErrInstallationFailed, spec, ctx.Err())
	}
}

func (p *Provisioner) join(ctx context.Context, key string) *installCall {
	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()
	call := p.inflight[key]
	if call == nil {
		installCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &installCall{ctx: installCtx, cancel: cancel}
		p.inflight[key] = call
	}
	call.waiters++
	return call
}

func (p *Provisioner) leave(key string, call *installCall) {
	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()
	call.waiters--
	if call.waiters > 0 {
		return
	}
	call.cancel()
	if p.inflight[key] == call {
		delete(p.inflight, key)
	}
}

func (p *Provisioner) install(ctx context.Context, spec VersionSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var path string
	err := p.withLock(ctx, func() error {
		var err error
		path, err = p.installLocked(ctx, spec)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInstallationFailed, spec, err)
	}
	return path, nil
}

// withLock holds the cross-process install lock while fn runs.
func (p *Provisioner) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return fmt.Errorf("prepare cache root: %w", err)
	}
	lock := flock.New(filepath.Join(p.root, lockFileName))
	locked, err := lock.TryLockContext(ctx, p.lockRetry)
	if err != nil {
		return fmt.Errorf("acquire install lock: %w", err)
	}
	if !locked {
		return errors.New("acquire install lock: not acquired")
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func (p *Provisioner) installLocked(ctx context.Context, spec VersionSpec) (string, error) {
	path, err := p.LocalPath(spec)
	if err != nil {
		return "", err
	}
	// Another process or goroutine may have finished while we waited.
	if p.verify(ctx, path) == nil {
		return path, nil
	}

	osID, archID, err := PlatformIdentifier(p.goos, p.goarch)
	if err != nil {
		return "", err
	}
	url := p.releases.DownloadURL(spec, osID, archID)

	log := p.logger.With().Str("version", spec.String()).Str("url", url).Logger()
	log.Info().Msg("downloading tailwind cli")
	start := time.Now()
	p.report(spec, PhaseDownloading)

	checksum, err := p.fetch(ctx, url, path)
	if err == nil {
		p.report(spec, PhaseVerifying)
		if verr := p.verify(ctx, path); verr != nil {
			_ = os.Remove(path)
			err = verr
		}
	}
	observability.RecordInstall(spec.String(), err == nil, time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("install failed")
		p.report(spec, PhaseFailed)
		return "", err
	}

	if err := p.record(ManifestEntry{
		Version:     spec.String(),
		Path:        path,
		URL:         url,
		Checksum:    checksum,
		InstalledAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Warn().Err(err).Msg("update manifest")
	}
	log.Info().Str("path", path).Dur("elapsed", time.Since(start)).Msg("tailwind cli installed")
	p.report(spec, PhaseInstalled)
	return path, nil
}

func (p *Provisioner) report(spec VersionSpec, phase Phase) {
	if p.progress != nil {
		p.progress(spec, phase)
	}
}

// fetch downloads url beside dest and renames it into place, so a partial
// transfer never occupies the final path.
func (p *Provisioner) fetch(ctx context.Context, url, dest string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	h := sha256.New()
	n, err := p.downloader.Download(ctx, url, io.MultiWriter(tmp, h))
	if err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("download %s: empty response", url)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0o755); err != nil {
			return "", fmt.Errorf("chmod: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("finalize download: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (p *Provisioner) record(entry ManifestEntry) error {
	manifest, err := loadManifest(p.root)
	if err != nil {
		return err
	}
	manifest.Entries[entry.Version] = entry
	return saveManifest(p.root, manifest)
}

// Execute runs the CLI for spec to completion, installing it first if needed.
func (p *Provisioner) Execute(ctx context.Context, spec VersionSpec, args []string, opts process.RunOptions) (int, error) {
	path, err := p.EnsureInstalled(ctx, spec)
	if err != nil {
		return -1, err
	}
	return p.runner.Run(ctx, path, args, opts)
}
