package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"tailbreeze/internal/config"
	"tailbreeze/internal/observability"
	"tailbreeze/internal/paths"
	"tailbreeze/internal/process"
	"tailbreeze/internal/scaffold"
	"tailbreeze/internal/tools"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("supervisor already started")

// Provisioner is the subset of tools.Provisioner the supervisor needs.
type Provisioner interface {
	EnsureInstalled(ctx context.Context, spec tools.VersionSpec) (string, error)
	IsInstalled(ctx context.Context, spec tools.VersionSpec) bool
	LocalPath(spec tools.VersionSpec) (string, error)
}

var _ Provisioner = (*tools.Provisioner)(nil)

// Supervisor prepares project files, provisions the CLI and keeps one watch
// process alive for the host's lifetime.
type Supervisor struct {
	opts   config.Options
	paths  paths.ProjectPaths
	prov   Provisioner
	runner process.Runner
	logger zerolog.Logger

	fallback bool
	minify   bool

	mu       sync.Mutex
	state    State
	err      error
	version  tools.VersionSpec
	handle   process.Watch
	stopping bool
}

// New builds a supervisor. Environment-dependent switches are resolved here,
// once.
func New(opts config.Options, env config.Environment, pp paths.ProjectPaths, prov Provisioner, runner process.Runner, logger zerolog.Logger) *Supervisor {
	opts.ApplyDefaults()
	if runner == nil {
		runner = process.ExecRunner{}
	}
	isDev := env.IsDevelopment()
	s := &Supervisor{
		opts:     opts,
		paths:    pp,
		prov:     prov,
		runner:   runner,
		logger:   logger.With().Str("component", "supervisor").Logger(),
		fallback: opts.CDNFallback.Resolve(isDev),
		minify:   opts.Minify.Resolve(!isDev),
	}
	observability.RecordState(Idle.String(), StateNames())
	return s
}

// FallbackPermitted reports whether failures degrade instead of aborting.
func (s *Supervisor) FallbackPermitted() bool { return s.fallback }

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure that moved the supervisor to Degraded, if any.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Version is the resolved CLI version; valid once Start has parsed it.
func (s *Supervisor) Version() tools.VersionSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// setState moves to next unless Stop has been called, and reports whether it
// did.
func (s *Supervisor) setState(next State) bool {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state = next
	s.mu.Unlock()
	s.logTransition(prev, next)
	return true
}

func (s *Supervisor) logTransition(prev, next State) {
	if prev == next {
		return
	}
	observability.RecordState(next.String(), StateNames())
	s.logger.Debug().Str("from", prev.String()).Str("to", next.String()).Msg("state change")
}

// Start runs the startup sequence. An invalid version is returned as is.
// Other failures degrade when fallback is permitted and are otherwise
// returned as a *StageError.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle || s.stopping {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = Preparing
	s.mu.Unlock()
	s.logTransition(Idle, Preparing)

	spec, err := tools.ParseVersion(s.opts.ToolVersion)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.setState(Stopped)
		return err
	}
	s.mu.Lock()
	s.version = spec
	s.mu.Unlock()

	if !s.opts.WatchEnabled() {
		s.logger.Debug().Msg("watch mode disabled")
		s.setState(Disabled)
		return nil
	}
	s.logger.Info().Str("version", spec.String()).Msg("starting tailwind")

	if err := s.prepare(spec); err != nil {
		return s.fail(StagePrepare, err)
	}

	if !s.setState(Provisioning) {
		return nil
	}
	binary, err := s.provision(ctx, spec)
	if err != nil {
		return s.fail(StageProvision, err)
	}
	if s.isStopping() {
		return nil
	}

	args := tools.CommandLine{
		Input:  s.paths.Input,
		Output: s.paths.Output,
		Config: s.paths.TailwindConfig,
		Minify: s.minify,
		Watch:  true,
		Extra:  s.opts.ExtraArgs,
	}.Args()
	s.logger.Info().Str("args", strings.Join(args, " ")).Msg("starting tailwind watch mode")

	handle, err := s.runner.StartWatch(ctx, binary, args, process.RunOptions{Dir: s.paths.Root, Sink: s.logLine})
	if err != nil {
		return s.fail(StageWatch, err)
	}

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		s.closeHandle(handle)
		return nil
	}
	s.handle = handle
	prev := s.state
	s.state = Watching
	s.mu.Unlock()
	s.logTransition(prev, Watching)

	go s.monitor(handle)
	s.logger.Info().Msg("tailwind watch mode started")
	return nil
}

func (s *Supervisor) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

func (s *Supervisor) prepare(spec tools.VersionSpec) error {
	created, err := scaffold.EnsureInputFile(s.paths.Input, spec)
	if err != nil {
		return err
	}
	if created {
		s.logger.Info().Str("path", s.paths.Input).Msg("created default input css")
	}

	if s.paths.TailwindConfig != "" {
		created, err := scaffold.EnsureConfigFile(s.paths.TailwindConfig, spec, s.paths.Root, s.opts.ContentPaths)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info().Str("path", s.paths.TailwindConfig).Msg("created default tailwind config")
		}
	}

	return s.paths.EnsureOutputDir()
}

func (s *Supervisor) provision(ctx context.Context, spec tools.VersionSpec) (string, error) {
	if s.opts.AutoInstallEnabled() {
		return s.prov.EnsureInstalled(ctx, spec)
	}
	if !s.prov.IsInstalled(ctx, spec) {
		return "", fmt.Errorf("%w: version %s is not installed and auto_install is off", tools.ErrInstallationFailed, spec)
	}
	return s.prov.LocalPath(spec)
}

func (s *Supervisor) fail(stage string, err error) error {
	stageErr := &StageError{Stage: stage, Err: err}

	s.mu.Lock()
	s.err = stageErr
	s.mu.Unlock()

	if s.fallback {
		s.logger.Error().Err(err).Str("stage", stage).Msg("tailwind startup failed")
		s.logger.Warn().Msg("falling back to CDN mode")
		s.setState(Degraded)
		return nil
	}
	s.logger.Error().Err(err).Str("stage", stage).Msg("tailwind startup failed; fallback not permitted")
	s.setState(Stopped)
	return stageErr
}

// monitor degrades the supervisor if the watch process dies on its own.
func (s *Supervisor) monitor(h process.Watch) {
	<-h.Done()

	s.mu.Lock()
	if s.handle != h || s.stopping {
		s.mu.Unlock()
		return
	}
	s.handle = nil
	s.err = &StageError{Stage: StageWatch, Err: errors.New("watch process exited unexpectedly")}
	prev := s.state
	s.state = Degraded
	s.mu.Unlock()

	s.logger.Error().Msg("tailwind watch process exited unexpectedly")
	s.logTransition(prev, Degraded)
}

func (s *Supervisor) logLine(l process.Line) {
	if strings.TrimSpace(l.Text) == "" {
		return
	}
	if l.Stream == process.Stderr {
		s.logger.Warn().Str("stream", "stderr").Msg(l.Text)
		return
	}
	s.logger.Debug().Str("stream", "stdout").Msg(l.Text)
}

// Stop releases the watch process. It never fails and may be called more
// than once; ctx is accepted for lifecycle symmetry.
func (s *Supervisor) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopping = true
	handle := s.handle
	s.handle = nil
	prev := s.state
	s.state = Stopped
	s.mu.Unlock()

	if handle != nil {
		s.logger.Info().Msg("stopping tailwind watch mode")
		s.closeHandle(handle)
	}
	s.logTransition(prev, Stopped)
}

func (s *Supervisor) closeHandle(h process.Watch) {
	if err := h.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("close watch process")
	}
}
