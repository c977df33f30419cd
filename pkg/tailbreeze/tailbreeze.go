// Package tailbreeze embeds Tailwind CSS compilation into a Go web server.
//
// An Engine provisions the standalone Tailwind CLI on demand, keeps a watch
// process running next to the host, and serves the compiled stylesheet from
// a middleware, falling back to the Tailwind CDN when the stylesheet is not
// available and the environment allows it.
package tailbreeze

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tailbreeze/internal/compile"
	"tailbreeze/internal/config"
	"tailbreeze/internal/paths"
	"tailbreeze/internal/process"
	"tailbreeze/internal/serve"
	"tailbreeze/internal/supervisor"
	"tailbreeze/internal/tools"
)

type (
	Options        = config.Options
	Environment    = config.Environment
	TriState       = config.TriState
	State          = supervisor.State
	CompileRequest = compile.Request
	CompileResult  = compile.Result
)

const (
	Auto = config.Auto
	On   = config.On
	Off  = config.Off
)

// DefaultShutdownTimeout bounds Run's graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Option customises an Engine.
type Option func(*settings)

type settings struct {
	logger     zerolog.Logger
	runner     process.Runner
	downloader tools.Downloader
}

// WithLogger sets the logger used by every component. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithRunner replaces how the CLI is executed.
func WithRunner(r process.Runner) Option {
	return func(s *settings) { s.runner = r }
}

// WithDownloader replaces how release assets are fetched.
func WithDownloader(d tools.Downloader) Option {
	return func(s *settings) { s.downloader = d }
}

// Engine ties provisioning, the watch supervisor and the serving layer to one
// host project.
type Engine struct {
	opts   Options
	env    Environment
	paths  paths.ProjectPaths
	logger zerolog.Logger

	prov       *tools.Provisioner
	runner     process.Runner
	supervisor *supervisor.Supervisor
	layer      *serve.Layer
}

// New validates opts and wires an Engine for the project rooted at
// env.ContentRoot. Nothing is downloaded or started until Start.
func New(opts Options, env Environment, options ...Option) (*Engine, error) {
	s := settings{logger: zerolog.Nop(), runner: process.ExecRunner{}}
	for _, o := range options {
		o(&s)
	}

	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if env.Name == "" {
		env.Name = "production"
	}

	releases, err := opts.ReleaseTable()
	if err != nil {
		return nil, err
	}
	downloader := s.downloader
	if downloader == nil {
		downloader = tools.NewHTTPDownloader(opts.DownloadTimeoutValue())
	}
	prov, err := tools.NewProvisioner(opts.CacheDir,
		tools.WithReleases(releases),
		tools.WithDownloader(downloader),
		tools.WithRunner(s.runner),
		tools.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	pp := paths.ForRoot(env.ContentRoot, opts)
	layer, err := serve.New(opts, env, pp, s.logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		opts:       opts,
		env:        env,
		paths:      pp,
		logger:     s.logger,
		prov:       prov,
		runner:     s.runner,
		supervisor: supervisor.New(opts, env, pp, prov, s.runner, s.logger),
		layer:      layer,
	}, nil
}

// Options returns the defaulted options the engine was built with.
func (e *Engine) Options() Options { return e.opts }

// Paths returns the resolved project paths.
func (e *Engine) Paths() paths.ProjectPaths { return e.paths }

// Provisioner exposes the CLI cache used by the engine.
func (e *Engine) Provisioner() *tools.Provisioner { return e.prov }

// Start prepares the project and launches the watch process. See
// supervisor.Supervisor.Start for how failures are reported.
func (e *Engine) Start(ctx context.Context) error { return e.supervisor.Start(ctx) }

// Stop terminates the watch process. It is safe to call more than once.
func (e *Engine) Stop(ctx context.Context) { e.supervisor.Stop(ctx) }

func (e *Engine) State() State { return e.supervisor.State() }

// Err is the error that moved the engine out of the watching state, if any.
func (e *Engine) Err() error { return e.supervisor.Err() }

// Middleware serves the stylesheet path and passes everything else to next.
func (e *Engine) Middleware(next http.Handler) http.Handler { return e.layer.Middleware(next) }

// Register mounts the middleware on r.
func (e *Engine) Register(r chi.Router) { r.Use(e.layer.Middleware) }

// StylesheetPath is the request path the stylesheet is served under.
func (e *Engine) StylesheetPath() string { return e.layer.ServePath() }

// LinkTag renders the stylesheet link, optionally followed by the CDN
// fallback script.
func (e *Engine) LinkTag(fallbackScript bool) template.HTML { return e.layer.LinkTag(fallbackScript) }

// TemplateFuncs returns html/template helpers, currently "tailwindLink".
func (e *Engine) TemplateFuncs() template.FuncMap { return e.layer.TemplateFuncs() }

// CompileRequest returns a request for a one-shot build of this project.
func (e *Engine) CompileRequest() CompileRequest {
	return compile.RequestFromOptions(e.opts, e.env, e.paths)
}

// Compile runs a one-shot build independent of the watch process.
func (e *Engine) Compile(ctx context.Context, req CompileRequest) CompileResult {
	return compile.New(e.prov, e.runner, e.logger).Compile(ctx, req)
}

// Run starts the engine, serves srv until ctx ends, then shuts srv down and
// stops the watch process. A startup failure that leaves the engine without
// a usable fallback is returned before srv starts listening.
func (e *Engine) Run(ctx context.Context, srv *http.Server) error {
	if err := e.Start(ctx); err != nil {
		return fmt.Errorf("start tailwind: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}
	e.logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		e.logger.Warn().Err(err).Msg("shutdown")
	}
	e.Stop(shutdownCtx)
	return serveErr
}
