package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tailbreeze/internal/config"
	"tailbreeze/internal/logx"
	"tailbreeze/internal/paths"
	"tailbreeze/internal/tools"
)

// project is the per-invocation view of a host project: resolved paths,
// validated options, environment and logger.
type project struct {
	paths  paths.ProjectPaths
	opts   config.Options
	env    config.Environment
	logger zerolog.Logger
	closer io.Closer
}

// loadProject resolves paths and options from the global flags. When
// logToFile is set the logger also writes into the project's logs dir.
func loadProject(cmd *cobra.Command, logToFile bool) (*project, error) {
	pp, opts, err := resolveOptions()
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", pp.ConfigFile, err)
	}

	env := config.EnvironmentFromOS(pp.Root)
	if envName != "" {
		env.Name = envName
	}

	logOpts := logx.Options{Level: logLevel, Out: cmd.ErrOrStderr()}
	if logToFile {
		if err := pp.EnsureMetaDirs(); err != nil {
			return nil, err
		}
		logOpts.LogsDir = pp.LogsDir
	}
	logger, closer, err := logx.New(logOpts)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("env", env.Name).Logger()

	return &project{paths: pp, opts: opts, env: env, logger: logger, closer: closer}, nil
}

// resolveOptions loads options without validating them, for commands that
// report on invalid configs.
func resolveOptions() (paths.ProjectPaths, config.Options, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return pp, config.Options{}, err
	}
	if configFile != "" {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return pp, config.Options{}, fmt.Errorf("resolve config path: %w", err)
		}
		pp.ConfigFile = abs
	}

	opts, err := config.Load(pp.ConfigFile)
	if err != nil {
		return pp, config.Options{}, err
	}
	return paths.ApplyConfig(pp, opts), opts, nil
}

func (p *project) Close() {
	if p.closer != nil {
		_ = p.closer.Close()
	}
}

// provisioner builds a Provisioner from the project's cache and release
// settings.
func (p *project) provisioner(extra ...tools.Option) (*tools.Provisioner, error) {
	releases, err := p.opts.ReleaseTable()
	if err != nil {
		return nil, err
	}
	opts := append([]tools.Option{
		tools.WithReleases(releases),
		tools.WithDownloader(tools.NewHTTPDownloader(p.opts.DownloadTimeoutValue())),
		tools.WithLogger(p.logger),
	}, extra...)
	return tools.NewProvisioner(p.opts.CacheDir, opts...)
}

// toolVersion returns the version named on the command line, or the
// configured one.
func (p *project) toolVersion(args []string) (tools.VersionSpec, error) {
	raw := p.opts.ToolVersion
	if len(args) > 0 {
		raw = args[0]
	}
	return tools.ParseVersion(raw)
}
