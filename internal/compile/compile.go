// Package compile runs the Tailwind CLI once, outside of watch mode, for
// build pipelines and the compile command.
package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"tailbreeze/internal/config"
	"tailbreeze/internal/paths"
	"tailbreeze/internal/process"
	"tailbreeze/internal/scaffold"
	"tailbreeze/internal/tools"
)

// Installer provisions the CLI binary.
type Installer interface {
	EnsureInstalled(ctx context.Context, spec tools.VersionSpec) (string, error)
	IsInstalled(ctx context.Context, spec tools.VersionSpec) bool
	LocalPath(spec tools.VersionSpec) (string, error)
}

// Request describes one compilation.
type Request struct {
	Input  string
	Output string
	// Config is optional; it is scaffolded when set and missing.
	Config       string
	ProjectDir   string
	Version      string
	Minify       bool
	AutoInstall  bool
	ExtraArgs    string
	ContentPaths []string
	// Sink, when set, also receives output lines as they are produced.
	Sink process.Sink
}

// Result carries the outcome and the captured CLI output.
type Result struct {
	OK       bool
	ExitCode int
	Output   []process.Line
	Err      error
}

// RequestFromOptions builds a request from project options, resolving the
// minify tri-state against the environment.
func RequestFromOptions(opts config.Options, env config.Environment, pp paths.ProjectPaths) Request {
	opts.ApplyDefaults()
	return Request{
		Input:        pp.Input,
		Output:       pp.Output,
		Config:       pp.TailwindConfig,
		ProjectDir:   pp.Root,
		Version:      opts.ToolVersion,
		Minify:       opts.Minify.Resolve(!env.IsDevelopment()),
		AutoInstall:  opts.AutoInstallEnabled(),
		ExtraArgs:    opts.ExtraArgs,
		ContentPaths: opts.ContentPaths,
	}
}

// Compiler runs one-shot compilations.
type Compiler struct {
	prov   Installer
	runner process.Runner
	logger zerolog.Logger
}

func New(prov Installer, runner process.Runner, logger zerolog.Logger) *Compiler {
	if runner == nil {
		runner = process.ExecRunner{}
	}
	return &Compiler{prov: prov, runner: runner, logger: logger.With().Str("component", "compile").Logger()}
}

// Compile scaffolds missing inputs, provisions the CLI and runs it to
// completion. A non-zero exit is reported as a *process.ExitError.
func (c *Compiler) Compile(ctx context.Context, req Request) Result {
	res := Result{ExitCode: -1}
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Output) == "" {
		res.Err = errors.New("compile: input and output paths are required")
		return res
	}

	spec, err := tools.ParseVersion(req.Version)
	if err != nil {
		res.Err = err
		return res
	}

	if created, err := scaffold.EnsureInputFile(req.Input, spec); err != nil {
		res.Err = err
		return res
	} else if created {
		c.logger.Info().Str("path", req.Input).Msg("created default input css")
	}
	if req.Config != "" {
		root := req.ProjectDir
		if root == "" {
			root = filepath.Dir(req.Config)
		}
		created, err := scaffold.EnsureConfigFile(req.Config, spec, root, req.ContentPaths)
		if err != nil {
			res.Err = err
			return res
		}
		if created {
			c.logger.Info().Str("path", req.Config).Msg("created default tailwind config")
		}
	}

	binary, err := c.binary(ctx, spec, req.AutoInstall)
	if err != nil {
		res.Err = err
		return res
	}

	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		res.Err = fmt.Errorf("create output directory: %w", err)
		return res
	}

	args := tools.CommandLine{
		Input:  req.Input,
		Output: req.Output,
		Config: req.Config,
		Minify: req.Minify,
		Extra:  req.ExtraArgs,
	}.Args()
	c.logger.Info().Str("args", strings.Join(args, " ")).Msg("compiling tailwind css")

	code, err := c.runner.Run(ctx, binary, args, process.RunOptions{
		Dir:  req.ProjectDir,
		Sink: process.Collect(&res.Output, req.Sink),
	})
	res.ExitCode = code
	if err != nil {
		res.Err = err
		return res
	}
	if code != 0 {
		res.Err = &process.ExitError{Binary: filepath.Base(binary), Code: code, Stderr: process.StderrText(res.Output)}
		c.logger.Error().Int("exit_code", code).Msg("tailwind cli failed")
		return res
	}

	res.OK = true
	c.logger.Info().Str("output", req.Output).Msg("tailwind css compiled")
	return res
}

func (c *Compiler) binary(ctx context.Context, spec tools.VersionSpec, autoInstall bool) (string, error) {
	if autoInstall {
		return c.prov.EnsureInstalled(ctx, spec)
	}
	if !c.prov.IsInstalled(ctx, spec) {
		return "", fmt.Errorf("%w: version %s is not installed and auto-install is off", tools.ErrInstallationFailed, spec)
	}
	return c.prov.LocalPath(spec)
}
