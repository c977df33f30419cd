package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tailbreeze/internal/config"
	"tailbreeze/internal/logx"
	"tailbreeze/internal/paths"
	"tailbreeze/internal/scaffold"
	"tailbreeze/internal/tools"
)

var (
	initToolVersion string
	initFormat      string
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create tailbreeze.yaml, an input stylesheet and a Tailwind config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}

	cmd.Flags().StringVar(&initToolVersion, "tool-version", "latest", "Tailwind CLI version to pin")
	cmd.Flags().StringVar(&initFormat, "format", "yaml", "Config file format: yaml or toml")

	return cmd
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 && args[0] != "." {
		return filepath.Join(cwd, args[0]), nil
	}
	return cwd, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}
	spec, err := tools.ParseVersion(initToolVersion)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}
	if err := pp.EnsureRoot(); err != nil {
		return err
	}

	logger, closer, err := logx.New(logx.Options{Level: logLevel, Out: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Debug().Str("project", pp.Root).Msg("tailbreeze init")

	created, err := initProject(pp, spec, initFormat, logger)
	if err != nil {
		return err
	}

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}
	return nil
}

// initProject writes any missing project files and returns their paths
// relative to the project root.
func initProject(pp paths.ProjectPaths, spec tools.VersionSpec, format string, logger zerolog.Logger) ([]string, error) {
	var created []string
	record := func(path string) {
		rel, err := filepath.Rel(pp.Root, path)
		if err != nil {
			rel = path
		}
		created = append(created, rel)
	}

	opts, configPath, wrote, err := ensureConfig(pp, spec, format)
	if err != nil {
		return nil, err
	}
	if wrote {
		logger.Info().Str("path", configPath).Msg("created config")
		record(configPath)
	}

	pp = paths.ApplyConfig(pp, opts)
	ok, err := scaffold.EnsureInputFile(pp.Input, spec)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info().Str("path", pp.Input).Msg("created input css")
		record(pp.Input)
	}

	if pp.TailwindConfig != "" {
		ok, err := scaffold.EnsureConfigFile(pp.TailwindConfig, spec, pp.Root, opts.ContentPaths)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Info().Str("path", pp.TailwindConfig).Msg("created tailwind config")
			record(pp.TailwindConfig)
		}
	}

	if err := pp.EnsureOutputDir(); err != nil {
		return nil, err
	}
	return created, nil
}

// ensureConfig loads an existing tailbreeze config or writes a default one
// pinned to spec.
func ensureConfig(pp paths.ProjectPaths, spec tools.VersionSpec, format string) (config.Options, string, bool, error) {
	if existing := config.Find(pp.Root); existing != "" {
		opts, err := config.Load(existing)
		return opts, existing, false, err
	}

	opts := config.Default()
	opts.ToolVersion = spec.String()

	var (
		name string
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		name = "tailbreeze.yaml"
		data, err = opts.Marshal()
	case "toml":
		name = "tailbreeze.toml"
		data, err = opts.MarshalTOML()
	default:
		return opts, "", false, fmt.Errorf("unknown config format %q (want yaml or toml)", format)
	}
	if err != nil {
		return opts, "", false, err
	}

	path := filepath.Join(pp.Root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return opts, "", false, fmt.Errorf("write config: %w", err)
	}
	return opts, path, true, nil
}
