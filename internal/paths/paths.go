package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"tailbreeze/internal/config"
)

// ProjectPaths captures canonical locations for a host project.
type ProjectPaths struct {
	Root       string
	ConfigFile string
	WebRoot    string
	Input      string
	Output     string
	// TailwindConfig is empty when the config file is disabled.
	TailwindConfig string
	MetaDir        string
	LogsDir        string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty. Tailwind paths start at
// their defaults; call ApplyConfig once options are loaded.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return ApplyConfig(newProjectPaths(root), config.Default()), nil
}

func newProjectPaths(root string) ProjectPaths {
	configFile := config.Find(root)
	if configFile == "" {
		configFile = filepath.Join(root, config.FileNames[0])
	}
	metaDir := filepath.Join(root, ".tailbreeze")
	return ProjectPaths{
		Root:       root,
		ConfigFile: configFile,
		MetaDir:    metaDir,
		LogsDir:    filepath.Join(metaDir, "logs"),
	}
}

// ForRoot builds paths for an already-known content root, as an embedding
// host does.
func ForRoot(root string, opts config.Options) ProjectPaths {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return ApplyConfig(newProjectPaths(abs), opts)
}

// ApplyConfig resolves the input, config and web root against the project
// root, and the output against the web root.
func ApplyConfig(pp ProjectPaths, opts config.Options) ProjectPaths {
	defaults := config.Default()
	pick := func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	}

	pp.WebRoot = resolveProjectPath(pp.Root, pick(opts.WebRoot, defaults.WebRoot))
	pp.Input = resolveProjectPath(pp.Root, pick(opts.InputPath, defaults.InputPath))
	pp.Output = resolveProjectPath(pp.WebRoot, pick(opts.OutputPath, defaults.OutputPath))
	pp.TailwindConfig = ""
	if opts.ConfigPath == "" || opts.HasConfigFile() {
		pp.TailwindConfig = resolveProjectPath(pp.Root, pick(opts.ConfigPath, defaults.ConfigPath))
	}
	return pp
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureOutputDir creates the directory the compiled stylesheet is written to.
func (p ProjectPaths) EnsureOutputDir() error {
	if err := os.MkdirAll(filepath.Dir(p.Output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// EnsureMetaDirs creates the hidden .tailbreeze directory and its logs dir.
func (p ProjectPaths) EnsureMetaDirs() error {
	for _, dir := range []string{p.MetaDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
