package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// NoConfigFile disables passing and scaffolding a Tailwind config file.
const NoConfigFile = "none"

// FileNames are the project config files Find looks for, in order.
var FileNames = []string{"tailbreeze.yaml", "tailbreeze.yml", "tailbreeze.toml"}

// Options controls how the Tailwind CLI is provisioned, run and served. It is
// read-only once a supervisor or serving layer has been built from it.
type Options struct {
	ToolVersion  string   `yaml:"tool_version" toml:"tool_version"`
	InputPath    string   `yaml:"input" toml:"input"`
	OutputPath   string   `yaml:"output" toml:"output"`
	ConfigPath   string   `yaml:"config" toml:"config"`
	WebRoot      string   `yaml:"web_root" toml:"web_root"`
	ExtraArgs    string   `yaml:"extra_args,omitempty" toml:"extra_args,omitempty"`
	ContentPaths []string `yaml:"content,omitempty" toml:"content,omitempty"`

	EnableWatch        *bool    `yaml:"watch,omitempty" toml:"watch,omitempty"`
	AutoInstall        *bool    `yaml:"auto_install,omitempty" toml:"auto_install,omitempty"`
	Minify             TriState `yaml:"minify" toml:"minify"`
	CDNFallback        TriState `yaml:"cdn_fallback" toml:"cdn_fallback"`
	ServePath          string   `yaml:"serve_path" toml:"serve_path"`
	ServeViaMiddleware *bool    `yaml:"serve_via_middleware,omitempty" toml:"serve_via_middleware,omitempty"`

	CacheDir        string           `yaml:"cache_dir,omitempty" toml:"cache_dir,omitempty"`
	DownloadTimeout string           `yaml:"download_timeout,omitempty" toml:"download_timeout,omitempty"`
	Releases        ReleaseOverrides `yaml:"releases,omitempty" toml:"releases,omitempty"`
}

// WatchEnabled reports whether a watch process should be supervised.
func (o Options) WatchEnabled() bool { return boolValue(o.EnableWatch, true) }

// AutoInstallEnabled reports whether a missing CLI may be downloaded.
func (o Options) AutoInstallEnabled() bool { return boolValue(o.AutoInstall, true) }

// MiddlewareEnabled reports whether the stylesheet is served by the middleware.
func (o Options) MiddlewareEnabled() bool { return boolValue(o.ServeViaMiddleware, true) }

// HasConfigFile is false when the config path was set to NoConfigFile.
func (o Options) HasConfigFile() bool {
	return o.ConfigPath != "" && !strings.EqualFold(o.ConfigPath, NoConfigFile)
}

// DownloadTimeoutValue is the parsed download timeout, or zero for the default.
func (o Options) DownloadTimeoutValue() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(o.DownloadTimeout))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Default returns the baseline options.
func Default() Options {
	return Options{
		ToolVersion:        "latest",
		InputPath:          filepath.Join("Styles", "app.css"),
		OutputPath:         filepath.Join("css", "app.css"),
		ConfigPath:         "tailwind.config.js",
		WebRoot:            "wwwroot",
		EnableWatch:        boolPtr(true),
		AutoInstall:        boolPtr(true),
		Minify:             Auto,
		CDNFallback:        Auto,
		ServePath:          "/tailbreeze/app.css",
		ServeViaMiddleware: boolPtr(true),
	}
}

// Find returns the first project config file present in dir, or "".
func Find(dir string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Load reads options from a YAML or TOML file (chosen by extension). A
// missing file yields the defaults.
func Load(path string) (Options, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Options{}, fmt.Errorf("read config: %w", err)
	}

	opts := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(contents, &opts); err != nil {
			return Options{}, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(contents, &opts); err != nil {
			return Options{}, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}
	opts.ApplyDefaults()
	return opts, nil
}

// ApplyDefaults fills fields a config file or caller left empty.
func (o *Options) ApplyDefaults() {
	defaults := Default()

	if strings.TrimSpace(o.ToolVersion) == "" {
		o.ToolVersion = defaults.ToolVersion
	}
	if o.InputPath == "" {
		o.InputPath = defaults.InputPath
	}
	if o.OutputPath == "" {
		o.OutputPath = defaults.OutputPath
	}
	if o.ConfigPath == "" {
		o.ConfigPath = defaults.ConfigPath
	}
	if o.WebRoot == "" {
		o.WebRoot = defaults.WebRoot
	}
	if o.EnableWatch == nil {
		o.EnableWatch = boolPtr(true)
	}
	if o.AutoInstall == nil {
		o.AutoInstall = boolPtr(true)
	}
	if o.Minify == "" {
		o.Minify = Auto
	}
	if o.CDNFallback == "" {
		o.CDNFallback = Auto
	}
	if o.ServePath == "" {
		o.ServePath = defaults.ServePath
	}
	if o.ServeViaMiddleware == nil {
		o.ServeViaMiddleware = boolPtr(true)
	}
}

// Marshal returns the YAML encoding of the options.
func (o Options) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&o)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// MarshalTOML returns the TOML encoding of the options.
func (o Options) MarshalTOML() ([]byte, error) {
	buf, err := toml.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func boolValue(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func boolPtr(v bool) *bool {
	return &v
}

// Bool returns a pointer to v for populating optional fields.
func Bool(v bool) *bool { return boolPtr(v) }
