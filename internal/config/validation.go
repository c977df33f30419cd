package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tailbreeze/internal/tools"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate returns the first configuration error found, if any. Invalid
// options abort startup.
func (o Options) Validate() error {
	var errs []error
	for _, r := range o.validateFields() {
		errs = append(errs, errors.New(r.Message))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid tailbreeze config: %w", errors.Join(errs...))
}

// Check runs field validation plus project-level checks that only warn, such
// as an input file that will be scaffolded on first start.
func (o Options) Check(contentRoot string) []ValidationResult {
	results := o.validateFields()
	results = append(results, o.checkProject(contentRoot)...)
	return results
}

func (o Options) validateFields() []ValidationResult {
	var results []ValidationResult
	fail := func(format string, args ...any) {
		results = append(results, ValidationResult{Level: "error", Message: fmt.Sprintf(format, args...)})
	}

	if _, err := tools.ParseVersion(o.ToolVersion); err != nil {
		fail("tool_version: %v", err)
	}
	if strings.TrimSpace(o.InputPath) == "" {
		fail("input: path is required")
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		fail("output: path is required")
	}
	if !strings.HasPrefix(o.ServePath, "/") {
		fail("serve_path: %q must start with /", o.ServePath)
	}
	if _, err := ParseTriState(string(o.Minify)); err != nil {
		fail("minify: %v", err)
	}
	if _, err := ParseTriState(string(o.CDNFallback)); err != nil {
		fail("cdn_fallback: %v", err)
	}
	if raw := strings.TrimSpace(o.DownloadTimeout); raw != "" {
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			fail("download_timeout: %q is not a valid duration", o.DownloadTimeout)
		}
	}
	if _, err := o.Releases.Apply(tools.DefaultReleases()); err != nil {
		fail("%v", err)
	}
	return results
}

func (o Options) checkProject(contentRoot string) []ValidationResult {
	var results []ValidationResult
	warn := func(format string, args ...any) {
		results = append(results, ValidationResult{Level: "warning", Message: fmt.Sprintf(format, args...)})
	}

	if _, err := os.Stat(resolve(contentRoot, o.InputPath)); err != nil {
		warn("input %q does not exist yet; a default stylesheet will be created", o.InputPath)
	}
	if o.HasConfigFile() {
		if _, err := os.Stat(resolve(contentRoot, o.ConfigPath)); err != nil {
			warn("config %q does not exist yet; a default Tailwind config will be created", o.ConfigPath)
		}
	}
	if info, err := os.Stat(resolve(contentRoot, o.WebRoot)); err != nil || !info.IsDir() {
		warn("web root %q is not a directory", o.WebRoot)
	}
	return results
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
