package config

import (
	"fmt"
	"strconv"
	"strings"

	"tailbreeze/internal/tools"
)

// ReleaseOverrides adjusts the built-in release tables, e.g. to pin "3" to a
// specific tag or to mirror downloads internally. Map keys are major versions.
type ReleaseOverrides struct {
	BaseURL    string            `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	MajorLines map[string]string `yaml:"major_lines,omitempty" toml:"major_lines,omitempty"`
	CDN        map[string]string `yaml:"cdn,omitempty" toml:"cdn,omitempty"`
}

// Apply layers the overrides onto base.
func (r ReleaseOverrides) Apply(base tools.Releases) (tools.Releases, error) {
	lines, err := majorKeyed(r.MajorLines, "major_lines")
	if err != nil {
		return tools.Releases{}, err
	}
	cdn, err := majorKeyed(r.CDN, "cdn")
	if err != nil {
		return tools.Releases{}, err
	}
	return base.WithOverrides(r.BaseURL, lines, cdn), nil
}

// ReleaseTable resolves the effective release tables for these options.
func (o Options) ReleaseTable() (tools.Releases, error) {
	return o.Releases.Apply(tools.DefaultReleases())
}

func majorKeyed(in map[string]string, field string) (map[int]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(in))
	for key, value := range in {
		major, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(key), "v"))
		if err != nil || major < 0 {
			return nil, fmt.Errorf("releases.%s: key %q is not a major version", field, key)
		}
		out[major] = strings.TrimSpace(value)
	}
	return out, nil
}
