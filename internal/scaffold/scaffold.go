// Package scaffold writes the default Tailwind input stylesheet and config
// file for a project that does not have them yet.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tailbreeze/internal/tools"
)

const (
	v4Input = `@import "tailwindcss";` + "\n"
	v3Input = "@tailwind base;\n@tailwind components;\n@tailwind utilities;\n"

	fallbackContent = "./**/*.{cshtml,razor,html}"
)

// contentDirs maps well-known template directories to content globs, in the
// order they are emitted.
var contentDirs = []struct {
	dir  string
	glob string
}{
	{"Pages", "./Pages/**/*.{cshtml,razor}"},
	{"Views", "./Views/**/*.cshtml"},
	{"Components", "./Components/**/*.{cshtml,razor}"},
	{"templates", "./templates/**/*.{html,tmpl,gohtml}"},
}

// InputCSS is the default stylesheet for a version line.
func InputCSS(spec tools.VersionSpec) string {
	if spec.IsV4() {
		return v4Input
	}
	return v3Input
}

// ConfigJS renders a Tailwind config listing the given content globs: a
// CommonJS module for v3, an ES module for v4.
func ConfigJS(spec tools.VersionSpec, contentPaths []string) string {
	quoted := make([]string, len(contentPaths))
	for i, p := range contentPaths {
		quoted[i] = strconv.Quote(p)
	}
	content := strings.Join(quoted, ",\n    ")

	if spec.IsV4() {
		return fmt.Sprintf("export default {\n  content: [\n    %s\n  ],\n}\n", content)
	}
	return fmt.Sprintf("/** @type {import('tailwindcss').Config} */\nmodule.exports = {\n  content: [\n    %s\n  ],\n  theme: {\n    extend: {},\n  },\n  plugins: [],\n}\n", content)
}

// DetectContentPaths returns globs for the template directories present under
// root, or a catch-all glob when none are.
func DetectContentPaths(root string) []string {
	var globs []string
	for _, c := range contentDirs {
		if info, err := os.Stat(filepath.Join(root, c.dir)); err == nil && info.IsDir() {
			globs = append(globs, c.glob)
		}
	}
	if len(globs) == 0 {
		globs = append(globs, fallbackContent)
	}
	return globs
}

// EnsureInputFile creates the input stylesheet when it is missing and
// reports whether it did.
func EnsureInputFile(path string, spec tools.VersionSpec) (bool, error) {
	return writeIfMissing(path, InputCSS(spec))
}

// EnsureConfigFile creates the Tailwind config when it is missing. Content
// globs come from contentPaths, or are detected under contentRoot when empty.
func EnsureConfigFile(path string, spec tools.VersionSpec, contentRoot string, contentPaths []string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if len(contentPaths) == 0 {
		contentPaths = DetectContentPaths(contentRoot)
	}
	return writeIfMissing(path, ConfigJS(spec, contentPaths))
}

func writeIfMissing(path, contents string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", path, err)
	}
	// O_EXCL keeps a concurrent writer's file intact.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(contents); err != nil {
		f.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}
	return true, nil
}
