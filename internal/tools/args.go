package tools

import (
	"os"
	"strings"
)

// CommandLine describes one CLI invocation.
type CommandLine struct {
	Input  string
	Output string
	// Config is passed only when the file exists.
	Config string
	Minify bool
	Watch  bool
	// Extra is split on whitespace and appended verbatim.
	Extra string
}

// Args renders the argument list: -i in -o out [--watch] [-c cfg] [--minify] [extra...].
func (c CommandLine) Args() []string {
	args := []string{"-i", c.Input, "-o", c.Output}
	if c.Watch {
		args = append(args, "--watch")
	}
	if c.Config != "" {
		if info, err := os.Stat(c.Config); err == nil && !info.IsDir() {
			args = append(args, "-c", c.Config)
		}
	}
	if c.Minify {
		args = append(args, "--minify")
	}
	return append(args, strings.Fields(c.Extra)...)
}
