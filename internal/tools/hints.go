package tools

import (
	"errors"
	"fmt"
	"runtime"
)

// InstallHints suggests manual remedies for a failed install.
func InstallHints(err error, target string) []string {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnsupportedPlatform) {
		return []string{
			"No prebuilt Tailwind CSS CLI exists for " + runtime.GOOS + "/" + runtime.GOARCH + ".",
			fmt.Sprintf("Build or obtain the CLI yourself and place it at %s", target),
		}
	}

	hints := []string{
		"Check that github.com is reachable from this machine (proxies are read from HTTPS_PROXY).",
		fmt.Sprintf("Or download the release asset manually and place it at %s", target),
	}
	switch runtime.GOOS {
	case "darwin":
		hints = append(hints, "Homebrew users can also run: brew install tailwindcss")
	case "windows":
		hints = append(hints, "winget users can also run: winget install TailwindLabs.TailwindCSS")
	}
	hints = append(hints, "Set "+CacheDirEnv+" to use a different cache directory.")
	return hints
}
