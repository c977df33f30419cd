package tools

import (
	"fmt"
	"runtime"
)

const (
	binaryName = "tailwindcss"
	// selfCheckSwitch must exit 0 on every supported CLI release.
	selfCheckSwitch = "--help"
)

var (
	osIdentifiers = map[string]string{
		"windows": "windows",
		"linux":   "linux",
		"darwin":  "macos",
	}
	archIdentifiers = map[string]string{
		"amd64": "x64",
		"arm64": "arm64",
		"386":   "x86",
	}
)

// PlatformIdentifier maps GOOS/GOARCH onto the names used in release assets.
func PlatformIdentifier(goos, goarch string) (string, string, error) {
	osID, ok := osIdentifiers[goos]
	if !ok {
		return "", "", fmt.Errorf("%w: operating system %s", ErrUnsupportedPlatform, goos)
	}
	archID, ok := archIdentifiers[goarch]
	if !ok {
		return "", "", fmt.Errorf("%w: architecture %s", ErrUnsupportedPlatform, goarch)
	}
	return osID, archID, nil
}

// CurrentPlatform is PlatformIdentifier for the running process.
func CurrentPlatform() (string, string, error) {
	return PlatformIdentifier(runtime.GOOS, runtime.GOARCH)
}

func executableName(goos string) string {
	if goos == "windows" {
		return binaryName + ".exe"
	}
	return binaryName
}
