package tools

import "errors"

var (
	// ErrInvalidVersionSpec reports a version string whose leading component is not numeric.
	ErrInvalidVersionSpec = errors.New("invalid tailwind version")
	// ErrUnsupportedPlatform reports an OS/architecture pair with no published binary.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrInstallationFailed wraps every download, permission or self-check failure.
	ErrInstallationFailed = errors.New("tailwind installation failed")
)
