package config

import (
	"os"
	"strings"
)

// EnvironmentVar names the hosting environment, e.g. development or production.
const EnvironmentVar = "TAILBREEZE_ENV"

// Environment describes the host application.
type Environment struct {
	Name        string
	ContentRoot string
}

// IsDevelopment is true for development, dev and local (any case).
func (e Environment) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(e.Name)) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// EnvironmentFromOS reads the environment name from TAILBREEZE_ENV, falling
// back to production.
func EnvironmentFromOS(contentRoot string) Environment {
	name := strings.TrimSpace(os.Getenv(EnvironmentVar))
	if name == "" {
		name = "production"
	}
	return Environment{Name: name, ContentRoot: contentRoot}
}
