package tools

// Status describes one cached CLI version as seen on disk.
type Status struct {
	Version     string   `json:"version"`
	Path        string   `json:"path,omitempty"`
	Installed   bool     `json:"installed"`
	URL         string   `json:"url,omitempty"`
	Checksum    string   `json:"checksum,omitempty"`
	InstalledAt string   `json:"installed_at,omitempty"`
	Error       string   `json:"error,omitempty"`
	Notes       []string `json:"notes,omitempty"`
}

// ManifestEntry records a completed install in the cache manifest.
type ManifestEntry struct {
	Version     string `json:"version"`
	Path        string `json:"path"`
	URL         string `json:"url,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	InstalledAt string `json:"installed_at,omitempty"`
}

// Manifest is keyed by VersionSpec.String(). It is informational only; the
// self-check decides whether a binary is usable.
type Manifest struct {
	Entries map[string]ManifestEntry `json:"entries"`
}
