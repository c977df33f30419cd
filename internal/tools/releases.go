package tools

import (
	"fmt"
	"strings"
)

const (
	defaultReleaseBaseURL = "https://github.com/tailwindlabs/tailwindcss/releases"
	latestTag             = "latest"
)

// Releases maps version specs to download and CDN locations. MajorLines pins a
// major-only request ("3") to a release tag; "latest" or an empty tag means the
// newest published release. The tables are injectable because upstream moves
// "latest" to new major lines over time.
type Releases struct {
	BaseURL    string
	MajorLines map[int]string
	CDN        map[int]string
}

// DefaultReleases returns the built-in release and CDN tables.
func DefaultReleases() Releases {
	return Releases{
		BaseURL: defaultReleaseBaseURL,
		MajorLines: map[int]string{
			3: "v3.4.17",
			4: latestTag,
		},
		CDN: map[int]string{
			3: "https://cdn.tailwindcss.com",
			4: "https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4",
		},
	}
}

// WithOverrides returns a copy with the given entries replacing the defaults.
func (r Releases) WithOverrides(baseURL string, majorLines, cdn map[int]string) Releases {
	out := Releases{
		BaseURL:    r.BaseURL,
		MajorLines: make(map[int]string, len(r.MajorLines)+len(majorLines)),
		CDN:        make(map[int]string, len(r.CDN)+len(cdn)),
	}
	if strings.TrimSpace(baseURL) != "" {
		out.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	for k, v := range r.MajorLines {
		out.MajorLines[k] = v
	}
	for k, v := range majorLines {
		out.MajorLines[k] = v
	}
	for k, v := range r.CDN {
		out.CDN[k] = v
	}
	for k, v := range cdn {
		out.CDN[k] = v
	}
	return out
}

// DownloadURL builds the release asset URL for spec on the given platform
// identifiers (see PlatformIdentifier).
func (r Releases) DownloadURL(spec VersionSpec, osID, archID string) string {
	base := r.BaseURL
	if base == "" {
		base = defaultReleaseBaseURL
	}
	asset := AssetName(osID, archID)

	tag := ""
	switch {
	case spec.IsLatest():
		tag = latestTag
	case spec.IsMajorOnly():
		tag = r.MajorLines[spec.Major()]
		if tag == "" {
			tag = latestTag
		}
	default:
		tag = "v" + spec.String()
	}

	if tag == latestTag {
		return fmt.Sprintf("%s/latest/download/%s", base, asset)
	}
	return fmt.Sprintf("%s/download/%s/%s", base, tag, asset)
}

// CDNURL returns the browser build used when the compiled stylesheet is unavailable.
func (r Releases) CDNURL(spec VersionSpec) string {
	if url, ok := r.CDN[spec.Major()]; ok && url != "" {
		return url
	}
	return DefaultReleases().CDN[LatestMajor]
}

// AssetName is the release asset for a platform, e.g. tailwindcss-linux-x64.
func AssetName(osID, archID string) string {
	name := fmt.Sprintf("tailwindcss-%s-%s", osID, archID)
	if osID == "windows" {
		name += ".exe"
	}
	return name
}
