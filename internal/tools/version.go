package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// LatestMajor is the major line "latest" resolves to.
const LatestMajor = 4

// VersionSpec is a parsed Tailwind version request. The zero value is not
// meaningful; build one with ParseVersion or NewVersion.
type VersionSpec struct {
	major  int
	minor  int
	patch  int
	parts  int
	latest bool
}

// Latest returns the spec for the newest published release.
func Latest() VersionSpec {
	return VersionSpec{major: LatestMajor, latest: true}
}

// NewVersion builds a concrete spec. Components past major/minor/patch are ignored.
func NewVersion(major int, rest ...int) VersionSpec {
	v := VersionSpec{major: major, parts: 1}
	if len(rest) > 0 {
		v.minor = rest[0]
		v.parts = 2
	}
	if len(rest) > 1 {
		v.patch = rest[1]
		v.parts = 3
	}
	return v
}

// ParseVersion parses "latest", "", "4", "v3.4" or "3.4.1".
func ParseVersion(raw string) (VersionSpec, error) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.EqualFold(value, "latest") {
		return Latest(), nil
	}

	value = strings.TrimLeft(value, "vV")
	parts := strings.Split(value, ".")

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return VersionSpec{}, fmt.Errorf("%w: %q", ErrInvalidVersionSpec, raw)
	}

	nums := make([]int, 0, 2)
	for _, part := range parts[1:] {
		if len(nums) == 2 {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			break
		}
		nums = append(nums, n)
	}
	return NewVersion(major, nums...), nil
}

// MustParseVersion is ParseVersion for literals known to be valid.
func MustParseVersion(raw string) VersionSpec {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func (v VersionSpec) Major() int { return v.major }

// Minor returns the minor component and whether it was specified.
func (v VersionSpec) Minor() (int, bool) { return v.minor, v.parts >= 2 }

// Patch returns the patch component and whether it was specified.
func (v VersionSpec) Patch() (int, bool) { return v.patch, v.parts >= 3 }

func (v VersionSpec) IsLatest() bool { return v.latest }
func (v VersionSpec) IsV4() bool     { return v.major == 4 }
func (v VersionSpec) IsV3() bool     { return v.major == 3 }

// IsMajorOnly reports a request like "3" that names a release line, not a tag.
func (v VersionSpec) IsMajorOnly() bool { return !v.latest && v.parts == 1 }

// Equal reports value equality.
func (v VersionSpec) Equal(other VersionSpec) bool { return v == other }

// String returns the canonical form, which is also the install directory name.
func (v VersionSpec) String() string {
	if v.latest {
		return "latest"
	}
	switch v.parts {
	case 3:
		return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
	case 2:
		return fmt.Sprintf("%d.%d", v.major, v.minor)
	default:
		return strconv.Itoa(v.major)
	}
}
