package bootstrap

import (
	"fmt"
	"strconv"
	"strings"
)

// MinimumVersion is the oldest WebView2 runtime the viewer accepts.
const MinimumVersion = "86.0.616.0"

// Version is a four-part runtime version, plus where it was found.
type Version struct {
	Major, Minor, Build, Patch int
	Channel                    string
	Path                       string
}

// String returns the version as a string
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Patch)
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other.
func (v Version) Compare(other Version) int {
	a := [4]int{v.Major, v.Minor, v.Build, v.Patch}
	b := [4]int{other.Major, other.Minor, other.Build, other.Patch}
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// ParseVersion parses a version string like "86.0.616.0"
func ParseVersion(versionStr string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(versionStr), ".")
	if len(parts) != 4 {
		return Version{}, fmt.Errorf("invalid version format: %s", versionStr)
	}

	var nums [4]int
	names := [4]string{"major", "minor", "build", "patch"}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid %s version: %s", names[i], p)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Build: nums[2], Patch: nums[3]}, nil
}

// channelName maps an EdgeUpdate client GUID to its release channel.
func channelName(uuid string) string {
	switch uuid {
	case "{F3017226-FE2A-4295-8BDF-00C3A9A7E4C5}":
		return "stable"
	case "{2CD8A007-E189-409D-A2C8-9AF4EF3C72AA}":
		return "beta"
	case "{0D50BFEC-CD6A-4F9A-964C-C7416E3ACB10}":
		return "dev"
	case "{65C35B14-6C1D-4122-AC46-7148CC9D6497}":
		return "canary"
	default:
		return "unknown"
	}
}
