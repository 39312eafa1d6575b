// Package version reports the release of the HALO tools.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// Current is the release of this module. Builds from a tagged module
// report the tag instead (see Release).
const Current = "0.4.0"

// Release is a parsed "major.minor.patch" release string.
type Release struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses "major.minor.patch", with an optional leading "v".
func Parse(s string) (Release, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) != 3 {
		return Release{}, fmt.Errorf("invalid release %q: expected major.minor.patch", s)
	}
	var nums [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return Release{}, fmt.Errorf("invalid release %q: bad component %q", s, p)
		}
		nums[i] = uint16(n)
	}
	return Release{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (r Release) String() string {
	return fmt.Sprintf("%d.%d.%d", r.Major, r.Minor, r.Patch)
}

// Less reports whether r precedes other.
func (r Release) Less(other Release) bool {
	if r.Major != other.Major {
		return r.Major < other.Major
	}
	if r.Minor != other.Minor {
		return r.Minor < other.Minor
	}
	return r.Patch < other.Patch
}

// Running returns the release of the running binary: the main module's
// tag when it has one, Current otherwise.
func Running() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Current
	}
	if r, err := Parse(info.Main.Version); err == nil {
		return r.String()
	}
	return Current
}

// Banner returns the line printed by the tools' -version flag.
func Banner(program string) string {
	return fmt.Sprintf("%s %s (%s %s/%s)", program, Running(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
