package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a four-part dotted datastore version number. The fourth
// position is a release-timestamp disambiguator used only in the draft
// ledger's live version string; published versions carry 0 there.
type Version [4]int

// FirstVersion is the version number assigned to the first ever release.
var FirstVersion = Version{1, 0, 0, 0}

// ParseVersion parses a dotted version string with either three or four
// parts ("1.2.3" or "1.2.3.0").
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 && len(parts) != 4 {
		return Version{}, fmt.Errorf("invalid version number: %q", s)
	}
	var v Version
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version number: %q", s)
		}
		v[i] = n
	}
	return v, nil
}

// String returns the full four-part dotted form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}

// SemVer3 returns the three-part form without the disambiguator.
func (v Version) SemVer3() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// FileSuffix2 returns the major_minor file suffix ("1_0").
func (v Version) FileSuffix2() string {
	return fmt.Sprintf("%d_%d", v[0], v[1])
}

// FileSuffix3 returns the major_minor_patch file suffix ("1_0_0").
func (v Version) FileSuffix3() string {
	return fmt.Sprintf("%d_%d_%d", v[0], v[1], v[2])
}

// Bump returns the next version for the given update type. The bumped
// version always carries 0 in the timestamp position.
func (v Version) Bump(t UpdateType) (Version, error) {
	switch t {
	case UpdateMajor:
		return Version{v[0] + 1, 0, 0, 0}, nil
	case UpdateMinor:
		return Version{v[0], v[1] + 1, 0, 0}, nil
	case UpdatePatch:
		return Version{v[0], v[1], v[2] + 1, 0}, nil
	default:
		return Version{}, fmt.Errorf("cannot bump version by update type %q", string(t))
	}
}

// WithTimestamp returns a copy with the given release time (seconds since
// epoch) in the disambiguator position, as used by the live draft version.
func (v Version) WithTimestamp(seconds int64) Version {
	return Version{v[0], v[1], v[2], int(seconds)}
}
