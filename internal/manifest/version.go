package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	versionComponentSeparatorConstant   = "."
	versionComponentCountConstant       = 3
	invalidVersionMessageTemplateConst = "invalid version %q: expected MAJOR.MINOR.PATCH"
	unknownVersionPartTemplateConstant = "unknown version part %q"
	versionStringTemplateConstant      = "%d.%d.%d"
	versionPartMajorStringConstant     = "major"
	versionPartMinorStringConstant     = "minor"
	versionPartPatchStringConstant     = "patch"
)

// Version is a three-component semantic version ordered by (major, minor, patch).
type Version struct {
	Major int
	Minor int
	Patch int
}

// VersionPart selects which component of a version a bump increments.
type VersionPart string

// Supported version parts.
const (
	VersionPartMajor VersionPart = VersionPart(versionPartMajorStringConstant)
	VersionPartMinor VersionPart = VersionPart(versionPartMinorStringConstant)
	VersionPartPatch VersionPart = VersionPart(versionPartPatchStringConstant)
)

// ParseVersionPart validates a textual version part selector.
func ParseVersionPart(candidate string) (VersionPart, error) {
	switch VersionPart(strings.ToLower(strings.TrimSpace(candidate))) {
	case VersionPartMajor:
		return VersionPartMajor, nil
	case VersionPartMinor:
		return VersionPartMinor, nil
	case VersionPartPatch:
		return VersionPartPatch, nil
	default:
		return "", fmt.Errorf(unknownVersionPartTemplateConstant, candidate)
	}
}

// ParseVersion converts a dotted-triple string into a Version.
func ParseVersion(candidate string) (Version, error) {
	components := strings.Split(strings.TrimSpace(candidate), versionComponentSeparatorConstant)
	if len(components) != versionComponentCountConstant {
		return Version{}, fmt.Errorf(invalidVersionMessageTemplateConst, candidate)
	}

	numericComponents := make([]int, 0, versionComponentCountConstant)
	for _, component := range components {
		numericValue, conversionError := strconv.ParseUint(component, 10, 64)
		if conversionError != nil {
			return Version{}, fmt.Errorf(invalidVersionMessageTemplateConst, candidate)
		}
		numericComponents = append(numericComponents, int(numericValue))
	}

	return Version{Major: numericComponents[0], Minor: numericComponents[1], Patch: numericComponents[2]}, nil
}

// String renders the canonical dotted-triple form.
func (version Version) String() string {
	return fmt.Sprintf(versionStringTemplateConstant, version.Major, version.Minor, version.Patch)
}

// Bump returns the next version for the selected part. Bumping major resets
// minor and patch; bumping minor resets patch.
func (version Version) Bump(part VersionPart) Version {
	switch part {
	case VersionPartMajor:
		return Version{Major: version.Major + 1}
	case VersionPartMinor:
		return Version{Major: version.Major, Minor: version.Minor + 1}
	default:
		return Version{Major: version.Major, Minor: version.Minor, Patch: version.Patch + 1}
	}
}

// Less reports whether version precedes other in the total order.
func (version Version) Less(other Version) bool {
	if version.Major != other.Major {
		return version.Major < other.Major
	}
	if version.Minor != other.Minor {
		return version.Minor < other.Minor
	}
	return version.Patch < other.Patch
}
