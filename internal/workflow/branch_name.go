package workflow

import (
	"regexp"
	"sort"
	"strings"
)

const (
	branchNameSeparatorConstant         = "/"
	missingSeparatorMessageConstant     = "name must be in the form <tag>/<slug>"
	unknownTagMessageTemplateConstant   = "tag must be one of: "
	invalidSlugMessageConstant          = "slug contains characters outside [A-Za-z0-9._/-]"
	branchNameSeparatorSplitCountConst  = 2
	branchTagFeatConstant               = "feat"
	branchTagFixConstant                = "fix"
	branchTagDocsConstant               = "docs"
	branchTagChoreConstant              = "chore"
	branchTagRefactorConstant           = "refactor"
	branchTagPerfConstant               = "perf"
	branchTagTestConstant               = "test"
	branchTagBuildConstant              = "build"
	branchTagContinuousIntegrationConst = "ci"
)

// allowedBranchTags enumerates the permitted <tag> prefixes for feature branches.
var allowedBranchTags = map[string]struct{}{
	branchTagFeatConstant:               {},
	branchTagFixConstant:                {},
	branchTagDocsConstant:               {},
	branchTagChoreConstant:              {},
	branchTagRefactorConstant:           {},
	branchTagPerfConstant:               {},
	branchTagTestConstant:               {},
	branchTagBuildConstant:              {},
	branchTagContinuousIntegrationConst: {},
}

// branchSlugPattern matches the full slug after the tag separator.
var branchSlugPattern = regexp.MustCompile(`^[A-Za-z0-9._\-][A-Za-z0-9._\-/]*$`)

// BranchName is a validated feature branch name of the form <tag>/<slug>.
type BranchName struct {
	Tag  string
	Slug string
}

// String renders the full branch name.
func (branchName BranchName) String() string {
	return branchName.Tag + branchNameSeparatorConstant + branchName.Slug
}

// ParseBranchName validates a candidate feature branch name against the
// <tag>/<slug> grammar and returns its components.
func ParseBranchName(candidate string) (BranchName, error) {
	trimmedCandidate := strings.TrimSpace(candidate)
	if !strings.Contains(trimmedCandidate, branchNameSeparatorConstant) {
		return BranchName{}, InvalidNameError{BranchName: trimmedCandidate, Message: missingSeparatorMessageConstant}
	}

	components := strings.SplitN(trimmedCandidate, branchNameSeparatorConstant, branchNameSeparatorSplitCountConst)
	tagComponent := components[0]
	slugComponent := components[1]

	if _, tagAllowed := allowedBranchTags[tagComponent]; !tagAllowed {
		return BranchName{}, InvalidNameError{BranchName: trimmedCandidate, Message: unknownTagMessageTemplateConstant + strings.Join(sortedBranchTags(), ", ")}
	}
	if !branchSlugPattern.MatchString(slugComponent) {
		return BranchName{}, InvalidNameError{BranchName: trimmedCandidate, Message: invalidSlugMessageConstant}
	}

	return BranchName{Tag: tagComponent, Slug: slugComponent}, nil
}

func sortedBranchTags() []string {
	tags := make([]string, 0, len(allowedBranchTags))
	for tag := range allowedBranchTags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
