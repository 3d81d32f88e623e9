package changelog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/shipmate-cli/shipmate/internal/conventional"
	"github.com/shipmate-cli/shipmate/internal/manifest"
)

const (
	sectionHeaderTemplateConstant       = "## [%s] - %s"
	kindHeadingTemplateConstant         = "### %s"
	entryLineTemplateConstant           = "- %s (%s)"
	emptyReleaseBulletConstant          = "- No user-facing changes"
	changelogTitleConstant              = "# Changelog"
	sectionDateLayoutConstant           = "2006-01-02"
	changelogFilePermissionsConstant    = 0o644
	changelogWriteErrorTemplateConstant = "failed to write changelog %s: %w"
)

// sectionHeaderPattern locates release section headers of the form `## [X.Y.Z] - date`.
var sectionHeaderPattern = regexp.MustCompile(`^## \[(\d+\.\d+\.\d+)\] - `)

// Engine renders release sections from classified commits and maintains the
// newest-first changelog file. Previously written sections are never rewritten.
type Engine struct{}

// NewEngine constructs a changelog engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Render produces the Markdown release section for one version. Commits are
// grouped by kind in the fixed priority order; within a group the incoming
// commit order is preserved. An empty commit set renders a placeholder bullet.
func (engine *Engine) Render(version manifest.Version, releaseDate time.Time, commits []conventional.CommitRecord) string {
	var sectionBuilder strings.Builder
	sectionBuilder.WriteString(fmt.Sprintf(sectionHeaderTemplateConstant, version.String(), releaseDate.Format(sectionDateLayoutConstant)))
	sectionBuilder.WriteString("\n\n")

	if len(commits) == 0 {
		sectionBuilder.WriteString(emptyReleaseBulletConstant)
		sectionBuilder.WriteString("\n\n")
		return sectionBuilder.String()
	}

	for _, commitKind := range conventional.KindPriorityOrder {
		var groupedCommits []conventional.CommitRecord
		for _, commit := range commits {
			if commit.Kind == commitKind {
				groupedCommits = append(groupedCommits, commit)
			}
		}
		if len(groupedCommits) == 0 {
			continue
		}

		sectionBuilder.WriteString(fmt.Sprintf(kindHeadingTemplateConstant, commitKind))
		sectionBuilder.WriteString("\n")
		for _, commit := range groupedCommits {
			sectionBuilder.WriteString(fmt.Sprintf(entryLineTemplateConstant, commit.Subject, commit.ShortHash))
			sectionBuilder.WriteString("\n")
		}
		sectionBuilder.WriteString("\n")
	}

	return sectionBuilder.String()
}

// Prepend inserts the rendered section above all existing sections, creating
// the file with a title heading when absent. The leading title block stays on
// top so that the newest section always follows it directly.
func (engine *Engine) Prepend(changelogPath string, version manifest.Version, releaseDate time.Time, commits []conventional.CommitRecord) error {
	renderedSection := engine.Render(version, releaseDate, commits)

	existingContent := changelogTitleConstant + "\n\n"
	if contentBytes, readError := os.ReadFile(changelogPath); readError == nil {
		existingContent = string(contentBytes)
	}

	titleBlock, remainingContent := splitLeadingTitleBlock(existingContent)
	updatedContent := titleBlock + renderedSection + remainingContent
	if writeError := os.WriteFile(changelogPath, []byte(updatedContent), changelogFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(changelogWriteErrorTemplateConstant, changelogPath, writeError)
	}
	return nil
}

// splitLeadingTitleBlock separates a leading top-level heading and its
// trailing blank lines from the rest of the document.
func splitLeadingTitleBlock(content string) (string, string) {
	if !strings.HasPrefix(content, "# ") {
		return "", content
	}
	titleEndIndex := strings.Index(content, "\n")
	if titleEndIndex == -1 {
		return content + "\n\n", ""
	}
	remainder := content[titleEndIndex+1:]
	for strings.HasPrefix(remainder, "\n") {
		remainder = remainder[1:]
	}
	return content[:titleEndIndex+1] + "\n", remainder
}

// ParseLatestSection extracts the version and body of the newest changelog
// section. It returns a nil version and empty body when the file is missing
// or no section header matches.
func (engine *Engine) ParseLatestSection(changelogPath string) (*manifest.Version, string) {
	contentBytes, readError := os.ReadFile(changelogPath)
	if readError != nil {
		return nil, ""
	}

	lines := strings.Split(string(contentBytes), "\n")
	sectionStartIndex := -1
	sectionEndIndex := len(lines)
	var sectionVersion manifest.Version

	for lineIndex, line := range lines {
		matches := sectionHeaderPattern.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}
		if sectionStartIndex == -1 {
			parsedVersion, parseError := manifest.ParseVersion(matches[1])
			if parseError != nil {
				continue
			}
			sectionStartIndex = lineIndex
			sectionVersion = parsedVersion
			continue
		}
		sectionEndIndex = lineIndex
		break
	}

	if sectionStartIndex == -1 {
		return nil, ""
	}

	bodyLines := lines[sectionStartIndex+1 : sectionEndIndex]
	for len(bodyLines) > 0 && len(strings.TrimSpace(bodyLines[0])) == 0 {
		bodyLines = bodyLines[1:]
	}

	return &sectionVersion, strings.TrimRight(strings.Join(bodyLines, "\n"), " \t\n")
}
