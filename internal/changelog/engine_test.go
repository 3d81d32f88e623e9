package changelog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shipmate-cli/shipmate/internal/changelog"
	"github.com/shipmate-cli/shipmate/internal/conventional"
	"github.com/shipmate-cli/shipmate/internal/manifest"
)

var testReleaseDate = time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)

func TestRenderGroupsByKindInPriorityOrder(testInstance *testing.T) {
	commits := []conventional.CommitRecord{
		{ShortHash: "aaa1111", Subject: "tidy build scripts", Kind: conventional.KindChore},
		{ShortHash: "bbb2222", Subject: "add widget", Kind: conventional.KindFeat},
		{ShortHash: "ccc3333", Subject: "correct bug", Kind: conventional.KindFix},
		{ShortHash: "ddd4444", Subject: "add gadget", Kind: conventional.KindFeat},
	}

	engine := changelog.NewEngine()
	rendered := engine.Render(manifest.Version{Major: 1, Minor: 2, Patch: 4}, testReleaseDate, commits)

	require.True(testInstance, strings.HasPrefix(rendered, "## [1.2.4] - 2026-08-30\n"))

	featIndex := strings.Index(rendered, "### feat")
	fixIndex := strings.Index(rendered, "### fix")
	choreIndex := strings.Index(rendered, "### chore")
	require.Greater(testInstance, featIndex, 0)
	require.Greater(testInstance, fixIndex, featIndex)
	require.Greater(testInstance, choreIndex, fixIndex)

	widgetIndex := strings.Index(rendered, "- add widget (bbb2222)")
	gadgetIndex := strings.Index(rendered, "- add gadget (ddd4444)")
	require.Greater(testInstance, widgetIndex, 0)
	require.Greater(testInstance, gadgetIndex, widgetIndex)
}

func TestRenderEmptyCommitSetUsesPlaceholder(testInstance *testing.T) {
	engine := changelog.NewEngine()
	rendered := engine.Render(manifest.Version{Major: 2}, testReleaseDate, nil)
	require.Contains(testInstance, rendered, "- No user-facing changes")
	require.NotContains(testInstance, rendered, "###")
}

func TestPrependCreatesFileWithTitle(testInstance *testing.T) {
	changelogPath := filepath.Join(testInstance.TempDir(), "CHANGELOG.md")

	engine := changelog.NewEngine()
	prependError := engine.Prepend(changelogPath, manifest.Version{Major: 0, Minor: 1, Patch: 0}, testReleaseDate, nil)
	require.NoError(testInstance, prependError)

	contentBytes, readError := os.ReadFile(changelogPath)
	require.NoError(testInstance, readError)
	content := string(contentBytes)
	require.True(testInstance, strings.HasPrefix(content, "# Changelog\n\n## [0.1.0] - 2026-08-30"))
}

func TestPrependKeepsOlderSectionsIntact(testInstance *testing.T) {
	changelogPath := filepath.Join(testInstance.TempDir(), "CHANGELOG.md")
	engine := changelog.NewEngine()

	firstCommits := []conventional.CommitRecord{{ShortHash: "aaa1111", Subject: "add widget", Kind: conventional.KindFeat}}
	require.NoError(testInstance, engine.Prepend(changelogPath, manifest.Version{Major: 1}, testReleaseDate, firstCommits))

	olderContent, readError := os.ReadFile(changelogPath)
	require.NoError(testInstance, readError)

	secondCommits := []conventional.CommitRecord{{ShortHash: "bbb2222", Subject: "correct bug", Kind: conventional.KindFix}}
	require.NoError(testInstance, engine.Prepend(changelogPath, manifest.Version{Major: 1, Patch: 1}, testReleaseDate, secondCommits))

	updatedContent, readError := os.ReadFile(changelogPath)
	require.NoError(testInstance, readError)
	olderSections := strings.TrimPrefix(string(olderContent), "# Changelog\n\n")
	require.True(testInstance, strings.HasSuffix(string(updatedContent), olderSections))
	require.Less(
		testInstance,
		strings.Index(string(updatedContent), "## [1.0.1]"),
		strings.Index(string(updatedContent), "## [1.0.0]"),
	)
}

func TestParseLatestSectionRoundTripsPrepend(testInstance *testing.T) {
	changelogPath := filepath.Join(testInstance.TempDir(), "CHANGELOG.md")
	engine := changelog.NewEngine()

	commits := []conventional.CommitRecord{
		{ShortHash: "aaa1111", Subject: "add widget", Kind: conventional.KindFeat},
		{ShortHash: "bbb2222", Subject: "correct bug", Kind: conventional.KindFix},
	}
	releaseVersion := manifest.Version{Major: 1, Minor: 2, Patch: 4}
	require.NoError(testInstance, engine.Prepend(changelogPath, releaseVersion, testReleaseDate, commits))

	parsedVersion, sectionBody := engine.ParseLatestSection(changelogPath)
	require.NotNil(testInstance, parsedVersion)
	require.Equal(testInstance, releaseVersion, *parsedVersion)

	renderedBody := strings.SplitN(engine.Render(releaseVersion, testReleaseDate, commits), "\n", 2)[1]
	require.Equal(testInstance, strings.TrimSpace(renderedBody), strings.TrimSpace(sectionBody))
}

func TestParseLatestSectionStopsAtNextHeader(testInstance *testing.T) {
	changelogPath := filepath.Join(testInstance.TempDir(), "CHANGELOG.md")
	content := "# Changelog\n\n## [2.0.0] - 2026-08-30\n\n### feat\n- add widget (aaa1111)\n\n## [1.9.9] - 2026-08-01\n\n### fix\n- correct bug (bbb2222)\n"
	require.NoError(testInstance, os.WriteFile(changelogPath, []byte(content), 0o644))

	engine := changelog.NewEngine()
	parsedVersion, sectionBody := engine.ParseLatestSection(changelogPath)
	require.NotNil(testInstance, parsedVersion)
	require.Equal(testInstance, manifest.Version{Major: 2}, *parsedVersion)
	require.Contains(testInstance, sectionBody, "- add widget (aaa1111)")
	require.NotContains(testInstance, sectionBody, "1.9.9")
	require.NotContains(testInstance, sectionBody, "correct bug")
}

func TestParseLatestSectionHandlesMissingInputs(testInstance *testing.T) {
	engine := changelog.NewEngine()

	parsedVersion, sectionBody := engine.ParseLatestSection(filepath.Join(testInstance.TempDir(), "absent.md"))
	require.Nil(testInstance, parsedVersion)
	require.Empty(testInstance, sectionBody)

	headerlessPath := filepath.Join(testInstance.TempDir(), "CHANGELOG.md")
	require.NoError(testInstance, os.WriteFile(headerlessPath, []byte("# Changelog\n\nnothing released yet\n"), 0o644))
	parsedVersion, sectionBody = engine.ParseLatestSection(headerlessPath)
	require.Nil(testInstance, parsedVersion)
	require.Empty(testInstance, sectionBody)
}
