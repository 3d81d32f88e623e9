package release

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shipmate-cli/shipmate/internal/conventional"
	"github.com/shipmate-cli/shipmate/internal/execshell"
	"github.com/shipmate-cli/shipmate/internal/gitrepo"
	"github.com/shipmate-cli/shipmate/internal/manifest"
)

const (
	gitExecutorMissingMessageConstant      = "git executor not configured"
	versionStoreMissingMessageConstant     = "version store not configured"
	commitCollectorMissingMessageConstant  = "commit collector not configured"
	changelogWriterMissingMessageConstant  = "changelog writer not configured"
	repositoryPathMissingMessageConstant   = "repository path is required"
	manifestPathMissingMessageConstant     = "manifest path is required"
	changelogPathMissingMessageConstant    = "changelog path is required"
	gitAddSubcommandConstant               = "add"
	gitCommitSubcommandConstant            = "commit"
	gitCommitNoVerifyFlagConstant          = "--no-verify"
	gitCommitMessageFlagConstant           = "-m"
	gitTagSubcommandConstant               = "tag"
	gitTagAnnotateFlagConstant             = "-a"
	releaseTagTemplateConstant             = "v%s"
	releaseCommitMessageTemplateConstant   = "chore(release): v%s"
	releaseTagMessageTemplateConstant      = "Release v%s"
	versionBumpedLogMessageConstant        = "bumped project version"
	previousVersionLogFieldConstant        = "previous_version"
	newVersionLogFieldConstant             = "new_version"
	collectedCommitCountLogFieldConstant   = "commit_count"
	manifestStageFailedTemplateConstant    = "failed to stage release files: %w"
	releaseCommitFailedTemplateConstant    = "failed to create release commit: %w"
	releaseTagFailedTemplateConstant       = "failed to create release tag: %w"
	commitCollectionFailedTemplateConstant = "failed to collect commits: %w"
)

// ErrGitExecutorNotConfigured indicates the service was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrVersionStoreNotConfigured indicates the service was built without a manifest store.
var ErrVersionStoreNotConfigured = errors.New(versionStoreMissingMessageConstant)

// ErrCommitCollectorNotConfigured indicates the service was built without a commit collector.
var ErrCommitCollectorNotConfigured = errors.New(commitCollectorMissingMessageConstant)

// ErrChangelogWriterNotConfigured indicates the service was built without a changelog writer.
var ErrChangelogWriterNotConfigured = errors.New(changelogWriterMissingMessageConstant)

// ErrRepositoryPathRequired indicates options lacked a repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathMissingMessageConstant)

// ErrManifestPathRequired indicates options lacked a manifest path.
var ErrManifestPathRequired = errors.New(manifestPathMissingMessageConstant)

// ErrChangelogPathRequired indicates options lacked a changelog path.
var ErrChangelogPathRequired = errors.New(changelogPathMissingMessageConstant)

// VersionStore reads and writes the project version in the manifest file.
type VersionStore interface {
	ReadVersion(manifestPath string) (manifest.Version, error)
	WriteVersion(manifestPath string, version manifest.Version) error
}

// CommitCollector returns classified commits reachable from HEAD.
type CommitCollector interface {
	Collect(executionContext context.Context, repositoryPath string, sinceTag string) ([]conventional.CommitRecord, error)
}

// ChangelogWriter prepends a rendered release section to the changelog file.
type ChangelogWriter interface {
	Prepend(changelogPath string, version manifest.Version, releaseDate time.Time, commits []conventional.CommitRecord) error
}

// ServiceDependencies enumerates collaborators required by the release service.
type ServiceDependencies struct {
	Logger          *zap.Logger
	GitExecutor     gitrepo.GitExecutor
	VersionStore    VersionStore
	CommitCollector CommitCollector
	ChangelogWriter ChangelogWriter
	Clock           func() time.Time
}

// Options describes a single release operation.
type Options struct {
	RepositoryPath string
	ManifestPath   string
	ChangelogPath  string
	Part           manifest.VersionPart
}

// BumpResult reports the outcome of a version bump.
type BumpResult struct {
	PreviousVersion manifest.Version
	NewVersion      manifest.Version
	TagName         string
	CommitCount     int
}

// Service orchestrates version bumps, changelog synthesis, and release tagging.
type Service struct {
	logger          *zap.Logger
	gitExecutor     gitrepo.GitExecutor
	versionStore    VersionStore
	commitCollector CommitCollector
	changelogWriter ChangelogWriter
	clock           func() time.Time
}

// NewService constructs a release service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.VersionStore == nil {
		return nil, ErrVersionStoreNotConfigured
	}
	if dependencies.CommitCollector == nil {
		return nil, ErrCommitCollectorNotConfigured
	}
	if dependencies.ChangelogWriter == nil {
		return nil, ErrChangelogWriterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	service := &Service{
		logger:          logger,
		gitExecutor:     dependencies.GitExecutor,
		versionStore:    dependencies.VersionStore,
		commitCollector: dependencies.CommitCollector,
		changelogWriter: dependencies.ChangelogWriter,
		clock:           clock,
	}
	return service, nil
}

// CurrentVersion returns the version currently recorded in the manifest.
func (service *Service) CurrentVersion(options Options) (manifest.Version, error) {
	if len(strings.TrimSpace(options.ManifestPath)) == 0 {
		return manifest.Version{}, ErrManifestPathRequired
	}
	return service.versionStore.ReadVersion(options.ManifestPath)
}

// Bump increments the requested version part, rewrites the manifest,
// prepends a changelog section built from commits since the previous release
// tag, and records a release commit with an annotated tag.
func (service *Service) Bump(executionContext context.Context, options Options) (BumpResult, error) {
	if validationError := validateBumpOptions(options); validationError != nil {
		return BumpResult{}, validationError
	}

	currentVersion, readError := service.versionStore.ReadVersion(options.ManifestPath)
	if readError != nil {
		return BumpResult{}, readError
	}

	newVersion := currentVersion.Bump(options.Part)

	if writeError := service.versionStore.WriteVersion(options.ManifestPath, newVersion); writeError != nil {
		return BumpResult{}, writeError
	}

	previousReleaseTag := fmt.Sprintf(releaseTagTemplateConstant, currentVersion.String())
	collectedCommits, collectError := service.commitCollector.Collect(executionContext, options.RepositoryPath, previousReleaseTag)
	if collectError != nil {
		return BumpResult{}, fmt.Errorf(commitCollectionFailedTemplateConstant, collectError)
	}

	if prependError := service.changelogWriter.Prepend(options.ChangelogPath, newVersion, service.clock(), collectedCommits); prependError != nil {
		return BumpResult{}, prependError
	}

	if recordError := service.recordRelease(executionContext, options, newVersion); recordError != nil {
		return BumpResult{}, recordError
	}

	service.logger.Info(versionBumpedLogMessageConstant,
		zap.String(previousVersionLogFieldConstant, currentVersion.String()),
		zap.String(newVersionLogFieldConstant, newVersion.String()),
		zap.Int(collectedCommitCountLogFieldConstant, len(collectedCommits)),
	)

	bumpResult := BumpResult{
		PreviousVersion: currentVersion,
		NewVersion:      newVersion,
		TagName:         fmt.Sprintf(releaseTagTemplateConstant, newVersion.String()),
		CommitCount:     len(collectedCommits),
	}
	return bumpResult, nil
}

func (service *Service) recordRelease(executionContext context.Context, options Options, newVersion manifest.Version) error {
	stageDetails := execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, options.ManifestPath, options.ChangelogPath},
		WorkingDirectory: options.RepositoryPath,
	}
	if _, stageError := service.gitExecutor.ExecuteGit(executionContext, stageDetails); stageError != nil {
		return fmt.Errorf(manifestStageFailedTemplateConstant, stageError)
	}

	commitMessage := fmt.Sprintf(releaseCommitMessageTemplateConstant, newVersion.String())
	commitDetails := execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitCommitNoVerifyFlagConstant, gitCommitMessageFlagConstant, commitMessage},
		WorkingDirectory: options.RepositoryPath,
	}
	if _, commitError := service.gitExecutor.ExecuteGit(executionContext, commitDetails); commitError != nil {
		return fmt.Errorf(releaseCommitFailedTemplateConstant, commitError)
	}

	tagName := fmt.Sprintf(releaseTagTemplateConstant, newVersion.String())
	tagMessage := fmt.Sprintf(releaseTagMessageTemplateConstant, newVersion.String())
	tagDetails := execshell.CommandDetails{
		Arguments:        []string{gitTagSubcommandConstant, gitTagAnnotateFlagConstant, tagName, gitCommitMessageFlagConstant, tagMessage},
		WorkingDirectory: options.RepositoryPath,
	}
	if _, tagError := service.gitExecutor.ExecuteGit(executionContext, tagDetails); tagError != nil {
		return fmt.Errorf(releaseTagFailedTemplateConstant, tagError)
	}

	return nil
}

func validateBumpOptions(options Options) error {
	if len(strings.TrimSpace(options.RepositoryPath)) == 0 {
		return ErrRepositoryPathRequired
	}
	if len(strings.TrimSpace(options.ManifestPath)) == 0 {
		return ErrManifestPathRequired
	}
	if len(strings.TrimSpace(options.ChangelogPath)) == 0 {
		return ErrChangelogPathRequired
	}
	_, partError := manifest.ParseVersionPart(string(options.Part))
	return partError
}
