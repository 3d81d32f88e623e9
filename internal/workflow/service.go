package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shipmate-cli/shipmate/internal/execshell"
	"github.com/shipmate-cli/shipmate/internal/githubcli"
	"github.com/shipmate-cli/shipmate/internal/gitrepo"
	"github.com/shipmate-cli/shipmate/internal/manifest"
)

const (
	ReleaseCandidateBranchNameConstant = "release-candidate"
	MainBranchNameConstant             = "main"
	OriginRemoteNameConstant           = "origin"

	gitExecutorMissingMessageConstant         = "git executor not configured"
	repositoryInspectorMissingMessageConstant = "repository inspector not configured"
	githubOperationsMissingMessageConstant    = "github operations not configured"
	changelogParserMissingMessageConstant     = "changelog parser not configured"

	gitCheckoutSubcommandConstant = "checkout"
	gitMergeSubcommandConstant    = "merge"
	gitRebaseSubcommandConstant   = "rebase"
	gitPushSubcommandConstant     = "push"
	gitForceCreateFlagConstant    = "-B"
	gitNoFastForwardFlagConstant  = "--no-ff"
	gitSetUpstreamFlagConstant    = "-u"

	githubCLIToolNameConstant        = "gh"
	githubCLIInstallationHintConst   = "Install from https://cli.github.com/ and run: gh auth login"
	releasePullRequestTitleTemplate  = "Release v%s"
	releasePullRequestFallbackTitle  = "Release candidate to main"
	releasePullRequestFallbackBody   = "(No changelog entries found)"
	finalizeOnCandidateMessageConst  = "already on 'release-candidate'; run finalize from a feature branch"
	rebaseFromProtectedMessageConst  = "rebase should be run from a feature branch (not 'main' or 'release-candidate')"
	candidateBranchMissingMessage    = "'release-candidate' branch not found; create it first with 'shipmate release rc' or 'shipmate branch finalize'"
	currentBranchErrorTemplateConst  = "unable to determine current branch: %w"
	returnToBranchFailedTemplateCnst = "failed to return to branch %q after preparing release-candidate: %w"

	candidateCreatedAndPushedMessage = "Release candidate branch created and pushed: release-candidate"
	candidateCreatedLocallyMessage   = "Created local branch 'release-candidate'. Set up a remote and push when ready."
	finalizeMergedAndPushedMessage   = "Merged current branch into 'release-candidate' and pushed upstream."
	finalizeMergedNotPushedMessage   = "Merged current branch into 'release-candidate'. Not pushed."
	finalizeConflictGuidanceMessage  = "Merge conflicts detected while merging into 'release-candidate'.\nResolve conflicts, commit the merge, then push with:\n  git push -u origin release-candidate"
	rebaseCompletedAndPushedMessage  = "Rebased on 'release-candidate' and pushed successfully."
	rebaseConflictGuidanceMessage    = "Rebase encountered conflicts. Resolve them and continue with:\n  git add -A\n  git rebase --continue\nOr abort rebase with:\n  git rebase --abort"
	pullRequestOpenedMessage         = "Opened pull request from release-candidate to main."
	branchProtectionAppliedMessage   = "Branch protection for main configured via gh CLI."

	rebasePushRemediationConstant           = "git push --force-with-lease"
	finalizePushRemediationConstant         = "git push -u origin release-candidate"
	featurePushRemediationTemplateConstant  = "git push -u origin %s"
	featureBranchCreatedAndPushedTemplate   = "Created and pushed branch '%s' from release-candidate."
	featureBranchCreatedLocallyTemplateCnst = "Created branch '%s' from release-candidate.\nPush manually with: %s"
	rebaseSoftFailureTemplateConstant       = "Rebased on 'release-candidate'. %s"

	protectionManualFallbackMessageConstant = "Could not configure branch protection automatically.\nTo enable manually, run:\n  gh api -X PUT repos/<owner>/<repo>/branches/main/protection \\\n    -H 'Accept: application/vnd.github+json' \\\n    --input - <<'JSON'\n{\n  \"enforce_admins\": true,\n  \"required_status_checks\": null,\n  \"required_pull_request_reviews\": {\n    \"required_approving_review_count\": 1\n  },\n  \"restrictions\": null\n}\nJSON"

	operationLogMessageConstant    = "workflow operation completed"
	operationLogFieldConstant      = "operation"
	messageLogFieldConstant        = "message"
	humanActionLogFieldConstant    = "requires_human_action"
	finalizeOperationNameConstant  = "finalize"
	rebaseOperationNameConstant    = "rebase"
	candidateOperationNameConstant = "create-release-candidate"
	featureOperationNameConstant   = "create-feature-branch"
	pullRequestOperationName       = "open-release-pr"
	protectOperationNameConstant   = "protect-main"
)

// ErrGitExecutorNotConfigured indicates the service was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryInspectorNotConfigured indicates the service was built without a repository inspector.
var ErrRepositoryInspectorNotConfigured = errors.New(repositoryInspectorMissingMessageConstant)

// ErrGitHubOperationsNotConfigured indicates the service was built without GitHub operations.
var ErrGitHubOperationsNotConfigured = errors.New(githubOperationsMissingMessageConstant)

// ErrChangelogParserNotConfigured indicates the service was built without a changelog parser.
var ErrChangelogParserNotConfigured = errors.New(changelogParserMissingMessageConstant)

// candidateBaseRefs is the ordered base-selection priority list for creating
// or resetting the release-candidate branch.
var candidateBaseRefs = []string{
	OriginRemoteNameConstant + "/" + ReleaseCandidateBranchNameConstant,
	OriginRemoteNameConstant + "/" + MainBranchNameConstant,
	MainBranchNameConstant,
}

// RepositoryInspector answers branch and remote queries about a repository.
type RepositoryInspector interface {
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	RevisionExists(executionContext context.Context, repositoryPath string, revision string) bool
	OriginRemoteURL(executionContext context.Context, repositoryPath string) (string, error)
	FetchAllRemotes(executionContext context.Context, repositoryPath string)
}

// GitHubOperations is the subset of the GitHub CLI client used by workflows.
type GitHubOperations interface {
	IsAvailable() bool
	CreatePullRequest(executionContext context.Context, details githubcli.PullRequestDetails) error
	UpdateBranchProtection(executionContext context.Context, repository string, branchName string, rules githubcli.BranchProtectionRules) error
}

// ChangelogParser extracts the newest changelog section.
type ChangelogParser interface {
	ParseLatestSection(changelogPath string) (*manifest.Version, string)
}

// ServiceDependencies enumerates collaborators required by the workflow service.
type ServiceDependencies struct {
	Logger              *zap.Logger
	GitExecutor         gitrepo.GitExecutor
	RepositoryInspector RepositoryInspector
	GitHubOperations    GitHubOperations
	ChangelogParser     ChangelogParser
}

// Options describes a single workflow invocation.
type Options struct {
	RepositoryPath string
	ChangelogPath  string
	BranchName     string
}

// Result reports the outcome of a workflow operation. Succeeded covers soft
// failures (rejected pushes); RequiresHumanAction marks conflicts left in
// place for manual resolution.
type Result struct {
	Succeeded           bool
	Message             string
	RequiresHumanAction bool
}

// Service coordinates branch workflow transitions through the git and GitHub
// collaborators. It holds no repository state; every operation derives the
// current branch at entry.
type Service struct {
	logger           *zap.Logger
	gitExecutor      gitrepo.GitExecutor
	inspector        RepositoryInspector
	githubOperations GitHubOperations
	changelogParser  ChangelogParser
}

// NewService constructs a workflow service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryInspector == nil {
		return nil, ErrRepositoryInspectorNotConfigured
	}
	if dependencies.GitHubOperations == nil {
		return nil, ErrGitHubOperationsNotConfigured
	}
	if dependencies.ChangelogParser == nil {
		return nil, ErrChangelogParserNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &Service{
		logger:           logger,
		gitExecutor:      dependencies.GitExecutor,
		inspector:        dependencies.RepositoryInspector,
		githubOperations: dependencies.GitHubOperations,
		changelogParser:  dependencies.ChangelogParser,
	}
	return service, nil
}

// CreateReleaseCandidate force-creates the release-candidate branch at the
// current commit and pushes it with upstream tracking. A failed push is a
// soft failure: local-only usage is valid when no remote is configured.
func (service *Service) CreateReleaseCandidate(executionContext context.Context, options Options) (Result, error) {
	if _, checkoutError := service.runGit(executionContext, options.RepositoryPath, gitCheckoutSubcommandConstant, gitForceCreateFlagConstant, ReleaseCandidateBranchNameConstant); checkoutError != nil {
		return Result{}, checkoutError
	}

	if _, pushError := service.runGit(executionContext, options.RepositoryPath, gitPushSubcommandConstant, gitSetUpstreamFlagConstant, OriginRemoteNameConstant, ReleaseCandidateBranchNameConstant); pushError != nil {
		return service.report(candidateOperationNameConstant, Result{Succeeded: true, Message: candidateCreatedLocallyMessage}), nil
	}

	return service.report(candidateOperationNameConstant, Result{Succeeded: true, Message: candidateCreatedAndPushedMessage}), nil
}

// Finalize merges the current branch into release-candidate with an explicit
// merge commit and pushes the result, returning to the original branch
// afterwards regardless of push outcome.
func (service *Service) Finalize(executionContext context.Context, options Options) (Result, error) {
	currentBranch, branchError := service.inspector.CurrentBranch(executionContext, options.RepositoryPath)
	if branchError != nil {
		return Result{}, fmt.Errorf(currentBranchErrorTemplateConst, branchError)
	}
	if currentBranch == ReleaseCandidateBranchNameConstant {
		return Result{}, InvalidStateError{Message: finalizeOnCandidateMessageConst}
	}

	service.inspector.FetchAllRemotes(executionContext, options.RepositoryPath)

	if prepareError := service.prepareReleaseCandidate(executionContext, options.RepositoryPath); prepareError != nil {
		return Result{}, prepareError
	}

	if _, mergeError := service.runGit(executionContext, options.RepositoryPath, gitMergeSubcommandConstant, gitNoFastForwardFlagConstant, currentBranch); mergeError != nil {
		conflictResult := Result{Succeeded: false, Message: finalizeConflictGuidanceMessage, RequiresHumanAction: true}
		return service.report(finalizeOperationNameConstant, conflictResult), MergeConflictError{SourceBranch: currentBranch, TargetBranch: ReleaseCandidateBranchNameConstant}
	}

	_, pushError := service.runGit(executionContext, options.RepositoryPath, gitPushSubcommandConstant, gitSetUpstreamFlagConstant, OriginRemoteNameConstant, ReleaseCandidateBranchNameConstant)

	// Stay on release-candidate only if switching back fails.
	_, _ = service.runGit(executionContext, options.RepositoryPath, gitCheckoutSubcommandConstant, currentBranch)

	if pushError != nil {
		pushRejection := PushRejectedError{BranchName: ReleaseCandidateBranchNameConstant, RemediationCommand: finalizePushRemediationConstant}
		softResult := Result{Succeeded: true, Message: finalizeMergedNotPushedMessage + "\n" + pushRejection.Error()}
		return service.report(finalizeOperationNameConstant, softResult), nil
	}

	return service.report(finalizeOperationNameConstant, Result{Succeeded: true, Message: finalizeMergedAndPushedMessage}), nil
}

// Rebase rebases the current feature branch onto a freshly prepared
// release-candidate. A non-fast-forward push rejection after the rebase is a
// soft failure because history was legitimately rewritten.
func (service *Service) Rebase(executionContext context.Context, options Options) (Result, error) {
	currentBranch, branchError := service.inspector.CurrentBranch(executionContext, options.RepositoryPath)
	if branchError != nil {
		return Result{}, fmt.Errorf(currentBranchErrorTemplateConst, branchError)
	}
	if currentBranch == MainBranchNameConstant || currentBranch == ReleaseCandidateBranchNameConstant {
		return Result{}, InvalidStateError{Message: rebaseFromProtectedMessageConst}
	}

	service.inspector.FetchAllRemotes(executionContext, options.RepositoryPath)

	if prepareError := service.prepareReleaseCandidate(executionContext, options.RepositoryPath); prepareError != nil {
		return Result{}, prepareError
	}

	if _, checkoutError := service.runGit(executionContext, options.RepositoryPath, gitCheckoutSubcommandConstant, currentBranch); checkoutError != nil {
		return Result{}, fmt.Errorf(returnToBranchFailedTemplateCnst, currentBranch, checkoutError)
	}

	if _, rebaseError := service.runGit(executionContext, options.RepositoryPath, gitRebaseSubcommandConstant, ReleaseCandidateBranchNameConstant); rebaseError != nil {
		conflictResult := Result{Succeeded: false, Message: rebaseConflictGuidanceMessage, RequiresHumanAction: true}
		return service.report(rebaseOperationNameConstant, conflictResult), RebaseConflictError{BranchName: currentBranch, BaseBranch: ReleaseCandidateBranchNameConstant}
	}

	if _, pushError := service.runGit(executionContext, options.RepositoryPath, gitPushSubcommandConstant); pushError != nil {
		pushRejection := PushRejectedError{BranchName: currentBranch, RemediationCommand: rebasePushRemediationConstant}
		softResult := Result{Succeeded: true, Message: fmt.Sprintf(rebaseSoftFailureTemplateConstant, pushRejection.Error())}
		return service.report(rebaseOperationNameConstant, softResult), nil
	}

	return service.report(rebaseOperationNameConstant, Result{Succeeded: true, Message: rebaseCompletedAndPushedMessage}), nil
}

// CreateFeatureBranch validates the requested name, prepares the
// release-candidate base, branches from it, and pushes with upstream
// tracking. A rejected push is a soft failure.
func (service *Service) CreateFeatureBranch(executionContext context.Context, options Options) (Result, error) {
	branchName, nameError := ParseBranchName(options.BranchName)
	if nameError != nil {
		return Result{}, nameError
	}

	service.inspector.FetchAllRemotes(executionContext, options.RepositoryPath)

	if prepareError := service.prepareReleaseCandidate(executionContext, options.RepositoryPath); prepareError != nil {
		return Result{}, prepareError
	}

	fullBranchName := branchName.String()
	if _, checkoutError := service.runGit(executionContext, options.RepositoryPath, gitCheckoutSubcommandConstant, gitForceCreateFlagConstant, fullBranchName, ReleaseCandidateBranchNameConstant); checkoutError != nil {
		return Result{}, checkoutError
	}

	if _, pushError := service.runGit(executionContext, options.RepositoryPath, gitPushSubcommandConstant, gitSetUpstreamFlagConstant, OriginRemoteNameConstant, fullBranchName); pushError != nil {
		pushRejection := PushRejectedError{BranchName: fullBranchName, RemediationCommand: fmt.Sprintf(featurePushRemediationTemplateConstant, fullBranchName)}
		softResult := Result{Succeeded: true, Message: fmt.Sprintf(featureBranchCreatedLocallyTemplateCnst, fullBranchName, pushRejection.RemediationCommand)}
		return service.report(featureOperationNameConstant, softResult), nil
	}

	return service.report(featureOperationNameConstant, Result{Succeeded: true, Message: fmt.Sprintf(featureBranchCreatedAndPushedTemplate, fullBranchName)}), nil
}

// OpenReleasePR opens a pull request from release-candidate to main with the
// title and body derived from the newest changelog section.
func (service *Service) OpenReleasePR(executionContext context.Context, options Options) (Result, error) {
	if !service.githubOperations.IsAvailable() {
		return Result{}, MissingToolError{ToolName: githubCLIToolNameConstant, InstallationHint: githubCLIInstallationHintConst}
	}

	service.inspector.FetchAllRemotes(executionContext, options.RepositoryPath)

	if !service.inspector.RevisionExists(executionContext, options.RepositoryPath, ReleaseCandidateBranchNameConstant) {
		return Result{}, InvalidStateError{Message: candidateBranchMissingMessage}
	}

	latestVersion, sectionBody := service.changelogParser.ParseLatestSection(options.ChangelogPath)
	pullRequestTitle := releasePullRequestFallbackTitle
	if latestVersion != nil {
		pullRequestTitle = fmt.Sprintf(releasePullRequestTitleTemplate, latestVersion.String())
	}
	pullRequestBody := sectionBody
	if len(strings.TrimSpace(pullRequestBody)) == 0 {
		pullRequestBody = releasePullRequestFallbackBody
	}

	createError := service.githubOperations.CreatePullRequest(executionContext, githubcli.PullRequestDetails{
		BaseBranch: MainBranchNameConstant,
		HeadBranch: ReleaseCandidateBranchNameConstant,
		Title:      pullRequestTitle,
		Body:       pullRequestBody,
	})
	if createError != nil {
		return Result{}, PullRequestError{Cause: createError}
	}

	return service.report(pullRequestOperationName, Result{Succeeded: true, Message: pullRequestOpenedMessage}), nil
}

// ProtectMain applies the standard branch protection to main via the GitHub
// CLI. Any failure reports the manual invocation alongside the error.
func (service *Service) ProtectMain(executionContext context.Context, options Options) (Result, error) {
	remoteURL, remoteError := service.inspector.OriginRemoteURL(executionContext, options.RepositoryPath)
	if remoteError != nil {
		return Result{Message: protectionManualFallbackMessageConstant}, BranchProtectionError{Cause: remoteError}
	}

	ownerRepository, parseError := gitrepo.ParseOwnerRepository(remoteURL)
	if parseError != nil {
		return Result{Message: protectionManualFallbackMessageConstant}, BranchProtectionError{Cause: parseError}
	}

	if !service.githubOperations.IsAvailable() {
		missingTool := MissingToolError{ToolName: githubCLIToolNameConstant, InstallationHint: githubCLIInstallationHintConst}
		return Result{Message: protectionManualFallbackMessageConstant}, missingTool
	}

	updateError := service.githubOperations.UpdateBranchProtection(executionContext, ownerRepository.Slug(), MainBranchNameConstant, githubcli.DefaultBranchProtectionRules())
	if updateError != nil {
		return Result{Message: protectionManualFallbackMessageConstant}, BranchProtectionError{Cause: updateError}
	}

	return service.report(protectOperationNameConstant, Result{Succeeded: true, Message: branchProtectionAppliedMessage}), nil
}

// prepareReleaseCandidate checks out release-candidate from the first
// available base in priority order.
func (service *Service) prepareReleaseCandidate(executionContext context.Context, repositoryPath string) error {
	for _, baseRef := range candidateBaseRefs {
		if _, checkoutError := service.runGit(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitForceCreateFlagConstant, ReleaseCandidateBranchNameConstant, baseRef); checkoutError == nil {
			return nil
		}
	}
	return NoBaseBranchError{}
}

func (service *Service) runGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
}

func (service *Service) report(operationName string, result Result) Result {
	service.logger.Info(operationLogMessageConstant,
		zap.String(operationLogFieldConstant, operationName),
		zap.String(messageLogFieldConstant, result.Message),
		zap.Bool(humanActionLogFieldConstant, result.RequiresHumanAction),
	)
	return result
}
