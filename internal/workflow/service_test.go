package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shipmate-cli/shipmate/internal/execshell"
	"github.com/shipmate-cli/shipmate/internal/githubcli"
	"github.com/shipmate-cli/shipmate/internal/manifest"
	"github.com/shipmate-cli/shipmate/internal/workflow"
)

// scriptedWorkflowGitExecutor records git invocations as joined argument
// lines and fails the ones listed in failingCommands.
type scriptedWorkflowGitExecutor struct {
	executedCommands []string
	failingCommands  map[string]bool
}

func (executor *scriptedWorkflowGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	commandLine := strings.Join(details.Arguments, " ")
	executor.executedCommands = append(executor.executedCommands, commandLine)
	if executor.failingCommands[commandLine] {
		return execshell.ExecutionResult{ExitCode: 1}, fmt.Errorf("git %s exited with status 1", commandLine)
	}
	return execshell.ExecutionResult{}, nil
}

type stubRepositoryInspector struct {
	currentBranch      string
	currentBranchError error
	revisionPresent    bool
	remoteURL          string
	remoteURLError     error
	fetchInvocations   int
}

func (inspector *stubRepositoryInspector) CurrentBranch(context.Context, string) (string, error) {
	return inspector.currentBranch, inspector.currentBranchError
}

func (inspector *stubRepositoryInspector) RevisionExists(context.Context, string, string) bool {
	return inspector.revisionPresent
}

func (inspector *stubRepositoryInspector) OriginRemoteURL(context.Context, string) (string, error) {
	return inspector.remoteURL, inspector.remoteURLError
}

func (inspector *stubRepositoryInspector) FetchAllRemotes(context.Context, string) {
	inspector.fetchInvocations++
}

type stubGitHubOperations struct {
	available             bool
	createdPullRequests   []githubcli.PullRequestDetails
	createError           error
	protectedRepositories []string
	protectedBranches     []string
	appliedRules          []githubcli.BranchProtectionRules
	updateError           error
}

func (operations *stubGitHubOperations) IsAvailable() bool {
	return operations.available
}

func (operations *stubGitHubOperations) CreatePullRequest(_ context.Context, details githubcli.PullRequestDetails) error {
	operations.createdPullRequests = append(operations.createdPullRequests, details)
	return operations.createError
}

func (operations *stubGitHubOperations) UpdateBranchProtection(_ context.Context, repository string, branchName string, rules githubcli.BranchProtectionRules) error {
	operations.protectedRepositories = append(operations.protectedRepositories, repository)
	operations.protectedBranches = append(operations.protectedBranches, branchName)
	operations.appliedRules = append(operations.appliedRules, rules)
	return operations.updateError
}

type stubChangelogParser struct {
	latestVersion *manifest.Version
	latestBody    string
}

func (parser *stubChangelogParser) ParseLatestSection(string) (*manifest.Version, string) {
	return parser.latestVersion, parser.latestBody
}

type workflowFixture struct {
	executor  *scriptedWorkflowGitExecutor
	inspector *stubRepositoryInspector
	github    *stubGitHubOperations
	parser    *stubChangelogParser
	service   *workflow.Service
}

func newWorkflowFixture(testInstance *testing.T, configure func(*workflowFixture)) *workflowFixture {
	testInstance.Helper()

	fixture := &workflowFixture{
		executor:  &scriptedWorkflowGitExecutor{failingCommands: map[string]bool{}},
		inspector: &stubRepositoryInspector{currentBranch: "feat/widget", revisionPresent: true, remoteURL: "git@github.com:octocat/widgets.git"},
		github:    &stubGitHubOperations{available: true},
		parser:    &stubChangelogParser{},
	}
	if configure != nil {
		configure(fixture)
	}

	service, serviceError := workflow.NewService(workflow.ServiceDependencies{
		GitExecutor:         fixture.executor,
		RepositoryInspector: fixture.inspector,
		GitHubOperations:    fixture.github,
		ChangelogParser:     fixture.parser,
	})
	require.NoError(testInstance, serviceError)
	fixture.service = service
	return fixture
}

func testWorkflowOptions() workflow.Options {
	return workflow.Options{RepositoryPath: "/tmp/repo", ChangelogPath: "/tmp/repo/CHANGELOG.md"}
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	executor := &scriptedWorkflowGitExecutor{}
	inspector := &stubRepositoryInspector{}
	github := &stubGitHubOperations{}
	parser := &stubChangelogParser{}

	testCases := []struct {
		name          string
		dependencies  workflow.ServiceDependencies
		expectedError error
	}{
		{
			name:          "missing_git_executor",
			dependencies:  workflow.ServiceDependencies{RepositoryInspector: inspector, GitHubOperations: github, ChangelogParser: parser},
			expectedError: workflow.ErrGitExecutorNotConfigured,
		},
		{
			name:          "missing_repository_inspector",
			dependencies:  workflow.ServiceDependencies{GitExecutor: executor, GitHubOperations: github, ChangelogParser: parser},
			expectedError: workflow.ErrRepositoryInspectorNotConfigured,
		},
		{
			name:          "missing_github_operations",
			dependencies:  workflow.ServiceDependencies{GitExecutor: executor, RepositoryInspector: inspector, ChangelogParser: parser},
			expectedError: workflow.ErrGitHubOperationsNotConfigured,
		},
		{
			name:          "missing_changelog_parser",
			dependencies:  workflow.ServiceDependencies{GitExecutor: executor, RepositoryInspector: inspector, GitHubOperations: github},
			expectedError: workflow.ErrChangelogParserNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			_, constructionError := workflow.NewService(testCase.dependencies)
			require.ErrorIs(subtestInstance, constructionError, testCase.expectedError)
		})
	}
}

func TestCreateReleaseCandidatePushesUpstream(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, nil)

	result, operationError := fixture.service.CreateReleaseCandidate(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Equal(testInstance, "Release candidate branch created and pushed: release-candidate", result.Message)
	require.Equal(testInstance, []string{
		"checkout -B release-candidate",
		"push -u origin release-candidate",
	}, fixture.executor.executedCommands)
}

func TestCreateReleaseCandidateTreatsPushFailureAsSoft(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["push -u origin release-candidate"] = true
	})

	result, operationError := fixture.service.CreateReleaseCandidate(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Contains(testInstance, result.Message, "Set up a remote and push when ready")
}

func TestFinalizeRejectsReleaseCandidateBranch(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.inspector.currentBranch = "release-candidate"
	})

	_, operationError := fixture.service.Finalize(context.Background(), testWorkflowOptions())
	var stateError workflow.InvalidStateError
	require.ErrorAs(testInstance, operationError, &stateError)
	require.Empty(testInstance, fixture.executor.executedCommands)
	require.Zero(testInstance, fixture.inspector.fetchInvocations)
}

func TestFinalizeMergesAndReturnsToOriginalBranch(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["checkout -B release-candidate origin/release-candidate"] = true
	})

	result, operationError := fixture.service.Finalize(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.False(testInstance, result.RequiresHumanAction)
	require.Equal(testInstance, "Merged current branch into 'release-candidate' and pushed upstream.", result.Message)
	require.Equal(testInstance, 1, fixture.inspector.fetchInvocations)
	require.Equal(testInstance, []string{
		"checkout -B release-candidate origin/release-candidate",
		"checkout -B release-candidate origin/main",
		"merge --no-ff feat/widget",
		"push -u origin release-candidate",
		"checkout feat/widget",
	}, fixture.executor.executedCommands)
}

func TestFinalizeReportsMergeConflictForHumanResolution(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["merge --no-ff feat/widget"] = true
	})

	result, operationError := fixture.service.Finalize(context.Background(), testWorkflowOptions())
	var conflictError workflow.MergeConflictError
	require.ErrorAs(testInstance, operationError, &conflictError)
	require.Equal(testInstance, "feat/widget", conflictError.SourceBranch)
	require.False(testInstance, result.Succeeded)
	require.True(testInstance, result.RequiresHumanAction)
	require.Contains(testInstance, result.Message, "git push -u origin release-candidate")

	// The conflicted merge is left in place: no push, no checkout back.
	lastCommand := fixture.executor.executedCommands[len(fixture.executor.executedCommands)-1]
	require.Equal(testInstance, "merge --no-ff feat/widget", lastCommand)
}

func TestFinalizeFailsWhenNoBaseBranchExists(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["checkout -B release-candidate origin/release-candidate"] = true
		fixture.executor.failingCommands["checkout -B release-candidate origin/main"] = true
		fixture.executor.failingCommands["checkout -B release-candidate main"] = true
	})

	_, operationError := fixture.service.Finalize(context.Background(), testWorkflowOptions())
	var baseError workflow.NoBaseBranchError
	require.ErrorAs(testInstance, operationError, &baseError)
	require.Len(testInstance, fixture.executor.executedCommands, 3)
}

func TestFinalizeTreatsPushRejectionAsSoftFailure(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["push -u origin release-candidate"] = true
	})

	result, operationError := fixture.service.Finalize(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Contains(testInstance, result.Message, "Not pushed")
	require.Contains(testInstance, result.Message, "git push -u origin release-candidate")
	require.Contains(testInstance, fixture.executor.executedCommands, "checkout feat/widget")
}

func TestRebaseRejectsProtectedBranches(testInstance *testing.T) {
	for _, protectedBranch := range []string{"main", "release-candidate"} {
		testInstance.Run(protectedBranch, func(subtestInstance *testing.T) {
			fixture := newWorkflowFixture(subtestInstance, func(fixture *workflowFixture) {
				fixture.inspector.currentBranch = protectedBranch
			})

			_, operationError := fixture.service.Rebase(context.Background(), testWorkflowOptions())
			var stateError workflow.InvalidStateError
			require.ErrorAs(subtestInstance, operationError, &stateError)
			require.Empty(subtestInstance, fixture.executor.executedCommands)
		})
	}
}

func TestRebaseRebasesOntoFreshReleaseCandidate(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, nil)

	result, operationError := fixture.service.Rebase(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Equal(testInstance, "Rebased on 'release-candidate' and pushed successfully.", result.Message)
	require.Equal(testInstance, []string{
		"checkout -B release-candidate origin/release-candidate",
		"checkout feat/widget",
		"rebase release-candidate",
		"push",
	}, fixture.executor.executedCommands)
}

func TestRebaseReportsConflictWithContinueGuidance(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["rebase release-candidate"] = true
	})

	result, operationError := fixture.service.Rebase(context.Background(), testWorkflowOptions())
	var conflictError workflow.RebaseConflictError
	require.ErrorAs(testInstance, operationError, &conflictError)
	require.True(testInstance, result.RequiresHumanAction)
	require.Contains(testInstance, result.Message, "git rebase --continue")
	require.Contains(testInstance, result.Message, "git rebase --abort")
}

func TestRebaseTreatsPushRejectionAsSoftFailure(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["push"] = true
	})

	result, operationError := fixture.service.Rebase(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Contains(testInstance, result.Message, "git push --force-with-lease")
}

func TestCreateFeatureBranchValidatesName(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, nil)

	options := testWorkflowOptions()
	options.BranchName = "feature/my-change"
	_, operationError := fixture.service.CreateFeatureBranch(context.Background(), options)
	var nameError workflow.InvalidNameError
	require.ErrorAs(testInstance, operationError, &nameError)
	require.Empty(testInstance, fixture.executor.executedCommands)
}

func TestCreateFeatureBranchBranchesFromReleaseCandidate(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, nil)

	options := testWorkflowOptions()
	options.BranchName = "feat/my-change"
	result, operationError := fixture.service.CreateFeatureBranch(context.Background(), options)
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Equal(testInstance, "Created and pushed branch 'feat/my-change' from release-candidate.", result.Message)
	require.Equal(testInstance, []string{
		"checkout -B release-candidate origin/release-candidate",
		"checkout -B feat/my-change release-candidate",
		"push -u origin feat/my-change",
	}, fixture.executor.executedCommands)
}

func TestCreateFeatureBranchTreatsPushRejectionAsSoftFailure(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.executor.failingCommands["push -u origin feat/my-change"] = true
	})

	options := testWorkflowOptions()
	options.BranchName = "feat/my-change"
	result, operationError := fixture.service.CreateFeatureBranch(context.Background(), options)
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Contains(testInstance, result.Message, "git push -u origin feat/my-change")
}

func TestOpenReleasePRRequiresGitHubCLI(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.github.available = false
	})

	_, operationError := fixture.service.OpenReleasePR(context.Background(), testWorkflowOptions())
	var toolError workflow.MissingToolError
	require.ErrorAs(testInstance, operationError, &toolError)
	require.Equal(testInstance, "gh", toolError.ToolName)
	require.Contains(testInstance, operationError.Error(), "gh auth login")
	require.Empty(testInstance, fixture.github.createdPullRequests)
}

func TestOpenReleasePRRequiresReleaseCandidateBranch(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.inspector.revisionPresent = false
	})

	_, operationError := fixture.service.OpenReleasePR(context.Background(), testWorkflowOptions())
	var stateError workflow.InvalidStateError
	require.ErrorAs(testInstance, operationError, &stateError)
	require.Empty(testInstance, fixture.github.createdPullRequests)
}

func TestOpenReleasePRUsesLatestChangelogSection(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.parser.latestVersion = &manifest.Version{Major: 1, Minor: 2, Patch: 4}
		fixture.parser.latestBody = "### feat\n- add widget (aaa1111)"
	})

	result, operationError := fixture.service.OpenReleasePR(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Len(testInstance, fixture.github.createdPullRequests, 1)
	createdPullRequest := fixture.github.createdPullRequests[0]
	require.Equal(testInstance, "main", createdPullRequest.BaseBranch)
	require.Equal(testInstance, "release-candidate", createdPullRequest.HeadBranch)
	require.Equal(testInstance, "Release v1.2.4", createdPullRequest.Title)
	require.Equal(testInstance, "### feat\n- add widget (aaa1111)", createdPullRequest.Body)
}

func TestOpenReleasePRFallsBackWithoutChangelogSection(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, nil)

	_, operationError := fixture.service.OpenReleasePR(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.Len(testInstance, fixture.github.createdPullRequests, 1)
	createdPullRequest := fixture.github.createdPullRequests[0]
	require.Equal(testInstance, "Release candidate to main", createdPullRequest.Title)
	require.Equal(testInstance, "(No changelog entries found)", createdPullRequest.Body)
}

func TestOpenReleasePRWrapsCreationFailures(testInstance *testing.T) {
	creationFailure := errors.New("gh exited with status 1")
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.github.createError = creationFailure
	})

	_, operationError := fixture.service.OpenReleasePR(context.Background(), testWorkflowOptions())
	var requestError workflow.PullRequestError
	require.ErrorAs(testInstance, operationError, &requestError)
	require.ErrorIs(testInstance, operationError, creationFailure)
}

func TestProtectMainAppliesDefaultRules(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, nil)

	result, operationError := fixture.service.ProtectMain(context.Background(), testWorkflowOptions())
	require.NoError(testInstance, operationError)
	require.True(testInstance, result.Succeeded)
	require.Equal(testInstance, "Branch protection for main configured via gh CLI.", result.Message)
	require.Equal(testInstance, []string{"octocat/widgets"}, fixture.github.protectedRepositories)
	require.Equal(testInstance, []string{"main"}, fixture.github.protectedBranches)
	require.Equal(testInstance, githubcli.DefaultBranchProtectionRules(), fixture.github.appliedRules[0])
}

func TestProtectMainRequiresGitHubCLI(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.github.available = false
	})

	result, operationError := fixture.service.ProtectMain(context.Background(), testWorkflowOptions())
	var toolError workflow.MissingToolError
	require.ErrorAs(testInstance, operationError, &toolError)
	require.Contains(testInstance, result.Message, "Could not configure branch protection automatically")
	require.Empty(testInstance, fixture.github.appliedRules)
}

func TestProtectMainReportsUnparsableRemote(testInstance *testing.T) {
	fixture := newWorkflowFixture(testInstance, func(fixture *workflowFixture) {
		fixture.inspector.remoteURL = "not-a-remote-url"
	})

	result, operationError := fixture.service.ProtectMain(context.Background(), testWorkflowOptions())
	var protectionError workflow.BranchProtectionError
	require.ErrorAs(testInstance, operationError, &protectionError)
	require.Contains(testInstance, result.Message, "Could not configure branch protection automatically")
}
