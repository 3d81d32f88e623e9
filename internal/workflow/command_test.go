package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/shipmate-cli/shipmate/internal/execshell"
	"github.com/shipmate-cli/shipmate/internal/workflow"
)

// commandScriptedExecutor serves both git and gh invocations with canned
// outputs keyed by the joined argument line.
type commandScriptedExecutor struct {
	executedGitCommands    []string
	executedGitHubCommands []string
	gitOutputs             map[string]string
	failingGitCommands     map[string]bool
}

func (executor *commandScriptedExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	commandLine := strings.Join(details.Arguments, " ")
	executor.executedGitCommands = append(executor.executedGitCommands, commandLine)
	if executor.failingGitCommands[commandLine] {
		return execshell.ExecutionResult{ExitCode: 1}, errors.New("git " + commandLine + " exited with status 1")
	}
	return execshell.ExecutionResult{StandardOutput: executor.gitOutputs[commandLine]}, nil
}

func (executor *commandScriptedExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.executedGitHubCommands = append(executor.executedGitHubCommands, strings.Join(details.Arguments, " "))
	return execshell.ExecutionResult{}, nil
}

type workflowCommandHarness struct {
	executor *commandScriptedExecutor
	output   *bytes.Buffer
	command  *cobra.Command
}

func (harness *workflowCommandHarness) run(arguments ...string) error {
	harness.command.SetArgs(arguments)
	return harness.command.ExecuteContext(context.Background())
}

func newWorkflowCommandHarness(testInstance *testing.T, build func(*workflow.CommandBuilder) (*cobra.Command, error), githubAvailable bool) *workflowCommandHarness {
	testInstance.Helper()

	executor := &commandScriptedExecutor{
		gitOutputs: map[string]string{
			"rev-parse --abbrev-ref HEAD":                  "feat/widget\n",
			"config --get remote.origin.url":               "git@github.com:octocat/widgets.git\n",
			"rev-parse --verify --quiet release-candidate": "abc1234\n",
		},
		failingGitCommands: map[string]bool{},
	}

	locator := func(string) (string, error) { return "/usr/bin/gh", nil }
	if !githubAvailable {
		locator = func(string) (string, error) { return "", errors.New("not found") }
	}

	builder := &workflow.CommandBuilder{
		GitExecutor:         executor,
		GitHubExecutor:      executor,
		GitHubBinaryLocator: locator,
		WorkingDirectory:    "/tmp/repo",
	}

	command, buildError := build(builder)
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	return &workflowCommandHarness{executor: executor, output: outputBuffer, command: command}
}

func TestReleaseCandidateCommandReportsSuccess(testInstance *testing.T) {
	harness := newWorkflowCommandHarness(testInstance, (*workflow.CommandBuilder).BuildReleaseCommand, true)

	require.NoError(testInstance, harness.run("rc"))
	require.Contains(testInstance, harness.output.String(), "Release candidate branch created and pushed: release-candidate")
	require.Contains(testInstance, harness.executor.executedGitCommands, "checkout -B release-candidate")
}

func TestReleasePullRequestCommandFailsWithoutGitHubCLI(testInstance *testing.T) {
	harness := newWorkflowCommandHarness(testInstance, (*workflow.CommandBuilder).BuildReleaseCommand, false)

	runError := harness.run("pr")
	var toolError workflow.MissingToolError
	require.ErrorAs(testInstance, runError, &toolError)
	require.Empty(testInstance, harness.executor.executedGitHubCommands)
}

func TestReleasePullRequestCommandCreatesPullRequest(testInstance *testing.T) {
	harness := newWorkflowCommandHarness(testInstance, (*workflow.CommandBuilder).BuildReleaseCommand, true)

	require.NoError(testInstance, harness.run("pr"))
	require.Contains(testInstance, harness.output.String(), "Opened pull request from release-candidate to main.")
	require.Len(testInstance, harness.executor.executedGitHubCommands, 1)
	require.Contains(testInstance, harness.executor.executedGitHubCommands[0], "pr create --base main --head release-candidate")
}

func TestBranchFinalizeCommandRunsMergeFlow(testInstance *testing.T) {
	harness := newWorkflowCommandHarness(testInstance, (*workflow.CommandBuilder).BuildBranchCommand, true)

	require.NoError(testInstance, harness.run("finalize"))
	require.Contains(testInstance, harness.output.String(), "Merged current branch into 'release-candidate' and pushed upstream.")
	require.Contains(testInstance, harness.executor.executedGitCommands, "merge --no-ff feat/widget")
}

func TestBranchCreateCommandRejectsInvalidName(testInstance *testing.T) {
	harness := newWorkflowCommandHarness(testInstance, (*workflow.CommandBuilder).BuildBranchCommand, true)

	runError := harness.run("create", "feature/my-change")
	var nameError workflow.InvalidNameError
	require.ErrorAs(testInstance, runError, &nameError)
}

func TestBranchRebaseCommandRunsRebaseFlow(testInstance *testing.T) {
	harness := newWorkflowCommandHarness(testInstance, (*workflow.CommandBuilder).BuildBranchCommand, true)

	require.NoError(testInstance, harness.run("rebase"))
	require.Contains(testInstance, harness.output.String(), "Rebased on 'release-candidate' and pushed successfully.")
	require.Contains(testInstance, harness.executor.executedGitCommands, "rebase release-candidate")
}

func TestProtectMainCommandAppliesProtection(testInstance *testing.T) {
	harness := newWorkflowCommandHarness(testInstance, (*workflow.CommandBuilder).BuildProtectMainCommand, true)

	require.NoError(testInstance, harness.run())
	require.Contains(testInstance, harness.output.String(), "Branch protection for main configured via gh CLI.")
	require.Len(testInstance, harness.executor.executedGitHubCommands, 1)
	require.Contains(testInstance, harness.executor.executedGitHubCommands[0], "repos/octocat/widgets/branches/main/protection")
}
