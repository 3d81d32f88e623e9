package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/shipmate-cli/shipmate/internal/execshell"
)

const (
	gitExecutorMissingMessageConstant  = "git executor not configured"
	gitRevParseSubcommandConstant      = "rev-parse"
	gitAbbrevRefFlagConstant           = "--abbrev-ref"
	gitVerifyFlagConstant              = "--verify"
	gitQuietFlagConstant               = "--quiet"
	gitHeadReferenceConstant           = "HEAD"
	gitTagSubcommandConstant           = "tag"
	gitTagListFlagConstant             = "-l"
	gitConfigSubcommandConstant        = "config"
	gitConfigGetFlagConstant           = "--get"
	gitOriginRemoteURLConfigKeyConst   = "remote.origin.url"
	gitFetchSubcommandConstant         = "fetch"
	gitFetchAllRemotesFlagConstant     = "--all"
	detachedHeadRevParseValueConstant  = "HEAD"
	currentBranchDetachedErrorConstant = "repository is in a detached HEAD state"
)

// ErrGitExecutorNotConfigured indicates the repository manager was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrDetachedHead indicates the repository has no current branch.
var ErrDetachedHead = errors.New(currentBranchDetachedErrorConstant)

// GitExecutor exposes the subset of shell execution used by repository queries.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager answers read-only questions about a git repository through the executor.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CurrentBranch resolves the branch currently checked out in the repository.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	branchName := strings.TrimSpace(executionResult.StandardOutput)
	if branchName == detachedHeadRevParseValueConstant {
		return "", ErrDetachedHead
	}
	return branchName, nil
}

// RevisionExists reports whether the named revision resolves in the repository.
func (manager *RepositoryManager) RevisionExists(executionContext context.Context, repositoryPath string, revision string) bool {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, revision},
		WorkingDirectory: repositoryPath,
	})
	return executionError == nil
}

// TagExists reports whether the named tag is present in the repository.
func (manager *RepositoryManager) TagExists(executionContext context.Context, repositoryPath string, tagName string) bool {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitTagSubcommandConstant, gitTagListFlagConstant, tagName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false
	}
	for _, listedTag := range strings.Split(executionResult.StandardOutput, "\n") {
		if strings.TrimSpace(listedTag) == tagName {
			return true
		}
	}
	return false
}

// OriginRemoteURL reads the configured origin remote URL.
func (manager *RepositoryManager) OriginRemoteURL(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitConfigSubcommandConstant, gitConfigGetFlagConstant, gitOriginRemoteURLConfigKeyConst},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// FetchAllRemotes performs a best-effort fetch of every configured remote.
// Failures are swallowed: local-only repositories are a supported setup.
func (manager *RepositoryManager) FetchAllRemotes(executionContext context.Context, repositoryPath string) {
	_, _ = manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitFetchSubcommandConstant, gitFetchAllRemotesFlagConstant},
		WorkingDirectory: repositoryPath,
	})
}
