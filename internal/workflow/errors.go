package workflow

import "fmt"

const (
	invalidNameErrorTemplateConstant     = "invalid branch name %q: %s"
	mergeConflictErrorTemplateConstant   = "merge of %q into %q stopped on conflicts"
	rebaseConflictErrorTemplateConstant  = "rebase of %q onto %q stopped on conflicts"
	pushRejectedErrorTemplateConstant    = "push of %q was rejected; run: %s"
	noBaseBranchErrorMessageConstant     = "no candidate base ref found; tried origin/release-candidate, origin/main, main"
	missingToolErrorTemplateConstant     = "required tool %q not found. %s"
	pullRequestErrorTemplateConstant     = "pull request creation failed: %s"
	pullRequestErrorNoCauseConstant      = "pull request creation failed"
	branchProtectionErrorTemplateConst   = "branch protection update failed: %s"
	branchProtectionErrorNoCauseConstant = "branch protection update failed"
)

// InvalidStateError reports an operation invoked from a disallowed branch or
// repository state. No mutation is attempted when it is returned.
type InvalidStateError struct {
	Message string
}

// Error describes the disallowed state.
func (stateError InvalidStateError) Error() string {
	return stateError.Message
}

// InvalidNameError reports a branch name violating the <tag>/<slug> grammar.
type InvalidNameError struct {
	BranchName string
	Message    string
}

// Error describes the grammar violation.
func (nameError InvalidNameError) Error() string {
	return fmt.Sprintf(invalidNameErrorTemplateConstant, nameError.BranchName, nameError.Message)
}

// MergeConflictError reports a merge stopped on conflicts. The repository is
// left mid-merge for manual resolution.
type MergeConflictError struct {
	SourceBranch string
	TargetBranch string
}

// Error describes the conflicted merge.
func (conflictError MergeConflictError) Error() string {
	return fmt.Sprintf(mergeConflictErrorTemplateConstant, conflictError.SourceBranch, conflictError.TargetBranch)
}

// RebaseConflictError reports a rebase stopped on conflicts. The repository is
// left mid-rebase for manual resolution.
type RebaseConflictError struct {
	BranchName string
	BaseBranch string
}

// Error describes the conflicted rebase.
func (conflictError RebaseConflictError) Error() string {
	return fmt.Sprintf(rebaseConflictErrorTemplateConstant, conflictError.BranchName, conflictError.BaseBranch)
}

// PushRejectedError reports a rejected push. It is a soft failure: the local
// operation succeeded and the remediation command completes the sync.
type PushRejectedError struct {
	BranchName         string
	RemediationCommand string
}

// Error describes the rejected push and its remediation.
func (rejectionError PushRejectedError) Error() string {
	return fmt.Sprintf(pushRejectedErrorTemplateConstant, rejectionError.BranchName, rejectionError.RemediationCommand)
}

// NoBaseBranchError reports that no base ref was available to create the
// release-candidate branch from.
type NoBaseBranchError struct{}

// Error describes the exhausted base candidates.
func (NoBaseBranchError) Error() string {
	return noBaseBranchErrorMessageConstant
}

// MissingToolError reports an absent external collaborator executable.
type MissingToolError struct {
	ToolName         string
	InstallationHint string
}

// Error describes the missing tool.
func (toolError MissingToolError) Error() string {
	return fmt.Sprintf(missingToolErrorTemplateConstant, toolError.ToolName, toolError.InstallationHint)
}

// PullRequestError reports a pull request creation failure from the remote
// repository collaborator.
type PullRequestError struct {
	Cause error
}

// Error describes the pull request failure.
func (requestError PullRequestError) Error() string {
	if requestError.Cause == nil {
		return pullRequestErrorNoCauseConstant
	}
	return fmt.Sprintf(pullRequestErrorTemplateConstant, requestError.Cause)
}

// Unwrap exposes the underlying cause.
func (requestError PullRequestError) Unwrap() error {
	return requestError.Cause
}

// BranchProtectionError reports a failed branch protection update.
type BranchProtectionError struct {
	Cause error
}

// Error describes the protection failure.
func (protectionError BranchProtectionError) Error() string {
	if protectionError.Cause == nil {
		return branchProtectionErrorNoCauseConstant
	}
	return fmt.Sprintf(branchProtectionErrorTemplateConst, protectionError.Cause)
}

// Unwrap exposes the underlying cause.
func (protectionError BranchProtectionError) Unwrap() error {
	return protectionError.Cause
}
