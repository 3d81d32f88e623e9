package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shipmate-cli/shipmate/internal/execshell"
)

const (
	pullRequestSubcommandConstant           = "pr"
	createSubcommandConstant                = "create"
	apiSubcommandConstant                   = "api"
	baseFlagConstant                        = "--base"
	headFlagConstant                        = "--head"
	titleFlagConstant                       = "--title"
	bodyFlagConstant                        = "--body"
	methodFlagConstant                      = "-X"
	putMethodConstant                       = "PUT"
	inputFlagConstant                       = "--input"
	stdinReferenceConstant                  = "-"
	acceptHeaderFlagConstant                = "-H"
	acceptHeaderValueConstant               = "Accept: application/vnd.github+json"
	branchProtectionEndpointTemplate        = "repos/%s/branches/%s/protection"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	githubCLIBinaryNameConstant             = "gh"
	repositoryFieldNameConstant             = "repository"
	branchFieldNameConstant                 = "branch"
	baseBranchFieldNameConstant             = "base_branch"
	headBranchFieldNameConstant             = "head_branch"
	requiredValueMessageConstant            = "value required"
	invalidInputErrorTemplateConstant       = "%s: %s"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	payloadEncodingErrorTemplateConstant    = "%s payload encoding failed: %s"
	createPullRequestOperationNameConstant  = OperationName("CreatePullRequest")
	updateProtectionOperationNameConstant   = OperationName("UpdateBranchProtection")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// PullRequestDetails describes a pull request to create.
type PullRequestDetails struct {
	BaseBranch string
	HeadBranch string
	Title      string
	Body       string
}

// BranchProtectionRules mirrors the GitHub branch protection API payload.
type BranchProtectionRules struct {
	EnforceAdmins              bool                        `json:"enforce_admins"`
	RequiredStatusChecks       *RequiredStatusChecks       `json:"required_status_checks"`
	RequiredPullRequestReviews *RequiredPullRequestReviews `json:"required_pull_request_reviews"`
	Restrictions               *BranchRestrictions         `json:"restrictions"`
}

// RequiredStatusChecks configures mandatory status checks for a protected branch.
type RequiredStatusChecks struct {
	Strict   bool     `json:"strict"`
	Contexts []string `json:"contexts"`
}

// RequiredPullRequestReviews configures review requirements for a protected branch.
type RequiredPullRequestReviews struct {
	RequiredApprovingReviewCount int `json:"required_approving_review_count"`
}

// BranchRestrictions limits who may push to a protected branch.
type BranchRestrictions struct {
	Users []string `json:"users"`
	Teams []string `json:"teams"`
}

// DefaultBranchProtectionRules returns the protection applied to main:
// admins included, one approving review, no status checks or restrictions.
func DefaultBranchProtectionRules() BranchProtectionRules {
	return BranchProtectionRules{
		EnforceAdmins:              true,
		RequiredStatusChecks:       nil,
		RequiredPullRequestReviews: &RequiredPullRequestReviews{RequiredApprovingReviewCount: 1},
		Restrictions:               nil,
	}
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// BinaryLocator resolves an executable name to a path, as exec.LookPath does.
type BinaryLocator func(binaryName string) (string, error)

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
	locator  BinaryLocator
}

// ErrExecutorNotConfigured indicates the client was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	return NewClientWithLocator(executor, exec.LookPath)
}

// NewClientWithLocator constructs a client with a custom binary locator.
func NewClientWithLocator(executor GitHubCommandExecutor, locator BinaryLocator) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if locator == nil {
		locator = exec.LookPath
	}
	return &Client{executor: executor, locator: locator}, nil
}

// IsAvailable reports whether the gh binary can be located on the PATH.
func (client *Client) IsAvailable() bool {
	_, lookupError := client.locator(githubCLIBinaryNameConstant)
	return lookupError == nil
}

// CreatePullRequest opens a pull request using gh pr create.
func (client *Client) CreatePullRequest(executionContext context.Context, details PullRequestDetails) error {
	if len(strings.TrimSpace(details.BaseBranch)) == 0 {
		return InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(details.HeadBranch)) == 0 {
		return InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			pullRequestSubcommandConstant,
			createSubcommandConstant,
			baseFlagConstant, details.BaseBranch,
			headFlagConstant, details.HeadBranch,
			titleFlagConstant, details.Title,
			bodyFlagConstant, details.Body,
		},
	}

	if _, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails); executionError != nil {
		return OperationError{Operation: createPullRequestOperationNameConstant, Cause: executionError}
	}
	return nil
}

// UpdateBranchProtection applies protection rules to a branch using gh api.
func (client *Client) UpdateBranchProtection(executionContext context.Context, repository string, branchName string, rules BranchProtectionRules) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payloadBytes, encodingError := json.Marshal(rules)
	if encodingError != nil {
		return PayloadEncodingError{Operation: updateProtectionOperationNameConstant, Cause: encodingError}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant, putMethodConstant,
			fmt.Sprintf(branchProtectionEndpointTemplate, repositoryIdentifier, trimmedBranchName),
			acceptHeaderFlagConstant, acceptHeaderValueConstant,
			inputFlagConstant, stdinReferenceConstant,
		},
		StandardInput: payloadBytes,
	}

	if _, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails); executionError != nil {
		return OperationError{Operation: updateProtectionOperationNameConstant, Cause: executionError}
	}
	return nil
}
