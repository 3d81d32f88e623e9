package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shipmate-cli/shipmate/internal/changelog"
	"github.com/shipmate-cli/shipmate/internal/execshell"
	"github.com/shipmate-cli/shipmate/internal/githubcli"
	"github.com/shipmate-cli/shipmate/internal/gitrepo"
	"github.com/shipmate-cli/shipmate/internal/ui"
)

const (
	releaseCommandUseConstant              = "release"
	releaseCommandShortDescriptionConstant = "Manage the release-candidate branch and its pull request"
	candidateCommandUseConstant            = "rc"
	candidateCommandShortDescription       = "Create and push the release-candidate branch"
	pullRequestCommandUseConstant          = "pr"
	pullRequestCommandShortDescription     = "Open a pull request from release-candidate to main"
	branchCommandUseConstant               = "branch"
	branchCommandShortDescriptionConstant  = "Create, finalize, and rebase feature branches"
	createCommandUseConstant               = "create <tag>/<slug>"
	createCommandShortDescriptionConstant  = "Create a feature branch from release-candidate"
	finalizeCommandUseConstant             = "finalize"
	finalizeCommandShortDescription        = "Merge the current branch into release-candidate and push"
	rebaseCommandUseConstant               = "rebase"
	rebaseCommandShortDescriptionConstant  = "Rebase the current branch onto the latest release-candidate"
	protectCommandUseConstant              = "protect-main"
	protectCommandShortDescription         = "Apply branch protection to main via the GitHub CLI"
	flagChangelogNameConstant              = "changelog"
	flagChangelogDescriptionConstant       = "Path to the changelog file"
	createCommandArgumentCountConstant     = 1
	repositoryManagerCreationTemplate      = "unable to construct repository manager: %w"
	githubClientCreationTemplateConstant   = "unable to construct GitHub client: %w"
	workflowServiceCreationTemplate        = "unable to construct workflow service: %w"
	defaultRepositoryPathConstant          = "."
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the workflow command trees.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  gitrepo.GitExecutor
	GitHubExecutor               githubcli.GitHubCommandExecutor
	GitHubBinaryLocator          githubcli.BinaryLocator
	WorkingDirectory             string
	ConfigurationProvider        func() CommandConfiguration
	HumanReadableLoggingProvider func() bool
}

// BuildReleaseCommand constructs the release command with rc and pr subcommands.
func (builder *CommandBuilder) BuildReleaseCommand() (*cobra.Command, error) {
	releaseCommand := &cobra.Command{
		Use:           releaseCommandUseConstant,
		Short:         releaseCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	releaseCommand.PersistentFlags().String(flagChangelogNameConstant, "", flagChangelogDescriptionConstant)

	candidateCommand := &cobra.Command{
		Use:           candidateCommandUseConstant,
		Short:         candidateCommandShortDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.execute(command, nil, (*Service).CreateReleaseCandidate)
		},
	}

	pullRequestCommand := &cobra.Command{
		Use:           pullRequestCommandUseConstant,
		Short:         pullRequestCommandShortDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.execute(command, nil, (*Service).OpenReleasePR)
		},
	}

	releaseCommand.AddCommand(candidateCommand, pullRequestCommand)
	return releaseCommand, nil
}

// BuildBranchCommand constructs the branch command with create, finalize, and rebase subcommands.
func (builder *CommandBuilder) BuildBranchCommand() (*cobra.Command, error) {
	branchCommand := &cobra.Command{
		Use:           branchCommandUseConstant,
		Short:         branchCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	branchCommand.PersistentFlags().String(flagChangelogNameConstant, "", flagChangelogDescriptionConstant)

	createCommand := &cobra.Command{
		Use:           createCommandUseConstant,
		Short:         createCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(createCommandArgumentCountConstant),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.execute(command, arguments, (*Service).CreateFeatureBranch)
		},
	}

	finalizeCommand := &cobra.Command{
		Use:           finalizeCommandUseConstant,
		Short:         finalizeCommandShortDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.execute(command, nil, (*Service).Finalize)
		},
	}

	rebaseCommand := &cobra.Command{
		Use:           rebaseCommandUseConstant,
		Short:         rebaseCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.execute(command, nil, (*Service).Rebase)
		},
	}

	branchCommand.AddCommand(createCommand, finalizeCommand, rebaseCommand)
	return branchCommand, nil
}

// BuildProtectMainCommand constructs the protect-main command.
func (builder *CommandBuilder) BuildProtectMainCommand() (*cobra.Command, error) {
	protectCommand := &cobra.Command{
		Use:           protectCommandUseConstant,
		Short:         protectCommandShortDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.execute(command, nil, (*Service).ProtectMain)
		},
	}
	return protectCommand, nil
}

func (builder *CommandBuilder) execute(command *cobra.Command, arguments []string, operation func(*Service, context.Context, Options) (Result, error)) error {
	service, options, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}
	if len(arguments) > 0 {
		options.BranchName = arguments[0]
	}

	result, operationError := operation(service, command.Context(), options)
	if len(result.Message) > 0 {
		fmt.Fprintln(command.OutOrStdout(), result.Message)
	}
	return operationError
}

func (builder *CommandBuilder) prepare(command *cobra.Command) (*Service, Options, error) {
	logger := builder.resolveLogger()

	gitExecutor, gitHubExecutor, executorError := builder.resolveExecutors(logger)
	if executorError != nil {
		return nil, Options{}, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(gitExecutor)
	if managerError != nil {
		return nil, Options{}, fmt.Errorf(repositoryManagerCreationTemplate, managerError)
	}

	githubClient, clientError := githubcli.NewClientWithLocator(gitHubExecutor, builder.GitHubBinaryLocator)
	if clientError != nil {
		return nil, Options{}, fmt.Errorf(githubClientCreationTemplateConstant, clientError)
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:              logger,
		GitExecutor:         gitExecutor,
		RepositoryInspector: repositoryManager,
		GitHubOperations:    githubClient,
		ChangelogParser:     changelog.NewEngine(),
	})
	if serviceError != nil {
		return nil, Options{}, fmt.Errorf(workflowServiceCreationTemplate, serviceError)
	}

	return service, builder.parseOptions(command), nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) Options {
	configuration := builder.resolveConfiguration()

	changelogPath := configuration.ChangelogPath
	if flagValue, flagError := command.Flags().GetString(flagChangelogNameConstant); flagError == nil && len(strings.TrimSpace(flagValue)) > 0 {
		changelogPath = strings.TrimSpace(flagValue)
	}

	repositoryPath := strings.TrimSpace(builder.WorkingDirectory)
	if len(repositoryPath) == 0 {
		repositoryPath = defaultRepositoryPathConstant
	}

	return Options{
		RepositoryPath: repositoryPath,
		ChangelogPath:  changelogPath,
	}
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutors(logger *zap.Logger) (gitrepo.GitExecutor, githubcli.GitHubCommandExecutor, error) {
	if builder.GitExecutor != nil && builder.GitHubExecutor != nil {
		return builder.GitExecutor, builder.GitHubExecutor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	var shellExecutor *execshell.ShellExecutor
	var creationError error
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		shellExecutor, creationError = execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	} else {
		shellExecutor, creationError = execshell.NewShellExecutor(logger, commandRunner)
	}
	if creationError != nil {
		return nil, nil, creationError
	}

	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		gitExecutor = shellExecutor
	}
	gitHubExecutor := builder.GitHubExecutor
	if gitHubExecutor == nil {
		gitHubExecutor = shellExecutor
	}
	return gitExecutor, gitHubExecutor, nil
}
