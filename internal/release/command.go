package release

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shipmate-cli/shipmate/internal/changelog"
	"github.com/shipmate-cli/shipmate/internal/conventional"
	"github.com/shipmate-cli/shipmate/internal/execshell"
	"github.com/shipmate-cli/shipmate/internal/gitrepo"
	"github.com/shipmate-cli/shipmate/internal/manifest"
	"github.com/shipmate-cli/shipmate/internal/ui"
)

const (
	versionCommandUseConstant               = "version"
	versionCommandShortDescriptionConstant  = "Inspect and bump the project version"
	versionCommandLongDescriptionConstant   = "version reads the semantic version from the project manifest and records releases by bumping it, regenerating the changelog, and tagging the release commit."
	currentCommandUseConstant               = "current"
	currentCommandShortDescriptionConstant  = "Print the current manifest version"
	bumpCommandUseConstant                  = "bump [major|minor|patch]"
	bumpCommandShortDescriptionConstant     = "Bump the version and record a release"
	bumpCommandLongDescriptionConstant      = "bump increments the selected version part, prepends a changelog section built from conventional commits since the previous release tag, and creates the release commit and annotated tag."
	flagManifestNameConstant                = "manifest"
	flagManifestDescriptionConstant         = "Path to the project manifest holding the version assignment"
	flagChangelogNameConstant               = "changelog"
	flagChangelogDescriptionConstant        = "Path to the changelog file"
	bumpSummaryTemplateConstant             = "Bumped version: %s -> %s\n"
	bumpPushHintTemplateConstant            = "Created tag %s. Push with: git push && git push --tags\n"
	historyReaderCreationErrorTemplate      = "unable to construct history reader: %w"
	repositoryManagerCreationErrorTemplate  = "unable to construct repository manager: %w"
	releaseServiceCreationErrorTemplate     = "unable to construct release service: %w"
	versionCommandExecutionErrorTemplate    = "version command failed: %w"
	defaultRepositoryPathConstant           = "."
	bumpCommandMaximumArgumentCountConstant = 1
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the version command with its subcommands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     gitrepo.GitExecutor
	WorkingDirectory             string
	ConfigurationProvider        func() CommandConfiguration
	HumanReadableLoggingProvider func() bool
}

// Build constructs the version command tree.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	versionCommand := &cobra.Command{
		Use:           versionCommandUseConstant,
		Short:         versionCommandShortDescriptionConstant,
		Long:          versionCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	versionCommand.PersistentFlags().String(flagManifestNameConstant, "", flagManifestDescriptionConstant)
	versionCommand.PersistentFlags().String(flagChangelogNameConstant, "", flagChangelogDescriptionConstant)

	currentCommand := &cobra.Command{
		Use:           currentCommandUseConstant,
		Short:         currentCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runCurrent,
	}

	bumpCommand := &cobra.Command{
		Use:           bumpCommandUseConstant,
		Short:         bumpCommandShortDescriptionConstant,
		Long:          bumpCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(bumpCommandMaximumArgumentCountConstant),
		RunE:          builder.runBump,
	}

	versionCommand.AddCommand(currentCommand, bumpCommand)
	return versionCommand, nil
}

func (builder *CommandBuilder) runCurrent(command *cobra.Command, _ []string) error {
	service, options, serviceError := builder.prepare(command)
	if serviceError != nil {
		return serviceError
	}

	currentVersion, readError := service.CurrentVersion(options)
	if readError != nil {
		return fmt.Errorf(versionCommandExecutionErrorTemplate, readError)
	}

	fmt.Fprintln(command.OutOrStdout(), currentVersion.String())
	return nil
}

func (builder *CommandBuilder) runBump(command *cobra.Command, arguments []string) error {
	service, options, serviceError := builder.prepare(command)
	if serviceError != nil {
		return serviceError
	}

	selectedPart := manifest.VersionPartPatch
	if len(arguments) > 0 {
		parsedPart, parseError := manifest.ParseVersionPart(arguments[0])
		if parseError != nil {
			return parseError
		}
		selectedPart = parsedPart
	}
	options.Part = selectedPart

	bumpResult, bumpError := service.Bump(command.Context(), options)
	if bumpError != nil {
		return fmt.Errorf(versionCommandExecutionErrorTemplate, bumpError)
	}

	fmt.Fprintf(command.OutOrStdout(), bumpSummaryTemplateConstant, bumpResult.PreviousVersion.String(), bumpResult.NewVersion.String())
	fmt.Fprintf(command.OutOrStdout(), bumpPushHintTemplateConstant, bumpResult.TagName)
	return nil
}

func (builder *CommandBuilder) prepare(command *cobra.Command) (*Service, Options, error) {
	logger := builder.resolveLogger()

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, Options{}, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return nil, Options{}, fmt.Errorf(repositoryManagerCreationErrorTemplate, managerError)
	}

	historyReader, readerError := conventional.NewHistoryReader(conventional.HistoryReaderDependencies{
		GitExecutor:  executor,
		TagInspector: repositoryManager,
	})
	if readerError != nil {
		return nil, Options{}, fmt.Errorf(historyReaderCreationErrorTemplate, readerError)
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:          logger,
		GitExecutor:     executor,
		VersionStore:    manifest.NewStore(),
		CommitCollector: historyReader,
		ChangelogWriter: changelog.NewEngine(),
	})
	if serviceError != nil {
		return nil, Options{}, fmt.Errorf(releaseServiceCreationErrorTemplate, serviceError)
	}

	return service, builder.parseOptions(command), nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) Options {
	configuration := builder.resolveConfiguration()

	manifestPath := configuration.ManifestPath
	if flagValue, _ := command.Flags().GetString(flagManifestNameConstant); len(strings.TrimSpace(flagValue)) > 0 {
		manifestPath = strings.TrimSpace(flagValue)
	}

	changelogPath := configuration.ChangelogPath
	if flagValue, _ := command.Flags().GetString(flagChangelogNameConstant); len(strings.TrimSpace(flagValue)) > 0 {
		changelogPath = strings.TrimSpace(flagValue)
	}

	repositoryPath := strings.TrimSpace(builder.WorkingDirectory)
	if len(repositoryPath) == 0 {
		repositoryPath = defaultRepositoryPathConstant
	}

	return Options{
		RepositoryPath: repositoryPath,
		ManifestPath:   manifestPath,
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

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (gitrepo.GitExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		return execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}
