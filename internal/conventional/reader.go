package conventional

import (
	"context"
	"errors"
	"strings"

	"github.com/shipmate-cli/shipmate/internal/execshell"
	"github.com/shipmate-cli/shipmate/internal/gitrepo"
)

const (
	gitExecutorMissingMessageConstant       = "git executor not configured"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	gitLogSubcommandConstant                = "log"
	gitLogFormatFlagConstant                = "--pretty=format:%h%x09%s"
	gitLogNoMergesFlagConstant              = "--no-merges"
	gitLogRangeTemplateConstant             = "..HEAD"
	logLineFieldSeparatorConstant           = "\t"
	logLineFieldCountConstant               = 2
)

// ErrGitExecutorNotConfigured indicates the reader was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the reader was built without a repository manager.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// TagInspector reports whether a tag exists in a repository.
type TagInspector interface {
	TagExists(executionContext context.Context, repositoryPath string, tagName string) bool
}

// HistoryReaderDependencies enumerates collaborators required by the reader.
type HistoryReaderDependencies struct {
	GitExecutor  gitrepo.GitExecutor
	TagInspector TagInspector
}

// HistoryReader collects and classifies commit subjects from git history.
type HistoryReader struct {
	executor     gitrepo.GitExecutor
	tagInspector TagInspector
}

// NewHistoryReader constructs a HistoryReader from the provided dependencies.
func NewHistoryReader(dependencies HistoryReaderDependencies) (*HistoryReader, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.TagInspector == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	return &HistoryReader{executor: dependencies.GitExecutor, tagInspector: dependencies.TagInspector}, nil
}

// Collect returns classified commits reachable from HEAD, newest first.
// When sinceTag names an existing tag the range is restricted to commits the
// tag cannot reach; otherwise the full history is collected. Merge commits
// are excluded either way.
func (reader *HistoryReader) Collect(executionContext context.Context, repositoryPath string, sinceTag string) ([]CommitRecord, error) {
	logArguments := []string{gitLogSubcommandConstant, gitLogFormatFlagConstant, gitLogNoMergesFlagConstant}
	trimmedTag := strings.TrimSpace(sinceTag)
	if len(trimmedTag) > 0 && reader.tagInspector.TagExists(executionContext, repositoryPath, trimmedTag) {
		logArguments = append(logArguments, trimmedTag+gitLogRangeTemplateConstant)
	}

	executionResult, executionError := reader.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        logArguments,
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, executionError
	}

	var commitRecords []CommitRecord
	for _, logLine := range strings.Split(executionResult.StandardOutput, "\n") {
		fields := strings.SplitN(logLine, logLineFieldSeparatorConstant, logLineFieldCountConstant)
		if len(fields) != logLineFieldCountConstant {
			continue
		}
		commitRecords = append(commitRecords, ClassifySubject(fields[0], fields[1]))
	}
	return commitRecords, nil
}
