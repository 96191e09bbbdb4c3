// Package shellgit implements repository.Backend by running the git executable.
package shellgit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/repowatch/internal/execshell"
	"github.com/temirov/repowatch/internal/repository"
)

const (
	gitExecutorMissingMessageConstant        = "git executor not configured"
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableValue = "0"
	gitOptionalLocksEnvironmentNameConstant  = "GIT_OPTIONAL_LOCKS"
	gitOptionalLocksEnvironmentDisableValue  = "0"
	gitRevParseSubcommandConstant            = "rev-parse"
	gitShowTopLevelFlagConstant              = "--show-toplevel"
	gitAbsoluteGitDirFlagConstant            = "--absolute-git-dir"
	gitShortRevisionFlagConstant             = "--short=7"
	gitHeadReferenceConstant                 = "HEAD"
	gitBranchSubcommandConstant              = "branch"
	gitShowCurrentFlagConstant               = "--show-current"
	gitForEachRefSubcommandConstant          = "for-each-ref"
	gitShortRefnameFormatConstant            = "--format=%(refname:short)"
	gitLocalBranchesNamespaceConstant        = "refs/heads/"
	gitStatusSubcommandConstant              = "status"
	gitPorcelainFlagConstant                 = "--porcelain=v1"
	gitUntrackedFilesFlagConstant            = "--untracked-files=all"
	gitDiffSubcommandConstant                = "diff"
	gitNameOnlyFlagConstant                  = "--name-only"
	gitNumstatFlagConstant                   = "--numstat"
	gitCachedFlagConstant                    = "--cached"
	gitPathspecSeparatorConstant             = "--"
	gitConfigSubcommandConstant              = "config"
	gitConfigGetFlagConstant                 = "--get"
	gitOriginURLKeyConstant                  = "remote.origin.url"
	gitCheckoutSubcommandConstant            = "checkout"
	gitCreateBranchFlagConstant              = "-b"
	notARepositoryStandardErrorConstant      = "not a git repository"
	outsideWorkTreeStandardErrorConstant     = "must be run in a work tree"
	notARepositoryExitCodeConstant           = 128
	configKeyMissingExitCodeConstant         = 1
	outputLineSeparatorConstant              = "\n"
	operationTopLevelConstant                = "rev-parse --show-toplevel"
	operationGitDirectoryConstant            = "rev-parse --absolute-git-dir"
	operationCurrentBranchConstant           = "branch --show-current"
	operationShortRevisionConstant           = "rev-parse --short=7 HEAD"
	operationLocalBranchesConstant           = "for-each-ref refs/heads"
	operationStatusConstant                  = "status --porcelain"
	operationChangedFilesConstant            = "diff --name-only"
	operationDiffConstant                    = "diff"
	operationDiffStatConstant                = "diff --numstat"
	operationRemoteURLConstant               = "config --get remote.origin.url"
	operationCheckoutConstant                = "checkout"
	emptyTopLevelMessageConstant             = "git reported no working tree"
	notARepositoryErrorTemplateConstant      = "%w: %w"
)

// ErrGitExecutorNotConfigured indicates the backend was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Backend answers repository queries by parsing git porcelain output.
type Backend struct {
	executor GitExecutor
}

// NewBackend constructs a Backend using the provided executor.
func NewBackend(executor GitExecutor) (*Backend, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &Backend{executor: executor}, nil
}

// TopLevel implements repository.Backend.
func (backend *Backend) TopLevel(executionContext context.Context, directory string) (string, error) {
	output, runError := backend.run(executionContext, directory, gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant)
	if runError != nil {
		switch {
		case failedWithStandardError(runError, notARepositoryStandardErrorConstant):
			return "", fmt.Errorf(notARepositoryErrorTemplateConstant, repository.ErrNotARepository, runError)
		case failedWithStandardError(runError, outsideWorkTreeStandardErrorConstant):
			return backend.topLevelFromGitDirectory(executionContext, directory, runError)
		}
		return "", repository.NewExternalToolError(operationTopLevelConstant, runError)
	}
	if len(output) == 0 {
		return "", fmt.Errorf(notARepositoryErrorTemplateConstant, repository.ErrNotARepository, errors.New(emptyTopLevelMessageConstant))
	}
	return output, nil
}

// topLevelFromGitDirectory resolves directories inside the metadata directory from the parent of
// the git directory. Bare repositories have no working tree, so their parent is not a repository.
func (backend *Backend) topLevelFromGitDirectory(executionContext context.Context, directory string, cause error) (string, error) {
	gitDirectory, gitDirectoryError := backend.run(executionContext, directory, gitRevParseSubcommandConstant, gitAbsoluteGitDirFlagConstant)
	if gitDirectoryError != nil {
		return "", repository.NewExternalToolError(operationGitDirectoryConstant, gitDirectoryError)
	}
	if len(gitDirectory) == 0 {
		return "", fmt.Errorf(notARepositoryErrorTemplateConstant, repository.ErrNotARepository, cause)
	}

	parentDirectory := filepath.Dir(gitDirectory)
	output, runError := backend.run(executionContext, parentDirectory, gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant)
	if runError != nil {
		if failedWithStandardError(runError, notARepositoryStandardErrorConstant) || failedWithStandardError(runError, outsideWorkTreeStandardErrorConstant) {
			return "", fmt.Errorf(notARepositoryErrorTemplateConstant, repository.ErrNotARepository, cause)
		}
		return "", repository.NewExternalToolError(operationTopLevelConstant, runError)
	}
	if len(output) == 0 {
		return "", fmt.Errorf(notARepositoryErrorTemplateConstant, repository.ErrNotARepository, cause)
	}
	return output, nil
}

func failedWithStandardError(runError error, fragment string) bool {
	var failedError execshell.CommandFailedError
	return errors.As(runError, &failedError) &&
		failedError.Result.ExitCode == notARepositoryExitCodeConstant &&
		strings.Contains(strings.ToLower(failedError.Result.StandardError), fragment)
}

// CurrentBranch implements repository.Backend. Detached heads report the seven character commit id.
func (backend *Backend) CurrentBranch(executionContext context.Context, root string) (string, error) {
	branchName, branchError := backend.run(executionContext, root, gitBranchSubcommandConstant, gitShowCurrentFlagConstant)
	if branchError != nil {
		return "", repository.NewExternalToolError(operationCurrentBranchConstant, branchError)
	}
	if len(branchName) > 0 {
		return branchName, nil
	}

	shortRevision, revisionError := backend.run(executionContext, root, gitRevParseSubcommandConstant, gitShortRevisionFlagConstant, gitHeadReferenceConstant)
	if revisionError != nil {
		return "", repository.NewExternalToolError(operationShortRevisionConstant, revisionError)
	}
	return shortRevision, nil
}

// LocalBranches implements repository.Backend.
func (backend *Backend) LocalBranches(executionContext context.Context, root string) ([]string, error) {
	output, runError := backend.run(executionContext, root, gitForEachRefSubcommandConstant, gitShortRefnameFormatConstant, gitLocalBranchesNamespaceConstant)
	if runError != nil {
		return nil, repository.NewExternalToolError(operationLocalBranchesConstant, runError)
	}
	return splitOutputLines(output), nil
}

// FileStates implements repository.Backend.
func (backend *Backend) FileStates(executionContext context.Context, root string) ([]repository.FileState, error) {
	output, runError := backend.run(executionContext, root, gitStatusSubcommandConstant, gitPorcelainFlagConstant, gitUntrackedFilesFlagConstant)
	if runError != nil {
		return nil, repository.NewExternalToolError(operationStatusConstant, runError)
	}

	fileStates := make([]repository.FileState, 0)
	for _, line := range splitOutputLines(output) {
		fileState, parseError := parsePorcelainLine(line)
		if parseError != nil {
			return nil, repository.NewExternalToolError(operationStatusConstant, parseError)
		}
		fileStates = append(fileStates, fileState)
	}
	return fileStates, nil
}

// ChangedFiles implements repository.Backend.
func (backend *Backend) ChangedFiles(executionContext context.Context, root string, staged bool) ([]string, error) {
	arguments := []string{gitDiffSubcommandConstant, gitNameOnlyFlagConstant}
	if staged {
		arguments = append(arguments, gitCachedFlagConstant)
	}
	output, runError := backend.run(executionContext, root, arguments...)
	if runError != nil {
		return nil, repository.NewExternalToolError(operationChangedFilesConstant, runError)
	}

	changedPaths := make([]string, 0)
	for _, line := range splitOutputLines(output) {
		changedPath, unquoteError := unquotePath(line)
		if unquoteError != nil {
			return nil, repository.NewExternalToolError(operationChangedFilesConstant, unquoteError)
		}
		changedPaths = append(changedPaths, changedPath)
	}
	return changedPaths, nil
}

// Diff implements repository.Backend.
func (backend *Backend) Diff(executionContext context.Context, root string, file repository.ModifiedFile) (string, error) {
	arguments := []string{gitDiffSubcommandConstant}
	if file.Staged {
		arguments = append(arguments, gitCachedFlagConstant)
	}
	arguments = append(arguments, gitPathspecSeparatorConstant, file.Path)

	output, runError := backend.run(executionContext, root, arguments...)
	if runError != nil {
		return "", repository.NewExternalToolError(operationDiffConstant, runError)
	}
	return output, nil
}

// DiffStat implements repository.Backend.
func (backend *Backend) DiffStat(executionContext context.Context, root string, file repository.ModifiedFile) (repository.DiffStat, bool, error) {
	arguments := []string{gitDiffSubcommandConstant, gitNumstatFlagConstant}
	if file.Staged {
		arguments = append(arguments, gitCachedFlagConstant)
	}
	arguments = append(arguments, gitPathspecSeparatorConstant, file.Path)

	output, runError := backend.run(executionContext, root, arguments...)
	if runError != nil {
		return repository.DiffStat{}, false, repository.NewExternalToolError(operationDiffStatConstant, runError)
	}

	stat, textual, parseError := parseNumstat(output)
	if parseError != nil {
		return repository.DiffStat{}, false, repository.NewExternalToolError(operationDiffStatConstant, parseError)
	}
	return stat, textual, nil
}

// RemoteURL implements repository.Backend. An unset origin URL is not an error.
func (backend *Backend) RemoteURL(executionContext context.Context, root string) (string, bool, error) {
	output, runError := backend.run(executionContext, root, gitConfigSubcommandConstant, gitConfigGetFlagConstant, gitOriginURLKeyConstant)
	if runError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(runError, &failedError) && failedError.Result.ExitCode == configKeyMissingExitCodeConstant {
			return "", false, nil
		}
		return "", false, repository.NewExternalToolError(operationRemoteURLConstant, runError)
	}
	return output, len(output) > 0, nil
}

// Checkout implements repository.Backend.
func (backend *Backend) Checkout(executionContext context.Context, root string, branch string, create bool) error {
	arguments := []string{gitCheckoutSubcommandConstant, branch, gitPathspecSeparatorConstant}
	if create {
		arguments = []string{gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, branch}
	}
	if _, runError := backend.run(executionContext, root, arguments...); runError != nil {
		return repository.NewExternalToolError(operationCheckoutConstant, runError)
	}
	return nil
}

func (backend *Backend) run(executionContext context.Context, workingDirectory string, arguments ...string) (string, error) {
	result, executionError := backend.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableValue,
			// Status queries must not rewrite the index, or the metadata watcher sees its own reads.
			gitOptionalLocksEnvironmentNameConstant: gitOptionalLocksEnvironmentDisableValue,
		},
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimRight(result.StandardOutput, " \t\r\n"), nil
}

func splitOutputLines(output string) []string {
	if len(output) == 0 {
		return nil
	}
	lines := strings.Split(output, outputLineSeparatorConstant)
	nonEmptyLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmedLine := strings.TrimRight(line, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}
		nonEmptyLines = append(nonEmptyLines, trimmedLine)
	}
	return nonEmptyLines
}
