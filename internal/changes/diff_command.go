package changes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/repository"
)

const (
	diffCommandUseConstant              = "diff <file> [path]"
	diffCommandShortDescriptionConstant = "Show the diff of one changed file"
	diffCommandLongDescriptionConstant  = "diff prints the unified diff of file followed by its line counts. Without path the file is relative to the working directory; with path it is relative to the repository root."
	diffCommandExampleConstant          = "repowatch diff internal/watch/watcher.go --staged"
	stagedFlagNameConstant              = "staged"
	stagedFlagDescriptionConstant       = "Compare the index with HEAD instead of the working tree with the index"
	noDiffMessageTemplateConstant       = "No %s changes to %s"
	stagedSideNameConstant              = "staged"
	unstagedSideNameConstant            = "unstaged"
	fileRequiredMessageConstant         = "file must be provided"
	parentDirectoryPrefixConstant       = ".."
	diffFileArgumentIndexConstant       = 0
	diffPathArgumentIndexConstant       = 1
)

// ErrFileRequired indicates that no file argument was given.
var ErrFileRequired = errors.New(fileRequiredMessageConstant)

// DiffCommandBuilder assembles the diff command.
type DiffCommandBuilder struct {
	LoggerProvider               dependencies.LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        dependencies.RepositoryConfigurationProvider
	Facade                       *repository.Facade
}

// Build constructs the diff command.
func (builder *DiffCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     diffCommandUseConstant,
		Short:   diffCommandShortDescriptionConstant,
		Long:    diffCommandLongDescriptionConstant,
		Example: diffCommandExampleConstant,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    builder.run,
	}
	command.Flags().Bool(stagedFlagNameConstant, false, stagedFlagDescriptionConstant)
	return command, nil
}

func (builder *DiffCommandBuilder) run(command *cobra.Command, arguments []string) error {
	requestedFile := strings.TrimSpace(arguments[diffFileArgumentIndexConstant])
	if len(requestedFile) == 0 {
		return ErrFileRequired
	}
	staged, _ := command.Flags().GetBool(stagedFlagNameConstant)

	facade, _, facadeError := dependencies.ResolveCommandFacade(builder.Facade, builder.LoggerProvider, builder.HumanReadableLoggingProvider, builder.ConfigurationProvider)
	if facadeError != nil {
		return facadeError
	}

	handle, resolveError := dependencies.ResolveHandle(command.Context(), facade, arguments, diffPathArgumentIndexConstant)
	if resolveError != nil {
		return resolveError
	}

	repositoryPathGiven := len(arguments) > diffPathArgumentIndexConstant
	modifiedFile := repository.ModifiedFile{
		Path:   repositoryRelativePath(handle.Root(), requestedFile, repositoryPathGiven),
		Staged: staged,
	}

	renderedDiff := facade.Diff(command.Context(), handle, modifiedFile)
	if len(renderedDiff) == 0 {
		side := unstagedSideNameConstant
		if staged {
			side = stagedSideNameConstant
		}
		fmt.Fprintln(command.OutOrStdout(), fmt.Sprintf(noDiffMessageTemplateConstant, side, modifiedFile.Path))
		return nil
	}

	fmt.Fprintln(command.OutOrStdout(), renderedDiff)
	fmt.Fprintln(command.OutOrStdout(), describeDiffStat(facade.DiffStat(command.Context(), handle, modifiedFile)))
	return nil
}

// repositoryRelativePath maps the file argument to a slash-separated path below root. Relative
// arguments are taken from the working directory unless the repository path was given explicitly.
func repositoryRelativePath(root string, requestedFile string, relativeToRoot bool) string {
	if !filepath.IsAbs(requestedFile) && relativeToRoot {
		return filepath.ToSlash(filepath.Clean(requestedFile))
	}

	absoluteFile := requestedFile
	if !filepath.IsAbs(absoluteFile) {
		workingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return filepath.ToSlash(filepath.Clean(requestedFile))
		}
		absoluteFile = filepath.Join(workingDirectory, requestedFile)
	}
	if resolvedDirectory, symlinkError := filepath.EvalSymlinks(filepath.Dir(absoluteFile)); symlinkError == nil {
		absoluteFile = filepath.Join(resolvedDirectory, filepath.Base(absoluteFile))
	}

	relativePath, relativeError := filepath.Rel(root, absoluteFile)
	if relativeError != nil || relativePath == parentDirectoryPrefixConstant || strings.HasPrefix(relativePath, parentDirectoryPrefixConstant+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(requestedFile))
	}
	return filepath.ToSlash(relativePath)
}
