package branches

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/repository"
)

const (
	commandUseConstant              = "branches [path]"
	commandShortDescriptionConstant = "List local branches"
	commandLongDescriptionConstant  = "branches lists the local branches of the repository containing path in ascending order and marks the checked-out branch with an asterisk."
	currentBranchLineTemplateConst  = "* %s\n"
	otherBranchLineTemplateConstant = "  %s\n"
	detachedHeadLineTemplateConst   = "* (HEAD detached at %s)\n"
	repositoryPathArgumentIndex     = 0
)

// CommandBuilder assembles the branches command.
type CommandBuilder struct {
	LoggerProvider               dependencies.LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        dependencies.RepositoryConfigurationProvider
	Facade                       *repository.Facade
}

// Build constructs the branches command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	facade, _, facadeError := dependencies.ResolveCommandFacade(builder.Facade, builder.LoggerProvider, builder.HumanReadableLoggingProvider, builder.ConfigurationProvider)
	if facadeError != nil {
		return facadeError
	}

	handle, resolveError := dependencies.ResolveHandle(command.Context(), facade, arguments, repositoryPathArgumentIndex)
	if resolveError != nil {
		return resolveError
	}

	currentBranch := facade.CurrentBranch(command.Context(), handle)
	localBranches := facade.LocalBranches(command.Context(), handle)
	return writeBranchList(command, currentBranch, localBranches)
}

// writeBranchList prints a detached line first when HEAD matches no local branch.
func writeBranchList(command *cobra.Command, currentBranch string, localBranches []string) error {
	output := command.OutOrStdout()
	currentListed := false
	for _, branchName := range localBranches {
		if branchName == currentBranch {
			currentListed = true
		}
	}
	if !currentListed && len(currentBranch) > 0 {
		if _, writeError := fmt.Fprintf(output, detachedHeadLineTemplateConst, currentBranch); writeError != nil {
			return writeError
		}
	}

	for _, branchName := range localBranches {
		lineTemplate := otherBranchLineTemplateConstant
		if branchName == currentBranch {
			lineTemplate = currentBranchLineTemplateConst
		}
		if _, writeError := fmt.Fprintf(output, lineTemplate, branchName); writeError != nil {
			return writeError
		}
	}
	return nil
}
