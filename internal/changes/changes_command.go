package changes

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/repository"
)

const (
	changesCommandUseConstant              = "changes [path]"
	changesCommandShortDescriptionConstant = "List staged and unstaged file changes with line counts"
	changesCommandLongDescriptionConstant  = "changes lists every changed file of the repository containing path. Files marked S are staged and files marked U are not; a file changed on both sides appears twice."
	stagedMarkerConstant                   = "S"
	unstagedMarkerConstant                 = "U"
	changeLineTemplateConstant             = "%s %s  %s\n"
	binaryStatTextConstant                 = "binary"
	noChangesMessageConstant               = "No changes"
	changesPathArgumentIndexConstant       = 0
)

// ChangesCommandBuilder assembles the changes command.
type ChangesCommandBuilder struct {
	LoggerProvider               dependencies.LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        dependencies.RepositoryConfigurationProvider
	Facade                       *repository.Facade
}

// Build constructs the changes command.
func (builder *ChangesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   changesCommandUseConstant,
		Short: changesCommandShortDescriptionConstant,
		Long:  changesCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *ChangesCommandBuilder) run(command *cobra.Command, arguments []string) error {
	facade, _, facadeError := dependencies.ResolveCommandFacade(builder.Facade, builder.LoggerProvider, builder.HumanReadableLoggingProvider, builder.ConfigurationProvider)
	if facadeError != nil {
		return facadeError
	}

	handle, resolveError := dependencies.ResolveHandle(command.Context(), facade, arguments, changesPathArgumentIndexConstant)
	if resolveError != nil {
		return resolveError
	}

	modifiedFiles := facade.ModifiedFiles(command.Context(), handle)
	if len(modifiedFiles) == 0 {
		fmt.Fprintln(command.OutOrStdout(), noChangesMessageConstant)
		return nil
	}

	for _, modifiedFile := range modifiedFiles {
		marker := unstagedMarkerConstant
		if modifiedFile.Staged {
			marker = stagedMarkerConstant
		}
		if _, writeError := fmt.Fprintf(command.OutOrStdout(), changeLineTemplateConstant, marker, modifiedFile.Path, describeDiffStat(facade.DiffStat(command.Context(), handle, modifiedFile))); writeError != nil {
			return writeError
		}
	}
	return nil
}

func describeDiffStat(stat repository.DiffStat, textual bool) string {
	if !textual {
		return binaryStatTextConstant
	}
	return stat.String()
}
