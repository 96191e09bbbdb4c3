package status

import (
	"github.com/spf13/cobra"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/repository"
	flagutils "github.com/temirov/repowatch/internal/utils/flags"
)

const (
	commandUseConstant              = "status [path]"
	commandShortDescriptionConstant = "Show branch, remote and working tree changes"
	commandLongDescriptionConstant  = "status reports the current branch, project name, origin URL and the added, modified and deleted paths of the repository containing path (default: the working directory)."
	commandExampleConstant          = "repowatch status ~/Development/project --format yaml"
	formatFlagNameConstant          = "format"
	formatFlagDescriptionConstant   = "Output format"
	repositoryPathArgumentIndex     = 0
)

// CommandBuilder assembles the status command.
type CommandBuilder struct {
	LoggerProvider               dependencies.LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        dependencies.RepositoryConfigurationProvider
	Facade                       *repository.Facade
}

// Build constructs the status command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.MaximumNArgs(1),
		RunE:    builder.run,
	}
	command.Flags().String(formatFlagNameConstant, FormatText, flagutils.FormatChoiceUsage(FormatText, FormatChoices(), formatFlagDescriptionConstant))
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	requestedFormat, _ := command.Flags().GetString(formatFlagNameConstant)
	format, formatError := flagutils.NormalizeChoice(formatFlagNameConstant, requestedFormat, FormatText, FormatChoices())
	if formatError != nil {
		return formatError
	}

	facade, _, facadeError := dependencies.ResolveCommandFacade(builder.Facade, builder.LoggerProvider, builder.HumanReadableLoggingProvider, builder.ConfigurationProvider)
	if facadeError != nil {
		return facadeError
	}

	handle, resolveError := dependencies.ResolveHandle(command.Context(), facade, arguments, repositoryPathArgumentIndex)
	if resolveError != nil {
		return resolveError
	}

	return Render(command.OutOrStdout(), BuildReport(command.Context(), facade, handle), format)
}
