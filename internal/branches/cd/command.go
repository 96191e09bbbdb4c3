package cd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/repository"
	"github.com/temirov/repowatch/internal/ui"
)

const (
	commandUseConstant                   = "switch <branch> [path]"
	commandAliasConstant                 = "cd"
	commandExampleConstant               = "repowatch switch feature/new-branch ~/Development/project --create"
	commandShortDescriptionConstant      = "Switch the repository to another local branch"
	commandLongDescriptionConstant       = "switch checks out the requested local branch in the repository containing path (default: the working directory). When the branch does not exist it offers to create it from HEAD; --create or --yes skip the question. With --backend library the switch is refused while tracked files have uncommitted changes; --backend shell carries compatible changes over to the new branch as git checkout does."
	createFlagNameConstant               = "create"
	createFlagDescriptionConstant        = "Create the branch from HEAD when it does not exist"
	assumeYesFlagNameConstant            = "yes"
	assumeYesFlagShorthandConstant       = "y"
	assumeYesFlagDescriptionConstant     = "Answer yes to the creation prompt"
	changeSuccessMessageTemplateConstant = "SWITCHED: %s -> %s"
	changeCreatedSuffixConstant          = " (created)"
	changeDeclinedMessageTemplateConst   = "UNCHANGED: %s (branch %s not created)"
	branchArgumentIndexConstant          = 0
	repositoryPathArgumentIndexConstant  = 1
)

// CommandBuilder assembles the switch command.
type CommandBuilder struct {
	LoggerProvider               dependencies.LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        dependencies.RepositoryConfigurationProvider
	Facade                       *repository.Facade
	Prompter                     ui.ConfirmationPrompter
}

// Build constructs the switch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Aliases: []string{commandAliasConstant},
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    builder.run,
	}
	command.Flags().Bool(createFlagNameConstant, false, createFlagDescriptionConstant)
	command.Flags().BoolP(assumeYesFlagNameConstant, assumeYesFlagShorthandConstant, false, assumeYesFlagDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	branchName := strings.TrimSpace(arguments[branchArgumentIndexConstant])
	if len(branchName) == 0 {
		return ErrBranchNameRequired
	}
	createIfMissing, _ := command.Flags().GetBool(createFlagNameConstant)
	assumeYes, _ := command.Flags().GetBool(assumeYesFlagNameConstant)

	facade, _, facadeError := dependencies.ResolveCommandFacade(builder.Facade, builder.LoggerProvider, builder.HumanReadableLoggingProvider, builder.ConfigurationProvider)
	if facadeError != nil {
		return facadeError
	}

	handle, resolveError := dependencies.ResolveHandle(command.Context(), facade, arguments, repositoryPathArgumentIndexConstant)
	if resolveError != nil {
		return resolveError
	}

	prompter := builder.Prompter
	if prompter == nil {
		prompter = ui.NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
	}
	service, serviceError := NewService(ServiceDependencies{Switcher: facade, Prompter: prompter})
	if serviceError != nil {
		return serviceError
	}

	result, changeError := service.Change(command.Context(), Options{
		Repository:      handle,
		BranchName:      branchName,
		CreateIfMissing: createIfMissing,
		AssumeYes:       assumeYes,
	})
	if changeError != nil {
		return changeError
	}

	if result.Declined {
		fmt.Fprintln(command.OutOrStdout(), fmt.Sprintf(changeDeclinedMessageTemplateConst, result.RepositoryPath, result.BranchName))
		return nil
	}
	message := fmt.Sprintf(changeSuccessMessageTemplateConstant, result.RepositoryPath, result.BranchName)
	if result.BranchCreated {
		message += changeCreatedSuffixConstant
	}
	fmt.Fprintln(command.OutOrStdout(), message)
	return nil
}
