package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	pathSeparatorArgumentConstant           = "--"
	flagPrefixConstant                      = "-"
)

const (
	gitRevParseSubcommandNameConstant   = "rev-parse"
	gitShowTopLevelFlagConstant         = "--show-toplevel"
	gitBranchSubcommandNameConstant     = "branch"
	gitShowCurrentFlagConstant          = "--show-current"
	gitForEachRefSubcommandNameConstant = "for-each-ref"
	gitStatusSubcommandNameConstant     = "status"
	gitDiffSubcommandNameConstant       = "diff"
	gitCachedFlagConstant               = "--cached"
	gitNameOnlyFlagConstant             = "--name-only"
	gitNumstatFlagConstant              = "--numstat"
	gitConfigSubcommandNameConstant     = "config"
	gitConfigGetFlagConstant            = "--get"
	gitCheckoutSubcommandNameConstant   = "checkout"
	gitCreateBranchFlagConstant         = "-b"
	stagedChangesLabelConstant          = "staged"
	unstagedChangesLabelConstant        = "unstaged"
)

const (
	gitTopLevelStartTemplateConstant            = "Locating repository root for %s"
	gitTopLevelSuccessTemplateConstant          = "Located repository root for %s"
	gitTopLevelFailureTemplateConstant          = "%s is not inside a Git repository (exit code %d%s)"
	gitTopLevelExecutionFailureTemplateConstant = "Unable to locate repository root for %s: %s"
	gitRevisionStartTemplateConstant            = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant          = "Resolved %s in %s"
	gitRevisionFailureTemplateConstant          = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant = "Unable to resolve %s in %s: %s"
	gitCurrentBranchStartTemplateConstant       = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant     = "Identified current branch in %s"
	gitCurrentBranchFailureTemplateConstant     = "Failed to identify current branch in %s (exit code %d%s)"
	gitCurrentBranchExecutionFailureTemplate    = "Unable to identify current branch in %s: %s"
	gitBranchListStartTemplateConstant          = "Listing local branches in %s"
	gitBranchListSuccessTemplateConstant        = "Listed local branches in %s"
	gitBranchListFailureTemplateConstant        = "Failed to list local branches in %s (exit code %d%s)"
	gitBranchListExecutionFailureTemplate       = "Unable to list local branches in %s: %s"
	gitStatusStartTemplateConstant              = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant            = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant            = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant   = "Unable to review working tree status in %s: %s"
	gitChangedFilesStartTemplateConstant        = "Listing %s changes in %s"
	gitChangedFilesSuccessTemplateConstant      = "Listed %s changes in %s"
	gitChangedFilesFailureTemplateConstant      = "Failed to list %s changes in %s (exit code %d%s)"
	gitChangedFilesExecutionFailureTemplate     = "Unable to list %s changes in %s: %s"
	gitDiffStartTemplateConstant                = "Computing %s diff of %s in %s"
	gitDiffSuccessTemplateConstant              = "Computed %s diff of %s in %s"
	gitDiffFailureTemplateConstant              = "Failed to compute %s diff of %s in %s (exit code %d%s)"
	gitDiffExecutionFailureTemplateConstant     = "Unable to compute %s diff of %s in %s: %s"
	gitDiffStatStartTemplateConstant            = "Counting %s line changes of %s in %s"
	gitDiffStatSuccessTemplateConstant          = "Counted %s line changes of %s in %s"
	gitDiffStatFailureTemplateConstant          = "Failed to count %s line changes of %s in %s (exit code %d%s)"
	gitDiffStatExecutionFailureTemplate         = "Unable to count %s line changes of %s in %s: %s"
	gitConfigStartTemplateConstant              = "Reading %s in %s"
	gitConfigSuccessTemplateConstant            = "Read %s in %s"
	gitConfigFailureTemplateConstant            = "%s is not set in %s (exit code %d%s)"
	gitConfigExecutionFailureTemplateConstant   = "Unable to read %s in %s: %s"
	gitCheckoutStartTemplateConstant            = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant          = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant          = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant = "Unable to switch %s to branch %s: %s"
	gitCreateBranchStartTemplateConstant        = "Creating branch %s in %s"
	gitCreateBranchSuccessTemplateConstant      = "Created and switched to branch %s in %s"
	gitCreateBranchFailureTemplateConstant      = "Failed to create branch %s in %s (exit code %d%s)"
	gitCreateBranchExecutionFailureTemplate     = "Unable to create branch %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitRevParseSubcommandNameConstant:
		if containsArgument(arguments, gitShowTopLevelFlagConstant) {
			return formatter.selectTemplate(stage, result, failure, stageTemplates{
				start:            gitTopLevelStartTemplateConstant,
				success:          gitTopLevelSuccessTemplateConstant,
				failure:          gitTopLevelFailureTemplateConstant,
				executionFailure: gitTopLevelExecutionFailureTemplateConstant,
			}, workingDirectory)
		}
		return formatter.selectTemplate(stage, result, failure, stageTemplates{
			start:            gitRevisionStartTemplateConstant,
			success:          gitRevisionSuccessTemplateConstant,
			failure:          gitRevisionFailureTemplateConstant,
			executionFailure: gitRevisionExecutionFailureTemplateConstant,
		}, formatter.lastNonFlagArgument(arguments), workingDirectory)
	case gitBranchSubcommandNameConstant:
		if containsArgument(arguments, gitShowCurrentFlagConstant) {
			return formatter.selectTemplate(stage, result, failure, stageTemplates{
				start:            gitCurrentBranchStartTemplateConstant,
				success:          gitCurrentBranchSuccessTemplateConstant,
				failure:          gitCurrentBranchFailureTemplateConstant,
				executionFailure: gitCurrentBranchExecutionFailureTemplate,
			}, workingDirectory)
		}
		return formatter.buildGenericMessage(command, result, failure, stage)
	case gitForEachRefSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, stageTemplates{
			start:            gitBranchListStartTemplateConstant,
			success:          gitBranchListSuccessTemplateConstant,
			failure:          gitBranchListFailureTemplateConstant,
			executionFailure: gitBranchListExecutionFailureTemplate,
		}, workingDirectory)
	case gitStatusSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, stageTemplates{
			start:            gitStatusStartTemplateConstant,
			success:          gitStatusSuccessTemplateConstant,
			failure:          gitStatusFailureTemplateConstant,
			executionFailure: gitStatusExecutionFailureTemplateConstant,
		}, workingDirectory)
	case gitDiffSubcommandNameConstant:
		return formatter.describeGitDiffMessage(arguments, workingDirectory, result, failure, stage)
	case gitConfigSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, stageTemplates{
			start:            gitConfigStartTemplateConstant,
			success:          gitConfigSuccessTemplateConstant,
			failure:          gitConfigFailureTemplateConstant,
			executionFailure: gitConfigExecutionFailureTemplateConstant,
		}, formatter.ensureValue(findFlagValue(arguments, gitConfigGetFlagConstant)), workingDirectory)
	case gitCheckoutSubcommandNameConstant:
		branchName := formatter.ensureValue(formatter.lastNonFlagArgument(arguments))
		if containsArgument(arguments, gitCreateBranchFlagConstant) {
			return formatter.selectTemplate(stage, result, failure, stageTemplates{
				start:            gitCreateBranchStartTemplateConstant,
				success:          gitCreateBranchSuccessTemplateConstant,
				failure:          gitCreateBranchFailureTemplateConstant,
				executionFailure: gitCreateBranchExecutionFailureTemplate,
			}, branchName, workingDirectory)
		}
		return formatter.selectTemplate(stage, result, failure, stageTemplates{
			start:            gitCheckoutStartTemplateConstant,
			success:          gitCheckoutSuccessTemplateConstant,
			failure:          gitCheckoutFailureTemplateConstant,
			executionFailure: gitCheckoutExecutionFailureTemplateConstant,
		}, workingDirectory, branchName)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitDiffMessage(arguments []string, workingDirectory string, result ExecutionResult, failure error, stage messageStage) string {
	changeLabel := unstagedChangesLabelConstant
	if containsArgument(arguments, gitCachedFlagConstant) {
		changeLabel = stagedChangesLabelConstant
	}

	if containsArgument(arguments, gitNameOnlyFlagConstant) {
		return formatter.selectTemplate(stage, result, failure, stageTemplates{
			start:            gitChangedFilesStartTemplateConstant,
			success:          gitChangedFilesSuccessTemplateConstant,
			failure:          gitChangedFilesFailureTemplateConstant,
			executionFailure: gitChangedFilesExecutionFailureTemplate,
		}, changeLabel, workingDirectory)
	}

	filePath := formatter.ensureValue(formatter.extractPathspec(arguments))
	if containsArgument(arguments, gitNumstatFlagConstant) {
		return formatter.selectTemplate(stage, result, failure, stageTemplates{
			start:            gitDiffStatStartTemplateConstant,
			success:          gitDiffStatSuccessTemplateConstant,
			failure:          gitDiffStatFailureTemplateConstant,
			executionFailure: gitDiffStatExecutionFailureTemplate,
		}, changeLabel, filePath, workingDirectory)
	}

	return formatter.selectTemplate(stage, result, failure, stageTemplates{
		start:            gitDiffStartTemplateConstant,
		success:          gitDiffSuccessTemplateConstant,
		failure:          gitDiffFailureTemplateConstant,
		executionFailure: gitDiffExecutionFailureTemplateConstant,
	}, changeLabel, filePath, workingDirectory)
}

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// selectTemplate renders the template for the stage. Failure templates receive the
// exit code and standard error suffix after the subject values; execution failure
// templates receive the failure description.
func (formatter CommandMessageFormatter) selectTemplate(stage messageStage, result ExecutionResult, failure error, templates stageTemplates, subjects ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		values := append(append([]any{}, subjects...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, values...)
	case messageStageExecutionFailure:
		values := append(append([]any{}, subjects...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, values...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) lastNonFlagArgument(arguments []string) string {
	for index := len(arguments) - 1; index > 0; index-- {
		argument := strings.TrimSpace(arguments[index])
		if len(argument) == 0 || strings.HasPrefix(argument, flagPrefixConstant) {
			continue
		}
		return argument
	}
	return emptyStringConstant
}

// extractPathspec returns the first argument following the "--" separator.
func (formatter CommandMessageFormatter) extractPathspec(arguments []string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == pathSeparatorArgumentConstant && index+1 < len(arguments) {
			return arguments[index+1]
		}
	}
	return emptyStringConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
