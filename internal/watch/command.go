package watch

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/repository"
	"github.com/temirov/repowatch/internal/status"
	"github.com/temirov/repowatch/internal/utils"
	flagutils "github.com/temirov/repowatch/internal/utils/flags"
)

const (
	commandUseConstant                    = "watch [path]"
	commandShortDescriptionConstant       = "Print repository status and refresh it whenever the repository changes"
	commandLongDescriptionConstant        = "watch prints the status summary of the repository containing path (default: the working directory) and prints it again after every detected change until interrupted or until the repository disappears."
	commandExampleConstant                = "repowatch watch ~/Development/project --interval 1s --granularity head"
	intervalFlagNameConstant              = "interval"
	intervalFlagDescriptionConstant       = "Polling interval (defaults to watch.poll_interval)"
	granularityFlagNameConstant           = "granularity"
	granularityFlagDescriptionConstant    = "Fingerprint granularity"
	repositoryPathArgumentIndex           = 0
	changeSeparatorLineConstant           = "CHANGED: %s"
	repositoryGoneLineTemplateConstant    = "STOPPED: %s no longer exists"
	changeTimestampLayoutConstant         = time.TimeOnly
	watchConfigurationMessageConstant     = "watch configuration"
	watchStoppedMessageConstant           = "watch stopped"
	logFieldRepositoryConstant            = "repository"
	logFieldGranularityConstant           = "granularity"
	logFieldEventAssistedConstant         = "event_assisted"
	logFieldConfigurationFileConstant     = "config_file"
	logFieldPollIntervalConstant          = "poll_interval"
	logFieldRepositoryDisappearedConstant = "repository_disappeared"
)

// GranularityChoices lists the supported granularities, default first.
func GranularityChoices() []string {
	return []string{string(GranularityMetadata), string(GranularityHead)}
}

// CommandBuilder assembles the watch command.
type CommandBuilder struct {
	LoggerProvider               dependencies.LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        dependencies.RepositoryConfigurationProvider
	WatchConfigurationProvider   CommandConfigurationProvider
	Facade                       *repository.Facade
}

// Build constructs the watch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.MaximumNArgs(1),
		RunE:    builder.run,
	}
	command.Flags().Duration(intervalFlagNameConstant, 0, intervalFlagDescriptionConstant)
	command.Flags().String(granularityFlagNameConstant, "", flagutils.FormatChoiceUsage(string(GranularityMetadata), GranularityChoices(), granularityFlagDescriptionConstant))
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	facade, logger, facadeError := dependencies.ResolveCommandFacade(builder.Facade, builder.LoggerProvider, builder.HumanReadableLoggingProvider, builder.ConfigurationProvider)
	if facadeError != nil {
		return facadeError
	}

	handle, resolveError := dependencies.ResolveHandle(command.Context(), facade, arguments, repositoryPathArgumentIndex)
	if resolveError != nil {
		return resolveError
	}

	metadataDirectory, metadataError := ResolveMetadataDirectory(handle.Root())
	if metadataError != nil {
		return metadataError
	}

	fingerprinter, fingerprinterError := NewFingerprinter(Granularity(configuration.Granularity), metadataDirectory)
	if fingerprinterError != nil {
		return fingerprinterError
	}

	configurationFilePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	logger.Debug(
		watchConfigurationMessageConstant,
		zap.String(logFieldRepositoryConstant, handle.Root()),
		zap.Duration(logFieldPollIntervalConstant, configuration.PollInterval),
		zap.String(logFieldGranularityConstant, configuration.Granularity),
		zap.Bool(logFieldEventAssistedConstant, configuration.EventAssisted),
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
	)

	watcherOptions := []Option{WithPollInterval(configuration.PollInterval), WithLogger(logger)}
	if configuration.EventAssisted {
		watcherOptions = append(watcherOptions, WithEventAssistance(metadataDirectory))
	}
	watcher, watcherError := NewWatcher(fingerprinter, watcherOptions...)
	if watcherError != nil {
		return watcherError
	}

	parentContext := command.Context()
	if parentContext == nil {
		parentContext = context.Background()
	}
	executionContext, cancel := signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	writer := utils.NewFlushingWriter(command.OutOrStdout())
	if renderError := status.Render(writer, status.BuildReport(executionContext, facade, handle), status.FormatText); renderError != nil {
		return renderError
	}

	if startError := watcher.Start(executionContext); startError != nil {
		return startError
	}
	defer watcher.Stop()

	for range watcher.Events() {
		if writeError := writer.WriteLinef(changeSeparatorLineConstant, time.Now().Format(changeTimestampLayoutConstant)); writeError != nil {
			return writeError
		}
		if renderError := status.Render(writer, status.BuildReport(executionContext, facade, handle), status.FormatText); renderError != nil {
			return renderError
		}
	}

	repositoryDisappeared := executionContext.Err() == nil
	logger.Debug(watchStoppedMessageConstant, zap.String(logFieldRepositoryConstant, handle.Root()), zap.Bool(logFieldRepositoryDisappearedConstant, repositoryDisappeared))
	if repositoryDisappeared {
		return writer.WriteLinef(repositoryGoneLineTemplateConstant, handle.Root())
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.WatchConfigurationProvider != nil {
		configuration = builder.WatchConfigurationProvider()
	}
	configuration = configuration.Sanitize()

	if command.Flags().Changed(intervalFlagNameConstant) {
		interval, _ := command.Flags().GetDuration(intervalFlagNameConstant)
		configuration.PollInterval = interval
		configuration = configuration.Sanitize()
	}

	requestedGranularity := configuration.Granularity
	if command.Flags().Changed(granularityFlagNameConstant) {
		requestedGranularity, _ = command.Flags().GetString(granularityFlagNameConstant)
	}
	granularity, granularityError := flagutils.NormalizeChoice(granularityFlagNameConstant, requestedGranularity, string(GranularityMetadata), GranularityChoices())
	if granularityError != nil {
		return CommandConfiguration{}, granularityError
	}
	configuration.Granularity = granularity
	return configuration, nil
}
