package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/discovery"
	"github.com/temirov/repowatch/internal/repository"
	flagutils "github.com/temirov/repowatch/internal/utils/flags"
)

const (
	overviewCommandUseConstant               = "overview [root...]"
	overviewCommandShortDescriptionConstant  = "Summarize every repository found below the given roots"
	overviewCommandLongDescriptionConstant   = "overview discovers Git working trees below each root (default: the working directory) and prints one line per repository with its branch and change counts."
	overviewCommandExampleConstant           = "repowatch overview ~/Development --format json"
	overviewLineTemplateConstant             = "%s  %s  %s\n"
	overviewChangeCountsTemplateConstant     = "+%d ~%d -%d"
	overviewCleanMarkerConstant              = "clean"
	overviewNoRepositoriesLineConstant       = "No repositories found\n"
	overviewRepositorySkippedMessageConstant = "skipping unresolvable repository"
	overviewLogFieldPathConstant             = "path"
	defaultOverviewRootConstant              = "."
)

// OverviewCommandBuilder assembles the overview command.
type OverviewCommandBuilder struct {
	LoggerProvider               dependencies.LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        dependencies.RepositoryConfigurationProvider
	Facade                       *repository.Facade
	Discoverer                   *discovery.Discoverer
}

// Build constructs the overview command.
func (builder *OverviewCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     overviewCommandUseConstant,
		Short:   overviewCommandShortDescriptionConstant,
		Long:    overviewCommandLongDescriptionConstant,
		Example: overviewCommandExampleConstant,
		RunE:    builder.run,
	}
	command.Flags().String(formatFlagNameConstant, FormatText, flagutils.FormatChoiceUsage(FormatText, FormatChoices(), formatFlagDescriptionConstant))
	return command, nil
}

func (builder *OverviewCommandBuilder) run(command *cobra.Command, arguments []string) error {
	requestedFormat, _ := command.Flags().GetString(formatFlagNameConstant)
	format, formatError := flagutils.NormalizeChoice(formatFlagNameConstant, requestedFormat, FormatText, FormatChoices())
	if formatError != nil {
		return formatError
	}

	facade, logger, facadeError := dependencies.ResolveCommandFacade(builder.Facade, builder.LoggerProvider, builder.HumanReadableLoggingProvider, builder.ConfigurationProvider)
	if facadeError != nil {
		return facadeError
	}

	discoverer := builder.Discoverer
	if discoverer == nil {
		discoverer = discovery.NewDiscoverer()
	}
	roots := arguments
	if len(roots) == 0 {
		roots = []string{defaultOverviewRootConstant}
	}

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}
	workingTrees, discoverError := discoverer.Discover(executionContext, roots)
	if discoverError != nil {
		return discoverError
	}

	reports := make([]Report, 0, len(workingTrees))
	for _, workingTree := range workingTrees {
		handle, resolveError := facade.Resolve(executionContext, workingTree)
		if resolveError != nil {
			logger.Warn(overviewRepositorySkippedMessageConstant, zap.String(overviewLogFieldPathConstant, workingTree), zap.Error(resolveError))
			continue
		}
		reports = append(reports, BuildReport(executionContext, facade, handle))
	}

	return RenderOverview(command.OutOrStdout(), reports, format)
}

// RenderOverview writes one summary per report in the requested format.
func RenderOverview(writer io.Writer, reports []Report, format string) error {
	if reports == nil {
		reports = []Report{}
	}
	switch format {
	case FormatText, "":
		return renderOverviewText(writer, reports)
	case FormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(reports); encodeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, format, encodeError)
		}
		if closeError := encoder.Close(); closeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, format, closeError)
		}
		return nil
	case FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		if encodeError := encoder.Encode(reports); encodeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, format, encodeError)
		}
		return nil
	default:
		return fmt.Errorf(unknownFormatTemplateConstant, format)
	}
}

func renderOverviewText(writer io.Writer, reports []Report) error {
	if len(reports) == 0 {
		if _, writeError := io.WriteString(writer, overviewNoRepositoriesLineConstant); writeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, FormatText, writeError)
		}
		return nil
	}
	for _, report := range reports {
		changeSummary := overviewCleanMarkerConstant
		if len(report.Added)+len(report.Modified)+len(report.Deleted) > 0 {
			changeSummary = fmt.Sprintf(overviewChangeCountsTemplateConstant, len(report.Added), len(report.Modified), len(report.Deleted))
		}
		if _, writeError := fmt.Fprintf(writer, overviewLineTemplateConstant, report.Repository, report.Branch, changeSummary); writeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, FormatText, writeError)
		}
	}
	return nil
}
