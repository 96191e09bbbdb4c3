package dependencies

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repowatch/internal/repository"
	pathutils "github.com/temirov/repowatch/internal/utils/path"
)

const defaultRepositoryPathConstant = "."

var repositoryPathExpander = pathutils.NewHomeExpander()

// ResolveCommandFacade returns the provided facade or builds one from the command's providers,
// together with the logger commands should use.
func ResolveCommandFacade(existing *repository.Facade, loggerProvider LoggerProvider, humanReadableLoggingProvider func() bool, configurationProvider RepositoryConfigurationProvider) (*repository.Facade, *zap.Logger, error) {
	logger := ResolveLogger(loggerProvider)
	if existing != nil {
		return existing, logger, nil
	}

	humanReadableLogging := false
	if humanReadableLoggingProvider != nil {
		humanReadableLogging = humanReadableLoggingProvider()
	}
	options := NewRepositoryOptions(ResolveRepositoryConfiguration(configurationProvider), logger, humanReadableLogging)
	facade, facadeError := ResolveFacade(nil, nil, nil, options)
	if facadeError != nil {
		return nil, nil, facadeError
	}
	return facade, logger, nil
}

// ResolveHandle resolves the optional repository path argument at index, defaulting to the
// working directory. A leading tilde expands to the home directory.
func ResolveHandle(executionContext context.Context, facade *repository.Facade, arguments []string, index int) (repository.Handle, error) {
	repositoryPath := defaultRepositoryPathConstant
	if index >= 0 && index < len(arguments) {
		if trimmed := strings.TrimSpace(arguments[index]); len(trimmed) > 0 {
			repositoryPath = repositoryPathExpander.Expand(trimmed)
		}
	}
	if executionContext == nil {
		executionContext = context.Background()
	}
	return facade.Resolve(executionContext, repositoryPath)
}
