package dependencies

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repowatch/internal/execshell"
	"github.com/temirov/repowatch/internal/ui"
)

const (
	backendConfigurationKeyConstant        = "backend"
	commandTimeoutConfigurationKeyConstant = "command_timeout"
	defaultCommandTimeoutConstant          = 30 * time.Second
	configurationKeySeparatorConstant      = "."
)

// LoggerProvider yields the active logger.
type LoggerProvider func() *zap.Logger

// RepositoryConfiguration captures how commands reach repositories.
type RepositoryConfiguration struct {
	Backend        string        `mapstructure:"backend"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// RepositoryConfigurationProvider yields the active repository configuration.
type RepositoryConfigurationProvider func() RepositoryConfiguration

// DefaultRepositoryConfiguration uses the git executable with a thirty second bound per call.
func DefaultRepositoryConfiguration() RepositoryConfiguration {
	return RepositoryConfiguration{Backend: BackendShell, CommandTimeout: defaultCommandTimeoutConstant}
}

// DefaultConfigurationValues returns viper defaults rooted at prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultRepositoryConfiguration()
	return map[string]any{
		prefix + configurationKeySeparatorConstant + backendConfigurationKeyConstant:        defaults.Backend,
		prefix + configurationKeySeparatorConstant + commandTimeoutConfigurationKeyConstant: defaults.CommandTimeout,
	}
}

// Sanitize normalizes the backend name. Negative timeouts disable the bound.
func (configuration RepositoryConfiguration) Sanitize() RepositoryConfiguration {
	sanitized := configuration
	sanitized.Backend = strings.ToLower(strings.TrimSpace(configuration.Backend))
	if len(sanitized.Backend) == 0 {
		sanitized.Backend = BackendShell
	}
	if sanitized.CommandTimeout < 0 {
		sanitized.CommandTimeout = 0
	}
	return sanitized
}

// ResolveLogger returns the provided logger or a no-op logger.
func ResolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	return resolveLogger(provider())
}

// ResolveRepositoryConfiguration returns the sanitized provided configuration or the defaults.
func ResolveRepositoryConfiguration(provider RepositoryConfigurationProvider) RepositoryConfiguration {
	if provider == nil {
		return DefaultRepositoryConfiguration()
	}
	return provider().Sanitize()
}

// NewRepositoryOptions combines configuration with the logging mode. Human-readable logging
// renders git invocations on the console as they run.
func NewRepositoryOptions(configuration RepositoryConfiguration, logger *zap.Logger, humanReadableLogging bool) RepositoryOptions {
	var observer execshell.CommandEventObserver
	if humanReadableLogging {
		observer = ui.NewConsoleCommandEventLogger(logger)
	}
	return RepositoryOptions{
		Backend:        configuration.Backend,
		CommandTimeout: configuration.CommandTimeout,
		Logger:         logger,
		EventObserver:  observer,
	}
}
