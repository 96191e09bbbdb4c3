package watch

import (
	"strings"
	"time"
)

const (
	pollIntervalConfigurationKeyConstant  = "poll_interval"
	granularityConfigurationKeyConstant   = "granularity"
	eventAssistedConfigurationKeyConstant = "event_assisted"
	configurationKeySeparatorConstant     = "."
)

// CommandConfiguration captures the persisted watch settings.
type CommandConfiguration struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Granularity   string        `mapstructure:"granularity"`
	EventAssisted bool          `mapstructure:"event_assisted"`
}

// CommandConfigurationProvider yields the active watch configuration.
type CommandConfigurationProvider func() CommandConfiguration

// DefaultCommandConfiguration polls the whole metadata directory every two seconds.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		PollInterval:  defaultPollIntervalConstant,
		Granularity:   string(GranularityMetadata),
		EventAssisted: false,
	}
}

// DefaultConfigurationValues returns viper defaults rooted at prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparatorConstant + pollIntervalConfigurationKeyConstant:  defaults.PollInterval,
		prefix + configurationKeySeparatorConstant + granularityConfigurationKeyConstant:   defaults.Granularity,
		prefix + configurationKeySeparatorConstant + eventAssistedConfigurationKeyConstant: defaults.EventAssisted,
	}
}

// Sanitize normalizes granularity and replaces non-positive intervals with the default.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.PollInterval <= 0 {
		sanitized.PollInterval = defaultPollIntervalConstant
	}
	sanitized.Granularity = strings.ToLower(strings.TrimSpace(configuration.Granularity))
	if len(sanitized.Granularity) == 0 {
		sanitized.Granularity = string(GranularityMetadata)
	}
	return sanitized
}
