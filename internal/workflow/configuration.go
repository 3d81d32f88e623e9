package workflow

import "strings"

const (
	defaultChangelogPathConstant    = "CHANGELOG.md"
	changelogConfigurationKeySuffix = ".changelog"
)

// CommandConfiguration captures configuration values for workflow commands.
type CommandConfiguration struct {
	ChangelogPath string `mapstructure:"changelog"`
}

// DefaultCommandConfiguration provides baseline configuration values for workflow commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		ChangelogPath: defaultChangelogPathConstant,
	}
}

// DefaultConfigurationValues exposes configuration defaults keyed beneath the
// provided prefix for registration with the configuration loader.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + changelogConfigurationKeySuffix: defaults.ChangelogPath,
	}
}

// Sanitize trims configuration values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.ChangelogPath = strings.TrimSpace(configuration.ChangelogPath)
	if len(sanitized.ChangelogPath) == 0 {
		sanitized.ChangelogPath = defaultChangelogPathConstant
	}

	return sanitized
}
