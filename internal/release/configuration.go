package release

import "strings"

const (
	defaultManifestPathConstant     = "pyproject.toml"
	defaultChangelogPathConstant    = "CHANGELOG.md"
	manifestConfigurationKeySuffix  = ".manifest"
	changelogConfigurationKeySuffix = ".changelog"
)

// CommandConfiguration captures configuration values for version commands.
type CommandConfiguration struct {
	ManifestPath  string `mapstructure:"manifest"`
	ChangelogPath string `mapstructure:"changelog"`
}

// DefaultCommandConfiguration provides baseline configuration values for version commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		ManifestPath:  defaultManifestPathConstant,
		ChangelogPath: defaultChangelogPathConstant,
	}
}

// DefaultConfigurationValues exposes configuration defaults keyed beneath the
// provided prefix for registration with the configuration loader.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + manifestConfigurationKeySuffix:  defaults.ManifestPath,
		configurationKeyPrefix + changelogConfigurationKeySuffix: defaults.ChangelogPath,
	}
}

// Sanitize trims configuration values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.ManifestPath = strings.TrimSpace(configuration.ManifestPath)
	if len(sanitized.ManifestPath) == 0 {
		sanitized.ManifestPath = defaultManifestPathConstant
	}

	sanitized.ChangelogPath = strings.TrimSpace(configuration.ChangelogPath)
	if len(sanitized.ChangelogPath) == 0 {
		sanitized.ChangelogPath = defaultChangelogPathConstant
	}

	return sanitized
}
