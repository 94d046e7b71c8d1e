package driven

import "github.com/custodia-labs/sercha-mirror/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Load reads configuration from storage.
	// A missing file is not an error; defaults apply.
	Load() error

	// Settings returns the loaded configuration with defaults applied.
	Settings() domain.Settings

	// Path returns the configuration file path.
	Path() string
}
