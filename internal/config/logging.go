package config

import (
	"github.com/capitalens/capitalens/internal/logging"
)

// LoggingConfig is the logging section of the config file.
type LoggingConfig struct {
	// Level is the minimum level to emit: trace, debug, info, warn, error.
	Level string `yaml:"level"`
	// Format selects console or json encoding.
	Format string `yaml:"format"`
	// File, when set, routes logs to this path instead of stderr.
	File string `yaml:"file,omitempty"`
}

// ToLoggingConfig converts the config section into a logging.Config. When
// File is set the output is routed to that file, otherwise to stderr.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := "stderr"
	if lc.File != "" {
		output = "file"
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

// GetLoggingConfig returns the Logging section of the global configuration.
// The returned value is a copy; flag-level overrides are applied by the
// caller.
func GetLoggingConfig() LoggingConfig {
	cfg := GetGlobalConfig()
	return cfg.Logging
}
