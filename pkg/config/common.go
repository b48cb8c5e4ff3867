package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" yaml:"level" default:"info"`
	Format string `env:"LOG_FORMAT" yaml:"format" default:"json"`
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks the level and format names.
func (c LoggingConfig) Validate() error {
	var result *multierror.Error
	if !slices.Contains(logLevels, strings.ToLower(c.Level)) {
		result = multierror.Append(result, fmt.Errorf("log level must be one of [debug, info, warn, error], got %q", c.Level))
	}
	if c.Format != "json" && c.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log format must be json or text, got %q", c.Format))
	}
	return result.ErrorOrNil()
}
