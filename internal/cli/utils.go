package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/parallax/internal/config"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata["logger"].(logger.Logger); ok {
			return log
		}
	}
	return logger.NewLogger(logger.Config{
		Level:   logger.InfoLevel,
		Format:  "json",
		Service: "parallax",
	})
}

// loadConfig reads the --config-file (if any) and the environment.
func loadConfig(ctx *cli.Context) (*appconfig.AppConfig, error) {
	cfg, err := appconfig.Load(ctx.String("config-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// configuredLogger builds the logger described by cfg's logging section.
func configuredLogger(cfg *appconfig.AppConfig) logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})
}
