// Package cli defines the parallax command-line application.
package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// NewApp builds the parallax CLI.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "parallax",
		Usage:   "Relationship insight extraction and mediation service",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config-file",
				Value:   "",
				Usage:   "Path to configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			log := logger.NewLogger(logger.Config{
				Level:   logger.ParseLevel(ctx.String("log-level")),
				Format:  "json",
				Service: "parallax",
			})
			ctx.App.Metadata = map[string]interface{}{
				"logger": log,
			}
			return nil
		},
		Commands: []*cli.Command{
			ConfigCommand(),
			ServerCommand(),
			MigrateCommand(),
			EventsCommand(),
			PromptsCommand(),
		},
	}
}
