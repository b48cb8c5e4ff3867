package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/parallax/internal/server"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// ServerCommand returns a command for server operations
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Server operations",
		Subcommands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the insight API server",
				Action: serverStartAction,
			},
		},
	}
}

func serverStartAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		getLogger(ctx).Error("Failed to load configuration", logger.ErrorField(err))
		return err
	}
	log := configuredLogger(cfg)
	cfg.LogConfig(log)

	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := server.New(runCtx, cfg, log)
	if err != nil {
		log.Error("Failed to create server", logger.ErrorField(err))
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("Starting Parallax",
		logger.StringField("version", cfg.Version),
		logger.StringField("llm_provider", cfg.LLM.Provider))

	if err := s.Run(runCtx); err != nil {
		log.Error("Fatal server error occurred", logger.ErrorField(err))
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}
