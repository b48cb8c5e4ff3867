package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/parallax/internal/server"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// MigrateCommand returns a command for database schema operations
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migrations",
		Subcommands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateUpAction,
			},
		},
	}
}

func migrateUpAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := configuredLogger(cfg)

	if err := server.Migrate(ctx.Context, cfg, log); err != nil {
		log.Error("Migration failed", logger.ErrorField(err))
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
