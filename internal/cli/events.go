package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/parallax/internal/realtime"
)

// EventsCommand returns a command for the memory change feed
func EventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Memory change notifications",
		Subcommands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Print change events as JSON lines until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "Only print events for this user id",
					},
				},
				Action: eventsWatchAction,
			},
		},
	}
}

func eventsWatchAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.Redis.Enabled() {
		return errors.New("events require REDIS_URL to be configured")
	}
	opts, err := cfg.Redis.Options()
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	defer client.Close()

	watchCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	user := ctx.String("user")
	enc := json.NewEncoder(ctx.App.Writer)
	notifier := realtime.NewRedisNotifier(client, cfg.Redis.Channel, configuredLogger(cfg))
	done, err := notifier.Subscribe(watchCtx, func(event realtime.Event) {
		if user != "" && event.UserID != user {
			return
		}
		_ = enc.Encode(event)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	// The subscriber goroutine closes done after its last write, so the
	// deferred client.Close cannot race it.
	<-done
	return nil
}
