package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/events"
	cli "github.com/urfave/cli/v3"
)

var (
	errNoEventBus        = errors.New("watch requires --event-bus")
	errInProcessEventBus = errors.New("watch cannot use the in-process gochannel bus, use kafka")
)

func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print run events from the kafka event bus until interrupted",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.String("event-bus") == "gochannel" {
				return errInProcessEventBus
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, logger *slog.Logger) error {
				if runtime.EventBus == nil {
					return errNoEventBus
				}

				printEvent := func(_ context.Context, event any) error {
					return printJSON(command, event)
				}

				for _, eventType := range events.Types() {
					err := runtime.EventBus.Handle(eventType, printEvent)
					if err != nil {
						return err
					}
				}

				err := runtime.EventBus.Subscribe(ctx)
				if err != nil {
					return err
				}

				logger.InfoContext(ctx, "Watching run events")

				<-ctx.Done()

				return nil
			})
		},
	}
}
