package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/config"
	"github.com/dukex/stepflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func NewScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "Start runs on cron schedules until interrupted",
		ArgsUsage: "[workflow]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cron",
				Usage: "Five-field cron expression for the workflow argument",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file with a list of {cron, workflow} schedules",
				Sources: cli.EnvVars("SCHEDULES_CONFIG"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			schedules, err := schedulesFromCommand(command)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, logger *slog.Logger) error {
				scheduler := workflow.NewScheduler(runtime.Runner)

				for _, schedule := range schedules {
					err := scheduler.Add(schedule.Cron, schedule.Workflow)
					if err != nil {
						return err
					}
				}

				scheduler.Start(ctx)
				logger.InfoContext(ctx, "Waiting for schedules", "jobs", scheduler.Jobs())

				<-ctx.Done()

				return nil
			})
		},
	}
}

func schedulesFromCommand(command *cli.Command) ([]config.Schedule, error) {
	if path := command.String("config"); path != "" {
		return config.LoadScheduleConfig(path)
	}

	if command.String("cron") == "" || command.Args().Len() != 1 {
		return nil, errors.New("schedule expects --config FILE or --cron EXPR <workflow>")
	}

	schedules := []config.Schedule{{Cron: command.String("cron"), Workflow: command.Args().First()}}

	return schedules, config.ValidateSchedules(schedules)
}
