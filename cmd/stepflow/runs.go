package main

import (
	"context"
	"log/slog"

	"github.com/dukex/stepflow/pkg/cmd"
	cli "github.com/urfave/cli/v3"
)

func NewStartCommand() *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Validate a workflow and open a new run",
		ArgsUsage: "<workflow>",
		Action: func(ctx context.Context, command *cli.Command) error {
			args, err := requireArgs(command, "workflow")
			if err != nil {
				return err
			}

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, _ *slog.Logger) error {
				result, err := runtime.Runner.Start(ctx, args[0])
				if err != nil {
					return err
				}

				return printJSON(command, result)
			})
		},
	}
}

func NewResumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "Show the remaining steps of the active run",
		Action: func(ctx context.Context, command *cli.Command) error {
			return withRuntime(ctx, command, func(runtime *cmd.Runtime, logger *slog.Logger) error {
				result, err := runtime.Runner.Resume(ctx)
				if err != nil {
					return err
				}

				if result == nil {
					logger.InfoContext(ctx, "No active workflow to resume")
				}

				return printJSON(command, result)
			})
		},
	}
}

func NewAdvanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "advance",
		Usage:     "Record that a step started",
		ArgsUsage: "<run-id> <step-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			args, err := requireArgs(command, "run-id", "step-id")
			if err != nil {
				return err
			}

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, _ *slog.Logger) error {
				result, err := runtime.Runner.AdvanceStep(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				return printJSON(command, result)
			})
		},
	}
}

func NewCompleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Record that a step completed and move the work state forward",
		ArgsUsage: "<run-id> <step-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			args, err := requireArgs(command, "run-id", "step-id")
			if err != nil {
				return err
			}

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, _ *slog.Logger) error {
				result, err := runtime.Runner.CompleteStep(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				return printJSON(command, result)
			})
		},
	}
}

func NewFailCommand() *cli.Command {
	return &cli.Command{
		Name:      "fail",
		Usage:     "Record that a step failed",
		ArgsUsage: "<run-id> <step-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "error",
				Aliases:  []string{"e"},
				Usage:    "Failure message stored with the entry",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			args, err := requireArgs(command, "run-id", "step-id")
			if err != nil {
				return err
			}

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, _ *slog.Logger) error {
				result, err := runtime.Runner.FailStep(ctx, args[0], args[1], command.String("error"))
				if err != nil {
					return err
				}

				return printJSON(command, result)
			})
		},
	}
}

func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show completed and remaining steps of a run",
		ArgsUsage: "<run-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			args, err := requireArgs(command, "run-id")
			if err != nil {
				return err
			}

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, _ *slog.Logger) error {
				status, err := runtime.Runner.Status(ctx, args[0])
				if err != nil {
					return err
				}

				return printJSON(command, status)
			})
		},
	}
}

func NewLogCommand() *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Print every run log entry of a run",
		ArgsUsage: "<run-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			args, err := requireArgs(command, "run-id")
			if err != nil {
				return err
			}

			return withRuntime(ctx, command, func(runtime *cmd.Runtime, _ *slog.Logger) error {
				entries, err := runtime.Runner.Entries(ctx, args[0])
				if err != nil {
					return err
				}

				return printJSON(command, entries)
			})
		},
	}
}
