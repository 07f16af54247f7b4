package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Resolve and validate every stored workflow, or the named ones",
		ArgsUsage: "[workflow...]",
		Action: func(ctx context.Context, command *cli.Command) error {
			return withRuntime(ctx, command, func(runtime *cmd.Runtime, logger *slog.Logger) error {
				names := command.Args().Slice()
				if len(names) == 0 {
					var err error

					names, err = runtime.Repository.Names(ctx)
					if err != nil {
						return fmt.Errorf("failed to list workflows: %w", err)
					}
				}

				logger.InfoContext(ctx, "Validating workflows", "workflows", len(names))

				inspections := make([]*workflow.Inspection, 0, len(names))
				invalid := 0

				for _, name := range names {
					inspection, err := runtime.Runner.Inspect(ctx, name)
					if err != nil {
						return err
					}

					if !inspection.Validation.Valid {
						invalid++
					}

					inspections = append(inspections, inspection)
				}

				err := printJSON(command, inspections)
				if err != nil {
					return err
				}

				if invalid > 0 {
					return fmt.Errorf("%d of %d workflow(s) are invalid", invalid, len(names))
				}

				return nil
			})
		},
	}
}
