package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

// withRuntime opens the configured runtime, runs fn and closes it again.
func withRuntime(ctx context.Context, command *cli.Command, fn func(*cmd.Runtime, *slog.Logger) error) error {
	errWriter := command.Root().ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}

	log.SetupWriter(errWriter, command.String("log-level"), "text")

	logger := log.WithModule("stepflow").With("command", command.Name)

	runtime, err := cmd.NewRuntime(ctx, logger, cmd.Config{
		ServiceName:     "stepflow",
		DatabaseURL:     command.String("database-url"),
		SkillsPath:      command.String("skills-path"),
		EventBus:        command.String("event-bus"),
		MaxExtendsDepth: command.Int("max-extends-depth"),
		OtelEnabled:     command.Bool("otel"),
	})
	if err != nil {
		return err
	}

	defer func() {
		err := runtime.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close runtime", "error", err)
		}
	}()

	return fn(runtime, logger)
}

func printJSON(command *cli.Command, value any) error {
	writer := command.Root().Writer
	if writer == nil {
		writer = os.Stdout
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func requireArgs(command *cli.Command, names ...string) ([]string, error) {
	if command.Args().Len() != len(names) {
		return nil, fmt.Errorf("%s expects %d argument(s): %v", command.Name, len(names), names)
	}

	return command.Args().Slice(), nil
}
