package main

import (
	"context"
	"os"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "stepflow-api",
		Usage:                 "Serve workflow runs over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Persistence URL (file path, postgres:// or redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "skills-path",
				Usage:   "Directory whose sub-directories containing SKILL.md are skills",
				Value:   "./skills",
				Sources: cli.EnvVars("SKILLS_PATH"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka); empty disables run events",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.IntFlag{
				Name:    "max-extends-depth",
				Usage:   "Maximum length of an extends chain",
				Value:   workflow.DefaultMaxExtendsDepth,
				Sources: cli.EnvVars("MAX_EXTENDS_DEPTH"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Stepflow API")

			runtime, err := cmd.NewRuntime(ctx, logger, cmd.Config{
				ServiceName:     "stepflow-api",
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

			api := NewAPI(logger, runtime.Runner, runtime.Repository, runtime.Skills)

			return api.Start(command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
