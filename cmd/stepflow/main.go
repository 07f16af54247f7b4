// Package main provides the stepflow command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/stepflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "stepflow",
		Usage:                 "Validate workflows and drive their runs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL (file path, postgres:// or redis://)",
				Value:   "./.stepflow",
				Sources: cli.EnvVars("DATABASE_URL"),
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
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			NewStartCommand(),
			NewResumeCommand(),
			NewAdvanceCommand(),
			NewCompleteCommand(),
			NewFailCommand(),
			NewStatusCommand(),
			NewLogCommand(),
			NewValidateCommand(),
			NewScheduleCommand(),
			NewWatchCommand(),
		},
	}
}

func main() {
	err := newApp().Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
