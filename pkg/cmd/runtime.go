package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/skills"
	"github.com/dukex/stepflow/pkg/workflow"
)

// Config holds the settings shared by every stepflow binary.
type Config struct {
	ServiceName     string
	DatabaseURL     string
	SkillsPath      string
	EventBus        string
	MaxExtendsDepth int
	OtelEnabled     bool
}

// Runtime is the wired set of collaborators a command operates on.
type Runtime struct {
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Skills      *skills.Registry
	Runner      *workflow.Runner
	Repository  *workflow.Repository

	shutdownTracer otelhelper.ShutdownFunc
}

// NewRuntime opens the store, the optional event bus and tracer, and builds a runner.
func NewRuntime(ctx context.Context, logger *slog.Logger, config Config) (*Runtime, error) {
	store, err := NewPersistence(ctx, logger, config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	runtime := &Runtime{Persistence: store, Repository: workflow.NewRepository(store)}

	runtime.Skills, err = NewSkillRegistry(logger, config.SkillsPath)
	if err != nil {
		_ = runtime.Close(ctx)

		return nil, err
	}

	options := []workflow.Option{workflow.WithMaxExtendsDepth(config.MaxExtendsDepth)}

	runtime.EventBus, err = NewEventBus(config.EventBus, config.ServiceName, logger)
	if err != nil {
		_ = runtime.Close(ctx)

		return nil, err
	}

	if runtime.EventBus != nil {
		options = append(options, workflow.WithPublisher(runtime.EventBus))
	}

	if config.OtelEnabled {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, config.ServiceName)
		if err != nil {
			_ = runtime.Close(ctx)

			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}

		runtime.shutdownTracer = shutdown
		options = append(options, workflow.WithTracer(tracer))
	}

	runtime.Runner = workflow.NewRunner(store, runtime.Skills.Exists, options...)

	return runtime, nil
}

// Close releases everything NewRuntime opened.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error

	if r.EventBus != nil {
		errs = append(errs, r.EventBus.Close())
	}

	if r.shutdownTracer != nil {
		errs = append(errs, r.shutdownTracer(ctx))
	}

	if r.Persistence != nil {
		errs = append(errs, r.Persistence.Close(ctx))
	}

	return errors.Join(errs...)
}
