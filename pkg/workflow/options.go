package workflow

import (
	"log/slog"
	"time"

	"github.com/dukex/stepflow/pkg/eventbus"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used by the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithPublisher publishes run events after each transition. Publish failures
// are logged and never fail the transition.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(r *Runner) {
		r.publisher = publisher
	}
}

// WithTracer sets the tracer used for runner spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithRunIDGenerator overrides how new run ids are generated.
func WithRunIDGenerator(generate func() string) Option {
	return func(r *Runner) {
		r.newRunID = generate
	}
}

// WithMaxExtendsDepth bounds extends chains resolved by the runner.
func WithMaxExtendsDepth(depth int) Option {
	return func(r *Runner) {
		r.maxDepth = depth
	}
}
