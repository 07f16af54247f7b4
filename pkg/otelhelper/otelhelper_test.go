package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/codes"
)

func TestRunAttributes(t *testing.T) {
	attrs := RunAttributes("deploy", "run-1", "")

	require.Len(t, attrs, 2)
	assert.Equal(t, WorkflowNameKey, string(attrs[0].Key))
	assert.Equal(t, "deploy", attrs[0].Value.AsString())
	assert.Equal(t, RunIDKey, string(attrs[1].Key))
	assert.Empty(t, RunAttributes("", "", ""))
}

func TestStartSpanAndSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "stepflow.runner.start", RunAttributes("deploy", "", "")...)
	SetError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "stepflow.runner.start", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestNoopTracer(t *testing.T) {
	_, span := StartSpan(context.Background(), NoopTracer(), "noop")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
}
