package otelhelper_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/replaykit/replaykit/pkg/otelhelper"
)

func TestSetError(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, span := otelhelper.StartSpan(t.Context(), tracer, "replay.step",
		attribute.String(otelhelper.ActionIDKey, "a-1"))

	otelhelper.SetError(span, errors.New("matcher fault"),
		attribute.String(otelhelper.StrategyKey, "visual"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)

	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "matcher fault", ended[0].Status().Description)

	var faultAttrs []attribute.KeyValue

	names := make([]string, 0, len(ended[0].Events()))
	for _, event := range ended[0].Events() {
		names = append(names, event.Name)

		if event.Name == otelhelper.FaultEventName {
			faultAttrs = event.Attributes
		}
	}

	assert.Contains(t, names, "exception")
	require.Contains(t, names, otelhelper.FaultEventName)
	assert.Contains(t, faultAttrs, attribute.String(otelhelper.StrategyKey, "visual"))
}
