package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FaultEventName labels span events recording replay faults, alongside the
// standard exception event RecordError emits.
const FaultEventName = "replaykit.fault"

// SetError marks the span failed and records the fault with the replaykit.*
// attributes the call site supplies (workflow, action, step, strategy).
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent(FaultEventName, trace.WithAttributes(attrs...))
}
