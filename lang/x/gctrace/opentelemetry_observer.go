// Copyright © 2024 The ELPS authors

package gctrace

import (
	"context"

	"github.com/luthersystems/boxlang/lang"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ lang.CollectorObserver = &otelObserver{}

type otelObserver struct {
	observer
}

// NewOpenTelemetryObserver returns a CollectorObserver which starts a span
// for each collection cycle as a child of any span in parentContext, using
// the global TracerProvider.
func NewOpenTelemetryObserver(parentContext context.Context, opts ...Option) lang.CollectorObserver {
	if parentContext == nil {
		parentContext = context.Background()
	}
	o := &otelObserver{
		observer: observer{
			ctx:        parentContext,
			tracerName: "boxlang",
		},
	}
	o.observer.applyConfigs(opts...)
	return o
}

func (o *otelObserver) StartCycle(info lang.CycleInfo) func(lang.GCStats) {
	if o.skipTrace(info) {
		return noop
	}
	tracer := otel.GetTracerProvider().Tracer(o.tracerName)
	_, span := tracer.Start(o.ctx, SpanName, trace.WithAttributes(
		attribute.Int("gc.cycle", info.Cycle),
		attribute.Int("gc.capacity", info.Capacity),
		attribute.Int("gc.live_before", info.Live),
	))
	return func(stats lang.GCStats) {
		span.SetAttributes(
			attribute.Int("gc.roots", stats.Roots),
			attribute.Int("gc.marked", stats.Marked),
			attribute.Int("gc.freed", stats.Freed),
			attribute.Int("gc.live", stats.Live),
		)
		span.End()
	}
}
