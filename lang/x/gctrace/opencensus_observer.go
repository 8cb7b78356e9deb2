// Copyright © 2024 The ELPS authors

package gctrace

import (
	"context"

	"github.com/luthersystems/boxlang/lang"
	"go.opencensus.io/trace"
)

var _ lang.CollectorObserver = &ocObserver{}

type ocObserver struct {
	observer
}

// NewOpenCensusObserver returns a CollectorObserver which starts an
// OpenCensus span for each collection cycle as a child of any span in
// parentContext.
func NewOpenCensusObserver(parentContext context.Context, opts ...Option) lang.CollectorObserver {
	if parentContext == nil {
		parentContext = context.Background()
	}
	o := &ocObserver{
		observer: observer{
			ctx: parentContext,
		},
	}
	o.observer.applyConfigs(opts...)
	return o
}

func (o *ocObserver) StartCycle(info lang.CycleInfo) func(lang.GCStats) {
	if o.skipTrace(info) {
		return noop
	}
	_, span := trace.StartSpan(o.ctx, SpanName)
	span.AddAttributes(
		trace.Int64Attribute("gc.cycle", int64(info.Cycle)),
		trace.Int64Attribute("gc.capacity", int64(info.Capacity)),
		trace.Int64Attribute("gc.live_before", int64(info.Live)),
	)
	return func(stats lang.GCStats) {
		span.Annotate([]trace.Attribute{
			trace.Int64Attribute("gc.roots", int64(stats.Roots)),
			trace.Int64Attribute("gc.marked", int64(stats.Marked)),
			trace.Int64Attribute("gc.freed", int64(stats.Freed)),
			trace.Int64Attribute("gc.live", int64(stats.Live)),
		}, "sweep")
		span.End()
	}
}
