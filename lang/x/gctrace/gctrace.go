// Copyright © 2024 The ELPS authors

// Package gctrace reports store collection cycles as tracing spans.
package gctrace

import (
	"context"

	"github.com/luthersystems/boxlang/lang"
)

// SpanName is the name given to the span covering one collection cycle.
const SpanName = "gc.cycle"

// SkipFilter returns true for cycles which should not be traced.
type SkipFilter func(info lang.CycleInfo) bool

// Option configures an observer.
type Option func(*observer)

// observer holds the state shared by the span annotators.
type observer struct {
	ctx        context.Context
	tracerName string
	skipFilter SkipFilter
}

func (o *observer) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

func (o *observer) skipTrace(info lang.CycleInfo) bool {
	return o.skipFilter != nil && o.skipFilter(info)
}

// WithSkipFilter sets the filter deciding which cycles produce spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(o *observer) {
		o.skipFilter = skipFilter
	}
}

// WithTracerName sets the name of the tracer spans are created with.  The
// default is "boxlang".
func WithTracerName(name string) Option {
	return func(o *observer) {
		o.tracerName = name
	}
}

// WithMinLive skips cycles which start with fewer than n live slots.
func WithMinLive(n int) Option {
	return WithSkipFilter(func(info lang.CycleInfo) bool {
		return info.Live < n
	})
}

func noop(lang.GCStats) {}
