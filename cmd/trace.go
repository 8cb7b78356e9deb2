// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanPrinter is a span exporter which writes one line per span.
type spanPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

var _ sdktrace.SpanExporter = (*spanPrinter)(nil)

func newSpanPrinter(w io.Writer) *spanPrinter {
	return &spanPrinter{w: w}
}

func (p *spanPrinter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, span := range spans {
		_, err := fmt.Fprintf(p.w, "trace: %s %v", span.Name(), span.EndTime().Sub(span.StartTime()))
		if err != nil {
			return err
		}
		for _, kv := range span.Attributes() {
			_, err = fmt.Fprintf(p.w, " %s=%s", kv.Key, kv.Value.Emit())
			if err != nil {
				return err
			}
		}
		_, err = fmt.Fprintln(p.w)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *spanPrinter) Shutdown(ctx context.Context) error {
	return nil
}
