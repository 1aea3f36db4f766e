// Package progrock provides the progrock implementation of the tracing
// adapter. Every span becomes a vertex on the underlying writer.
package progrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.heddle.dev/heddle/internal/core/ports"
)

// Tracer implements ports.Tracer using the progrock library.
type Tracer struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

var _ ports.Tracer = (*Tracer)(nil)

// New creates a Tracer rendering vertex updates through the given logger.
func New(log ports.Logger) *Tracer {
	return NewTracer(NewConsoleWriter(log))
}

// NewTracer creates a Tracer recording onto the given writer.
func NewTracer(w progrock.Writer) *Tracer {
	return &Tracer{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Start opens a vertex named after the span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	v := t.rec.Vertex(digest.FromString(name), name)
	return ctx, &Span{vertex: v}
}

// EmitPlan records the queued package set as an instantly completed vertex.
func (t *Tracer) EmitPlan(_ context.Context, packageNames []string) {
	v := t.rec.Vertex(digest.FromString("plan"), "plan")
	_, _ = fmt.Fprintln(v.Stdout(), strings.Join(packageNames, ", "))
	v.Done(nil)
}

// Close flushes and closes the recording session.
func (t *Tracer) Close() error {
	// If the writer implements Close, call it.
	if c, ok := t.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
