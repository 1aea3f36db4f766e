package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.heddle.dev/heddle/internal/adapters/telemetry"
	"go.heddle.dev/heddle/internal/adapters/telemetry/progrock"
	"go.heddle.dev/heddle/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
	var _ ports.Tracer = (*progrock.Tracer)(nil)
	var _ ports.Span = (*progrock.Span)(nil)
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	assert.NotNil(t, tracer)

	ctx := context.Background()
	_, span := tracer.Start(ctx, "test-span")
	assert.NotNil(t, span)

	span.SetAttribute("key", "value")
	span.RecordError(nil)
	n, err := span.Write([]byte("test log"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	span.End()
}
