package progrock_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.heddle.dev/heddle/internal/adapters/telemetry/progrock"
)

// memLogger collects log lines so tests can inspect what the console writer
// rendered.
type memLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLogger) Debug(msg string) { l.add("DEBUG " + msg) }
func (l *memLogger) Info(msg string)  { l.add("INFO " + msg) }
func (l *memLogger) Warn(msg string)  { l.add("WARN " + msg) }
func (l *memLogger) Error(err error)  { l.add("ERROR " + err.Error()) }

func (l *memLogger) add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

func (l *memLogger) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func TestTracer_SpanLifecycle(t *testing.T) {
	log := &memLogger{}
	tracer := progrock.New(log)

	_, span := tracer.Start(context.Background(), "fetch Core")
	require.NotNil(t, span)

	_, err := span.Write([]byte("checking out v1.4.0\n"))
	require.NoError(t, err)
	span.End()

	require.NoError(t, tracer.Close())

	out := log.joined()
	assert.Contains(t, out, "DEBUG fetch Core ...")
	assert.Contains(t, out, "DEBUG fetch Core done")
}

func TestTracer_SpanError(t *testing.T) {
	log := &memLogger{}
	tracer := progrock.New(log)

	_, span := tracer.Start(context.Background(), "resolve Broken")
	span.RecordError(errors.New("boom"))
	span.End()

	out := log.joined()
	assert.Contains(t, out, "WARN resolve Broken: boom")
	assert.NotContains(t, out, "resolve Broken done")
}

func TestTracer_SpanCached(t *testing.T) {
	log := &memLogger{}
	tracer := progrock.New(log)

	_, span := tracer.Start(context.Background(), "expand Core")
	span.SetAttribute("cached", true)
	span.End()

	assert.Contains(t, log.joined(), "DEBUG expand Core (cached)")
}

func TestTracer_SpanAttributes(t *testing.T) {
	log := &memLogger{}
	tracer := progrock.New(log)

	_, span := tracer.Start(context.Background(), "expand Core")
	// Plain attributes only stream onto the vertex, they must not complete
	// or fail it.
	span.SetAttribute("revision", "v1.4.0")
	span.End()

	out := log.joined()
	assert.Contains(t, out, "DEBUG expand Core done")
	assert.NotContains(t, out, "WARN")
}

func TestTracer_EmitPlan(t *testing.T) {
	log := &memLogger{}
	tracer := progrock.New(log)

	tracer.EmitPlan(context.Background(), []string{"Core", "Codec"})

	assert.Contains(t, log.joined(), "DEBUG plan done")
}
