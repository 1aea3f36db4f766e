package progrock

import (
	"fmt"
	"sync"

	"github.com/vito/progrock"
	"go.heddle.dev/heddle/internal/core/ports"
)

// Span implements ports.Span wrapping *progrock.VertexRecorder.
type Span struct {
	vertex *progrock.VertexRecorder

	mu  sync.Mutex
	err error
}

var _ ports.Span = (*Span)(nil)

// Write streams progress output onto the vertex's stdout.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}

// RecordError notes the error the vertex will complete with.
func (s *Span) RecordError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// SetAttribute renders the attribute as a line on the vertex. A true
// "cached" attribute marks the vertex as a cache hit instead.
func (s *Span) SetAttribute(key string, value any) {
	if key == "cached" {
		if hit, ok := value.(bool); ok && hit {
			s.vertex.Cached()
			return
		}
	}
	_, _ = fmt.Fprintf(s.vertex.Stdout(), "%s=%v\n", key, value)
}

// End completes the vertex with any recorded error.
func (s *Span) End() {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	s.vertex.Done(err)
}
