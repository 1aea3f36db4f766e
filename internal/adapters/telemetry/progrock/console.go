package progrock

import (
	"sync"

	"github.com/vito/progrock"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
)

// ConsoleWriter renders vertex updates as log lines: starts and completions
// at debug level, failures at warning level, each reported once per vertex.
type ConsoleWriter struct {
	log ports.Logger

	mu      sync.Mutex
	started map[string]bool
	done    map[string]bool
}

var _ progrock.Writer = (*ConsoleWriter)(nil)

// NewConsoleWriter creates a ConsoleWriter logging through log.
func NewConsoleWriter(log ports.Logger) *ConsoleWriter {
	return &ConsoleWriter{
		log:     log,
		started: map[string]bool{},
		done:    map[string]bool{},
	}
}

// WriteStatus implements progrock.Writer.
func (w *ConsoleWriter) WriteStatus(update *progrock.StatusUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, v := range update.Vertexes {
		status := vertexStatus(v)
		if !status.IsTerminal() {
			if !w.started[v.Id] {
				w.started[v.Id] = true
				w.log.Debug(v.Name + " ...")
			}
			continue
		}
		if w.done[v.Id] {
			continue
		}
		w.done[v.Id] = true
		switch status {
		case domain.VertexStatusFailed:
			w.log.Warn(v.Name + ": " + v.GetError())
		case domain.VertexStatusCached:
			w.log.Debug(v.Name + " (cached)")
		default:
			w.log.Debug(v.Name + " done")
		}
	}
	return nil
}

// vertexStatus classifies a progrock vertex into the domain lifecycle.
func vertexStatus(v *progrock.Vertex) domain.VertexStatus {
	switch {
	case v.Completed == nil:
		return domain.VertexStatusRunning
	case v.Error != nil:
		return domain.VertexStatusFailed
	case v.Cached:
		return domain.VertexStatusCached
	default:
		return domain.VertexStatusCompleted
	}
}

// Close implements the optional closer. Nothing is buffered.
func (w *ConsoleWriter) Close() error {
	return nil
}
