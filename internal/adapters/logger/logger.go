// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger *slog.Logger
	level  slog.Level
	mu     sync.RWMutex
}

var _ ports.Logger = (*Logger)(nil)

// New creates a new Logger writing human-readable output to stderr.
// Verbose lowers the threshold to debug.
func New(verbose bool) *Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &Logger{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
		level: level,
	}
}

// SetOutput updates the logger's output destination. Log methods take the
// read lock, so swapping the destination mid-run is safe.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: l.level,
	}))
}

// Debug logs a debug message. Suppressed unless the logger is verbose.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error message. Metadata attached through zerr comes out as
// structured attributes, in sorted key order.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	args := []any{"error", err}
	var zr *zerr.Error
	if errors.As(err, &zr) {
		meta := zr.Metadata()
		for _, k := range slices.Sorted(maps.Keys(meta)) {
			args = append(args, k, meta[k])
		}
	}
	l.logger.Error("operation failed", args...)
}
