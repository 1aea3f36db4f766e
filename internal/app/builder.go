package app

import (
	"go.heddle.dev/heddle/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger

	// Tracer is exposed so the CLI can flush progress output on shutdown.
	Tracer ports.Tracer
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger, tracer ports.Tracer) *Components {
	return &Components{
		App:    app,
		Logger: logger,
		Tracer: tracer,
	}
}
