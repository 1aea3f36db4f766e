// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.heddle.dev/heddle/internal/adapters/digest"
	_ "go.heddle.dev/heddle/internal/adapters/extres"
	_ "go.heddle.dev/heddle/internal/adapters/fetcher"
	_ "go.heddle.dev/heddle/internal/adapters/lockstore"
	_ "go.heddle.dev/heddle/internal/adapters/logger"
	_ "go.heddle.dev/heddle/internal/adapters/manifest"
	_ "go.heddle.dev/heddle/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.heddle.dev/heddle/internal/app"
	_ "go.heddle.dev/heddle/internal/engine/resolver"
)
