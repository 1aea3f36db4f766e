// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.heddle.dev/heddle/internal/core/domain"
)

// Fetcher materializes dependency sources on local disk.
//
// Implementations are responsible for:
//   - Resolving relative local paths against the declaring package
//   - Cloning and checking out git sources into the shared cache
//
// Digest pins are not a fetch concern. The resolution engine verifies them
// against the parsed manifest after materialization.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch ensures the source of dep is present on disk and returns the
	// absolute directory containing its manifest. baseDir is the directory
	// of the declaring package, used to resolve relative local paths.
	//
	// Fetching is idempotent. A git source already materialized at the
	// pinned revision is reused without contacting the remote.
	Fetch(ctx context.Context, dep domain.Dependency, baseDir string) (string, error)
}
