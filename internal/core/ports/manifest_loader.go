package ports

import "go.heddle.dev/heddle/internal/core/domain"

// ManifestLoader defines the interface for reading package manifests.
//
//go:generate mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// Load reads and validates the manifest of the package rooted at dir.
	Load(dir string) (*domain.SourceManifest, error)

	// Exists reports whether dir contains a manifest at all.
	Exists(dir string) bool
}
