package ports

import "go.heddle.dev/heddle/internal/core/domain"

// Digester defines the interface for computing content digests. All digests
// are deterministic over the in-memory structures, independent of filesystem
// paths or map iteration order.
//
//go:generate mockgen -destination=mocks/mock_digester.go -package=mocks -source=hasher.go
type Digester interface {
	// ManifestDigest fingerprints one parsed manifest.
	ManifestDigest(m *domain.SourceManifest) domain.Digest

	// DependencyDigest fingerprints a set of dependency declarations.
	DependencyDigest(deps []domain.Dependency) domain.Digest

	// TreeDigests fingerprints a whole resolved graph: every manifest in it
	// and its dependency structure.
	TreeDigests(rg *domain.ResolvedGraph) (manifests domain.Digest, structure domain.Digest)
}
