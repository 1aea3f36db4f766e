package domain

import "go.trai.ch/zerr"

// ResolvedGraph is the complete, validated result of dependency resolution
// for one root package. It is what gets serialized into the lock artifact and
// what compilation consumes.
type ResolvedGraph struct {
	// RootPath is the directory of the root package.
	RootPath string

	// Root is the root package's name.
	Root InternedString

	// Graph holds the dependency relation over every package in the table.
	Graph *PackageGraph

	// Packages is the unified package table, one entry per name. The root
	// itself has no entry, it is not declared by anyone.
	Packages map[InternedString]Package

	// ResolvedPackages carries the per-package resolution records, root
	// included.
	ResolvedPackages map[InternedString]*ResolvedPackage

	// AlwaysDeps is the set of packages every build mode must include.
	AlwaysDeps map[InternedString]struct{}

	// ManifestDigest fingerprints every manifest in the resolved tree.
	ManifestDigest Digest

	// DepsDigest fingerprints the dependency structure of the resolved tree.
	DepsDigest Digest

	// BuildOptions are the options the graph was resolved under. A lock is
	// only reusable for a compatible set of options.
	BuildOptions BuildConfig
}

// Validate checks the structural invariants of a resolved graph: every graph
// node has a resolution record, every non-root node has a package table
// entry, the relation is acyclic and the always-set stays inside the table.
func (rg *ResolvedGraph) Validate() error {
	if rg.Graph == nil {
		return zerr.New("resolved graph has no relation")
	}
	if !rg.Graph.Contains(rg.Root) {
		return zerr.With(ErrPackageNotFound, "package", rg.Root.String())
	}
	for _, name := range rg.Graph.Nodes() {
		if _, ok := rg.ResolvedPackages[name]; !ok {
			return zerr.With(ErrPackageNotFound, "package", name.String())
		}
		if name == rg.Root {
			continue
		}
		if _, ok := rg.Packages[name]; !ok {
			return zerr.With(ErrPackageNotFound, "package", name.String())
		}
	}
	if len(rg.ResolvedPackages) != rg.Graph.Len() {
		return zerr.With(zerr.New("resolution records do not match graph nodes"),
			"records", len(rg.ResolvedPackages))
	}
	for name := range rg.Packages {
		if !rg.Graph.Contains(name) {
			return zerr.With(ErrMissingDependency, "dependency", name.String())
		}
	}
	for name := range rg.AlwaysDeps {
		if !rg.Graph.Contains(name) {
			return zerr.With(ErrMissingDependency, "dependency", name.String())
		}
	}
	return rg.Graph.Validate()
}

// Package returns the resolution record for a name.
func (rg *ResolvedGraph) Package(name InternedString) (*ResolvedPackage, error) {
	rp, ok := rg.ResolvedPackages[name]
	if !ok {
		return nil, zerr.With(ErrPackageNotFound, "package", name.String())
	}
	return rp, nil
}

// RootManifest returns the root package's parsed manifest.
func (rg *ResolvedGraph) RootManifest() *SourceManifest {
	if rp, ok := rg.ResolvedPackages[rg.Root]; ok {
		return rp.Manifest
	}
	return nil
}
