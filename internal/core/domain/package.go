package domain

import "maps"

// Package is the unified entry the package table keeps per name after
// diamond declarations have been merged. Two declarations unify only when
// these fields agree.
type Package struct {
	// Source is the concrete origin the package resolves to.
	Source PackageSource

	// Version is the exact version expectation, empty when unconstrained.
	Version string

	// Resolver names the external resolver that produced the entry, empty
	// for directly declared packages.
	Resolver InternedString

	// DigestPin is the content digest the declarer pinned, if any.
	DigestPin Digest
}

// SamePackage reports whether another entry describes the same resolved
// package. Diamond declarations that disagree here are a conflict unless an
// override settles them.
func (p Package) SamePackage(o Package) bool {
	return p == o
}

// Renaming records one inbound address substitution applied to a package:
// which declarer assigned the address and what value it supplied.
type Renaming struct {
	From  InternedString
	Value string
}

// ResolvedPackage is the per-package resolution record: the parsed manifest,
// where its sources were materialized, the substitutions applied to it and
// the address table after finalization.
type ResolvedPackage struct {
	// Manifest is the parsed source manifest of the package.
	Manifest *SourceManifest

	// PackagePath is the absolute directory the package's sources live in.
	// It never participates in digests.
	PackagePath string

	// Renaming maps address names of this package to the inbound
	// substitution that assigned them.
	Renaming map[string]Renaming

	// ResolvedTable is the package's address table after finalization: its
	// own declarations plus everything inherited from its dependencies.
	ResolvedTable map[string]AddressValue

	// Digest fingerprints the package's manifest content.
	Digest Digest
}

// Name returns the package's manifest name.
func (rp *ResolvedPackage) Name() InternedString {
	return rp.Manifest.Package.Name
}

// Clone returns a deep copy of the record.
func (rp *ResolvedPackage) Clone() *ResolvedPackage {
	c := *rp
	c.Manifest = rp.Manifest.Clone()
	c.Renaming = maps.Clone(rp.Renaming)
	c.ResolvedTable = maps.Clone(rp.ResolvedTable)
	return &c
}
