package domain

import "go.trai.ch/zerr"

var (
	// ErrManifestParse is returned when a package manifest cannot be read or
	// fails structural validation.
	ErrManifestParse = zerr.New("manifest parse failed")

	// ErrNameMismatch is returned when a fetched package's manifest names a
	// different package than the declaration that pulled it in.
	ErrNameMismatch = zerr.New("package name mismatch")

	// ErrPackageExists is returned when attempting to record a package under a
	// name that is already bound in the package table.
	ErrPackageExists = zerr.New("package already exists")

	// ErrPackageNotFound is returned when a requested package is not present in
	// the graph.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrMissingDependency is returned when an edge references a package that
	// doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the package
	// dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrDependencyConflict is returned when two packages declare the same
	// dependency name with incompatible sources and no override settles it.
	ErrDependencyConflict = zerr.New("conflicting dependency declarations")

	// ErrAddressConflict is returned when substitutions assign two different
	// values to the same named address of a package.
	ErrAddressConflict = zerr.New("conflicting address assignments")

	// ErrUnboundAddress is returned when a substitution value names an
	// address that the declaring package's namespace does not bind.
	ErrUnboundAddress = zerr.New("unbound named address")

	// ErrResolverFailure is returned when an external resolver exits non-zero
	// or produces output that cannot be decoded.
	ErrResolverFailure = zerr.New("external resolver failed")

	// ErrFetch is returned when dependency source code cannot be materialized
	// on local disk.
	ErrFetch = zerr.New("dependency fetch failed")

	// ErrDigestMismatch is returned when fetched dependency content does not
	// hash to the digest the declaring manifest pinned.
	ErrDigestMismatch = zerr.New("dependency digest mismatch")

	// ErrLockCorrupt is returned when a lock artifact exists but cannot be
	// decoded or fails validation.
	ErrLockCorrupt = zerr.New("lock file corrupt")
)
