package domain

// LockVersion is the current lock artifact schema version.
const LockVersion = 1

// Lockfile represents the persisted state of a resolution run. It provides a
// reproducible snapshot of the whole dependency tree plus the two digests the
// staleness pre-check compares before trusting it.
type Lockfile struct {
	// Version is the lock schema version, for future migrations.
	Version int

	// ManifestDigest fingerprints the root manifest the lock was computed
	// from. A root manifest edit invalidates the lock.
	ManifestDigest Digest

	// DepsDigest fingerprints the root manifest's immediate dependency
	// declarations. It changes exactly when the declared dependency set does.
	DepsDigest Digest

	// Graph is the full resolution result.
	Graph *ResolvedGraph
}

// Fresh reports whether the lock still matches the given root digests and can
// short-circuit re-resolution.
func (l *Lockfile) Fresh(manifest, deps Digest) bool {
	if l == nil || l.Graph == nil {
		return false
	}
	return l.Version == LockVersion &&
		l.ManifestDigest == manifest &&
		l.DepsDigest == deps
}
