package domain

import "maps"

// WarningPolicy controls how non-fatal resolution findings are treated.
type WarningPolicy string

const (
	// WarnReport logs warnings and continues. This is the default.
	WarnReport WarningPolicy = "report"
	// WarnSuppress drops warnings silently.
	WarnSuppress WarningPolicy = "suppress"
	// WarnError promotes warnings to resolution failures.
	WarnError WarningPolicy = "error"
)

// BuildConfig carries every option that parametrizes a resolution run.
// The zero value is a sensible non-dev build.
type BuildConfig struct {
	// DevMode makes dev-dependencies and dev-addresses of the root live.
	DevMode bool

	// TestMode asks downstream compilation to include test code. Test builds
	// need the root's dev surface, so it also makes dev declarations live.
	TestMode bool

	// GenerateDocs and GenerateABIs are recorded for downstream tooling.
	GenerateDocs bool
	GenerateABIs bool

	// InstallDir overrides where build artifacts land. Empty means the
	// package directory.
	InstallDir string

	// ForceRecompilation ignores any lock artifact and re-resolves.
	ForceRecompilation bool

	// LockFile overrides the lock artifact location. Empty uses the default
	// next to the root manifest.
	LockFile string

	// AdditionalNamedAddresses injects root-level address assignments on top
	// of the manifest's own table.
	AdditionalNamedAddresses map[string]string

	// FetchDepsOnly stops after dependency sources are on disk.
	FetchDepsOnly bool

	// SkipFetchLatestGitDeps reuses already-materialized git checkouts
	// without contacting the remote.
	SkipFetchLatestGitDeps bool

	// DefaultEdition and DefaultFlavor fill manifests that leave them unset.
	DefaultEdition string
	DefaultFlavor  string

	// DepsAsRoot treats every package as a root, making dev edges live
	// everywhere.
	DepsAsRoot bool

	// Warnings selects the warning policy.
	Warnings WarningPolicy

	// Parallelism bounds concurrent fetch and expansion work. Zero or
	// negative means runtime.NumCPU.
	Parallelism int
}

// DevActive reports whether dev declarations and dev addresses are live for
// this run.
func (c BuildConfig) DevActive() bool {
	return c.DevMode || c.TestMode
}

// WarningPolicyOrDefault returns the configured policy, defaulting to
// WarnReport.
func (c BuildConfig) WarningPolicyOrDefault() WarningPolicy {
	if c.Warnings == "" {
		return WarnReport
	}
	return c.Warnings
}

// ResolutionCompatible reports whether a graph resolved under c is reusable
// for a run under o. Only options that shape the resolved graph participate;
// output knobs like InstallDir or doc generation do not.
func (c BuildConfig) ResolutionCompatible(o BuildConfig) bool {
	return c.DevActive() == o.DevActive() &&
		c.DepsAsRoot == o.DepsAsRoot &&
		c.DefaultEdition == o.DefaultEdition &&
		c.DefaultFlavor == o.DefaultFlavor &&
		maps.Equal(c.AdditionalNamedAddresses, o.AdditionalNamedAddresses)
}

// Clone returns a deep copy of the config.
func (c BuildConfig) Clone() BuildConfig {
	o := c
	o.AdditionalNamedAddresses = maps.Clone(c.AdditionalNamedAddresses)
	return o
}
