// Package resolver implements dependency resolution: breadth-first manifest
// expansion, diamond unification with override handling, external resolver
// splicing and named-address finalization.
package resolver

import (
	"context"
	"path/filepath"

	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver turns a root manifest into a validated ResolvedGraph.
type Resolver struct {
	loader  ports.ManifestLoader
	fetcher ports.Fetcher
	bridge  ports.ExternalResolver
	digests ports.Digester
	tracer  ports.Tracer
	log     ports.Logger
}

// New creates a new Resolver.
func New(
	loader ports.ManifestLoader,
	fetcher ports.Fetcher,
	bridge ports.ExternalResolver,
	digests ports.Digester,
	tracer ports.Tracer,
	log ports.Logger,
) *Resolver {
	return &Resolver{
		loader:  loader,
		fetcher: fetcher,
		bridge:  bridge,
		digests: digests,
		tracer:  tracer,
		log:     log,
	}
}

// Resolve expands the dependency graph rooted at rootDir and finalizes every
// package's named-address table. The returned graph is validated and ready to
// be locked. Under FetchDepsOnly the address pass is skipped, the sources are
// merely materialized.
//
// Expansion fans out across a bounded worker pool. The first terminal error
// cancels the remaining work and is returned alone, later failures of
// in-flight siblings are discarded.
func (r *Resolver) Resolve(ctx context.Context, rootDir string, rootManifest *domain.SourceManifest, cfg domain.BuildConfig) (*domain.ResolvedGraph, error) {
	if rootManifest == nil {
		return nil, zerr.New("root manifest required")
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, zerr.Wrap(err, "resolving root directory")
	}

	state := newExpandState(r, absRoot, rootManifest, cfg)
	if err := state.run(ctx); err != nil {
		return nil, err
	}
	rg, err := state.finish()
	if err != nil {
		return nil, err
	}

	if !cfg.FetchDepsOnly {
		if err := r.resolveAddresses(rg, state.subst, cfg); err != nil {
			return nil, err
		}
	}

	rg.ManifestDigest, rg.DepsDigest = r.digests.TreeDigests(rg)
	if err := rg.Validate(); err != nil {
		return nil, err
	}
	return rg, nil
}

// warning reports a non-fatal finding according to the configured policy. A
// non-nil return means the finding is promoted to a terminal failure.
func (r *Resolver) warning(cfg domain.BuildConfig, err error) error {
	switch cfg.WarningPolicyOrDefault() {
	case domain.WarnError:
		return err
	case domain.WarnSuppress:
		return nil
	default:
		r.log.Warn(err.Error())
		return nil
	}
}
