// Package app implements the application layer for heddle.
package app

import (
	"context"
	"path/filepath"
	"runtime"

	"go.heddle.dev/heddle/internal/adapters/lockstore" //nolint:depguard // Wired in app layer
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.heddle.dev/heddle/internal/engine/resolver"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	manifests ports.ManifestLoader
	locks     ports.LockStore
	digests   ports.Digester
	fetcher   ports.Fetcher
	resolver  *resolver.Resolver
	tracer    ports.Tracer
	log       ports.Logger
}

// New creates a new App instance.
func New(
	manifests ports.ManifestLoader,
	locks ports.LockStore,
	digests ports.Digester,
	fetcher ports.Fetcher,
	res *resolver.Resolver,
	tracer ports.Tracer,
	log ports.Logger,
) *App {
	return &App{
		manifests: manifests,
		locks:     locks,
		digests:   digests,
		fetcher:   fetcher,
		resolver:  res,
		tracer:    tracer,
		log:       log,
	}
}

// Resolve produces the dependency graph for the package rooted at rootDir.
//
// A fresh lock artifact short-circuits the run: the stored graph is returned
// as-is, without any fetcher or resolver traffic. Anything else runs a full
// resolution and refreshes the artifact.
func (a *App) Resolve(ctx context.Context, rootDir string, cfg domain.BuildConfig) (*domain.ResolvedGraph, error) {
	ctx, span := a.tracer.Start(ctx, "resolve")
	defer span.End()

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, zerr.Wrap(err, "resolving package directory")
	}
	m, err := a.manifests.Load(absRoot)
	if err != nil {
		return nil, err
	}

	// The deps digest covers the declared set with dev entries included;
	// build mode compatibility is checked separately against the lock.
	manifestDigest := a.digests.ManifestDigest(m)
	depsDigest := a.digests.DependencyDigest(m.DeclaredDeps(true))
	lockPath := a.lockPath(absRoot, cfg)

	if lock := a.cachedLock(lockPath, manifestDigest, depsDigest, cfg); lock != nil {
		span.SetAttribute("cache", "hit")
		rg := lock.Graph
		rg.RootPath = absRoot
		rg.ResolvedPackages[rg.Root].PackagePath = absRoot
		if cfg.FetchDepsOnly {
			if err := a.materialize(ctx, rg, cfg); err != nil {
				return nil, err
			}
		}
		return rg, nil
	}
	span.SetAttribute("cache", "miss")

	rg, err := a.resolver.Resolve(ctx, absRoot, m, cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.FetchDepsOnly {
		lock := &domain.Lockfile{
			Version:        domain.LockVersion,
			ManifestDigest: manifestDigest,
			DepsDigest:     depsDigest,
			Graph:          rg,
		}
		if err := a.locks.Write(lockPath, lock); err != nil {
			// The graph is good even when the artifact cannot be saved,
			// the next run just resolves again.
			a.log.Warn(zerr.Wrap(err, "persisting lock artifact").Error())
		}
	}
	return rg, nil
}

func (a *App) lockPath(rootDir string, cfg domain.BuildConfig) string {
	if cfg.LockFile != "" {
		return cfg.LockFile
	}
	return lockstore.DefaultPath(rootDir)
}

// cachedLock returns the lock artifact when it can stand in for a fresh
// resolution under cfg. An unreadable artifact is reported and ignored.
func (a *App) cachedLock(path string, manifest, deps domain.Digest, cfg domain.BuildConfig) *domain.Lockfile {
	if cfg.ForceRecompilation {
		return nil
	}
	lock, err := a.locks.Read(path)
	if err != nil {
		a.log.Warn(zerr.Wrap(err, "ignoring unreadable lock artifact").Error())
		return nil
	}
	if !lock.Fresh(manifest, deps) {
		return nil
	}
	if !lock.Graph.BuildOptions.ResolutionCompatible(cfg) {
		return nil
	}
	return lock
}

// materialize brings every package source of a cached graph onto disk and
// fills in the machine-local paths the artifact does not carry.
func (a *App) materialize(ctx context.Context, rg *domain.ResolvedGraph, cfg domain.BuildConfig) error {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for name, p := range rg.Packages {
		rec, ok := rg.ResolvedPackages[name]
		if !ok {
			return zerr.With(domain.ErrPackageNotFound, "package", name.String())
		}
		dep := domain.Dependency{
			Name:      name,
			Source:    p.Source,
			Version:   p.Version,
			DigestPin: p.DigestPin,
		}
		g.Go(func() error {
			dir, err := a.fetcher.Fetch(gctx, dep, rg.RootPath)
			if err != nil {
				return err
			}
			rec.PackagePath = dir
			return nil
		})
	}
	return g.Wait()
}
