package resolver

import (
	"context"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
)

// pendingEdge is one declared dependency awaiting expansion, tagged with the
// package that declared it.
type pendingEdge struct {
	dep     domain.Dependency
	from    domain.InternedString
	fromDir string

	// fromSource is the canonical source of the declarer. Local declarations
	// are rebased against it so the same directory unifies no matter who
	// declared it.
	fromSource domain.PackageSource

	// resolver carries the external resolver handle for fragment splices.
	resolver domain.InternedString
}

// expandResult is what one worker hands back to the coordinator.
type expandResult struct {
	edge     pendingEdge
	final    domain.Dependency
	entry    domain.Package
	dir      string
	manifest *domain.SourceManifest
	digest   domain.Digest
	extras   []domain.Dependency
	err      error
}

type edgeKey struct {
	from, to domain.InternedString
}

// declSite remembers the declaration currently backing a table entry, for
// override precedence and conflict reporting.
type declSite struct {
	dep domain.Dependency
	by  domain.InternedString
}

// expandState is the single-threaded coordinator state of one expansion run.
// Workers only fetch, parse and delegate; every merge into the table happens
// on the coordinator goroutine.
type expandState struct {
	r   *Resolver
	cfg domain.BuildConfig

	rootDir string
	root    domain.InternedString

	graph    *domain.PackageGraph
	packages map[domain.InternedString]domain.Package
	records  map[domain.InternedString]*domain.ResolvedPackage
	decl     map[domain.InternedString]declSite
	subst    map[edgeKey]map[string]string

	ready       []pendingEdge
	active      int
	results     chan expandResult
	failure     error
	parallelism int

	ctx    context.Context
	cancel context.CancelFunc
}

func newExpandState(r *Resolver, rootDir string, rootManifest *domain.SourceManifest, cfg domain.BuildConfig) *expandState {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	s := &expandState{
		r:           r,
		cfg:         cfg,
		rootDir:     rootDir,
		root:        rootManifest.Package.Name,
		graph:       domain.NewPackageGraph(),
		packages:    make(map[domain.InternedString]domain.Package),
		records:     make(map[domain.InternedString]*domain.ResolvedPackage),
		decl:        make(map[domain.InternedString]declSite),
		subst:       make(map[edgeKey]map[string]string),
		results:     make(chan expandResult),
		parallelism: parallelism,
	}
	s.records[s.root] = &domain.ResolvedPackage{
		Manifest:    rootManifest,
		PackagePath: rootDir,
		Digest:      r.digests.ManifestDigest(rootManifest),
	}
	return s
}

// run drives expansion to completion. The loop alternates between filling the
// worker pool and merging one result at a time, so the table and the graph
// are never touched concurrently.
func (s *expandState) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.ctx, s.cancel = ctx, cancel

	if err := s.graph.AddNode(s.root); err != nil {
		return err
	}
	s.enqueueDeclarations(s.root, s.rootDir, domain.LocalSource("."), s.records[s.root].Manifest)
	s.emitPlan(ctx)

	for {
		s.schedule()
		if s.active == 0 {
			break
		}
		select {
		case res := <-s.results:
			s.handleResult(res)
		case <-ctx.Done():
			if s.failure == nil {
				s.failure = ctx.Err()
			}
			for s.active > 0 {
				s.handleResult(<-s.results)
			}
		}
	}
	return s.failure
}

func (s *expandState) emitPlan(ctx context.Context) {
	names := lo.Map(s.ready, func(e pendingEdge, _ int) string {
		return e.dep.Name.String()
	})
	s.r.tracer.EmitPlan(ctx, names)
}

// schedule fills the pool up to the parallelism bound. Nothing new starts
// once a terminal failure is recorded.
func (s *expandState) schedule() {
	for s.failure == nil && s.active < s.parallelism && len(s.ready) > 0 {
		edge := s.ready[0]
		s.ready = s.ready[1:]
		s.active++
		go func() {
			s.results <- s.r.expandEdge(s.ctx, edge, s.rootDir, s.cfg)
		}()
	}
}

// handleResult merges one worker result. The first terminal error wins and
// cancels the rest, results arriving after it are discarded.
func (s *expandState) handleResult(res expandResult) {
	s.active--
	if s.failure != nil {
		return
	}
	if res.err == nil {
		res.err = s.merge(res)
	}
	if res.err != nil {
		s.failure = res.err
		s.cancel()
	}
}

// merge applies the diamond rule to one expanded edge: insert new packages,
// unify equivalent re-declarations, let a single override replace the entry
// and reject the rest as conflicts.
func (s *expandState) merge(res expandResult) error {
	name := res.final.Name
	if err := s.recordSubst(res.edge.from, name, res.final.AddrSubst); err != nil {
		return err
	}

	// A declaration of the root itself closes a cycle by construction. The
	// edge is recorded and the cycle check after expansion reports the path.
	if name == s.root {
		return s.graph.AddEdge(res.edge.from, name, res.final.DevOnly)
	}

	existing, known := s.packages[name]
	if !known {
		if err := s.graph.AddNode(name); err != nil {
			return err
		}
		if err := s.graph.AddEdge(res.edge.from, name, res.final.DevOnly); err != nil {
			return err
		}
		s.commit(name, res)
		return nil
	}

	if err := s.graph.AddEdge(res.edge.from, name, res.final.DevOnly); err != nil {
		return err
	}
	if existing.SamePackage(res.entry) {
		// Unified. An override flag on either equivalent edge sticks to the
		// recorded declaration, so arrival order cannot decide a later
		// conflict. Fragment pins still join the pool as constraints.
		if res.final.Override && !s.decl[name].dep.Override {
			s.decl[name] = declSite{dep: res.final, by: res.edge.from}
		}
		s.enqueueExtras(name, res.dir, res.entry.Source, res.entry.Resolver, res.extras)
		return nil
	}

	prior := s.decl[name]
	switch {
	case res.final.Override && !prior.dep.Override:
		if err := s.r.warning(s.cfg, discarded(name, res.edge.from, res.final, prior.by, prior.dep)); err != nil {
			return err
		}
		s.commit(name, res)
		return nil
	case prior.dep.Override && !res.final.Override:
		return s.r.warning(s.cfg, discarded(name, prior.by, prior.dep, res.edge.from, res.final))
	default:
		err := zerr.With(domain.ErrDependencyConflict, "package", name.String())
		err = zerr.With(err, "first", declString(prior.by, prior.dep))
		return zerr.With(err, "second", declString(res.edge.from, res.final))
	}
}

// commit installs or replaces the table entry for name and expands the new
// package's own declarations. Earlier edges to a replaced entry stay in the
// graph, only the entry and its record change hands. Manifest-declared
// children carry no resolver handle, only fragment pins do.
func (s *expandState) commit(name domain.InternedString, res expandResult) {
	s.packages[name] = res.entry
	s.decl[name] = declSite{dep: res.final, by: res.edge.from}
	s.records[name] = &domain.ResolvedPackage{
		Manifest:    res.manifest,
		PackagePath: res.dir,
		Digest:      res.digest,
	}
	s.enqueueDeclarations(name, res.dir, res.entry.Source, res.manifest)
	s.enqueueExtras(name, res.dir, res.entry.Source, res.entry.Resolver, res.extras)
}

func (s *expandState) devFor(pkg domain.InternedString) bool {
	return s.cfg.DevActive() && (pkg == s.root || s.cfg.DepsAsRoot)
}

// enqueueDeclarations queues every live declaration of a freshly committed
// package. Sorted order keeps runs reproducible.
func (s *expandState) enqueueDeclarations(pkg domain.InternedString, dir string, src domain.PackageSource, m *domain.SourceManifest) {
	deps := m.DeclaredDeps(s.devFor(pkg))
	slices.SortFunc(deps, func(a, b domain.Dependency) int {
		return strings.Compare(a.Name.String(), b.Name.String())
	})
	for _, d := range deps {
		s.ready = append(s.ready, pendingEdge{
			dep:        d,
			from:       pkg,
			fromDir:    dir,
			fromSource: src,
		})
	}
}

// enqueueExtras queues the pins of a spliced fragment as declarations of the
// fragment's root package.
func (s *expandState) enqueueExtras(pkg domain.InternedString, dir string, src domain.PackageSource, resolver domain.InternedString, extras []domain.Dependency) {
	dev := s.devFor(pkg)
	live := lo.Filter(extras, func(d domain.Dependency, _ int) bool {
		return !d.DevOnly || dev
	})
	slices.SortFunc(live, func(a, b domain.Dependency) int {
		return strings.Compare(a.Name.String(), b.Name.String())
	})
	for _, d := range live {
		s.ready = append(s.ready, pendingEdge{
			dep:        d,
			from:       pkg,
			fromDir:    dir,
			fromSource: src,
			resolver:   resolver,
		})
	}
}

// recordSubst unions the address substitutions riding an edge. Two
// declarations over the same edge must agree on every address they both set.
func (s *expandState) recordSubst(from, to domain.InternedString, subst map[string]string) error {
	if len(subst) == 0 {
		return nil
	}
	key := edgeKey{from: from, to: to}
	table := s.subst[key]
	if table == nil {
		table = make(map[string]string, len(subst))
		s.subst[key] = table
	}
	for _, addr := range slices.Sorted(maps.Keys(subst)) {
		value := subst[addr]
		if prev, ok := table[addr]; ok && prev != value {
			err := zerr.With(domain.ErrAddressConflict, "package", to.String())
			err = zerr.With(err, "address", addr)
			err = zerr.With(err, "first", prev)
			return zerr.With(err, "second", value)
		}
		table[addr] = value
	}
	return nil
}

// finish validates the relation and assembles the resolved graph. Cycles
// surface here with their full path.
func (s *expandState) finish() (*domain.ResolvedGraph, error) {
	if err := s.graph.Validate(); err != nil {
		return nil, err
	}
	return &domain.ResolvedGraph{
		RootPath:         s.rootDir,
		Root:             s.root,
		Graph:            s.graph,
		Packages:         s.packages,
		ResolvedPackages: s.records,
		AlwaysDeps:       s.graph.Reachable(s.root, s.cfg.DevActive()),
		BuildOptions:     s.cfg.Clone(),
	}, nil
}

// expandEdge is the worker side of expansion: delegate external declarations,
// materialize the source, parse and fingerprint the manifest and verify the
// declared pin. No shared state is touched here.
func (r *Resolver) expandEdge(ctx context.Context, edge pendingEdge, rootDir string, cfg domain.BuildConfig) expandResult {
	res := expandResult{edge: edge, final: edge.dep}
	ctx, span := r.tracer.Start(ctx, "resolve "+edge.dep.Name.String())
	defer span.End()
	span.SetAttribute("source", edge.dep.Source.String())

	fail := func(err error) expandResult {
		span.RecordError(err)
		res.err = err
		return res
	}

	resolver := edge.resolver
	if edge.dep.Source.Kind == domain.SourceExternal {
		final, extras, err := r.delegate(ctx, edge, cfg)
		if err != nil {
			return fail(err)
		}
		res.final, res.extras = final, extras
		resolver = domain.NewInternedString(edge.dep.Source.Resolver)
	}

	dir, err := r.fetcher.Fetch(ctx, res.final, edge.fromDir)
	if err != nil {
		return fail(err)
	}
	m, err := r.loader.Load(dir)
	if err != nil {
		return fail(err)
	}
	if m.Package.Name != res.final.Name {
		err := zerr.With(domain.ErrNameMismatch, "declared", res.final.Name.String())
		err = zerr.With(err, "manifest", m.Package.Name.String())
		return fail(zerr.With(err, "path", dir))
	}

	digest := r.digests.ManifestDigest(m)
	if res.final.DigestPin != "" && res.final.DigestPin != digest {
		err := zerr.With(domain.ErrDigestMismatch, "package", res.final.Name.String())
		err = zerr.With(err, "pinned", res.final.DigestPin.String())
		return fail(zerr.With(err, "actual", digest.String()))
	}

	source, err := canonicalSource(res.final, edge, rootDir, dir)
	if err != nil {
		return fail(err)
	}
	res.entry = domain.Package{
		Source:    source,
		Version:   res.final.Version,
		Resolver:  resolver,
		DigestPin: res.final.DigestPin,
	}
	res.dir = dir
	res.manifest = m
	res.digest = digest
	return res
}

// delegate hands an external declaration to its resolver and splices the
// returned fragment: the fragment root replaces the declaration, everything
// else comes back as pins.
func (r *Resolver) delegate(ctx context.Context, edge pendingEdge, cfg domain.BuildConfig) (domain.Dependency, []domain.Dependency, error) {
	orig := edge.dep
	out, err := r.bridge.Resolve(ctx, orig.Source.Resolver, ports.ResolverRequest{
		Dependency:       orig.Name,
		DeclaringPackage: edge.from,
		DeclaringPath:    edge.fromDir,
		AddrSubst:        orig.AddrSubst,
		DevMode:          cfg.DevActive(),
	})
	if err != nil {
		return domain.Dependency{}, nil, err
	}

	resolverErr := func(cause string) error {
		rerr := zerr.With(domain.ErrResolverFailure, "resolver", orig.Source.Resolver)
		rerr = zerr.With(rerr, "dependency", orig.Name.String())
		return zerr.With(rerr, "cause", cause)
	}
	if out.Root != orig.Name {
		return domain.Dependency{}, nil, resolverErr(
			fmt.Sprintf("fragment is rooted at %q instead of the delegated dependency", out.Root.String()))
	}
	rootDecl, found := lo.Find(out.Declarations, func(d domain.Dependency) bool {
		return d.Name == out.Root
	})
	if !found {
		return domain.Dependency{}, nil, resolverErr("fragment root is missing from the declarations")
	}
	if rootDecl.Source.Kind == domain.SourceExternal {
		return domain.Dependency{}, nil, resolverErr("fragment root is still external")
	}

	final := rootDecl.Clone()
	final.DevOnly = orig.DevOnly
	final.Override = orig.Override || rootDecl.Override
	final.AddrSubst, err = mergeSubst(orig.Name, orig.AddrSubst, rootDecl.AddrSubst)
	if err != nil {
		return domain.Dependency{}, nil, err
	}
	extras := lo.Filter(out.Declarations, func(d domain.Dependency, _ int) bool {
		return d.Name != out.Root
	})
	return final, extras, nil
}

// mergeSubst unions the declarer's substitutions with the fragment's. The
// declarer set its values knowingly, so on a disagreement the merge fails
// rather than picking a side.
func mergeSubst(pkg domain.InternedString, declared, fragment map[string]string) (map[string]string, error) {
	if len(fragment) == 0 {
		return declared, nil
	}
	merged := make(map[string]string, len(declared)+len(fragment))
	for addr, v := range fragment {
		merged[addr] = v
	}
	for addr, v := range declared {
		if prev, ok := merged[addr]; ok && prev != v {
			err := zerr.With(domain.ErrAddressConflict, "package", pkg.String())
			err = zerr.With(err, "address", addr)
			err = zerr.With(err, "first", v)
			return nil, zerr.With(err, "second", prev)
		}
		merged[addr] = v
	}
	return merged, nil
}

// canonicalSource rewrites a declaration's source into its table form. Local
// paths are rebased so the same directory unifies regardless of declarer:
// against the root for workspace-local packages, into a git subpath for
// packages living inside a declarer's checkout.
func canonicalSource(dep domain.Dependency, edge pendingEdge, rootDir, dir string) (domain.PackageSource, error) {
	src := dep.Source
	if src.Kind != domain.SourceLocal {
		return src, nil
	}
	if edge.fromSource.Kind == domain.SourceGit {
		sub := path.Join(edge.fromSource.Subpath, filepath.ToSlash(src.Path))
		if sub == ".." || strings.HasPrefix(sub, "../") {
			err := zerr.With(domain.ErrManifestParse, "dependency", dep.Name.String())
			err = zerr.With(err, "path", src.Path)
			return domain.PackageSource{}, zerr.With(err, "cause", "local dependency escapes its repository")
		}
		if sub == "." {
			sub = ""
		}
		return domain.GitSource(edge.fromSource.Repo, edge.fromSource.Revision, sub), nil
	}
	rel, err := filepath.Rel(rootDir, dir)
	if err != nil {
		// Different volume, keep the absolute form.
		return domain.LocalSource(filepath.ToSlash(dir)), nil
	}
	return domain.LocalSource(filepath.ToSlash(rel)), nil
}

// discarded describes a declaration an override displaced.
func discarded(pkg, keptBy domain.InternedString, kept domain.Dependency, lostBy domain.InternedString, lost domain.Dependency) error {
	err := zerr.With(zerr.New("override discards a dependency declaration"), "package", pkg.String())
	err = zerr.With(err, "kept", declString(keptBy, kept))
	return zerr.With(err, "discarded", declString(lostBy, lost))
}

func declString(by domain.InternedString, dep domain.Dependency) string {
	return fmt.Sprintf("%s (%s)", by.String(), dep.Source.String())
}
