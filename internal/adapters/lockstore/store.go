// Package lockstore persists resolution results as a lock artifact next to
// the root manifest. The artifact is self-contained: it pins the package
// table, the dependency relation, every manifest in the tree and the
// finalized address tables, so a later run can reuse the whole graph without
// touching the network. Package paths are machine-specific and never
// persisted.
package lockstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/juju/fslock"
	"github.com/samber/lo"
	"go.heddle.dev/heddle/internal/adapters/manifest"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Filename is the default lock artifact name, next to the manifest.
const Filename = "heddle.lock"

// guardWait bounds how long a writer waits for a concurrent process to
// release the artifact guard.
const guardWait = 10 * time.Second

const banner = "# Generated by heddle. Do not edit.\n"

// Store reads and writes lock artifacts as deterministic YAML. Writes are
// atomic and guarded by an advisory file lock so concurrent runs in the same
// package directory cannot interleave.
type Store struct {
	log ports.Logger
}

var _ ports.LockStore = (*Store)(nil)

func New(log ports.Logger) *Store {
	return &Store{log: log}
}

// DefaultPath returns the lock artifact location for a package directory.
func DefaultPath(dir string) string {
	return filepath.Join(dir, Filename)
}

// Read loads the lock artifact at path. A missing file is not an error, it
// returns nil, nil so the caller falls through to a full resolution.
func (s *Store) Read(path string) (*domain.Lockfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "reading lock artifact")
	}
	return decode(data, path)
}

// Write persists the lock artifact. The payload is staged in a temporary
// file and renamed into place, readers never observe a partial artifact.
func (s *Store) Write(path string, lock *domain.Lockfile) error {
	if lock == nil || lock.Graph == nil {
		return zerr.New("refusing to persist an empty lock artifact")
	}
	data, err := encode(lock)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.Wrap(err, "creating lock artifact directory")
	}
	unlock, err := s.acquireGuard(path)
	if err != nil {
		return err
	}
	defer unlock()
	return replaceFile(path, data)
}

// acquireGuard takes the advisory lock next to the artifact. When another
// process holds it the writer waits up to guardWait before giving up.
func (s *Store) acquireGuard(path string) (func(), error) {
	guard := fslock.New(path + ".flock")
	if err := guard.TryLock(); err != nil {
		if !errors.Is(err, fslock.ErrLocked) {
			return nil, zerr.Wrap(err, "acquiring lock artifact guard")
		}
		s.log.Debug("lock artifact is held by another process, waiting")
		if err := guard.LockWithTimeout(guardWait); err != nil {
			return nil, zerr.Wrap(err, "waiting for lock artifact guard")
		}
	}
	return func() {
		if err := guard.Unlock(); err != nil {
			s.log.Warn("failed to release lock artifact guard: " + err.Error())
		}
	}, nil
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".heddle-lock-*")
	if err != nil {
		return zerr.Wrap(err, "staging lock artifact")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return zerr.Wrap(err, "staging lock artifact")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "staging lock artifact")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // lock artifacts are not secrets
		return zerr.Wrap(err, "staging lock artifact")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return zerr.Wrap(err, "replacing lock artifact")
	}
	return nil
}

func encode(lock *domain.Lockfile) ([]byte, error) {
	dto, err := toDTO(lock)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(dto)
	if err != nil {
		return nil, zerr.Wrap(err, "encoding lock artifact")
	}
	return append([]byte(banner), out...), nil
}

func toDTO(lock *domain.Lockfile) (lockDTO, error) {
	rg := lock.Graph
	for name, p := range rg.Packages {
		if p.Source.Kind == domain.SourceExternal {
			return lockDTO{}, zerr.With(
				zerr.New("package with unresolved external source cannot be locked"),
				"package", name.String())
		}
		if _, ok := rg.ResolvedPackages[name]; !ok {
			return lockDTO{}, zerr.With(
				zerr.New("package has no resolution record"),
				"package", name.String())
		}
	}
	rootRP, ok := rg.ResolvedPackages[rg.Root]
	if !ok {
		return lockDTO{}, zerr.With(
			zerr.New("root package has no resolution record"),
			"package", rg.Root.String())
	}

	dto := lockDTO{
		Version:        domain.LockVersion,
		ManifestDigest: lock.ManifestDigest.String(),
		DepsDigest:     lock.DepsDigest.String(),
		Root:           rg.Root.String(),
		RootRecord:     recordToDTO(rootRP),
		TreeManifests:  rg.ManifestDigest.String(),
		TreeStructure:  rg.DepsDigest.String(),
		Options:        optionsToDTO(rg.BuildOptions),
	}
	dto.Packages = lo.MapToSlice(rg.Packages, func(name domain.InternedString, p domain.Package) packageDTO {
		return packageToDTO(name, p, rg.ResolvedPackages[name])
	})
	slices.SortFunc(dto.Packages, func(a, b packageDTO) int {
		return strings.Compare(a.Name, b.Name)
	})
	for _, e := range rg.Graph.Edges() {
		dto.Edges = append(dto.Edges, edgeDTO{From: e.From.String(), To: e.To.String(), Dev: e.Dev})
	}
	dto.Always = lo.Map(lo.Keys(rg.AlwaysDeps), func(name domain.InternedString, _ int) string {
		return name.String()
	})
	slices.Sort(dto.Always)
	return dto, nil
}

func packageToDTO(name domain.InternedString, p domain.Package, rp *domain.ResolvedPackage) packageDTO {
	dto := packageDTO{
		Name:      name.String(),
		Version:   p.Version,
		Resolver:  p.Resolver.String(),
		DigestPin: p.DigestPin.String(),
		recordDTO: recordToDTO(rp),
	}
	switch p.Source.Kind {
	case domain.SourceLocal:
		dto.Local = p.Source.Path
	case domain.SourceGit:
		dto.Git = p.Source.Repo
		dto.Rev = p.Source.Revision
		dto.Subdir = p.Source.Subpath
	}
	return dto
}

func recordToDTO(rp *domain.ResolvedPackage) recordDTO {
	dto := recordDTO{
		Manifest: manifest.ManifestToDTO(rp.Manifest),
		Digest:   rp.Digest.String(),
	}
	if len(rp.Renaming) > 0 {
		dto.Renaming = lo.MapValues(rp.Renaming, func(r domain.Renaming, _ string) renamingDTO {
			return renamingDTO{From: r.From.String(), Value: r.Value}
		})
	}
	if len(rp.ResolvedTable) > 0 {
		dto.Addresses = make(map[string]*string, len(rp.ResolvedTable))
		for addr, v := range rp.ResolvedTable {
			if v.Assigned {
				value := v.Value
				dto.Addresses[addr] = &value
			} else {
				dto.Addresses[addr] = nil
			}
		}
	}
	return dto
}

func decode(data []byte, path string) (*domain.Lockfile, error) {
	fail := func(msg string, kv ...string) error {
		err := zerr.With(domain.ErrLockCorrupt, "path", path)
		err = zerr.With(err, "cause", msg)
		for i := 0; i+1 < len(kv); i += 2 {
			err = zerr.With(err, kv[i], kv[i+1])
		}
		return err
	}

	var dto lockDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fail("undecodable yaml: " + err.Error())
	}
	if dto.Version != domain.LockVersion {
		return nil, fail("unsupported schema version", "version", strconv.Itoa(dto.Version))
	}
	if dto.Root == "" {
		return nil, fail("root package missing")
	}

	root := domain.NewInternedString(dto.Root)
	graph := domain.NewPackageGraph()
	if err := graph.AddNode(root); err != nil {
		return nil, fail(err.Error())
	}
	records := make(map[domain.InternedString]*domain.ResolvedPackage, len(dto.Packages)+1)
	rootRP, err := recordFromDTO(dto.RootRecord, dto.Root, path)
	if err != nil {
		return nil, fail("invalid root record: "+err.Error(), "package", dto.Root)
	}
	records[root] = rootRP

	packages := make(map[domain.InternedString]domain.Package, len(dto.Packages))
	for _, p := range dto.Packages {
		if p.Name == "" {
			return nil, fail("package entry without a name")
		}
		if p.Name == dto.Root {
			return nil, fail("root listed in the package table", "package", p.Name)
		}
		name := domain.NewInternedString(p.Name)
		if err := graph.AddNode(name); err != nil {
			return nil, fail("duplicate package entry", "package", p.Name)
		}
		src, err := sourceFromDTO(p)
		if err != nil {
			return nil, fail("invalid package source: "+err.Error(), "package", p.Name)
		}
		rp, err := recordFromDTO(p.recordDTO, p.Name, path)
		if err != nil {
			return nil, fail("invalid resolution record: "+err.Error(), "package", p.Name)
		}
		packages[name] = domain.Package{
			Source:    src,
			Version:   p.Version,
			Resolver:  intern(p.Resolver),
			DigestPin: domain.Digest(p.DigestPin),
		}
		records[name] = rp
	}
	for _, e := range dto.Edges {
		err := graph.AddEdge(domain.NewInternedString(e.From), domain.NewInternedString(e.To), e.Dev)
		if err != nil {
			return nil, fail("invalid edge: "+err.Error(), "from", e.From, "to", e.To)
		}
	}
	always := make(map[domain.InternedString]struct{}, len(dto.Always))
	for _, n := range dto.Always {
		name := domain.NewInternedString(n)
		if !graph.Contains(name) {
			return nil, fail("always entry not in the graph", "package", n)
		}
		always[name] = struct{}{}
	}

	rg := &domain.ResolvedGraph{
		// The artifact is location-relative, the root directory is wherever
		// it was read from.
		RootPath:         filepath.Dir(path),
		Root:             root,
		Graph:            graph,
		Packages:         packages,
		ResolvedPackages: records,
		AlwaysDeps:       always,
		ManifestDigest:   domain.Digest(dto.TreeManifests),
		DepsDigest:       domain.Digest(dto.TreeStructure),
		BuildOptions:     optionsFromDTO(dto.Options),
	}
	if err := rg.Validate(); err != nil {
		return nil, fail(err.Error())
	}

	return &domain.Lockfile{
		Version:        dto.Version,
		ManifestDigest: domain.Digest(dto.ManifestDigest),
		DepsDigest:     domain.Digest(dto.DepsDigest),
		Graph:          rg,
	}, nil
}

func recordFromDTO(dto recordDTO, name, path string) (*domain.ResolvedPackage, error) {
	m, err := manifest.ManifestFromDTO(dto.Manifest, path)
	if err != nil {
		return nil, err
	}
	if m.Package.Name.String() != name {
		return nil, zerr.With(
			zerr.New("record manifest names a different package"),
			"manifest", m.Package.Name.String())
	}
	rp := &domain.ResolvedPackage{
		Manifest: m,
		Digest:   domain.Digest(dto.Digest),
	}
	if len(dto.Renaming) > 0 {
		rp.Renaming = lo.MapValues(dto.Renaming, func(r renamingDTO, _ string) domain.Renaming {
			return domain.Renaming{From: domain.NewInternedString(r.From), Value: r.Value}
		})
	}
	if len(dto.Addresses) > 0 {
		rp.ResolvedTable = make(map[string]domain.AddressValue, len(dto.Addresses))
		for addr, v := range dto.Addresses {
			if v == nil {
				rp.ResolvedTable[addr] = domain.UnassignedAddr()
			} else {
				rp.ResolvedTable[addr] = domain.Addr(*v)
			}
		}
	}
	return rp, nil
}

func sourceFromDTO(p packageDTO) (domain.PackageSource, error) {
	var src domain.PackageSource
	switch {
	case p.Local != "" && p.Git != "":
		return domain.PackageSource{}, zerr.New("both local and git set")
	case p.Local != "":
		src = domain.PackageSource{Kind: domain.SourceLocal, Path: p.Local, Revision: p.Rev, Subpath: p.Subdir}
	case p.Git != "":
		src = domain.PackageSource{Kind: domain.SourceGit, Repo: p.Git, Revision: p.Rev, Subpath: p.Subdir}
	default:
		return domain.PackageSource{}, zerr.New("neither local nor git set")
	}
	if err := src.Validate(); err != nil {
		return domain.PackageSource{}, err
	}
	return src, nil
}

// intern keeps absent values at the interned zero so entries compare equal
// across a serialization round trip.
func intern(s string) domain.InternedString {
	if s == "" {
		return domain.InternedString{}
	}
	return domain.NewInternedString(s)
}

func optionsToDTO(c domain.BuildConfig) optionsDTO {
	return optionsDTO{
		Dev:        c.DevMode,
		Test:       c.TestMode,
		Docs:       c.GenerateDocs,
		ABIs:       c.GenerateABIs,
		DepsAsRoot: c.DepsAsRoot,
		Edition:    c.DefaultEdition,
		Flavor:     c.DefaultFlavor,
		Addresses:  c.AdditionalNamedAddresses,
		Warnings:   string(c.Warnings),
	}
}

func optionsFromDTO(o optionsDTO) domain.BuildConfig {
	return domain.BuildConfig{
		DevMode:                  o.Dev,
		TestMode:                 o.Test,
		GenerateDocs:             o.Docs,
		GenerateABIs:             o.ABIs,
		DepsAsRoot:               o.DepsAsRoot,
		DefaultEdition:           o.Edition,
		DefaultFlavor:            o.Flavor,
		AdditionalNamedAddresses: o.Addresses,
		Warnings:                 domain.WarningPolicy(o.Warnings),
	}
}
