package app_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.heddle.dev/heddle/internal/adapters/digest"
	"go.heddle.dev/heddle/internal/adapters/telemetry"
	"go.heddle.dev/heddle/internal/app"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports/mocks"
	"go.heddle.dev/heddle/internal/engine/resolver"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const rootDir = "/work/app"
const lockPath = "/work/app/heddle.lock"

func name(s string) domain.InternedString {
	return domain.NewInternedString(s)
}

type memLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *memLogger) Debug(string) {}
func (l *memLogger) Info(string)  {}
func (l *memLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *memLogger) Error(error) {}

func (l *memLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

// fixture wires a real resolver and digester behind mocked I/O ports. Any
// fetch, delegate or lock access without an expectation fails the test, which
// is exactly what the cache short-circuit promises.
type fixture struct {
	loader  *mocks.MockManifestLoader
	store   *mocks.MockLockStore
	fetcher *mocks.MockFetcher
	bridge  *mocks.MockExternalResolver
	log     *memLogger
	a       *app.App
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		loader:  mocks.NewMockManifestLoader(ctrl),
		store:   mocks.NewMockLockStore(ctrl),
		fetcher: mocks.NewMockFetcher(ctrl),
		bridge:  mocks.NewMockExternalResolver(ctrl),
		log:     &memLogger{},
	}
	d := digest.NewDigester()
	tracer := telemetry.NewNoOpTracer()
	res := resolver.New(f.loader, f.fetcher, f.bridge, d, tracer, f.log)
	f.a = app.New(f.loader, f.store, d, f.fetcher, res, tracer, f.log)
	return f
}

func rootManifest() *domain.SourceManifest {
	return &domain.SourceManifest{
		Package:         domain.PackageMeta{Name: name("Example"), Version: "1.0.0"},
		Addresses:       map[string]domain.AddressValue{},
		DevAddresses:    map[string]string{},
		Dependencies:    map[domain.InternedString]domain.Dependency{},
		DevDependencies: map[domain.InternedString]domain.Dependency{},
	}
}

// lockedGraph builds the resolution result a previous run would have locked:
// the root plus one git dependency, paths stripped.
func lockedGraph(m *domain.SourceManifest, cfg domain.BuildConfig) *domain.ResolvedGraph {
	d := digest.NewDigester()
	g := domain.NewPackageGraph()
	_ = g.AddNode(name("Example"))
	_ = g.AddNode(name("Core"))
	_ = g.AddEdge(name("Example"), name("Core"), false)

	coreManifest := &domain.SourceManifest{
		Package:         domain.PackageMeta{Name: name("Core"), Version: "2.0.0"},
		Addresses:       map[string]domain.AddressValue{},
		DevAddresses:    map[string]string{},
		Dependencies:    map[domain.InternedString]domain.Dependency{},
		DevDependencies: map[domain.InternedString]domain.Dependency{},
	}
	rg := &domain.ResolvedGraph{
		Root:  name("Example"),
		Graph: g,
		Packages: map[domain.InternedString]domain.Package{
			name("Core"): {Source: domain.GitSource("https://example.com/core.git", "v1", "")},
		},
		ResolvedPackages: map[domain.InternedString]*domain.ResolvedPackage{
			name("Example"): {Manifest: m, Digest: d.ManifestDigest(m)},
			name("Core"):    {Manifest: coreManifest, Digest: d.ManifestDigest(coreManifest)},
		},
		AlwaysDeps: map[domain.InternedString]struct{}{
			name("Example"): {},
			name("Core"):    {},
		},
		BuildOptions: cfg.Clone(),
	}
	rg.ManifestDigest, rg.DepsDigest = d.TreeDigests(rg)
	return rg
}

func freshLock(m *domain.SourceManifest, rg *domain.ResolvedGraph) *domain.Lockfile {
	d := digest.NewDigester()
	return &domain.Lockfile{
		Version:        domain.LockVersion,
		ManifestDigest: d.ManifestDigest(m),
		DepsDigest:     d.DependencyDigest(m.DeclaredDeps(true)),
		Graph:          rg,
	}
}

func TestApp_Resolve_CacheHit(t *testing.T) {
	f := newFixture(t)
	m := rootManifest()
	lock := freshLock(m, lockedGraph(m, domain.BuildConfig{}))

	f.loader.EXPECT().Load(rootDir).Return(m, nil)
	f.store.EXPECT().Read(lockPath).Return(lock, nil)

	rg, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{})
	require.NoError(t, err)

	// The stored graph comes back as-is, with the machine-local root path
	// filled in. No fetch, no delegation, no rewrite of the artifact.
	assert.Same(t, lock.Graph, rg)
	assert.Equal(t, rootDir, rg.RootPath)
	rec, err := rg.Package(name("Example"))
	require.NoError(t, err)
	assert.Equal(t, rootDir, rec.PackagePath)
	assert.Empty(t, f.log.warnings())
}

func TestApp_Resolve_StaleLockReresolves(t *testing.T) {
	f := newFixture(t)
	m := rootManifest()
	lock := freshLock(m, lockedGraph(m, domain.BuildConfig{}))
	lock.ManifestDigest = domain.Digest("0000000000000000")

	f.loader.EXPECT().Load(rootDir).Return(m, nil)
	f.store.EXPECT().Read(lockPath).Return(lock, nil)

	var written *domain.Lockfile
	f.store.EXPECT().Write(lockPath, gomock.Any()).DoAndReturn(
		func(_ string, l *domain.Lockfile) error {
			written = l
			return nil
		})

	rg, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{})
	require.NoError(t, err)

	assert.Equal(t, []domain.InternedString{name("Example")}, rg.Graph.Nodes())
	require.NotNil(t, written)
	assert.Same(t, rg, written.Graph)
	assert.Equal(t, domain.LockVersion, written.Version)
	d := digest.NewDigester()
	assert.Equal(t, d.ManifestDigest(m), written.ManifestDigest)
	assert.Equal(t, d.DependencyDigest(m.DeclaredDeps(true)), written.DepsDigest)
}

func TestApp_Resolve_ForceSkipsTheArtifact(t *testing.T) {
	f := newFixture(t)
	m := rootManifest()

	// No Read expectation: forcing never consults the artifact.
	f.loader.EXPECT().Load(rootDir).Return(m, nil)
	f.store.EXPECT().Write(lockPath, gomock.Any()).Return(nil)

	_, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{ForceRecompilation: true})
	require.NoError(t, err)
}

func TestApp_Resolve_IncompatibleOptionsMiss(t *testing.T) {
	f := newFixture(t)
	m := rootManifest()
	lock := freshLock(m, lockedGraph(m, domain.BuildConfig{DevMode: true}))

	f.loader.EXPECT().Load(rootDir).Return(m, nil)
	f.store.EXPECT().Read(lockPath).Return(lock, nil)
	f.store.EXPECT().Write(lockPath, gomock.Any()).Return(nil)

	rg, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{})
	require.NoError(t, err)
	// A lock resolved in dev mode cannot serve a plain build.
	assert.NotSame(t, lock.Graph, rg)
}

func TestApp_Resolve_CorruptLockReresolves(t *testing.T) {
	f := newFixture(t)
	m := rootManifest()

	f.loader.EXPECT().Load(rootDir).Return(m, nil)
	f.store.EXPECT().Read(lockPath).Return(nil, zerr.With(domain.ErrLockCorrupt, "path", lockPath))
	f.store.EXPECT().Write(lockPath, gomock.Any()).Return(nil)

	_, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{})
	require.NoError(t, err)

	warns := f.log.warnings()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "ignoring unreadable lock artifact")
}

func TestApp_Resolve_FetchDepsOnly(t *testing.T) {
	t.Run("cache miss skips the lock write", func(t *testing.T) {
		f := newFixture(t)
		m := rootManifest()

		f.loader.EXPECT().Load(rootDir).Return(m, nil)
		f.store.EXPECT().Read(lockPath).Return(nil, nil)
		// No Write expectation: fetch-only runs leave the artifact alone.

		rg, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{FetchDepsOnly: true})
		require.NoError(t, err)
		rec, err := rg.Package(name("Example"))
		require.NoError(t, err)
		assert.Nil(t, rec.ResolvedTable)
	})

	t.Run("cache hit materializes the sources", func(t *testing.T) {
		f := newFixture(t)
		m := rootManifest()
		lock := freshLock(m, lockedGraph(m, domain.BuildConfig{}))

		f.loader.EXPECT().Load(rootDir).Return(m, nil)
		f.store.EXPECT().Read(lockPath).Return(lock, nil)
		f.fetcher.EXPECT().
			Fetch(gomock.Any(), gomock.Any(), rootDir).
			DoAndReturn(func(_ context.Context, dep domain.Dependency, _ string) (string, error) {
				assert.Equal(t, name("Core"), dep.Name)
				return "/fake/git/core@v1", nil
			})

		rg, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{FetchDepsOnly: true})
		require.NoError(t, err)

		assert.Same(t, lock.Graph, rg)
		rec, err := rg.Package(name("Core"))
		require.NoError(t, err)
		assert.Equal(t, "/fake/git/core@v1", rec.PackagePath)
	})
}

func TestApp_Resolve_LockWriteFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	m := rootManifest()

	f.loader.EXPECT().Load(rootDir).Return(m, nil)
	f.store.EXPECT().Read(lockPath).Return(nil, nil)
	f.store.EXPECT().Write(lockPath, gomock.Any()).Return(zerr.New("disk full"))

	rg, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{})
	require.NoError(t, err)
	assert.NotNil(t, rg)

	warns := f.log.warnings()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "persisting lock artifact")
}

func TestApp_Resolve_CustomLockPath(t *testing.T) {
	f := newFixture(t)
	m := rootManifest()
	custom := "/elsewhere/pinned.lock"

	f.loader.EXPECT().Load(rootDir).Return(m, nil)
	f.store.EXPECT().Read(custom).Return(nil, nil)
	f.store.EXPECT().Write(custom, gomock.Any()).Return(nil)

	_, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{LockFile: custom})
	require.NoError(t, err)
}

func TestApp_Resolve_LoaderErrorPropagates(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load(rootDir).Return(nil, zerr.With(domain.ErrManifestParse, "path", rootDir))

	_, err := f.a.Resolve(context.Background(), rootDir, domain.BuildConfig{})
	require.ErrorIs(t, err, domain.ErrManifestParse)
}
