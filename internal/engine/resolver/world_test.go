package resolver_test

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.heddle.dev/heddle/internal/adapters/digest"
	"go.heddle.dev/heddle/internal/adapters/telemetry"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports/mocks"
	"go.heddle.dev/heddle/internal/engine/resolver"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const rootDir = "/work/app"

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

// world wires a Resolver against an in-memory package universe: the fetcher
// maps sources to fake directories and the loader serves manifests from a
// map keyed by directory. Digests are real.
type world struct {
	loader    *mocks.MockManifestLoader
	fetcher   *mocks.MockFetcher
	bridge    *mocks.MockExternalResolver
	log       *memLogger
	manifests map[string]*domain.SourceManifest
	r         *resolver.Resolver
}

func newWorld(t *testing.T) *world {
	ctrl := gomock.NewController(t)
	w := &world{
		loader:    mocks.NewMockManifestLoader(ctrl),
		fetcher:   mocks.NewMockFetcher(ctrl),
		bridge:    mocks.NewMockExternalResolver(ctrl),
		log:       &memLogger{},
		manifests: make(map[string]*domain.SourceManifest),
	}
	w.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(w.fetch).AnyTimes()
	w.loader.EXPECT().Load(gomock.Any()).DoAndReturn(w.load).AnyTimes()
	w.r = resolver.New(w.loader, w.fetcher, w.bridge, digest.NewDigester(), telemetry.NewNoOpTracer(), w.log)
	return w
}

func (w *world) fetch(_ context.Context, dep domain.Dependency, baseDir string) (string, error) {
	switch dep.Source.Kind {
	case domain.SourceLocal:
		p := dep.Source.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		return filepath.Clean(p), nil
	case domain.SourceGit:
		dir := "/fake/git/" + path.Base(strings.TrimSuffix(dep.Source.Repo, ".git")) + "@" + dep.Source.Revision
		if dep.Source.Subpath != "" {
			dir += "/" + dep.Source.Subpath
		}
		return dir, nil
	default:
		return "", zerr.With(domain.ErrFetch, "dependency", dep.Name.String())
	}
}

func (w *world) load(dir string) (*domain.SourceManifest, error) {
	m, ok := w.manifests[dir]
	if !ok {
		err := zerr.With(domain.ErrManifestParse, "path", dir)
		return nil, zerr.With(err, "cause", "no manifest here")
	}
	// The engine owns what it loads, hand out copies.
	return m.Clone(), nil
}

func (w *world) put(dir string, m *domain.SourceManifest) *domain.SourceManifest {
	w.manifests[dir] = m
	return m
}

func (w *world) resolve(t *testing.T, root *domain.SourceManifest, cfg domain.BuildConfig) (*domain.ResolvedGraph, error) {
	t.Helper()
	return w.r.Resolve(context.Background(), rootDir, root, cfg)
}

// pkg builds a manifest the way the loader materializes one: empty maps, not
// nil, and dev declarations split by their flag.
func pkg(pkgName string, deps ...domain.Dependency) *domain.SourceManifest {
	m := &domain.SourceManifest{
		Package:         domain.PackageMeta{Name: name(pkgName), Version: "1.0.0"},
		Addresses:       map[string]domain.AddressValue{},
		DevAddresses:    map[string]string{},
		Dependencies:    map[domain.InternedString]domain.Dependency{},
		DevDependencies: map[domain.InternedString]domain.Dependency{},
	}
	for _, d := range deps {
		if d.DevOnly {
			m.DevDependencies[d.Name] = d
		} else {
			m.Dependencies[d.Name] = d
		}
	}
	return m
}

func localDep(depName, p string) domain.Dependency {
	return domain.Dependency{Name: name(depName), Source: domain.LocalSource(p)}
}

func gitDep(depName, repo, rev, sub string) domain.Dependency {
	return domain.Dependency{Name: name(depName), Source: domain.GitSource(repo, rev, sub)}
}

func extDep(depName, resolverName string) domain.Dependency {
	return domain.Dependency{Name: name(depName), Source: domain.ExternalSource(resolverName)}
}

func devDep(d domain.Dependency) domain.Dependency {
	d.DevOnly = true
	return d
}

func override(d domain.Dependency) domain.Dependency {
	d.Override = true
	return d
}

func withSubst(d domain.Dependency, kv ...string) domain.Dependency {
	d.AddrSubst = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		d.AddrSubst[kv[i]] = kv[i+1]
	}
	return d
}

func meta(t *testing.T, err error) map[string]any {
	t.Helper()
	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	return zErr.Metadata()
}
