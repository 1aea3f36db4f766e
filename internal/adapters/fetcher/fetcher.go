// Package fetcher materializes dependency sources on local disk.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.heddle.dev/heddle/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fetcher = (*Fetcher)(nil)

// Fetcher implements ports.Fetcher. Local sources resolve against the
// declaring package, git sources materialize into a shared cache directory
// keyed by repository and revision.
type Fetcher struct {
	cacheDir   string
	skipLatest bool
	log        ports.Logger
}

// New creates a new Fetcher. cacheDir is the root of the shared git cache.
// skipLatest reuses existing checkouts without contacting the remote.
func New(cacheDir string, skipLatest bool, log ports.Logger) *Fetcher {
	return &Fetcher{
		cacheDir:   cacheDir,
		skipLatest: skipLatest,
		log:        log,
	}
}

// DefaultCacheDir returns the per-user cache root for git checkouts.
func DefaultCacheDir() string {
	if dir := os.Getenv("HEDDLE_CACHE"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "heddle")
	}
	return filepath.Join(base, "heddle")
}

// Fetch ensures the source of dep is present on disk and returns the
// absolute directory containing its manifest.
func (f *Fetcher) Fetch(ctx context.Context, dep domain.Dependency, baseDir string) (string, error) {
	switch dep.Source.Kind {
	case domain.SourceLocal:
		return f.fetchLocal(dep, baseDir)
	case domain.SourceGit:
		return f.fetchGit(ctx, dep)
	default:
		err := zerr.With(domain.ErrFetch, "dependency", dep.Name.String())
		return "", zerr.With(err, "cause", fmt.Sprintf("source kind %q cannot be fetched directly", dep.Source.Kind))
	}
}

func (f *Fetcher) fetchLocal(dep domain.Dependency, baseDir string) (string, error) {
	dir := dep.Source.Path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		ferr := zerr.With(domain.ErrFetch, "dependency", dep.Name.String())
		ferr = zerr.With(ferr, "path", dir)
		return "", zerr.With(ferr, "cause", "local source directory does not exist")
	}
	return dir, nil
}

// CheckoutDir derives the cache directory for a repository at a revision.
// The readable prefix helps debugging, the hash carries the uniqueness.
func (f *Fetcher) CheckoutDir(repo, rev string) string {
	base := path.Base(strings.TrimSuffix(repo, ".git"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, base)
	sum := xxhash.Sum64String(repo + "\x00" + rev)
	return filepath.Join(f.cacheDir, "git", fmt.Sprintf("%s_%016x", clean, sum))
}
