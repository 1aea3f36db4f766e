package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.trai.ch/zerr"
)

func (f *Fetcher) fetchGit(ctx context.Context, dep domain.Dependency) (string, error) {
	src := dep.Source
	dir := f.CheckoutDir(src.Repo, src.Revision)

	if _, err := os.Stat(dir); err == nil {
		if f.skipLatest {
			f.log.Debug(fmt.Sprintf("reusing checkout of %s@%s", src.Repo, src.Revision))
			return f.subdir(dep, dir)
		}
		if err := f.refreshCheckout(ctx, dir, src.Revision); err != nil {
			return "", fetchErr(dep, err)
		}
		return f.subdir(dep, dir)
	}

	f.log.Info(fmt.Sprintf("fetching %s@%s", src.Repo, src.Revision))
	if err := f.clone(ctx, dir, src.Repo, src.Revision); err != nil {
		// A half-materialized checkout must not poison later runs.
		_ = os.RemoveAll(dir)
		return "", fetchErr(dep, err)
	}
	return f.subdir(dep, dir)
}

func (f *Fetcher) clone(ctx context.Context, dir, repoURL, rev string) error {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        repoURL,
		NoCheckout: true,
		Tags:       git.AllTags,
	})
	if err != nil {
		return zerr.Wrap(err, "clone failed")
	}
	return checkout(repo, rev)
}

// refreshCheckout updates an existing checkout to the latest state of its
// revision. Remote failures degrade to a warning so offline builds keep
// working against the cached state.
func (f *Fetcher) refreshCheckout(ctx context.Context, dir, rev string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cached checkout is not a git repository"), "path", dir)
	}

	fetchOpts := &git.FetchOptions{Force: true, Tags: git.AllTags}
	if err := repo.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.Warn(fmt.Sprintf("could not refresh %s, using cached state: %v", dir, err))
		return nil
	}
	return checkout(repo, rev)
}

func checkout(repo *git.Repository, rev string) error {
	hash, err := resolveRevision(repo, rev)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return zerr.Wrap(err, "worktree unavailable")
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return zerr.With(zerr.Wrap(err, "checkout failed"), "revision", rev)
	}
	return nil
}

// resolveRevision handles tags, commit hashes and branch names. Branch names
// of a fresh clone live under the remote prefix, so that form is tried last.
func resolveRevision(repo *git.Repository, rev string) (*plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err == nil {
		return hash, nil
	}
	hash, remoteErr := repo.ResolveRevision(plumbing.Revision("origin/" + rev))
	if remoteErr == nil {
		return hash, nil
	}
	return nil, zerr.With(zerr.Wrap(err, "revision not found"), "revision", rev)
}

func (f *Fetcher) subdir(dep domain.Dependency, dir string) (string, error) {
	if dep.Source.Subpath == "" {
		return dir, nil
	}
	sub := filepath.Join(dir, filepath.FromSlash(dep.Source.Subpath))
	info, err := os.Stat(sub)
	if err != nil || !info.IsDir() {
		ferr := zerr.With(domain.ErrFetch, "dependency", dep.Name.String())
		ferr = zerr.With(ferr, "path", sub)
		return "", zerr.With(ferr, "cause", "subpath does not exist in checkout")
	}
	return sub, nil
}

func fetchErr(dep domain.Dependency, cause error) error {
	err := zerr.With(domain.ErrFetch, "dependency", dep.Name.String())
	err = zerr.With(err, "repo", dep.Source.Repo)
	err = zerr.With(err, "revision", dep.Source.Revision)
	return zerr.With(err, "cause", cause.Error())
}
