package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

// SourceKind discriminates the finite set of places package code can come from.
type SourceKind string

const (
	// SourceLocal is a directory relative to the declaring package.
	SourceLocal SourceKind = "local"
	// SourceGit is a repository pinned to an exact revision.
	SourceGit SourceKind = "git"
	// SourceExternal delegates resolution to a named external resolver binary.
	SourceExternal SourceKind = "external"
)

// PackageSource identifies where a package's code comes from. Exactly the
// fields of the active Kind are set; the rest stay zero.
type PackageSource struct {
	Kind SourceKind

	// Path is the directory of a local source, relative to the declaring
	// package unless already absolute.
	Path string

	// Repo, Revision and Subpath describe a git source. Revision is an exact
	// commit, tag or branch name, never a range.
	Repo     string
	Revision string
	Subpath  string

	// Resolver names the external resolver binary for external sources.
	Resolver string
}

// LocalSource returns a source rooted at a local directory.
func LocalSource(path string) PackageSource {
	return PackageSource{Kind: SourceLocal, Path: path}
}

// GitSource returns a source pinned to a revision of a repository.
func GitSource(repo, revision, subpath string) PackageSource {
	return PackageSource{Kind: SourceGit, Repo: repo, Revision: revision, Subpath: subpath}
}

// ExternalSource returns a source delegated to an external resolver.
func ExternalSource(resolver string) PackageSource {
	return PackageSource{Kind: SourceExternal, Resolver: resolver}
}

// Validate checks that the active kind carries its required fields and no
// foreign ones.
func (s PackageSource) Validate() error {
	switch s.Kind {
	case SourceLocal:
		if s.Path == "" {
			return zerr.New("local source requires a path")
		}
		if s.Repo != "" || s.Revision != "" || s.Subpath != "" || s.Resolver != "" {
			return zerr.With(zerr.New("local source carries foreign fields"), "source", s.String())
		}
	case SourceGit:
		if s.Repo == "" {
			return zerr.New("git source requires a repository")
		}
		if s.Revision == "" {
			return zerr.With(zerr.New("git source requires an exact revision"), "repo", s.Repo)
		}
		if s.Path != "" || s.Resolver != "" {
			return zerr.With(zerr.New("git source carries foreign fields"), "source", s.String())
		}
	case SourceExternal:
		if s.Resolver == "" {
			return zerr.New("external source requires a resolver name")
		}
		if s.Path != "" || s.Repo != "" || s.Revision != "" || s.Subpath != "" {
			return zerr.With(zerr.New("external source carries foreign fields"), "source", s.String())
		}
	default:
		return zerr.With(zerr.New("unknown source kind"), "kind", string(s.Kind))
	}
	return nil
}

// String renders the source for error messages and logs.
func (s PackageSource) String() string {
	switch s.Kind {
	case SourceLocal:
		return fmt.Sprintf("local %s", s.Path)
	case SourceGit:
		if s.Subpath != "" {
			return fmt.Sprintf("git %s@%s/%s", s.Repo, s.Revision, s.Subpath)
		}
		return fmt.Sprintf("git %s@%s", s.Repo, s.Revision)
	case SourceExternal:
		return fmt.Sprintf("external %s", s.Resolver)
	default:
		return string(s.Kind)
	}
}
